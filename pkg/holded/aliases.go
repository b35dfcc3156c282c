package holded

import "strings"

// FieldAccessor reads one candidate field from a Holded record.
type FieldAccessor func(record map[string]interface{}) string

// IBANAliases lists every field name Holded has been seen to use for bank
// account details, in lookup priority order.
var IBANAliases = []string{
	"iban",
	"bankAccount",
	"bank_account",
	"accountNumber",
	"account_number",
	"bankDetails",
	"bank_details",
	"paymentInfo",
	"payment_info",
}

// InvoiceNumberAliases lists the document number fields in priority order.
var InvoiceNumberAliases = []string{"docNumber", "num", "number"}

// FieldChain builds an ordered accessor chain over the given field names.
func FieldChain(fields ...string) []FieldAccessor {
	chain := make([]FieldAccessor, 0, len(fields))
	for _, field := range fields {
		chain = append(chain, fieldAccessor(field))
	}
	return chain
}

// FirstNonEmpty runs the accessors in order and returns the first non-empty value.
func FirstNonEmpty(record map[string]interface{}, chain []FieldAccessor) string {
	if record == nil {
		return ""
	}
	for _, accessor := range chain {
		if v := accessor(record); v != "" {
			return v
		}
	}
	return ""
}

var (
	ibanChain          = FieldChain(IBANAliases...)
	invoiceNumberChain = FieldChain(InvoiceNumberAliases...)
)

// ResolveIBAN returns the first non-empty bank account found on record.
func ResolveIBAN(record map[string]interface{}) string {
	return FirstNonEmpty(record, ibanChain)
}

// ResolveInvoiceNumber returns the document number of a purchase.
func ResolveInvoiceNumber(record map[string]interface{}) string {
	return FirstNonEmpty(record, invoiceNumberChain)
}

func fieldAccessor(field string) FieldAccessor {
	return func(record map[string]interface{}) string {
		switch v := record[field].(type) {
		case map[string]interface{}:
			// bankDetails and paymentInfo are sometimes objects wrapping the iban.
			for _, nested := range []string{"iban", "IBAN", "accountNumber"} {
				if s := getString(v[nested]); s != "" {
					return s
				}
			}
			return ""
		case Contact:
			for _, alias := range IBANAliases {
				if s := fieldAccessor(alias)(v); s != "" {
					return s
				}
			}
			return ""
		default:
			return strings.TrimSpace(getString(v))
		}
	}
}
