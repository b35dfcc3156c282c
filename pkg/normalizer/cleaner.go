package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/solucions-socials/platform/pkg/common/logger"
	"github.com/solucions-socials/platform/pkg/invoices"
)

var (
	numericFields = []string{"subtotal", "vat", "retention", "employees", "equipment_recovery", "total", "pending"}
	dateFields    = []string{"issue_date", "accounting_date", "due_date", "payment_date"}

	leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ValidateAndCleanInvoiceData is the last step before an invoice is
// persisted. Numbers that cannot be parsed become 0, text is trimmed,
// unparseable dates become NULL and are logged.
func ValidateAndCleanInvoiceData(record map[string]interface{}) invoices.Invoice {
	inv := invoices.Invoice{
		InvoiceNumber:   cleanText(record["invoice_number"]),
		InternalNumber:  cleanText(record["internal_number"]),
		Provider:        cleanText(record["provider"]),
		Description:     cleanText(record["description"]),
		Tags:            cleanText(record["tags"]),
		Account:         cleanText(record["account"]),
		Project:         cleanText(record["project"]),
		Status:          cleanText(record["status"]),
		HoldedContactID: cleanText(record["holded_contact_id"]),
		IBAN:            cleanText(record["iban"]),
		DocumentType:    cleanText(record["document_type"]),
		Paid:            truthy(record["paid"]),
	}

	if id := cleanText(record["holded_id"]); id != "" {
		inv.HoldedID = &id
	}

	amounts := make(map[string]decimal.Decimal, len(numericFields))
	for _, field := range numericFields {
		amounts[field] = parseAmount(record[field])
	}
	inv.Subtotal = amounts["subtotal"]
	inv.VAT = amounts["vat"]
	inv.Retention = amounts["retention"]
	inv.Employees = amounts["employees"]
	inv.EquipmentRecovery = amounts["equipment_recovery"]
	inv.Total = amounts["total"]
	inv.Pending = amounts["pending"]

	for _, field := range dateFields {
		t, ok := parseDateField(record[field])
		if !ok {
			logger.Log.WithFields(map[string]interface{}{
				"field":     field,
				"value":     fmt.Sprint(record[field]),
				"holded_id": inv.HoldedKey(),
			}).Warn("invalid date, storing null")
		}
		switch field {
		case "issue_date":
			inv.IssueDate = t
		case "accounting_date":
			inv.AccountingDate = t
		case "due_date":
			inv.DueDate = t
		case "payment_date":
			inv.PaymentDate = t
		}
	}

	return inv
}

// parseAmount reads the leading number of value, the way a lenient float
// parser does: "12.5 EUR" is 12.5, "abc" is 0.
func parseAmount(value interface{}) decimal.Decimal {
	var d decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case json.Number:
		d = fromText(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case string:
		d = fromText(v)
	default:
		return decimal.Zero
	}
	return d.Round(2)
}

func fromText(s string) decimal.Decimal {
	match := leadingNumber.FindString(strings.TrimSpace(s))
	if match == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func cleanText(value interface{}) string {
	if !truthy(value) {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case float64:
		return v != 0 && !math.IsNaN(v)
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}
