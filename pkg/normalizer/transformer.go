package normalizer

import (
	"strings"

	"github.com/solucions-socials/platform/pkg/holded"
	"github.com/solucions-socials/platform/pkg/invoices"
)

var (
	internalNumberChain    = holded.FieldChain("internalNumber", "num")
	accountingDateChain    = []string{"accountingDate", "date"}
	descriptionChain       = holded.FieldChain("desc", "description", "notes")
	vatChain               = []string{"tax", "vat"}
	equipmentRecoveryChain = []string{"equipmentRecovery", "equipment_recovery"}
	pendingChain           = []string{"pending", "paymentsPending"}
)

type Transformer struct {
	classifier *Classifier
}

func NewTransformer(classifier *Classifier) *Transformer {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Transformer{classifier: classifier}
}

// Transform maps a Holded purchase onto a cleaned invoice row. The row has no
// id or upload id yet.
func (t *Transformer) Transform(p holded.Purchase) invoices.Invoice {
	return ValidateAndCleanInvoiceData(t.BuildRecord(p))
}

// BuildRecord produces the raw column map of a purchase before cleaning.
func (t *Transformer) BuildRecord(p holded.Purchase) map[string]interface{} {
	contact := p.Contact()
	provider := p.ContactName()
	tags := p.Tags()
	channel := t.classifier.Classify(provider, tags)

	iban := contact.IBAN()
	if iban == "" {
		iban = holded.ResolveIBAN(p)
	}

	return map[string]interface{}{
		"holded_id":          p.ID(),
		"invoice_number":     holded.ResolveInvoiceNumber(p),
		"internal_number":    holded.FirstNonEmpty(p, internalNumberChain),
		"issue_date":         convertedOrNil(p["date"]),
		"accounting_date":    convertedOrNil(firstPresent(p, accountingDateChain)),
		"due_date":           convertedOrNil(p.DueDate()),
		"payment_date":       convertedOrNil(p["paymentDate"]),
		"provider":           provider,
		"description":        holded.FirstNonEmpty(p, descriptionChain),
		"tags":               strings.Join(tags, ", "),
		"account":            channel,
		"project":            channel,
		"subtotal":           p["subtotal"],
		"vat":                firstPresent(p, vatChain),
		"retention":          p["retention"],
		"employees":          p["employees"],
		"equipment_recovery": firstPresent(p, equipmentRecoveryChain),
		"total":              p["total"],
		"pending":            firstPresent(p, pendingChain),
		"paid":               p["paid"],
		"status":             StatusName(p.StatusCode()),
		"holded_contact_id":  contact.ID(),
		"iban":               iban,
		"document_type":      invoices.DocumentTypePurchase,
	}
}

// StatusName maps a Holded status code to the stored status label.
func StatusName(code int) string {
	switch code {
	case holded.StatusDraft:
		return "draft"
	case holded.StatusConfirmed:
		return "confirmed"
	case holded.StatusSpecialPending:
		return "pending"
	default:
		return "other"
	}
}

// firstPresent returns the first value that is set and not an empty string.
func firstPresent(p holded.Purchase, fields []string) interface{} {
	for _, field := range fields {
		v, ok := p[field]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}
