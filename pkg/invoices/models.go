package invoices

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const DocumentTypePurchase = "purchase"

const (
	SyncTypeHoldedAPI = "holded_api"

	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// Invoice is the canonical purchase invoice row. Rows are matched to Holded
// documents through HoldedID and are never deleted by a sync.
type Invoice struct {
	ID                string          `json:"id" gorm:"primaryKey;column:id;type:uuid"`
	HoldedID          *string         `json:"holded_id" gorm:"column:holded_id;uniqueIndex"`
	InvoiceNumber     string          `json:"invoice_number" gorm:"column:invoice_number"`
	InternalNumber    string          `json:"internal_number" gorm:"column:internal_number"`
	IssueDate         *time.Time      `json:"issue_date" gorm:"column:issue_date"`
	AccountingDate    *time.Time      `json:"accounting_date" gorm:"column:accounting_date"`
	DueDate           *time.Time      `json:"due_date" gorm:"column:due_date"`
	Provider          string          `json:"provider" gorm:"column:provider;index"`
	Description       string          `json:"description" gorm:"column:description"`
	Tags              string          `json:"tags" gorm:"column:tags"`
	Account           string          `json:"account" gorm:"column:account"`
	Project           string          `json:"project" gorm:"column:project"`
	Subtotal          decimal.Decimal `json:"subtotal" gorm:"column:subtotal;type:numeric(14,2)"`
	VAT               decimal.Decimal `json:"vat" gorm:"column:vat;type:numeric(14,2)"`
	Retention         decimal.Decimal `json:"retention" gorm:"column:retention;type:numeric(14,2)"`
	Employees         decimal.Decimal `json:"employees" gorm:"column:employees;type:numeric(14,2)"`
	EquipmentRecovery decimal.Decimal `json:"equipment_recovery" gorm:"column:equipment_recovery;type:numeric(14,2)"`
	Total             decimal.Decimal `json:"total" gorm:"column:total;type:numeric(14,2)"`
	Pending           decimal.Decimal `json:"pending" gorm:"column:pending;type:numeric(14,2)"`
	Paid              bool            `json:"paid" gorm:"column:paid"`
	Status            string          `json:"status" gorm:"column:status"`
	PaymentDate       *time.Time      `json:"payment_date" gorm:"column:payment_date"`
	HoldedContactID   string          `json:"holded_contact_id" gorm:"column:holded_contact_id"`
	IBAN              string          `json:"iban" gorm:"column:iban"`
	DocumentType      string          `json:"document_type" gorm:"column:document_type"`
	UploadID          string          `json:"upload_id" gorm:"column:upload_id;type:uuid;index"`
	CreatedAt         time.Time       `json:"created_at" gorm:"column:created_at"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"column:updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// HoldedKey returns the Holded document id, or "" for manually created rows.
func (inv Invoice) HoldedKey() string {
	if inv.HoldedID == nil {
		return ""
	}
	return *inv.HoldedID
}

// SameContent reports whether two invoices carry the same synchronised
// values. Identity, audit and timestamp columns are ignored.
func (inv Invoice) SameContent(other Invoice) bool {
	return inv.HoldedKey() == other.HoldedKey() &&
		inv.InvoiceNumber == other.InvoiceNumber &&
		inv.InternalNumber == other.InternalNumber &&
		sameDay(inv.IssueDate, other.IssueDate) &&
		sameDay(inv.AccountingDate, other.AccountingDate) &&
		sameDay(inv.DueDate, other.DueDate) &&
		inv.Provider == other.Provider &&
		inv.Description == other.Description &&
		inv.Tags == other.Tags &&
		inv.Account == other.Account &&
		inv.Project == other.Project &&
		inv.Subtotal.Equal(other.Subtotal) &&
		inv.VAT.Equal(other.VAT) &&
		inv.Retention.Equal(other.Retention) &&
		inv.Employees.Equal(other.Employees) &&
		inv.EquipmentRecovery.Equal(other.EquipmentRecovery) &&
		inv.Total.Equal(other.Total) &&
		inv.Pending.Equal(other.Pending) &&
		inv.Paid == other.Paid &&
		inv.Status == other.Status &&
		sameDay(inv.PaymentDate, other.PaymentDate) &&
		inv.HoldedContactID == other.HoldedContactID &&
		inv.IBAN == other.IBAN &&
		inv.DocumentType == other.DocumentType
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// MutableColumns lists the column values a sync is allowed to overwrite.
// upload_id is included so an updated row points at the run that last wrote it.
func (inv Invoice) MutableColumns() map[string]interface{} {
	return map[string]interface{}{
		"upload_id":          inv.UploadID,
		"invoice_number":     inv.InvoiceNumber,
		"internal_number":    inv.InternalNumber,
		"issue_date":         inv.IssueDate,
		"accounting_date":    inv.AccountingDate,
		"due_date":           inv.DueDate,
		"provider":           inv.Provider,
		"description":        inv.Description,
		"tags":               inv.Tags,
		"account":            inv.Account,
		"project":            inv.Project,
		"subtotal":           inv.Subtotal,
		"vat":                inv.VAT,
		"retention":          inv.Retention,
		"employees":          inv.Employees,
		"equipment_recovery": inv.EquipmentRecovery,
		"total":              inv.Total,
		"pending":            inv.Pending,
		"paid":               inv.Paid,
		"status":             inv.Status,
		"payment_date":       inv.PaymentDate,
		"holded_contact_id":  inv.HoldedContactID,
		"iban":               inv.IBAN,
		"document_type":      inv.DocumentType,
	}
}

// SyncRun is the audit record of one synchronisation. It shares the table of
// spreadsheet uploads so that invoices keep a single upload_id foreign key.
type SyncRun struct {
	ID          string            `json:"id" gorm:"primaryKey;column:id;type:uuid"`
	Filename    string            `json:"filename" gorm:"column:filename"`
	Company     string            `json:"company" gorm:"column:company;index"`
	Type        string            `json:"type" gorm:"column:type"`
	Metadata    datatypes.JSONMap `json:"metadata" gorm:"column:metadata"`
	Status      string            `json:"status" gorm:"column:status"`
	Processed   bool              `json:"processed" gorm:"column:processed"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty" gorm:"column:processed_at"`
	UploadedAt  time.Time         `json:"uploaded_at" gorm:"column:uploaded_at"`
}

func (SyncRun) TableName() string {
	return "excel_uploads"
}

// SyncFilename builds the synthetic filename recorded for a sync run.
func SyncFilename(company string, at time.Time) string {
	return fmt.Sprintf("holded_sync_%s_%d", company, at.Unix())
}

// SyncCounts are the per-run totals stored in the run metadata.
type SyncCounts struct {
	Documents int `json:"documents_count"`
	Inserted  int `json:"inserted_count"`
	Updated   int `json:"updated_count"`
}

func (c SyncCounts) Metadata() datatypes.JSONMap {
	return datatypes.JSONMap{
		"documents_count": c.Documents,
		"inserted_count":  c.Inserted,
		"updated_count":   c.Updated,
	}
}
