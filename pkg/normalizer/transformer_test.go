package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solucions-socials/platform/pkg/holded"
	"github.com/solucions-socials/platform/pkg/invoices"
)

func TestTransformPurchase(t *testing.T) {
	purchase := holded.Purchase{
		"id":              "p1",
		"docNumber":       "",
		"num":             "C-2024-7",
		"date":            json.Number("1704067200"),
		"dueDate":         "2024-02-01",
		"status":          json.Number("2"),
		"desc":            " Verdura setmanal ",
		"tags":            []interface{}{"hort", "bio"},
		"subtotal":        json.Number("100"),
		"tax":             json.Number("21"),
		"total":           json.Number("121"),
		"paymentsPending": json.Number("121"),
		"contact": map[string]interface{}{
			"id":   "c1",
			"name": "Pagesos Units",
			"iban": "ES00 1111",
		},
	}

	inv := NewTransformer(nil).Transform(purchase)

	if inv.HoldedKey() != "p1" || inv.InvoiceNumber != "C-2024-7" || inv.InternalNumber != "C-2024-7" {
		t.Fatalf("unexpected numbers %+v", inv)
	}
	if inv.Provider != "Pagesos Units" || inv.HoldedContactID != "c1" || inv.IBAN != "ES00 1111" {
		t.Fatalf("unexpected contact fields %+v", inv)
	}
	if inv.Account != ChannelMenjarDHort || inv.Project != ChannelMenjarDHort {
		t.Fatalf("expected tag based channel, got %s/%s", inv.Account, inv.Project)
	}
	if inv.Tags != "hort, bio" || inv.Description != "Verdura setmanal" {
		t.Fatalf("unexpected text fields %q %q", inv.Tags, inv.Description)
	}
	if inv.Status != "pending" || inv.DocumentType != invoices.DocumentTypePurchase {
		t.Fatalf("unexpected status/doc type %s %s", inv.Status, inv.DocumentType)
	}
	if !inv.VAT.Equal(decimal.NewFromInt(21)) || !inv.Pending.Equal(decimal.NewFromInt(121)) {
		t.Fatalf("unexpected amounts vat=%s pending=%s", inv.VAT, inv.Pending)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if inv.IssueDate == nil || !inv.IssueDate.Equal(want) {
		t.Fatalf("unexpected issue date %v", inv.IssueDate)
	}
	if inv.AccountingDate == nil || !inv.AccountingDate.Equal(want) {
		t.Fatalf("expected accounting date to fall back to date, got %v", inv.AccountingDate)
	}
	if inv.DueDate == nil || inv.DueDate.Format("2006-01-02") != "2024-02-01" {
		t.Fatalf("unexpected due date %v", inv.DueDate)
	}
	if inv.PaymentDate != nil {
		t.Fatalf("expected no payment date, got %v", inv.PaymentDate)
	}
}

func TestTransformFallsBackToPurchaseIBAN(t *testing.T) {
	purchase := holded.Purchase{
		"id":          "p2",
		"contactName": "Acme",
		"paymentInfo": map[string]interface{}{"iban": "ES99"},
	}

	inv := NewTransformer(nil).Transform(purchase)
	if inv.IBAN != "ES99" || inv.Provider != "Acme" || inv.Account != ChannelOtros {
		t.Fatalf("unexpected invoice %+v", inv)
	}
	if inv.Status != "other" {
		t.Fatalf("expected other status for missing code, got %s", inv.Status)
	}
}
