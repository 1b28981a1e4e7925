package llm

import (
	"testing"
	"time"
)

func TestFallbackPurchaseFromFilename(t *testing.T) {
	p := FallbackPurchase("invoice_2024-03-15_$120.50.jpg")

	if p.Vendor != "Invoice" {
		t.Errorf("vendor = %q, want Invoice", p.Vendor)
	}
	if p.Date != "2024-03-15" {
		t.Errorf("date = %q, want 2024-03-15", p.Date)
	}
	if p.TotalAmount != 120.50 {
		t.Errorf("totalAmount = %v, want 120.50", p.TotalAmount)
	}
	if p.Confidence != 0.75 {
		t.Errorf("confidence = %v, want 0.75", p.Confidence)
	}
}

func TestFallbackPurchaseKnownVendor(t *testing.T) {
	p := FallbackPurchase("STAPLES-receipt-march.png")
	if p.Vendor != "Staples" {
		t.Errorf("vendor = %q, want Staples", p.Vendor)
	}
}

func TestFallbackPurchaseInvoiceNumber(t *testing.T) {
	p := FallbackPurchase("acme_inv-4492.pdf")
	if p.InvoiceNumber != "4492" {
		t.Errorf("invoiceNumber = %q, want 4492", p.InvoiceNumber)
	}
	if p.Vendor != "Acme" {
		t.Errorf("vendor = %q, want Acme", p.Vendor)
	}
}

func TestFallbackPurchaseUnknownVendor(t *testing.T) {
	p := FallbackPurchase("a1.png")
	if p.Vendor != "Unknown Vendor" {
		t.Errorf("vendor = %q, want Unknown Vendor", p.Vendor)
	}
	if p.Date != time.Now().Format("2006-01-02") {
		t.Errorf("date = %q, want today", p.Date)
	}
}

func TestFallbackDocumentHasNoConfidence(t *testing.T) {
	d := FallbackDocument("scan_2024-01-02.pdf")
	if d.Confidence != 0 {
		t.Errorf("confidence = %v, want unset", d.Confidence)
	}
	if d.Category != "Other" {
		t.Errorf("category = %q, want Other", d.Category)
	}
	if d.DocumentType != "receipt" {
		t.Errorf("documentType = %q, want receipt", d.DocumentType)
	}
	if d.Date != "2024-01-02" {
		t.Errorf("date = %q, want 2024-01-02", d.Date)
	}
}

func TestFallbackDocumentInvoiceKeyword(t *testing.T) {
	d := FallbackDocument("supplier_invoice_march.pdf")
	if d.DocumentType != "invoice" {
		t.Errorf("documentType = %q, want invoice", d.DocumentType)
	}
}

func TestFallbackProductZeroValue(t *testing.T) {
	p := FallbackProduct()
	if p.Name != "Unknown Product" {
		t.Errorf("name = %q, want Unknown Product", p.Name)
	}
	if p.Confidence != 0.1 {
		t.Errorf("confidence = %v, want 0.1", p.Confidence)
	}
	if p.Quantity != 1 || p.MinStock != 5 {
		t.Errorf("quantity/minStock = %d/%d, want 1/5", p.Quantity, p.MinStock)
	}
}
