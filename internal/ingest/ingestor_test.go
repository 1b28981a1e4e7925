package ingest

import (
	"testing"

	"github.com/stockdesk-app/stockdesk/constants"
)

func TestKindForPath(t *testing.T) {
	tests := []struct {
		path string
		want constants.DocKind
	}{
		{"/inbox/purchases/scan001.jpg", constants.KindPurchase},
		{"/inbox/invoices/acme.pdf", constants.KindPurchase},
		{"/inbox/products/widget.png", constants.KindProduct},
		{"/inbox/catalog/new-items.jpg", constants.KindProduct},
		{"/inbox/invoice_4492.pdf", constants.KindPurchase},
		{"/inbox/product_shot.jpg", constants.KindProduct},
		{"/inbox/receipt_cafe.jpg", constants.KindDocument},
		{"/inbox/scan.jpg", constants.KindDocument},
	}
	for _, tt := range tests {
		if got := KindForPath(tt.path); got != tt.want {
			t.Errorf("KindForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestAllowedExtensions(t *testing.T) {
	if !allowed("/inbox/a.JPG", constants.AllowedExtensions) {
		t.Error("uppercase extension should be allowed")
	}
	if allowed("/inbox/a.txt", constants.AllowedExtensions) {
		t.Error("txt should not be allowed")
	}
	if allowed("/inbox/noext", constants.AllowedExtensions) {
		t.Error("missing extension should not be allowed")
	}
}
