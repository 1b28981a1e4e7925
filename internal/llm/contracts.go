package llm

import "context"

// UseCase selects the extraction shape requested from the model.
type UseCase string

const (
	UseCaseDocument UseCase = "document"
	UseCaseProduct  UseCase = "product"
	UseCasePurchase UseCase = "purchase"
)

// DocumentAnalysis is the normalized shape for generic receipt/invoice analysis.
type DocumentAnalysis struct {
	Amount       *float64 `json:"amount,omitempty"`
	Vendor       string   `json:"vendor,omitempty"`
	Category     string   `json:"category"`
	Description  string   `json:"description,omitempty"`
	Date         string   `json:"date,omitempty"` // YYYY-MM-DD
	DocumentType string   `json:"documentType"`   // receipt | invoice | expense
	Confidence   float64  `json:"confidence,omitempty"`
}

// ProductExtraction is the normalized shape for product catalog extraction.
type ProductExtraction struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	SKU         string  `json:"sku,omitempty"`
	Category    string  `json:"category,omitempty"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
	MinStock    int     `json:"minStock"`
	Supplier    string  `json:"supplier,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// PurchaseExtraction is the normalized shape for a purchase invoice.
type PurchaseExtraction struct {
	Vendor        string     `json:"vendor"`
	InvoiceNumber string     `json:"invoiceNumber,omitempty"`
	Date          string     `json:"date,omitempty"` // YYYY-MM-DD
	TotalAmount   float64    `json:"totalAmount"`
	TaxAmount     float64    `json:"taxAmount"`
	Items         []LineItem `json:"items"`
	Notes         string     `json:"notes,omitempty"`
	Confidence    float64    `json:"confidence"`
}

// LineItem is one extracted purchase line.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
	Category    string  `json:"category,omitempty"`
}

// GenerateRequest carries one vision-model call.
type GenerateRequest struct {
	Image       []byte
	MimeType    string
	Prompt      string
	Temperature float32
}

// Generator is the provider interface the extractor depends on. Generate
// returns the raw text of the first candidate, or common.ErrNoAPIKey before
// any network call when no credential is configured.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
