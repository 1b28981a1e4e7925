package llm

import (
	"encoding/json"
	"strings"

	"github.com/stockdesk-app/stockdesk/constants"
)

// BuildPrompt composes the instruction prompt for a use case: a fixed
// natural-language schema description plus one worked example. The model is
// asked for JSON only; repair downstream copes with anything else.
func BuildPrompt(useCase UseCase) string {
	switch useCase {
	case UseCaseProduct:
		return buildProductPrompt()
	case UseCasePurchase:
		return buildPurchasePrompt()
	default:
		return buildDocumentPrompt()
	}
}

func buildDocumentPrompt() string {
	parts := []string{
		"You are a business document parser. Analyze the attached receipt, invoice, or expense document.",
		"Return ONLY a JSON object matching this schema, with no prose and no markdown fences:",
		mustJSON(BuildDocumentSchema()),
		"'category' MUST be exactly one of: " + strings.Join(constants.AsStringSlice(), ", ") + ". If uncertain, choose 'Other'.",
		"'documentType' MUST be one of: receipt, invoice, expense.",
		"Use ISO-8601 dates (YYYY-MM-DD). Amounts are plain numbers without currency symbols.",
		"Never output null. If a field is not visible, omit it.",
		"Example output:",
		`{"amount": 45.30, "vendor": "Staples", "category": "Office Supplies", "description": "Printer paper and pens", "date": "2024-03-15", "documentType": "receipt", "confidence": 0.9}`,
	}
	return strings.Join(parts, "\n")
}

func buildProductPrompt() string {
	parts := []string{
		"You are a product catalog parser. Extract the single most prominent product from the attached image or document.",
		"Return ONLY a JSON object matching this schema, with no prose and no markdown fences:",
		mustJSON(BuildProductSchema()),
		"'name' is required. Default 'quantity' to 1 and 'minStock' to 5 when not visible.",
		"Prices are plain numbers without currency symbols.",
		"Never output null. If a field is not visible, omit it.",
		"Example output:",
		`{"name": "Wireless Mouse", "sku": "WM-2040", "category": "Electronics", "unitPrice": 24.99, "quantity": 10, "minStock": 5, "supplier": "Logitech", "confidence": 0.85}`,
	}
	return strings.Join(parts, "\n")
}

func buildPurchasePrompt() string {
	parts := []string{
		"You are a purchase invoice parser. Extract the vendor, totals, and every line item from the attached invoice.",
		"Return ONLY a JSON object matching this schema, with no prose and no markdown fences:",
		mustJSON(BuildPurchaseSchema()),
		"'vendor' and 'totalAmount' are required.",
		"Each line item needs description, quantity, unitPrice and totalPrice; totalPrice is quantity times unitPrice.",
		"Use ISO-8601 dates (YYYY-MM-DD). Amounts are plain numbers without currency symbols.",
		"Never output null. If a field is not visible, omit it.",
		"Example output:",
		`{"vendor": "Newegg", "invoiceNumber": "INV-1042", "date": "2024-03-15", "totalAmount": 412.50, "taxAmount": 32.50, "items": [{"description": "DDR4 RAM 16GB", "quantity": 2, "unitPrice": 95.00, "totalPrice": 190.00, "category": "Computer Hardware"}], "confidence": 0.9}`,
	}
	return strings.Join(parts, "\n")
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
