package llm

import (
	"github.com/stockdesk-app/stockdesk/constants"
)

// Schemas below describe the NORMALIZED result shapes (JSON-Schema draft
// 2020-12 subset) as generic maps. They are embedded into prompts so the
// model sees the exact contract, and used locally to gate normalizer output.

// BuildDocumentSchema returns the schema for DocumentAnalysis.
func BuildDocumentSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"amount":      map[string]any{"type": "number", "minimum": 0.0},
			"vendor":      map[string]any{"type": "string"},
			"category":    map[string]any{"type": "string", "enum": constants.AsStringSlice()},
			"description": map[string]any{"type": "string"},
			"date":        dateProp(),
			"documentType": map[string]any{
				"type": "string",
				"enum": constants.DocumentTypes,
			},
			"confidence": confidenceProp(),
		},
		"required": []string{"category", "documentType"},
	}
}

// BuildProductSchema returns the schema for ProductExtraction.
func BuildProductSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":        map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string"},
			"sku":         map[string]any{"type": "string"},
			"category":    map[string]any{"type": "string"},
			"unitPrice":   map[string]any{"type": "number", "minimum": 0.0},
			"quantity":    map[string]any{"type": "integer", "minimum": 0},
			"minStock":    map[string]any{"type": "integer", "minimum": 0},
			"supplier":    map[string]any{"type": "string"},
			"confidence":  confidenceProp(),
		},
		"required": []string{"name", "quantity", "minStock", "confidence"},
	}
}

// BuildPurchaseSchema returns the schema for PurchaseExtraction.
func BuildPurchaseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"vendor":        map[string]any{"type": "string", "minLength": 1},
			"invoiceNumber": map[string]any{"type": "string"},
			"date":          dateProp(),
			"totalAmount":   map[string]any{"type": "number", "minimum": 0.0},
			"taxAmount":     map[string]any{"type": "number", "minimum": 0.0},
			"notes":         map[string]any{"type": "string"},
			"confidence":    confidenceProp(),
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"description": map[string]any{"type": "string"},
						"quantity":    map[string]any{"type": "integer", "minimum": 1},
						"unitPrice":   map[string]any{"type": "number", "minimum": 0.0},
						"totalPrice":  map[string]any{"type": "number", "minimum": 0.0},
						"category":    map[string]any{"type": "string"},
					},
					"required": []string{"description", "quantity", "unitPrice", "totalPrice"},
				},
			},
		},
		"required": []string{"vendor", "totalAmount", "confidence"},
	}
}

func dateProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d{4}-\d{2}-\d{2}$`,
	}
}

func confidenceProp() map[string]any {
	return map[string]any{
		"type":    "number",
		"minimum": 0.0,
		"maximum": 1.0,
	}
}
