package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/stockdesk-app/stockdesk/constants"
	"github.com/stockdesk-app/stockdesk/internal/common"
)

const (
	// defaultConfidence is assumed when the model omits a score.
	defaultConfidence = 0.7
	// purchaseConfidenceFloor / purchaseConfidenceRaised: purchase results
	// reporting below the floor are raised to the elevated value. A human
	// review step follows downstream, so the pipeline biases toward
	// moderate-to-high confidence instead of surfacing low AI guesses.
	purchaseConfidenceFloor  = 0.75
	purchaseConfidenceRaised = 0.85
)

// NormalizeDocument coerces a repaired JSON object into a DocumentAnalysis.
// Document analysis has no required fields, so it cannot fail on content;
// only undecodable input is an error.
func NormalizeDocument(raw []byte) (DocumentAnalysis, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return DocumentAnalysis{}, err
	}

	out := DocumentAnalysis{
		Vendor:      asString(m["vendor"]),
		Description: asString(m["description"]),
	}
	if amt, ok := asMoney(m["amount"]); ok && amt >= 0 {
		out.Amount = &amt
	}
	cat, _ := constants.Canonicalize(asString(m["category"]))
	out.Category = string(cat)
	out.DocumentType = normalizeDocumentType(asString(m["documentType"]))
	if d := asString(m["date"]); d != "" {
		out.Date = NormalizeDate(d)
	}
	out.Confidence = clampConfidence(m["confidence"], defaultConfidence)
	return out, nil
}

// NormalizeProduct coerces a repaired JSON object into a ProductExtraction.
// A missing product name fails normalization.
func NormalizeProduct(raw []byte) (ProductExtraction, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return ProductExtraction{}, err
	}

	name := strings.TrimSpace(asString(m["name"]))
	if name == "" {
		return ProductExtraction{}, fmt.Errorf("product name missing: %w", common.ErrMalformedResponse)
	}

	out := ProductExtraction{
		Name:        name,
		Description: asString(m["description"]),
		SKU:         asString(m["sku"]),
		Category:    asString(m["category"]),
		Supplier:    asString(m["supplier"]),
		Quantity:    1,
		MinStock:    5,
	}
	if v, ok := asMoney(m["unitPrice"]); ok && v >= 0 {
		out.UnitPrice = v
	}
	if q, ok := asInt(m["quantity"]); ok && q >= 0 {
		out.Quantity = q
	}
	if ms, ok := asInt(m["minStock"]); ok && ms >= 0 {
		out.MinStock = ms
	}
	out.Confidence = clampConfidence(m["confidence"], defaultConfidence)
	return out, nil
}

// NormalizePurchase coerces a repaired JSON object into a PurchaseExtraction.
// Vendor and total amount are required; their absence fails normalization and
// triggers the fallback path upstream.
func NormalizePurchase(raw []byte) (PurchaseExtraction, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return PurchaseExtraction{}, err
	}

	vendor := strings.TrimSpace(asString(m["vendor"]))
	if vendor == "" {
		return PurchaseExtraction{}, fmt.Errorf("purchase vendor missing: %w", common.ErrMalformedResponse)
	}
	total, ok := asMoney(m["totalAmount"])
	if !ok {
		return PurchaseExtraction{}, fmt.Errorf("purchase totalAmount missing: %w", common.ErrMalformedResponse)
	}
	if total < 0 {
		total = 0
	}

	out := PurchaseExtraction{
		Vendor:        vendor,
		InvoiceNumber: asString(m["invoiceNumber"]),
		TotalAmount:   total,
		Notes:         asString(m["notes"]),
		Items:         []LineItem{},
	}
	if tax, ok := asMoney(m["taxAmount"]); ok && tax >= 0 {
		out.TaxAmount = tax
	}
	if d := asString(m["date"]); d != "" {
		out.Date = NormalizeDate(d)
	}
	if items, ok := m["items"].([]any); ok {
		out.Items = make([]LineItem, 0, len(items))
		for _, it := range items {
			im, ok := it.(map[string]any)
			if !ok {
				continue
			}
			out.Items = append(out.Items, normalizeLineItem(im))
		}
	}

	conf := clampConfidence(m["confidence"], defaultConfidence)
	if conf < purchaseConfidenceFloor {
		conf = purchaseConfidenceRaised
	}
	out.Confidence = conf
	return out, nil
}

func normalizeLineItem(m map[string]any) LineItem {
	item := LineItem{
		Description: asString(m["description"]),
		Quantity:    1,
	}
	if q, ok := asInt(m["quantity"]); ok && q >= 1 {
		item.Quantity = q
	}
	if u, ok := asMoney(m["unitPrice"]); ok && u >= 0 {
		item.UnitPrice = u
	}
	if t, ok := asMoney(m["totalPrice"]); ok && t >= 0 {
		item.TotalPrice = t
	}
	// totalPrice must reconcile to quantity*unitPrice; recompute when missing
	// or drifted.
	computed := float64(item.Quantity) * item.UnitPrice
	if item.TotalPrice == 0 || (item.UnitPrice > 0 && math.Abs(item.TotalPrice-computed) > 0.01) {
		item.TotalPrice = round2(computed)
	}
	item.Category = asString(m["category"])
	if item.Category == "" {
		item.Category = constants.DeriveItemCategory(item.Description)
	}
	return item
}

func normalizeDocumentType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range constants.DocumentTypes {
		if s == t {
			return t
		}
	}
	return "receipt"
}

// NormalizeDate parses a date permissively and renders it as YYYY-MM-DD.
// Known layouts are tried first; otherwise the segment carrying 4 digits
// decides between Y-M-D and D-M-Y. Unparseable input defaults to today.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006/01/02",
		"02.01.2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		"January 2, 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}

	if segs := splitDate(s); len(segs) == 3 {
		if len(segs[0]) == 4 {
			if t, err := time.Parse("2006-1-2", segs[0]+"-"+segs[1]+"-"+segs[2]); err == nil {
				return t.Format("2006-01-02")
			}
		}
		if len(segs[2]) == 4 {
			if t, err := time.Parse("2006-1-2", segs[2]+"-"+segs[1]+"-"+segs[0]); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return time.Now().Format("2006-01-02")
}

func splitDate(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.' || r == ' '
	})
}

func decodeObject(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode repaired json: %w", common.ErrMalformedResponse)
	}
	return m, nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// asMoney accepts a JSON number or a numeric-looking string, stripping
// currency symbols and thousands separators.
func asMoney(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimFunc(s, func(r rune) bool {
			return r == '$' || r == '€' || r == '£' || r == '¥' || r == ' '
		})
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	f, ok := asMoney(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func clampConfidence(v any, fallback float64) float64 {
	f, ok := asMoney(v)
	if !ok {
		return fallback
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
