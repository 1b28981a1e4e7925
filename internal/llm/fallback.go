package llm

import (
	"regexp"
	"strings"
	"time"
)

// fallbackPurchaseConfidence is the fixed score for purchases recovered from
// filename metadata alone. Document-analysis fallback sets no score; callers
// treat absence as low trust.
const fallbackPurchaseConfidence = 0.75

// knownVendorFragments are matched case-insensitively as substrings of the
// filename before guessing a vendor from the first segment.
var knownVendorFragments = []string{
	"staples",
	"amazon",
	"walmart",
	"target",
	"costco",
	"office depot",
	"officedepot",
	"best buy",
	"bestbuy",
	"home depot",
	"homedepot",
	"newegg",
	"ikea",
}

var (
	reFileDateYMD = regexp.MustCompile(`(\d{4})[-_.](\d{1,2})[-_.](\d{1,2})`)
	reFileDateDMY = regexp.MustCompile(`(\d{1,2})[-_.](\d{1,2})[-_.](\d{4})`)
	reFileAmount  = regexp.MustCompile(`\$(\d+(?:\.\d{1,2})?)|(\d+\.\d{2})(?:\D|$)`)
	reFileInvoice = regexp.MustCompile(`(?i)inv(?:oice)?[-_ #]*(\d{3,})`)
	reFileNumber  = regexp.MustCompile(`#(\d{4,})`)
)

// FallbackPurchase produces a usable purchase result purely from the source
// filename, for when the model call or normalization failed entirely.
func FallbackPurchase(filename string) PurchaseExtraction {
	out := PurchaseExtraction{
		Vendor:     guessVendor(filename),
		Date:       fileDate(filename),
		Notes:      "Extracted from filename (AI unavailable)",
		Confidence: fallbackPurchaseConfidence,
	}
	if amt, ok := fileAmount(filename); ok {
		out.TotalAmount = amt
	}
	if inv := fileInvoiceNumber(filename); inv != "" {
		out.InvoiceNumber = inv
	}
	return out
}

// FallbackDocument produces a best-guess document analysis from the filename.
// No confidence is set.
func FallbackDocument(filename string) DocumentAnalysis {
	out := DocumentAnalysis{
		Vendor:       guessVendor(filename),
		Category:     "Other",
		DocumentType: "receipt",
		Date:         fileDate(filename),
	}
	if amt, ok := fileAmount(filename); ok && amt >= 0 {
		out.Amount = &amt
	}
	if strings.Contains(strings.ToLower(filename), "invoice") {
		out.DocumentType = "invoice"
	}
	return out
}

// FallbackProduct is the zero-value product result; nothing usable can be
// guessed about a product from metadata.
func FallbackProduct() ProductExtraction {
	return ProductExtraction{
		Name:       "Unknown Product",
		Quantity:   1,
		MinStock:   5,
		Confidence: 0.1,
	}
}

func guessVendor(filename string) string {
	lower := strings.ToLower(filename)
	for _, fragment := range knownVendorFragments {
		if strings.Contains(lower, fragment) {
			return titleCase(fragment)
		}
	}

	segments := strings.FieldsFunc(filename, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	})
	if len(segments) > 0 && len(segments[0]) >= 3 {
		return titleCase(segments[0])
	}
	return "Unknown Vendor"
}

func fileDate(filename string) string {
	if m := reFileDateYMD.FindStringSubmatch(filename); m != nil {
		return NormalizeDate(m[1] + "-" + m[2] + "-" + m[3])
	}
	if m := reFileDateDMY.FindStringSubmatch(filename); m != nil {
		return NormalizeDate(m[1] + "-" + m[2] + "-" + m[3])
	}
	return time.Now().Format("2006-01-02")
}

func fileAmount(filename string) (float64, bool) {
	m := reFileAmount.FindStringSubmatch(filename)
	if m == nil {
		return 0, false
	}
	s := m[1]
	if s == "" {
		s = m[2]
	}
	return asMoney(s)
}

func fileInvoiceNumber(filename string) string {
	if m := reFileInvoice.FindStringSubmatch(filename); m != nil {
		return m[1]
	}
	if m := reFileNumber.FindStringSubmatch(filename); m != nil {
		return m[1]
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
