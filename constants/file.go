package constants

import "strings"

// DocKind selects which extraction shape a document is processed into.
type DocKind string

const (
	KindDocument DocKind = "DOCUMENT" // generic receipt/invoice analysis
	KindProduct  DocKind = "PRODUCT"  // product catalog extraction
	KindPurchase DocKind = "PURCHASE" // purchase invoice with line items
)

// DocumentType classifies an analyzed document.
var DocumentTypes = []string{"receipt", "invoice", "expense"}

// AllowedExtensions holds the default allowed file extensions for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"pdf":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MIMEForExt maps a file extension to the MIME type sent to the vision API.
func MIMEForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
