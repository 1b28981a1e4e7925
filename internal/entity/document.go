package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stockdesk-app/stockdesk/constants"
)

// Document represents an uploaded AI document for data transfer between layers.
type Document struct {
	ID            uuid.UUID           `json:"id"`
	Filename      string              `json:"filename"`
	SourcePath    string              `json:"source_path"`
	MimeType      string              `json:"mime_type"`
	Kind          constants.DocKind   `json:"kind"`
	Status        constants.DocStatus `json:"status"`
	ExtractedJSON json.RawMessage     `json:"extracted_json,omitempty"`
	Confidence    *float64            `json:"confidence,omitempty"`
	ErrorMessage  *string             `json:"error_message,omitempty"`
	UploadedAt    time.Time           `json:"uploaded_at"`
	ProcessedAt   *time.Time          `json:"processed_at,omitempty"`
}
