package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/stockdesk-app/stockdesk/constants"
	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/entity"
)

// docSchema bootstraps the local document store. ai_documents lives in a
// sidecar sqlite file, separate from the catalog database, so the ingest
// pipeline keeps working when Postgres is unreachable.
const docSchema = `
CREATE TABLE IF NOT EXISTS ai_documents (
	id             TEXT PRIMARY KEY,
	filename       TEXT NOT NULL,
	source_path    TEXT NOT NULL,
	mime_type      TEXT NOT NULL,
	kind           TEXT NOT NULL,
	status         TEXT NOT NULL,
	extracted_json TEXT,
	confidence     REAL,
	error_message  TEXT,
	uploaded_at    TEXT NOT NULL,
	processed_at   TEXT
);
CREATE INDEX IF NOT EXISTS idx_ai_documents_status ON ai_documents (status);
`

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) (*entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	ListByStatus(ctx context.Context, status constants.DocStatus) ([]*entity.Document, error)
	// UpdateStatus enforces the review workflow; illegal moves return an error
	// wrapping common.ErrInvalidInput.
	UpdateStatus(ctx context.Context, id uuid.UUID, to constants.DocStatus) (*entity.Document, error)
	FinishSuccess(ctx context.Context, id uuid.UUID, extracted json.RawMessage, confidence *float64) (*entity.Document, error)
	FinishFailure(ctx context.Context, id uuid.UUID, reason string) (*entity.Document, error)
}

type documentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenDocStore opens (creating if needed) the sqlite document store at path.
func OpenDocStore(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY under concurrent pipeline updates.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, docSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap document store: %w", err)
	}
	logger.Info("document store ready", "path", path)
	return db, nil
}

func NewDocumentRepository(db *sql.DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{db: db, logger: logger}
}

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) (*entity.Document, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = constants.DocStatusProcessing
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ai_documents (id, filename, source_path, mime_type, kind, status, extracted_json, confidence, error_message, uploaded_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID.String(), doc.Filename, doc.SourcePath, doc.MimeType, string(doc.Kind), string(doc.Status),
		nullableJSON(doc.ExtractedJSON), doc.Confidence, doc.ErrorMessage,
		doc.UploadedAt.Format(time.RFC3339Nano), nullableTime(doc.ProcessedAt))
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, filename, source_path, mime_type, kind, status, extracted_json, confidence, error_message, uploaded_at, processed_at
		 FROM ai_documents WHERE id = ?`, id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return doc, err
}

func (r *documentRepository) ListByStatus(ctx context.Context, status constants.DocStatus) ([]*entity.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, source_path, mime_type, kind, status, extracted_json, confidence, error_message, uploaded_at, processed_at
		 FROM ai_documents WHERE status = ? ORDER BY uploaded_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to constants.DocStatus) (*entity.Document, error) {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !constants.CanTransition(doc.Status, to) {
		return nil, fmt.Errorf("document %s: cannot move %s -> %s: %w", id, doc.Status, to, common.ErrInvalidInput)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE ai_documents SET status = ? WHERE id = ?`, string(to), id.String())
	if err != nil {
		return nil, fmt.Errorf("update document status: %w", err)
	}
	r.logger.Info("document status changed", "document_id", id, "from", doc.Status, "to", to)
	doc.Status = to
	return doc, nil
}

func (r *documentRepository) FinishSuccess(ctx context.Context, id uuid.UUID, extracted json.RawMessage, confidence *float64) (*entity.Document, error) {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !constants.CanTransition(doc.Status, constants.DocStatusCompleted) {
		return nil, fmt.Errorf("document %s: cannot complete from %s: %w", id, doc.Status, common.ErrInvalidInput)
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`UPDATE ai_documents SET status = ?, extracted_json = ?, confidence = ?, error_message = NULL, processed_at = ? WHERE id = ?`,
		string(constants.DocStatusCompleted), nullableJSON(extracted), confidence, now.Format(time.RFC3339Nano), id.String())
	if err != nil {
		return nil, fmt.Errorf("finish document: %w", err)
	}
	doc.Status = constants.DocStatusCompleted
	doc.ExtractedJSON = extracted
	doc.Confidence = confidence
	doc.ErrorMessage = nil
	doc.ProcessedAt = &now
	return doc, nil
}

func (r *documentRepository) FinishFailure(ctx context.Context, id uuid.UUID, reason string) (*entity.Document, error) {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !constants.CanTransition(doc.Status, constants.DocStatusFailed) {
		return nil, fmt.Errorf("document %s: cannot fail from %s: %w", id, doc.Status, common.ErrInvalidInput)
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`UPDATE ai_documents SET status = ?, error_message = ?, processed_at = ? WHERE id = ?`,
		string(constants.DocStatusFailed), reason, now.Format(time.RFC3339Nano), id.String())
	if err != nil {
		return nil, fmt.Errorf("fail document: %w", err)
	}
	doc.Status = constants.DocStatusFailed
	doc.ErrorMessage = &reason
	doc.ProcessedAt = &now
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc        entity.Document
		idStr      string
		kind       string
		status     string
		extracted  sql.NullString
		uploadedAt string
		processed  sql.NullString
	)
	err := row.Scan(&idStr, &doc.Filename, &doc.SourcePath, &doc.MimeType, &kind, &status,
		&extracted, &doc.Confidence, &doc.ErrorMessage, &uploadedAt, &processed)
	if err != nil {
		return nil, err
	}
	doc.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse document id %q: %w", idStr, err)
	}
	doc.Kind = constants.DocKind(kind)
	doc.Status = constants.DocStatus(status)
	if extracted.Valid && extracted.String != "" {
		doc.ExtractedJSON = json.RawMessage(extracted.String)
	}
	doc.UploadedAt, err = time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("parse uploaded_at %q: %w", uploadedAt, err)
	}
	if processed.Valid {
		t, err := time.Parse(time.RFC3339Nano, processed.String)
		if err != nil {
			return nil, fmt.Errorf("parse processed_at %q: %w", processed.String, err)
		}
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
