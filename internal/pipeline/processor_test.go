package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stockdesk-app/stockdesk/constants"
	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/entity"
	"github.com/stockdesk-app/stockdesk/internal/llm"
)

type memDocs struct {
	rows map[uuid.UUID]*entity.Document
}

func newMemDocs() *memDocs {
	return &memDocs{rows: map[uuid.UUID]*entity.Document{}}
}

func (m *memDocs) Create(_ context.Context, doc *entity.Document) (*entity.Document, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = constants.DocStatusProcessing
	}
	m.rows[doc.ID] = doc
	return doc, nil
}

func (m *memDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	doc, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *memDocs) ListByStatus(_ context.Context, status constants.DocStatus) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range m.rows {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocs) UpdateStatus(_ context.Context, id uuid.UUID, to constants.DocStatus) (*entity.Document, error) {
	doc, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if !constants.CanTransition(doc.Status, to) {
		return nil, fmt.Errorf("cannot move %s -> %s: %w", doc.Status, to, common.ErrInvalidInput)
	}
	doc.Status = to
	return doc, nil
}

func (m *memDocs) FinishSuccess(_ context.Context, id uuid.UUID, extracted json.RawMessage, confidence *float64) (*entity.Document, error) {
	doc, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if !constants.CanTransition(doc.Status, constants.DocStatusCompleted) {
		return nil, fmt.Errorf("cannot complete from %s: %w", doc.Status, common.ErrInvalidInput)
	}
	now := time.Now()
	doc.Status = constants.DocStatusCompleted
	doc.ExtractedJSON = extracted
	doc.Confidence = confidence
	doc.ProcessedAt = &now
	return doc, nil
}

func (m *memDocs) FinishFailure(_ context.Context, id uuid.UUID, reason string) (*entity.Document, error) {
	doc, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if !constants.CanTransition(doc.Status, constants.DocStatusFailed) {
		return nil, fmt.Errorf("cannot fail from %s: %w", doc.Status, common.ErrInvalidInput)
	}
	doc.Status = constants.DocStatusFailed
	doc.ErrorMessage = &reason
	return doc, nil
}

type staticGenerator struct {
	text string
	err  error
}

func (g *staticGenerator) Generate(context.Context, llm.GenerateRequest) (string, error) {
	return g.text, g.err
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice_4492.jpg")
	if err := os.WriteFile(path, []byte("not really a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newProcessorDoc(path string, kind constants.DocKind) *entity.Document {
	return &entity.Document{
		Filename:   filepath.Base(path),
		SourcePath: path,
		MimeType:   "image/jpeg",
		Kind:       kind,
	}
}

func TestProcessCompletesPurchaseDocument(t *testing.T) {
	docs := newMemDocs()
	path := writeTestImage(t)
	doc, _ := docs.Create(context.Background(), newProcessorDoc(path, constants.KindPurchase))

	gen := &staticGenerator{text: `{"vendor":"Staples","totalAmount":45,"confidence":0.9}`}
	p := NewProcessor(docs, llm.NewExtractor(gen, nil), nil)

	got, err := p.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got.Status != constants.DocStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Confidence == nil || *got.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", got.Confidence)
	}

	var result llm.PurchaseExtraction
	if err := json.Unmarshal(got.ExtractedJSON, &result); err != nil {
		t.Fatalf("decode stored result: %v", err)
	}
	if result.Vendor != "Staples" || result.TotalAmount != 45 {
		t.Errorf("stored result = %+v", result)
	}
}

func TestProcessTransportFailureStillCompletes(t *testing.T) {
	docs := newMemDocs()
	path := writeTestImage(t)
	doc, _ := docs.Create(context.Background(), newProcessorDoc(path, constants.KindPurchase))

	gen := &staticGenerator{err: errors.New("connection reset")}
	p := NewProcessor(docs, llm.NewExtractor(gen, nil), nil)

	got, err := p.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("transport failure must be absorbed via fallback: %v", err)
	}
	if got.Status != constants.DocStatusCompleted {
		t.Errorf("status = %q, want completed (fallback result)", got.Status)
	}

	var result llm.PurchaseExtraction
	if err := json.Unmarshal(got.ExtractedJSON, &result); err != nil {
		t.Fatal(err)
	}
	if result.Confidence != 0.75 {
		t.Errorf("fallback confidence = %v, want 0.75", result.Confidence)
	}
	if result.InvoiceNumber != "4492" {
		t.Errorf("invoiceNumber = %q, want 4492 (from filename)", result.InvoiceNumber)
	}
}

func TestProcessMissingAPIKeyFailsDocument(t *testing.T) {
	docs := newMemDocs()
	path := writeTestImage(t)
	doc, _ := docs.Create(context.Background(), newProcessorDoc(path, constants.KindPurchase))

	gen := &staticGenerator{err: common.ErrNoAPIKey}
	p := NewProcessor(docs, llm.NewExtractor(gen, nil), nil)

	_, err := p.Process(context.Background(), doc.ID)
	if !errors.Is(err, common.ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}

	stored, _ := docs.GetByID(context.Background(), doc.ID)
	if stored.Status != constants.DocStatusFailed {
		t.Errorf("status = %q, want failed", stored.Status)
	}
	if stored.ErrorMessage == nil {
		t.Error("error message not recorded")
	}
}

func TestProcessMissingFileFailsDocument(t *testing.T) {
	docs := newMemDocs()
	doc, _ := docs.Create(context.Background(), newProcessorDoc("/nope/missing.jpg", constants.KindDocument))

	gen := &staticGenerator{text: "{}"}
	p := NewProcessor(docs, llm.NewExtractor(gen, nil), nil)

	got, err := p.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("missing file is a document failure, not a pipeline error: %v", err)
	}
	if got.Status != constants.DocStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
}

func TestProcessRejectsTerminalDocument(t *testing.T) {
	docs := newMemDocs()
	path := writeTestImage(t)
	doc, _ := docs.Create(context.Background(), newProcessorDoc(path, constants.KindPurchase))
	if _, err := docs.FinishFailure(context.Background(), doc.ID, "earlier failure"); err != nil {
		t.Fatal(err)
	}

	gen := &staticGenerator{text: "{}"}
	p := NewProcessor(docs, llm.NewExtractor(gen, nil), nil)

	_, err := p.Process(context.Background(), doc.ID)
	if !errors.Is(err, common.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
