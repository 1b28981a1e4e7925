// Package pipeline drives document extraction: load a processing document,
// run the right extraction use case for its kind, and persist the outcome.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/stockdesk-app/stockdesk/constants"
	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/entity"
	"github.com/stockdesk-app/stockdesk/internal/llm"
	"github.com/stockdesk-app/stockdesk/internal/repository"
)

type Processor struct {
	docs      repository.DocumentRepository
	extractor *llm.Extractor
	logger    *slog.Logger
}

func NewProcessor(docs repository.DocumentRepository, extractor *llm.Extractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{docs: docs, extractor: extractor, logger: logger}
}

// Process runs extraction for one document and drives its status to
// completed or failed. Only processing documents are eligible; any other
// status is a validation error. A missing API key fails the document and
// propagates so callers can surface "AI features unavailable".
func (p *Processor) Process(ctx context.Context, docID uuid.UUID) (*entity.Document, error) {
	start := time.Now()
	ctx = common.WithDocumentID(ctx, docID.String())

	doc, err := p.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !constants.Reprocessable(doc.Status) {
		return nil, fmt.Errorf("document %s is %s: %w", docID, doc.Status, common.ErrValidation)
	}

	p.logger.Info("pipeline.run.start",
		"document_id", docID, "kind", doc.Kind, "filename", doc.Filename)

	image, err := os.ReadFile(doc.SourcePath)
	if err != nil {
		reason := fmt.Sprintf("read source file: %v", err)
		if _, ferr := p.docs.FinishFailure(ctx, docID, reason); ferr != nil {
			return nil, errors.Join(err, ferr)
		}
		p.logger.Error("pipeline.run.failed", "document_id", docID, "error", reason)
		return p.docs.GetByID(ctx, docID)
	}

	extracted, confidence, err := p.extract(ctx, doc, image)
	if err != nil {
		// Only configuration errors escape the extractor.
		reason := "AI features unavailable: no API key configured"
		if !errors.Is(err, common.ErrNoAPIKey) {
			reason = err.Error()
		}
		if _, ferr := p.docs.FinishFailure(ctx, docID, reason); ferr != nil {
			return nil, errors.Join(err, ferr)
		}
		p.logger.Error("pipeline.run.failed", "document_id", docID, "error", reason)
		return nil, err
	}

	doc, err = p.docs.FinishSuccess(ctx, docID, extracted, confidence)
	if err != nil {
		return nil, err
	}
	p.logger.Info("pipeline.run.ok",
		"document_id", docID, "kind", doc.Kind,
		"elapsed_ms", time.Since(start).Milliseconds())
	return doc, nil
}

func (p *Processor) extract(ctx context.Context, doc *entity.Document, image []byte) (json.RawMessage, *float64, error) {
	switch doc.Kind {
	case constants.KindPurchase:
		result, err := p.extractor.ExtractPurchase(ctx, image, doc.MimeType, doc.Filename)
		if err != nil {
			return nil, nil, err
		}
		raw, err := json.Marshal(result)
		return raw, &result.Confidence, err

	case constants.KindProduct:
		result, err := p.extractor.ExtractProduct(ctx, image, doc.MimeType)
		if err != nil {
			return nil, nil, err
		}
		raw, err := json.Marshal(result)
		return raw, &result.Confidence, err

	case constants.KindDocument:
		result, err := p.extractor.AnalyzeDocument(ctx, image, doc.MimeType)
		if err != nil {
			return nil, nil, err
		}
		raw, err := json.Marshal(result)
		// Analysis without a score stays unscored; readers treat absence
		// as low trust.
		var confidence *float64
		if result.Confidence > 0 {
			confidence = &result.Confidence
		}
		return raw, confidence, err

	default:
		return nil, nil, fmt.Errorf("unknown document kind %q: %w", doc.Kind, common.ErrInvalidInput)
	}
}
