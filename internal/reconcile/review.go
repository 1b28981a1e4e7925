package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stockdesk-app/stockdesk/constants"
	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/entity"
	"github.com/stockdesk-app/stockdesk/internal/llm"
	"github.com/stockdesk-app/stockdesk/internal/repository"
)

// Review applies reviewer decisions to completed documents. Approving a
// purchase document posts its extraction into the catalog before the
// document moves to its terminal state.
type Review struct {
	docs    repository.DocumentRepository
	posting *Service
	logger  *slog.Logger
}

func NewReview(docs repository.DocumentRepository, posting *Service, logger *slog.Logger) *Review {
	if logger == nil {
		logger = slog.Default()
	}
	return &Review{docs: docs, posting: posting, logger: logger}
}

// ApproveResult carries the approved document and, for purchase documents,
// what posting it did to the catalog.
type ApproveResult struct {
	Document *entity.Document
	Posting  *PostPurchaseResult
}

// Approve marks a completed document approved. Purchase documents are posted
// first; if posting fails the document stays completed so the reviewer can
// retry.
func (r *Review) Approve(ctx context.Context, id uuid.UUID) (*ApproveResult, error) {
	reqID := uuid.New().String()
	start := time.Now()

	doc, err := r.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != constants.DocStatusCompleted {
		return nil, common.NewAppError("INVALID_STATE",
			fmt.Sprintf("document %s is %s, only completed documents can be approved", id, doc.Status),
			common.ErrInvalidInput)
	}

	r.logger.Info("reconcile.approve.start", "req_id", reqID, "doc_id", id, "kind", doc.Kind)

	result := &ApproveResult{}
	if doc.Kind == constants.KindPurchase {
		var ext llm.PurchaseExtraction
		if err := json.Unmarshal(doc.ExtractedJSON, &ext); err != nil {
			return nil, common.NewAppError("MALFORMED_RESULT",
				fmt.Sprintf("document %s has an unreadable extraction result", id),
				common.ErrMalformedResponse)
		}
		posted, err := r.posting.PostPurchase(ctx, PostPurchaseInput{
			Extraction:          ext,
			UseExistingSupplier: true,
		})
		if err != nil {
			return nil, fmt.Errorf("post purchase for document %s: %w", id, err)
		}
		result.Posting = posted
	}

	doc, err = r.docs.UpdateStatus(ctx, id, constants.DocStatusApproved)
	if err != nil {
		return nil, err
	}
	result.Document = doc

	r.logger.Info("reconcile.approve.ok",
		"req_id", reqID, "doc_id", id, "kind", doc.Kind,
		"posted", result.Posting != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Reject discards a completed document without touching the catalog.
func (r *Review) Reject(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	doc, err := r.docs.UpdateStatus(ctx, id, constants.DocStatusRejected)
	if err != nil {
		return nil, err
	}
	r.logger.Info("reconcile.reject.ok", "doc_id", id, "kind", doc.Kind)
	return doc, nil
}
