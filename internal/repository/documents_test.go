package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/stockdesk-app/stockdesk/constants"
	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/entity"
)

func testDocRepo(t *testing.T) DocumentRepository {
	t.Helper()
	db, err := OpenDocStore(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("open doc store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewDocumentRepository(db, nil)
}

func newTestDoc() *entity.Document {
	return &entity.Document{
		Filename:   "invoice_0042.jpg",
		SourcePath: "/inbox/purchases/invoice_0042.jpg",
		MimeType:   "image/jpeg",
		Kind:       constants.KindPurchase,
	}
}

func TestDocumentCreateAndGet(t *testing.T) {
	repo := testDocRepo(t)
	ctx := context.Background()

	doc, err := repo.Create(ctx, newTestDoc())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.ID == uuid.Nil {
		t.Fatal("id not assigned")
	}
	if doc.Status != constants.DocStatusProcessing {
		t.Errorf("status = %q, want processing", doc.Status)
	}

	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Filename != doc.Filename || got.Kind != constants.KindPurchase {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.ProcessedAt != nil {
		t.Error("processed_at should start unset")
	}
}

func TestDocumentGetMissing(t *testing.T) {
	repo := testDocRepo(t)
	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDocumentFinishSuccess(t *testing.T) {
	repo := testDocRepo(t)
	ctx := context.Background()

	doc, err := repo.Create(ctx, newTestDoc())
	if err != nil {
		t.Fatal(err)
	}

	conf := 0.85
	extracted := json.RawMessage(`{"vendor":"Staples","totalAmount":45}`)
	done, err := repo.FinishSuccess(ctx, doc.ID, extracted, &conf)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if done.Status != constants.DocStatusCompleted {
		t.Errorf("status = %q, want completed", done.Status)
	}
	if done.ProcessedAt == nil {
		t.Error("processed_at not set")
	}

	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.ExtractedJSON) != string(extracted) {
		t.Errorf("extracted = %s", got.ExtractedJSON)
	}
	if got.Confidence == nil || *got.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", got.Confidence)
	}
}

func TestDocumentFinishFailure(t *testing.T) {
	repo := testDocRepo(t)
	ctx := context.Background()

	doc, err := repo.Create(ctx, newTestDoc())
	if err != nil {
		t.Fatal(err)
	}
	failed, err := repo.FinishFailure(ctx, doc.ID, "AI features unavailable: no API key configured")
	if err != nil {
		t.Fatal(err)
	}
	if failed.Status != constants.DocStatusFailed {
		t.Errorf("status = %q, want failed", failed.Status)
	}
	if failed.ErrorMessage == nil || *failed.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
}

func TestDocumentReviewTransitions(t *testing.T) {
	repo := testDocRepo(t)
	ctx := context.Background()

	doc, err := repo.Create(ctx, newTestDoc())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.FinishSuccess(ctx, doc.ID, json.RawMessage(`{}`), nil); err != nil {
		t.Fatal(err)
	}

	approved, err := repo.UpdateStatus(ctx, doc.ID, constants.DocStatusApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != constants.DocStatusApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}

	// approved is terminal
	if _, err := repo.UpdateStatus(ctx, doc.ID, constants.DocStatusRejected); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("terminal transition err = %v, want ErrInvalidInput", err)
	}
}

func TestDocumentIllegalTransitionFromProcessing(t *testing.T) {
	repo := testDocRepo(t)
	ctx := context.Background()

	doc, err := repo.Create(ctx, newTestDoc())
	if err != nil {
		t.Fatal(err)
	}
	// processing may not jump straight to approved
	if _, err := repo.UpdateStatus(ctx, doc.ID, constants.DocStatusApproved); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	// a failed document may not be re-completed
	if _, err := repo.FinishFailure(ctx, doc.ID, "boom"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.FinishSuccess(ctx, doc.ID, json.RawMessage(`{}`), nil); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDocumentListByStatus(t *testing.T) {
	repo := testDocRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, newTestDoc())
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.Create(ctx, newTestDoc())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.FinishFailure(ctx, second.ID, "boom"); err != nil {
		t.Fatal(err)
	}

	processing, err := repo.ListByStatus(ctx, constants.DocStatusProcessing)
	if err != nil {
		t.Fatal(err)
	}
	if len(processing) != 1 || processing[0].ID != first.ID {
		t.Errorf("processing = %v", processing)
	}

	failed, err := repo.ListByStatus(ctx, constants.DocStatusFailed)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].ID != second.ID {
		t.Errorf("failed = %v", failed)
	}
}
