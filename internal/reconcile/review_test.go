package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stockdesk-app/stockdesk/constants"
	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/entity"
	"github.com/stockdesk-app/stockdesk/internal/repository"
)

func testReviewDocs(t *testing.T) repository.DocumentRepository {
	t.Helper()
	db, err := repository.OpenDocStore(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("open doc store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repository.NewDocumentRepository(db, nil)
}

func completedPurchaseDoc(t *testing.T, docs repository.DocumentRepository, extracted string) *entity.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := docs.Create(ctx, &entity.Document{
		Filename:   "invoice_4492.jpg",
		SourcePath: "/inbox/invoice_4492.jpg",
		MimeType:   "image/jpeg",
		Kind:       constants.KindPurchase,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	conf := 0.9
	doc, err = docs.FinishSuccess(ctx, doc.ID, json.RawMessage(extracted), &conf)
	if err != nil {
		t.Fatalf("finish document: %v", err)
	}
	return doc
}

func TestApprovePurchasePostsAndTransitions(t *testing.T) {
	ctx := context.Background()
	docs := testReviewDocs(t)
	doc := completedPurchaseDoc(t, docs, `{
		"vendor": "Staples",
		"invoiceNumber": "INV-4492",
		"date": "2024-03-15",
		"totalAmount": 120.50,
		"items": [{"description": "Binder", "quantity": 4, "unitPrice": 5, "totalPrice": 20, "category": "Office Supplies"}]
	}`)

	suppliers := newFakeSuppliers("Staples")
	purchases := &fakePurchases{}
	review := NewReview(docs, NewService(suppliers, newFakeProducts(), newFakeCategories(), purchases, nil), nil)

	res, err := review.Approve(ctx, doc.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Document.Status != constants.DocStatusApproved {
		t.Fatalf("status = %q, want approved", res.Document.Status)
	}
	if res.Posting == nil {
		t.Fatal("purchase document approval should post to the catalog")
	}
	if res.Posting.SupplierCreated {
		t.Error("existing supplier should be reused, not recreated")
	}
	if res.Posting.ProductsCreated != 1 {
		t.Errorf("ProductsCreated = %d, want 1", res.Posting.ProductsCreated)
	}
	if len(purchases.created) != 1 {
		t.Fatalf("purchases written = %d, want 1", len(purchases.created))
	}
}

func TestApproveNonPurchaseSkipsPosting(t *testing.T) {
	ctx := context.Background()
	docs := testReviewDocs(t)
	doc, err := docs.Create(ctx, &entity.Document{
		Filename:   "receipt.jpg",
		SourcePath: "/inbox/receipt.jpg",
		MimeType:   "image/jpeg",
		Kind:       constants.KindDocument,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	conf := 0.7
	if _, err := docs.FinishSuccess(ctx, doc.ID, json.RawMessage(`{"vendor":"Cafe"}`), &conf); err != nil {
		t.Fatalf("finish document: %v", err)
	}

	purchases := &fakePurchases{}
	review := NewReview(docs, NewService(newFakeSuppliers(), newFakeProducts(), newFakeCategories(), purchases, nil), nil)

	res, err := review.Approve(ctx, doc.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Posting != nil {
		t.Error("non-purchase approval should not post to the catalog")
	}
	if len(purchases.created) != 0 {
		t.Errorf("purchases written = %d, want 0", len(purchases.created))
	}
	if res.Document.Status != constants.DocStatusApproved {
		t.Fatalf("status = %q, want approved", res.Document.Status)
	}
}

func TestApproveRequiresCompletedDocument(t *testing.T) {
	ctx := context.Background()
	docs := testReviewDocs(t)
	doc, err := docs.Create(ctx, &entity.Document{
		Filename:   "pending.jpg",
		SourcePath: "/inbox/pending.jpg",
		MimeType:   "image/jpeg",
		Kind:       constants.KindPurchase,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}

	review := NewReview(docs, NewService(newFakeSuppliers(), newFakeProducts(), newFakeCategories(), &fakePurchases{}, nil), nil)
	if _, err := review.Approve(ctx, doc.ID); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("approve of processing document: err = %v, want ErrInvalidInput", err)
	}
}

func TestApprovePostingFailureKeepsDocumentCompleted(t *testing.T) {
	ctx := context.Background()
	docs := testReviewDocs(t)
	doc := completedPurchaseDoc(t, docs, `{"vendor": "Staples", "totalAmount": 10, "items": []}`)

	review := NewReview(docs, NewService(newFakeSuppliers(), newFakeProducts(), newFakeCategories(), &fakePurchases{fail: true}, nil), nil)
	if _, err := review.Approve(ctx, doc.ID); err == nil {
		t.Fatal("expected posting failure to surface")
	}

	got, err := docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got.Status != constants.DocStatusCompleted {
		t.Fatalf("status after failed posting = %q, want completed", got.Status)
	}
}

func TestRejectTransitionsWithoutPosting(t *testing.T) {
	ctx := context.Background()
	docs := testReviewDocs(t)
	doc := completedPurchaseDoc(t, docs, `{"vendor": "Staples", "totalAmount": 10, "items": []}`)

	purchases := &fakePurchases{}
	review := NewReview(docs, NewService(newFakeSuppliers(), newFakeProducts(), newFakeCategories(), purchases, nil), nil)

	got, err := review.Reject(ctx, doc.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != constants.DocStatusRejected {
		t.Fatalf("status = %q, want rejected", got.Status)
	}
	if len(purchases.created) != 0 {
		t.Errorf("purchases written = %d, want 0", len(purchases.created))
	}
}
