package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/reconcile"
	"github.com/stockdesk-app/stockdesk/internal/repository"
)

// review approves or rejects a completed document. Approving a purchase
// document posts its extraction into the catalog.
//
// Usage: review <approve|reject> <document-id>
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: review <approve|reject> <document-id>")
		os.Exit(2)
	}
	action := os.Args[1]
	if action != "approve" && action != "reject" {
		fmt.Fprintf(os.Stderr, "unknown action %q, want approve or reject\n", action)
		os.Exit(2)
	}
	docID, err := uuid.Parse(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid document id %q: %v\n", os.Args[2], err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL env var is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	docDB, err := repository.OpenDocStore(ctx, cfg.DocStore.Path, logger)
	if err != nil {
		logger.Error("open document store", "path", cfg.DocStore.Path, "error", err)
		os.Exit(1)
	}
	defer docDB.Close()

	docs := repository.NewDocumentRepository(docDB, logger)
	posting := reconcile.NewService(
		repository.NewSupplierRepository(pool, logger),
		repository.NewProductRepository(pool, logger),
		repository.NewCategoryRepository(pool, logger),
		repository.NewPurchaseRepository(pool, logger),
		logger,
	)
	review := reconcile.NewReview(docs, posting, logger)

	switch action {
	case "approve":
		res, err := review.Approve(ctx, docID)
		if err != nil {
			logger.Error("approve failed", "doc_id", docID, "error", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
	case "reject":
		doc, err := review.Reject(ctx, docID)
		if err != nil {
			logger.Error("reject failed", "doc_id", docID, "error", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(out))
	}
}
