package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/stockdesk-app/stockdesk/constants"
	"github.com/stockdesk-app/stockdesk/internal/async"
	"github.com/stockdesk-app/stockdesk/internal/entity"
	"github.com/stockdesk-app/stockdesk/internal/repository"
)

// Ingestor turns discovered file paths into processing documents and hands
// them to the extraction queue.
type Ingestor struct {
	docs   repository.DocumentRepository
	queue  async.Queue
	logger *slog.Logger

	seen map[string]struct{}
}

func NewIngestor(docs repository.DocumentRepository, queue async.Queue, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{docs: docs, queue: queue, logger: logger, seen: map[string]struct{}{}}
}

// Run consumes watcher events until the channel closes or ctx ends. Paths
// already ingested in this run are skipped; the debounced watcher can still
// re-emit a path after a second write burst.
func (in *Ingestor) Run(ctx context.Context, paths <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			if _, dup := in.seen[path]; dup {
				continue
			}
			in.seen[path] = struct{}{}
			if err := in.ingest(ctx, path); err != nil {
				in.logger.Error("ingest.file.failed", "path", path, "error", err)
			}
		}
	}
}

func (in *Ingestor) ingest(ctx context.Context, path string) error {
	doc := &entity.Document{
		Filename:   filepath.Base(path),
		SourcePath: path,
		MimeType:   constants.MIMEForExt(filepath.Ext(path)),
		Kind:       KindForPath(path),
		Status:     constants.DocStatusProcessing,
	}
	doc, err := in.docs.Create(ctx, doc)
	if err != nil {
		return err
	}
	in.logger.Info("ingest.file.registered",
		"document_id", doc.ID, "kind", doc.Kind, "filename", doc.Filename)
	return in.queue.Enqueue(ctx, async.Job{DocumentID: doc.ID})
}

// KindForPath routes a discovered file to an extraction use case. Inbox
// subdirectory names win over filename keywords; the generic document
// analysis is the default.
func KindForPath(path string) constants.DocKind {
	lower := strings.ToLower(path)
	dir := filepath.Dir(lower)
	switch {
	case strings.Contains(dir, "purchase"), strings.Contains(dir, "invoice"):
		return constants.KindPurchase
	case strings.Contains(dir, "product"), strings.Contains(dir, "catalog"):
		return constants.KindProduct
	}
	name := filepath.Base(lower)
	switch {
	case strings.Contains(name, "purchase"), strings.Contains(name, "invoice"):
		return constants.KindPurchase
	case strings.Contains(name, "product"):
		return constants.KindProduct
	default:
		return constants.KindDocument
	}
}
