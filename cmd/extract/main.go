package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/stockdesk-app/stockdesk/constants"
	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/llm"
	"github.com/stockdesk-app/stockdesk/internal/llm/gemini"
)

// extract runs one extraction against a local file and prints the result
// JSON, without touching any store.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: extract <file> [document|product|purchase]")
		os.Exit(2)
	}
	path := os.Args[1]
	useCase := llm.UseCasePurchase
	if len(os.Args) >= 3 {
		switch llm.UseCase(os.Args[2]) {
		case llm.UseCaseDocument, llm.UseCaseProduct, llm.UseCasePurchase:
			useCase = llm.UseCase(os.Args[2])
		default:
			logger.Error("unknown use case", "arg", os.Args[2])
			os.Exit(2)
		}
	}

	image, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}
	mime := constants.MIMEForExt(filepath.Ext(path))

	cfg := common.LoadConfig()
	client := gemini.NewClient(gemini.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, logger)
	extractor := llm.NewExtractor(client, logger, llm.WithPurchaseAttempts(cfg.AI.MaxAttempts))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var result any
	switch useCase {
	case llm.UseCaseDocument:
		result, err = extractor.AnalyzeDocument(ctx, image, mime)
	case llm.UseCaseProduct:
		result, err = extractor.ExtractProduct(ctx, image, mime)
	case llm.UseCasePurchase:
		result, err = extractor.ExtractPurchase(ctx, image, mime, filepath.Base(path))
	}
	if err != nil {
		logger.Error("extraction failed", "use_case", useCase, "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("marshal result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
