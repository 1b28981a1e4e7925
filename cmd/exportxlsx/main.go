package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/export"
	"github.com/stockdesk-app/stockdesk/internal/repository"
)

// exportxlsx writes posted purchases for an optional date window to an XLSX
// workbook.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var (
		out      = flag.String("out", "purchases.xlsx", "output file path")
		fromFlag = flag.String("from", "", "start date (YYYY-MM-DD, inclusive)")
		toFlag   = flag.String("to", "", "end date (YYYY-MM-DD, inclusive)")
	)
	flag.Parse()

	var from, to *time.Time
	if *fromFlag != "" {
		t, err := time.Parse("2006-01-02", *fromFlag)
		if err != nil {
			logger.Error("invalid -from date", "arg", *fromFlag, "error", err)
			os.Exit(2)
		}
		from = &t
	}
	if *toFlag != "" {
		t, err := time.Parse("2006-01-02", *toFlag)
		if err != nil {
			logger.Error("invalid -to date", "arg", *toFlag, "error", err)
			os.Exit(2)
		}
		to = &t
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

	svc := export.NewService(
		repository.NewPurchaseRepository(pool, logger),
		repository.NewSupplierRepository(pool, logger),
		repository.NewProductRepository(pool, logger),
		logger,
	)
	data, err := svc.ExportPurchasesXLSX(ctx, from, to)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("write output", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("export written", "path", *out, "bytes", len(data))
}
