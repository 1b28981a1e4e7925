package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/stockdesk-app/stockdesk/internal/async"
	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/ingest"
	"github.com/stockdesk-app/stockdesk/internal/llm"
	"github.com/stockdesk-app/stockdesk/internal/llm/gemini"
	"github.com/stockdesk-app/stockdesk/internal/pipeline"
	"github.com/stockdesk-app/stockdesk/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("opening catalog database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
		logger.Error("catalog database health failed", "error", err)
		os.Exit(1)
	}

	docDB, err := repository.OpenDocStore(ctx, cfg.DocStore.Path, logger)
	if err != nil {
		logger.Error("opening document store", "error", err)
		os.Exit(1)
	}
	defer docDB.Close()

	docs := repository.NewDocumentRepository(docDB, logger)

	client := gemini.NewClient(gemini.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, logger)
	if !client.Ready() {
		logger.Warn("no Gemini API key configured; extraction will fail documents until GEMINI_API_KEY is set")
	}

	// SIGHUP re-reads GEMINI_API_KEY so a rotated key takes effect without a
	// restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			client.ReloadKey()
			logger.Info("api key reloaded", "ready", client.Ready())
		}
	}()

	extractor := llm.NewExtractor(client, logger, llm.WithPurchaseAttempts(cfg.AI.MaxAttempts))
	processor := pipeline.NewProcessor(docs, extractor, logger)
	queue := async.NewProcessorQueue(processor, logger)

	if len(cfg.Ingest.WatchDirs) > 0 {
		paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       cfg.Ingest.WatchDirs,
			InitialScan: true,
			Debounce:    cfg.Ingest.Debounce,
		}, logger)
		if err != nil {
			logger.Error("starting inbox watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			for werr := range errs {
				logger.Warn("inbox watcher error", "error", werr)
			}
		}()
		ingestor := ingest.NewIngestor(docs, queue, logger)
		go ingestor.Run(ctx, paths)
		logger.Info("inbox watcher started", "dirs", cfg.Ingest.WatchDirs)
	}

	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	logger.Info("grpc serving", "addr", cfg.Server.GRPCAddr)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	logger.Info("stopped")
}
