// findocd is the analyzer daemon: it serves the HTTP API and, when
// configured, watches directories for new statement files.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/findoc-io/findoc-analyzer/internal/common"
	"github.com/findoc-io/findoc-analyzer/internal/export"
	"github.com/findoc-io/findoc-analyzer/internal/ingest"
	"github.com/findoc-io/findoc-analyzer/internal/llm"
	"github.com/findoc-io/findoc-analyzer/internal/llm/gemini"
	"github.com/findoc-io/findoc-analyzer/internal/llm/openrouter"
	"github.com/findoc-io/findoc-analyzer/internal/pdftext"
	"github.com/findoc-io/findoc-analyzer/internal/pipeline"
	"github.com/findoc-io/findoc-analyzer/internal/report"
	"github.com/findoc-io/findoc-analyzer/internal/repository"
	"github.com/findoc-io/findoc-analyzer/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
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
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	tenantsRepo := repository.NewTenantRepository(pool, logger)
	filesRepo := repository.NewDocumentFileRepository(pool, logger)
	jobsRepo := repository.NewExtractJobRepository(pool, logger)
	portfoliosRepo := repository.NewPortfolioRepository(pool, logger)

	textExtractor := pdftext.NewExtractor(pdftext.Config{
		Pdftotext: cfg.Extract.Pdftotext,
	}, logger)

	pipeCfg := pipeline.Config{MinConfidence: cfg.Extract.MinConfidence}
	textStage := pipeline.NewTextStage(filesRepo, jobsRepo, textExtractor, logger)
	parseStage := pipeline.NewParseStage(logger, pipeCfg, jobsRepo, portfoliosRepo, nil)

	var llmStage *pipeline.LLMStage
	if fe, model := buildFieldExtractor(cfg, logger); fe != nil {
		llmStage = pipeline.NewLLMStage(logger, pipeCfg, jobsRepo, filesRepo, portfoliosRepo, tenantsRepo, fe, model)
	} else {
		logger.Info("llm gap-fill disabled")
	}

	processor := pipeline.NewProcessor(logger, textStage, parseStage, llmStage, cfg.Extract.BatchWorkers)
	ingestor := ingest.NewFSIngestor(tenantsRepo, filesRepo, logger)

	srv := server.New(logger, tenantsRepo, filesRepo, jobsRepo, portfoliosRepo,
		ingestor, processor,
		export.NewService(portfoliosRepo, filesRepo, logger),
		report.NewService(portfoliosRepo, filesRepo, logger),
		func(ctx context.Context) error {
			return repository.HealthCheck(ctx, pool, 2*time.Second, logger)
		},
	)

	if len(cfg.Watch.Roots) > 0 {
		go runWatcher(ctx, cfg, tenantsRepo, ingestor, processor, logger)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("findocd listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}

// buildFieldExtractor picks the gap-fill provider from config; nil disables
// the LLM stage.
func buildFieldExtractor(cfg *common.Config, logger *slog.Logger) (llm.FieldExtractor, string) {
	switch cfg.LLM.Provider {
	case "openrouter":
		return openrouter.NewClient(openrouter.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger), cfg.LLM.Model
	case "gemini":
		return gemini.NewClient(gemini.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		}, logger), cfg.LLM.Model
	case "":
		return nil, ""
	default:
		logger.Warn("unknown LLM provider, gap-fill disabled", "provider", cfg.LLM.Provider)
		return nil, ""
	}
}

// runWatcher ingests and processes files that appear under the watch roots.
func runWatcher(
	ctx context.Context,
	cfg *common.Config,
	tenants repository.TenantRepository,
	ingestor ingest.Ingestor,
	processor *pipeline.Processor,
	logger *slog.Logger,
) {
	tenant, err := tenants.GetByName(ctx, cfg.Watch.Tenant)
	if errors.Is(err, common.ErrNotFound) {
		tenant, err = tenants.Create(ctx, cfg.Watch.Tenant, "USD", nil)
	}
	if err != nil {
		logger.Error("watcher tenant unavailable", "tenant", cfg.Watch.Tenant, "error", err)
		return
	}

	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    cfg.Watch.Roots,
		Debounce: cfg.Watch.Debounce,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		return
	}
	logger.Info("watching for statements", "roots", cfg.Watch.Roots, "tenant", tenant.Name)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)
		case path, ok := <-paths:
			if !ok {
				return
			}
			res, err := ingestor.IngestPath(ctx, tenant.ID, path)
			if err != nil {
				logger.Error("watched file ingest failed", "path", path, "error", err)
				continue
			}
			if res.Deduplicated {
				logger.Info("watched file already ingested", "path", path, "file_id", res.FileID)
				continue
			}
			fileID, err := uuid.Parse(res.FileID)
			if err != nil {
				continue
			}
			if _, _, err := processor.ProcessFile(ctx, fileID); err != nil {
				logger.Error("watched file processing failed", "path", path, "file_id", res.FileID, "err", err)
			}
		}
	}
}
