package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/assemble"
	"github.com/vchirila/billchat/internal/chat"
	"github.com/vchirila/billchat/internal/config"
	"github.com/vchirila/billchat/internal/directory"
	"github.com/vchirila/billchat/internal/export"
	"github.com/vchirila/billchat/internal/extract"
	"github.com/vchirila/billchat/internal/ingest"
	"github.com/vchirila/billchat/internal/llm"
	"github.com/vchirila/billchat/internal/llm/local"
	"github.com/vchirila/billchat/internal/llm/openai"
	"github.com/vchirila/billchat/internal/server"
	"github.com/vchirila/billchat/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Server.Mode)
	defer logger.Sync()

	gin.SetMode(cfg.Server.Mode)

	st, err := store.New(cfg.Store.DataDir, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	dir, err := directory.Load(cfg.Store.DirectoryPath, logger)
	if err != nil {
		logger.Fatal("customer directory load failed", zap.Error(err))
	}

	rules, err := loadRules(cfg.Extract.RulesPath)
	if err != nil {
		logger.Fatal("rules load failed", zap.Error(err))
	}
	extractor := extract.NewExtractor(rules, logger)
	pdf := extract.NewPDFText(cfg.Extract.Pdftotext, extract.NewRunner(logger), logger)

	assembler := assemble.New(cfg.Assemble.MaxContextChars, assemble.Policy(cfg.Assemble.OversizePolicy), logger)
	completer := newCompleter(cfg, logger)
	driver := chat.NewDriver(st, assembler, completer, chat.NewSessions(), cfg.Chat.MaxQuestions, logger)

	srv := server.New(st, dir, pdf, extractor, export.NewService(logger), driver, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Ingest.WatchDir != "" {
		startIngest(ctx, cfg, pdf, extractor, st, logger)
	}

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}
	go func() {
		logger.Info("server.start", zap.String("addr", cfg.Server.Addr), zap.String("provider", cfg.LLM.Provider))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(mode string) *zap.Logger {
	if mode == "debug" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}

func loadRules(path string) ([]extract.Rule, error) {
	if path == "" {
		return nil, nil // built-in table
	}
	return extract.LoadRules(path)
}

func newCompleter(cfg *config.Config, logger *zap.Logger) llm.Completer {
	switch cfg.LLM.Provider {
	case "local":
		return local.New(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout, logger)
	default:
		return openai.New(cfg.LLM.APIKey, openai.Options{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxRetries:  cfg.LLM.MaxRetries,
			RPS:         cfg.LLM.RPS,
			Burst:       cfg.LLM.Burst,
		}, logger)
	}
}

func startIngest(ctx context.Context, cfg *config.Config, pdf *extract.PDFText, extractor *extract.Extractor, st *store.Store, logger *zap.Logger) {
	if err := os.MkdirAll(cfg.Ingest.WatchDir, 0o755); err != nil {
		logger.Fatal("ingest dir create failed", zap.Error(err))
	}
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:        cfg.Ingest.WatchDir,
		InitialScan: cfg.Ingest.InitialScan,
		Debounce:    cfg.Ingest.Debounce,
	}, logger)
	if err != nil {
		logger.Fatal("ingest watcher failed", zap.Error(err))
	}
	ingestor := ingest.NewIngestor(cfg.Ingest.WatchDir, pdf, extractor, st, logger)
	go ingestor.Run(ctx, events)
	go func() {
		for err := range errs {
			logger.Error("ingest.watch.error", zap.Error(err))
		}
	}()
}
