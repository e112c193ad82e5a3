package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/answer"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/api"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/auth"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/config"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/extract"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/metasink"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pipeline"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/session"
)

func main() {
	// .env is a development convenience; deployed environments set variables
	// directly.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	users, err := auth.NewFileProvider(cfg.UsersFile)
	if err != nil {
		log.Error("load users", "error", err)
		os.Exit(1)
	}
	log.Info("accounts loaded", "count", users.Count())

	sessions := session.NewManager(cfg.SessionTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Extraction strategies, cheapest first.
	var localOCR extract.OCREngine
	if cfg.LocalOCREnabled {
		localOCR = &extract.TesseractEngine{Languages: cfg.OCRLanguages, DPI: cfg.OCRDPI}
	}
	var cloudOCR extract.OCREngine
	var cloudClient *extract.CloudClient
	if cfg.CloudOCRURL != "" {
		cloudClient = extract.NewCloudClient(cfg.CloudOCRURL, cfg.CloudOCRAPIKey, cfg.CloudOCRTimeout)
		cloudOCR = cloudClient
	}
	cascade := extract.NewCascade(&extract.PDFTextLayer{}, &extract.FitzRasterizer{}, localOCR, cloudOCR, extract.Config{
		QualityThreshold: cfg.QualityThreshold,
		DPI:              cfg.OCRDPI,
		Workers:          cfg.OCRWorkers,
	}, log)

	var meta *metasink.Client
	if cfg.MetadataSinkURL != "" {
		meta = metasink.NewClient(cfg.MetadataSinkURL, cfg.MetadataSinkAPIKey, 10*time.Second)
	}

	groq := answer.NewGroqClient(answer.ClientConfig{
		BaseURL:     cfg.GroqBaseURL,
		APIKey:      cfg.GroqAPIKey,
		Model:       cfg.GroqModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxAnswerTokens,
		Timeout:     cfg.CompletionTimeout,
	})
	answers := answer.NewService(groq, cfg.HistoryWindow, time.Hour, log)

	orch := pipeline.NewOrchestrator(cfg, cascade, meta, sessions, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, answers, sessions, users, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		groq.Close()
		if cloudClient != nil {
			cloudClient.Close()
		}
		if meta != nil {
			meta.Close()
		}
	}()

	log.Info("starting server",
		"port", cfg.Port,
		"model", cfg.GroqModel,
		"local_ocr", cfg.LocalOCREnabled,
		"cloud_ocr", cfg.CloudOCRURL != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
