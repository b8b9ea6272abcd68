package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/boelens/internal/actions"
	"github.com/dgallion1/boelens/internal/api"
	"github.com/dgallion1/boelens/internal/backend"
	"github.com/dgallion1/boelens/internal/config"
	"github.com/dgallion1/boelens/internal/document"
	"github.com/dgallion1/boelens/internal/parser"
	"github.com/dgallion1/boelens/internal/prefstore"
	"github.com/dgallion1/boelens/internal/summary"
	"github.com/dgallion1/boelens/internal/viewer"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	be := backend.NewClient(cfg.BackendURL, cfg.BackendAPIKey)
	var docs document.Source = be
	if cfg.DocumentsDir != "" {
		docs = &parser.DirSource{Dir: cfg.DocumentsDir}
		log.Info("serving documents from directory", "dir", cfg.DocumentsDir)
	}

	var claude *summary.ClaudeClient
	var llm actions.Summarizer
	if cfg.AnthropicAPIKey != "" {
		claude = summary.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		llm = claude
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, summaries disabled")
	}

	prefs, err := prefstore.Open(cfg.DBPath)
	if err != nil {
		log.Error("open preference store", "error", err)
		os.Exit(1)
	}

	// Initialize actions and viewer sessions.
	orch := actions.NewOrchestrator(cfg, be, docs, llm, log)
	orch.Start(ctx)

	sessions := viewer.NewSessionStore(cfg.SessionTTL)
	sessions.RevealOnZero = cfg.File.Viewer.RevealOnZero
	go sessions.RunCleanup(ctx, 5*time.Minute)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Docs:         docs,
		Dashboard:    be,
		Sessions:     sessions,
		Prefs:        prefs,
		Orchestrator: orch,
		Claude:       claude,
	}, log, cfg)

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
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if claude != nil {
			claude.Close()
		}
		be.Close()
		prefs.Close()
	}()

	log.Info("starting boelens", "port", cfg.Port, "categories", len(cfg.File.Categories))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
