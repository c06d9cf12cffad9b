package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lysyi3m/policy-radar/app/api"
	"github.com/lysyi3m/policy-radar/app/cfg"
	"github.com/lysyi3m/policy-radar/app/database"
	"github.com/lysyi3m/policy-radar/app/dedup"
	"github.com/lysyi3m/policy-radar/app/feed"
	"github.com/lysyi3m/policy-radar/app/logging"
	"github.com/lysyi3m/policy-radar/app/ranking"
	"github.com/lysyi3m/policy-radar/app/relevance"
	"github.com/lysyi3m/policy-radar/app/source"
	"github.com/lysyi3m/policy-radar/app/tasks"
)

// Scheduled runs get this much time on top of the run budget before the
// scheduler cancels them.
const runTimeoutMargin = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logging.Setup(appCfg.Debug)

	slog.Info("Starting Policy Radar", "version", appCfg.Version, "timezone", appCfg.Timezone)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	catalog := source.NewCatalog(appCfg.SourcesDir)
	if err := catalog.Run(); err != nil {
		slog.Error("Failed to load source catalog", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source catalog loaded", "sources", catalog.Count(), "enabled", len(catalog.Enabled()))

	articleRepo := database.NewArticleRepository(db)
	historyRepo := database.NewFeedHistoryRepository(db)
	sourceRepo := database.NewSourceRepository(db)

	ctx := context.Background()

	// The sources table is the home of reliability overrides, so it is synced
	// before the engine reads them.
	if err := tasks.NewSyncSourcesTask(catalog.Sources(), sourceRepo).Execute(ctx); err != nil {
		slog.Warn("Failed to sync sources table", "error", err)
	}

	reliability, err := sourceRepo.Reliabilities(ctx)
	if err != nil {
		slog.Warn("Failed to load reliability overrides", "error", err)
	}

	tables, err := relevance.LoadTables(appCfg.LexiconFile)
	if err != nil {
		slog.Error("Failed to load lexicon", "file", appCfg.LexiconFile, "error", err)
		os.Exit(1)
	}

	engineOpts := relevance.DefaultOptions()
	engineOpts.RoutineThreshold = appCfg.RoutineThreshold
	engineOpts.CrisisThreshold = appCfg.CrisisThreshold
	engineOpts.Reliability = reliability

	engine, err := relevance.NewEngine(tables, engineOpts)
	if err != nil {
		slog.Error("Failed to build relevance engine", "error", err)
		os.Exit(1)
	}

	gate := dedup.NewGate(articleRepo, dedup.Options{
		Window:   appCfg.DedupWindow(),
		CrossRun: true,
		Disabled: !appCfg.DedupEnabled,
	})

	cleaner := feed.NewCleaner()
	pipeline := &tasks.Pipeline{
		Fetcher:     tasks.NewFetcher(&http.Client{}, appCfg.UserAgents, appCfg.RequestTimeout),
		Extractor:   feed.NewDefaultExtractor(cleaner, feed.NewDateParser()),
		Filterer:    feed.NewFilterer(),
		Content:     feed.NewContentExtractor(cleaner),
		Engine:      engine,
		Gate:        gate,
		History:     historyRepo,
		MaxAttempts: appCfg.MaxAttempts,
		RetryBase:   tasks.DefaultRetryBase,
		MaxJitter:   tasks.DefaultMaxJitter,
	}

	orchOpts := tasks.DefaultOptions()
	orchOpts.WorkerCount = appCfg.WorkerCount
	orchOpts.Budget = appCfg.RunBudget
	orchestrator := tasks.NewOrchestrator(catalog, pipeline, articleRepo, ranking.NewAssembler(ranking.DefaultTables()), orchOpts)

	slog.Info("Starting scheduler", "interval", appCfg.RunInterval, "workers", appCfg.WorkerCount, "budget", appCfg.RunBudget)
	scheduler := tasks.NewScheduler(orchestrator, appCfg.RunInterval, appCfg.RunBudget+runTimeoutMargin)
	scheduler.Start()
	defer scheduler.Stop()

	baseURL := appCfg.BaseUrl
	if baseURL == "" {
		baseURL = "http://localhost:" + appCfg.Port
	}

	generator := api.NewGenerator(baseURL+"/feed.xml", appCfg.Version)
	handler := api.NewHandler(orchestrator, scheduler, catalog, articleRepo, historyRepo, sourceRepo, generator)
	server := api.NewServer(handler, appCfg.APIAccessKey, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "base_url", baseURL, "api_enabled", appCfg.APIAccessKey != "")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Policy Radar stopped")
}
