package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/settleup/internal/api"
	"github.com/eshaffer321/settleup/internal/application/telemetry"
	"github.com/eshaffer321/settleup/internal/domain/settlement"
	"github.com/eshaffer321/settleup/internal/domain/worksheet"
	"github.com/eshaffer321/settleup/internal/infrastructure/config"
	"github.com/eshaffer321/settleup/internal/infrastructure/logging"
	"github.com/eshaffer321/settleup/internal/infrastructure/storage"
)

// pruneInterval is how often idle worksheets are dropped.
const pruneInterval = 10 * time.Minute

// RunServe runs the API server.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithComponent(loggingCfg, "api")

	// Initialize storage
	store, err := storage.NewStorageWithLogger(cfg.Storage.DatabasePath, logging.NewLoggerWithComponent(loggingCfg, "storage"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reportOpts, err := cfg.Report.FormatterOptions()
	if err != nil {
		return err
	}

	engine := settlement.NewEngine(
		settlement.WithOptions(cfg.Settlement.BalanceOptions()),
		settlement.WithLogger(logging.NewLoggerWithComponent(loggingCfg, "engine")),
		settlement.WithRecorder(telemetry.NewRecorder(store)),
	)
	sheets := worksheet.NewStore(engine,
		worksheet.WithMaxRows(cfg.Server.MaxRows),
		worksheet.WithMaxSheets(cfg.Server.MaxSheets),
	)

	// Create API config
	apiCfg := api.Config{
		Port:            cfg.Server.Port,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Report:          reportOpts,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		MaxParticipants: cfg.Server.MaxRows,
	}
	if flags.Port > 0 {
		apiCfg.Port = flags.Port
	}

	// Create and start server
	server := api.NewServer(apiCfg, engine, sheets, store, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go pruneSheets(ctx, sheets, cfg.Server.SheetIdleTTL, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}

// pruneSheets drops worksheets idle for longer than ttl until ctx ends.
// A zero ttl keeps sheets forever.
func pruneSheets(ctx context.Context, sheets *worksheet.Store, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sheets.Prune(now, ttl); n > 0 {
				logger.Debug("pruned idle sheets", "removed", n, "remaining", sheets.Len())
			}
		}
	}
}
