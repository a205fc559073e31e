package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arenaforge/skirmish-server-go/internal/config"
	"github.com/arenaforge/skirmish-server-go/internal/playback"
	"github.com/arenaforge/skirmish-server-go/internal/replay"
	"github.com/arenaforge/skirmish-server-go/internal/repository"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting replay server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// The summary repository is optional; without a database the server
	// still serves archived replays.
	var replayRepo *repository.ReplayRepository
	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		replayRepo = repository.NewReplayRepository(db)
		if err := replayRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to ensure replays schema", zap.Error(err))
		}
	} else {
		logger.Warn("database url not configured; replay summaries will not be stored")
	}

	builder := replay.NewBuilder(logger)
	archive := replay.NewArchive(cfg.Replay.ArchiveDir, builder)

	hub := playback.NewHub(logger)
	go hub.Run(ctx)

	if err := registerArchived(ctx, cfg.Replay.ArchiveDir, archive, hub, replayRepo, logger); err != nil {
		logger.Fatal("failed to load archived replays", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	cancel()
}

// registerArchived loads every archived event log, indexes it, and makes it
// available for playback. Summaries go to the database when one is
// configured.
func registerArchived(ctx context.Context, dir string, archive *replay.Archive, hub *playback.Hub, repo *repository.ReplayRepository, logger *zap.Logger) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.Info("archive directory does not exist yet", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read archive directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".replay") {
			continue
		}
		encounterID := strings.TrimSuffix(name, ".replay")

		rep, err := archive.Load(encounterID)
		if err != nil {
			logger.Warn("skipping unreadable archive file",
				zap.String("file", filepath.Join(dir, name)),
				zap.Error(err),
			)
			continue
		}
		hub.Register(rep)
		loaded++

		if repo != nil {
			if err := repo.Save(ctx, rep); err != nil {
				logger.Warn("failed to store replay summary",
					zap.String("encounter_id", encounterID),
					zap.Error(err),
				)
			}
		}
	}

	logger.Info("loaded archived replays", zap.Int("count", loaded))
	return nil
}

// initLogger builds the zap logger from the logging configuration.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	return zapCfg.Build()
}
