package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zoptal/collabd/internal/config"
	"github.com/zoptal/collabd/internal/domain/change"
	"github.com/zoptal/collabd/internal/domain/comment"
	"github.com/zoptal/collabd/internal/domain/presence"
	"github.com/zoptal/collabd/internal/domain/session"
	"github.com/zoptal/collabd/internal/geoip"
	"github.com/zoptal/collabd/internal/httpapi"
	"github.com/zoptal/collabd/internal/newsletter"
	"github.com/zoptal/collabd/internal/sqlite"
	"github.com/zoptal/collabd/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	sessionSvc := session.NewService(sqlite.NewSessionRepository(db), logger)
	changeSvc := change.NewService(sqlite.NewChangeRepository(db), logger)
	commentSvc := comment.NewService(sqlite.NewCommentRepository(db), logger)
	tracker := presence.NewTracker()

	hub := transport.NewHub(logger)
	defer hub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		bridge := transport.NewBridge(rdb, hub, logger)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				logger.Error("bridge stopped", "error", err)
			}
		}()
		logger.Info("redis bridge enabled", "addr", cfg.Redis.Addr)
	}

	provider, err := newsletter.New(cfg.Newsletter)
	if err != nil {
		logger.Error("newsletter provider error", "error", err)
		os.Exit(1)
	}

	router := httpapi.NewServer(httpapi.Deps{
		Sessions:   sessionSvc,
		Changes:    changeSvc,
		Comments:   commentSvc,
		Presence:   tracker,
		Hub:        hub,
		Newsletter: provider,
		Geo:        geoip.NewClient(cfg.Geo.BigDataCloudKey, logger),
		Logger:     logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("collabd listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
