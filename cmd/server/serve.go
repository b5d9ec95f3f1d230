package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/auth"
	"github.com/agrilinkchain/agrilink/internal/config"
	"github.com/agrilinkchain/agrilink/internal/remote"
	"github.com/agrilinkchain/agrilink/internal/remote/memory"
	"github.com/agrilinkchain/agrilink/internal/remote/postgres"
	"github.com/agrilinkchain/agrilink/internal/remote/supabase"
	"github.com/agrilinkchain/agrilink/internal/server"
	"github.com/agrilinkchain/agrilink/internal/session"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, closeClient, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeClient()

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	resolver := session.NewResolver(client, store, cfg.SessionTTL, logger)
	srv := server.New(cfg, client, resolver, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("agrilink backend listening",
			zap.String("addr", cfg.HTTPAddress()),
			zap.String("backend", cfg.Backend),
			zap.String("session_store", cfg.SessionStore))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	return nil
}

// openBackend connects the remote client selected by BACKEND and returns its release func.
func openBackend(ctx context.Context, cfg config.Config) (remote.Client, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		store, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendSupabase:
		return supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey), func() {}, nil
	case config.BackendMemory:
		logger.Warn("using in-memory backend; data is lost on exit")
		return memory.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func connectPostgres(ctx context.Context, cfg config.Config) (*postgres.Store, error) {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	store, err := postgres.New(ctx, cfg.DatabaseURL, tokens)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return store, nil
}

// openSessionStore builds the session store selected by SESSION_STORE and returns its release func.
func openSessionStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb, err := session.ConnectRedis(ctx, session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
	default:
		store := session.NewMemoryStore(time.Minute)
		return store, func() { _ = store.Close() }, nil
	}
}
