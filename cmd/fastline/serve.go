package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/api"
	"github.com/hyperengineering/fastline/internal/app"
	"github.com/hyperengineering/fastline/internal/events"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync gateway",
	Long:  "Serve the HTTP sync gateway that devices push their queued logs to. Records are written to the configured remote backend.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// 1. Load configuration
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	slog.Info("configuration loaded", "remote_mode", cfg.Remote.Mode)

	// 2. Remote backend (migrations run for postgres)
	rs, closeRemote, err := app.NewRemote(ctx, cfg)
	if err != nil {
		return err
	}
	if closeRemote != nil {
		defer closeRemote()
	}

	// 3. Completion events
	pub := events.New(cfg.Events.Brokers)
	defer func() {
		if err := pub.Close(); err != nil {
			slog.Error("publisher close error", "error", err)
		}
	}()

	// 4. HTTP router
	handler := api.NewHandler(rs, pub, Version)
	router := api.NewRouter(handler, api.AuthConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		APIKey:     cfg.Auth.APIKey,
		APIKeyUser: cfg.Auth.APIKeyUser,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 5. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 6. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
