package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilnlog/kilnlog"
	"github.com/kilnlog/kilnlog/config"
	"github.com/kilnlog/kilnlog/database"
	"github.com/kilnlog/kilnlog/filesystem"
	kilnloghttp "github.com/kilnlog/kilnlog/http"
	"github.com/kilnlog/kilnlog/identity"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Kilnlog HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5812, "HTTP server port")
	serveCmd.Flags().String("base-url", "", "externally reachable base URL for signed blob links")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if cfg.Auth.SigningSecret == "" {
		return errors.New("auth.signing_secret is required to serve (set KILNLOG_AUTH_SIGNING_SECRET or the config file)")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	repo, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	slog.Info("connected to database", "type", cfg.Database.Type, "collection", cfg.Database.Collection)

	err = os.MkdirAll(cfg.Storage.Path, 0o750)
	if err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer func() { _ = root.Close() }()

	signer, err := kilnlog.NewURLSigner([]byte(cfg.Auth.SigningSecret))
	if err != nil {
		return fmt.Errorf("create url signer: %w", err)
	}

	blobs := filesystem.NewBlobStore(root, signer, strings.TrimSuffix(cfg.Server.BaseURL, "/"))

	service, err := kilnlog.NewService(repo, blobs, kilnlog.ServiceConfig{
		SignedURLTTL:        time.Duration(cfg.Service.SignedURLTTL) * time.Second,
		CompensationTimeout: time.Duration(cfg.Service.CompensationTimeout) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	provider, err := identity.NewProvider(cfg.Auth.Tokens)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}

	handlerConfig := kilnloghttp.HandlerConfig{
		Provider: provider,
		Signer:   signer,
		CORS:     cfg.CORS,
	}

	handler := kilnloghttp.NewHandler(&handlerConfig, service, blobs)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "base_url", cfg.Server.BaseURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
