package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/internal/api"
	"github.com/goliatone/go-formkit/internal/backend"
	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/internal/store"
	"github.com/goliatone/go-formkit/pkg/document"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var overrides config.Config
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the form API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read()
			if err != nil {
				return err
			}
			applyOverrides(cmd, &cfg, overrides)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
			slog.SetDefault(logger)
			return serve(cmd.Context(), cfg, logger)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&overrides.Addr, "addr", "", "listen address (FORMKIT_ADDR)")
	flags.StringVar(&overrides.Store, "store", "", "schema store: memory or bolt (FORMKIT_STORE)")
	flags.StringVar(&overrides.BoltPath, "bolt-path", "", "bbolt database file (FORMKIT_BOLT_PATH)")
	flags.StringVar(&overrides.FormsDir, "forms-dir", "", "directory of form documents loaded on start (FORMKIT_FORMS_DIR)")
	flags.StringVar(&overrides.BackendURL, "backend-url", "", "submission endpoint of the backend (FORMKIT_BACKEND_URL)")
	flags.IntVar(&overrides.BackendRetries, "backend-retries", 0, "retries for backend requests (FORMKIT_BACKEND_RETRIES)")
	return cmd
}

// applyOverrides copies every flag the user actually set over cfg.
func applyOverrides(cmd *cobra.Command, cfg *config.Config, o config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = o.Addr
	}
	if flags.Changed("store") {
		cfg.Store = o.Store
	}
	if flags.Changed("bolt-path") {
		cfg.BoltPath = o.BoltPath
	}
	if flags.Changed("forms-dir") {
		cfg.FormsDir = o.FormsDir
	}
	if flags.Changed("backend-url") {
		cfg.BackendURL = o.BackendURL
	}
	if flags.Changed("backend-retries") {
		cfg.BackendRetries = o.BackendRetries
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("close store", "err", err)
		}
	}()

	if cfg.FormsDir != "" {
		if err := seedForms(ctx, st, cfg.FormsDir, logger); err != nil {
			return err
		}
	}

	var forwarder backend.Forwarder = backend.Discard{Logger: logger}
	if cfg.BackendURL != "" {
		forwarder = backend.New(cfg.BackendURL,
			backend.WithRetries(cfg.BackendRetries),
			backend.WithServiceToken(cfg.BackendToken),
			backend.WithLogger(logger),
		)
	} else {
		logger.Warn("FORMKIT_BACKEND_URL is not set, submissions are accepted but not stored")
	}

	srv, err := api.New(st, api.WithForwarder(forwarder), api.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreBolt:
		return store.OpenBolt(cfg.BoltPath)
	case config.StoreMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// seedForms creates every document of dir that the store does not hold yet.
func seedForms(ctx context.Context, st store.Store, dir string, logger *slog.Logger) error {
	schemas, err := document.LoadFS(os.DirFS(dir))
	if err != nil {
		return fmt.Errorf("load forms from %s: %w", dir, err)
	}
	for _, schema := range schemas {
		err := st.Create(ctx, schema)
		switch {
		case errors.Is(err, store.ErrExists):
			logger.Info("form already stored, skipping", "form_id", schema.ID)
		case err != nil:
			return err
		default:
			logger.Info("form loaded", "form_id", schema.ID, "version", schema.Version)
		}
	}
	return nil
}
