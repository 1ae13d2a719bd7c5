package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Malamih/Rara-studio-api/internal/app/bootstrap"
	"github.com/Malamih/Rara-studio-api/internal/data/registry"
	"github.com/Malamih/Rara-studio-api/internal/platform/config"
	applog "github.com/Malamih/Rara-studio-api/internal/platform/log"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Serve the Rara studio page content API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:     "serve",
			Short:   "Synchronize pages and start the HTTP server",
			Aliases: []string{"start"},
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Synchronize stored pages with the content registry and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return syncPages(cmd.Context(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "registry [file]",
			Short: "Validate a content registry and print it as JSON",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				return printRegistry(cmd.OutOrStdout(), path)
			},
		},
	)

	return root
}

type environment struct {
	cfg    *config.Config
	logger *logrus.Logger
	deps   bootstrap.Dependencies
	flush  func()
}

func setup() (*environment, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel, os.Stdout)
	if err != nil {
		return nil, eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
	})
	if err != nil {
		return nil, eris.Wrap(err, "failure initialising sentry")
	}

	return &environment{
		cfg:    cfg,
		logger: logger,
		flush:  flush,
		deps: bootstrap.Dependencies{
			Config:    *cfg,
			Logger:    logger,
			SentryHub: sentryHub,
			Version:   version,
		},
	}, nil
}

func serve(ctx context.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.flush()

	app, err := bootstrap.Build(ctx, rt.deps)
	if err != nil {
		return eris.Wrap(err, "bootstrapping application")
	}
	defer func() {
		if closeErr := app.Cleanup(); closeErr != nil {
			rt.logger.WithError(closeErr).Error("closing page store")
		}
	}()

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", rt.cfg.ServerPort),
		Handler: app.HTTPServer.Handler(),
	}

	rt.logger.WithFields(logrus.Fields{
		"addr":   httpServer.Addr,
		"driver": rt.cfg.StoreDriver,
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		rt.logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	rt.logger.Info("http server shut down cleanly")
	return nil
}

func syncPages(ctx context.Context, out io.Writer) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.flush()

	report, err := bootstrap.Sync(ctx, rt.deps)
	if err != nil {
		return err
	}

	failed := make(map[string]string, len(report.Failed))
	for name, pageErr := range report.Failed {
		failed[name] = pageErr.Error()
	}

	if err := writeJSON(out, map[string]any{
		"created":   report.Created,
		"updated":   report.Updated,
		"unchanged": report.Unchanged,
		"failed":    failed,
	}); err != nil {
		return err
	}

	if !report.OK() {
		return eris.Errorf("%d page(s) failed to synchronize", len(report.Failed))
	}
	return nil
}

func printRegistry(out io.Writer, path string) error {
	if path == "" {
		_ = godotenv.Load()
		path = os.Getenv("CONTENT_REGISTRY")
	}

	reg, err := registry.Load(path)
	if err != nil {
		return eris.Wrap(err, "loading content registry")
	}

	pages := make([]map[string]any, 0, len(reg.Pages()))
	for _, page := range reg.Pages() {
		pages = append(pages, map[string]any{
			"name":     page.Name,
			"sections": page.Sections,
		})
	}

	return writeJSON(out, pages)
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return eris.Wrap(err, "writing json output")
	}
	return nil
}
