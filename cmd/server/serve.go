package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/adaptive-learning/internal/application/command"
	"github.com/alem-hub/adaptive-learning/internal/application/query"
	"github.com/alem-hub/adaptive-learning/internal/infrastructure/persistence/postgres"
	httpserver "github.com/alem-hub/adaptive-learning/internal/interface/http"
	"github.com/alem-hub/adaptive-learning/internal/interface/http/handlers"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

type serveOptions struct {
	addr    string
	migrate bool
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server and begin accepting requests from the host platform.

Examples:
  # Start with configuration from the environment
  server serve

  # Listen on another address and apply pending migrations first
  server serve --addr 127.0.0.1:9090 --migrate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	cfg, log, err := root.load()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.HTTP.Addr = opts.addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting adaptive learning hub",
		logger.String("env", cfg.App.Environment),
		logger.String("version", Version),
	)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.migrate {
		applied, err := postgres.NewMigrator(a.db).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied", logger.Int("count", applied))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Application layer
	// ─────────────────────────────────────────────────────────────────────────
	revisions := query.NewGetPendingRevisionsHandler(a.courses, a.learning, log)
	recordResult := command.NewRecordResultHandler(a.courses, a.learning, log)
	recordRead := command.NewRecordReadHandler(a.courses, a.learning, log)
	linkQuestions := command.NewLinkReviewQuestionsHandler(a.courses, a.learning, log)

	// ─────────────────────────────────────────────────────────────────────────
	// Health checks
	// ─────────────────────────────────────────────────────────────────────────
	checker := handlers.NewCompositeHealthChecker(Version)
	checker.AddCheck("database", handlers.NewPingCheck(a.db))
	if a.cache != nil {
		checker.AddOptionalCheck("redis", handlers.NewPingCheck(a.cache))
	}

	srv := httpserver.NewServer(httpserver.Config{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		APIKeys:      cfg.HTTP.APIKeys,
	}, httpserver.Dependencies{
		Revisions:           revisions,
		RecordResult:        recordResult,
		RecordRead:          recordRead,
		LinkReviewQuestions: linkQuestions,
		Logger:              log,
		HealthChecker:       checker,
		Metrics:             a.metrics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("adaptive learning hub stopped")
	return nil
}
