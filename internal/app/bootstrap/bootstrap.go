package bootstrap

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/Malamih/Rara-studio-api/internal/data/database"
	"github.com/Malamih/Rara-studio-api/internal/data/migrations"
	"github.com/Malamih/Rara-studio-api/internal/data/mongostore"
	datapages "github.com/Malamih/Rara-studio-api/internal/data/pages"
	"github.com/Malamih/Rara-studio-api/internal/data/registry"
	"github.com/Malamih/Rara-studio-api/internal/domain/content"
	domainpages "github.com/Malamih/Rara-studio-api/internal/domain/pages"
	"github.com/Malamih/Rara-studio-api/internal/platform/config"
	presentationhttp "github.com/Malamih/Rara-studio-api/internal/presentation/http"
)

const storeCloseTimeout = 5 * time.Second

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	Version   string
}

type Result struct {
	PageService domainpages.Service
	HTTPServer  *presentationhttp.Server
	Registry    *content.Registry
	SyncReport  domainpages.SyncReport
	Repository  domainpages.Repository
	Cleanup     func() error
}

// Store is an opened page repository together with its release function.
type Store struct {
	Repository domainpages.Repository
	Close      func() error
}

// Build composes the Rara studio application layers, synchronizes the stored
// pages with the content registry and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	reg, err := registry.Load(deps.Config.ContentRegistry)
	if err != nil {
		return Result{}, eris.Wrap(err, "loading content registry")
	}

	store, err := OpenStore(ctx, deps.Config, deps.Logger)
	if err != nil {
		return Result{}, err
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := store.Close(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing page store after bootstrap failure")
		}
		return Result{}, wrapper
	}

	report, err := runSync(ctx, store.Repository, reg, deps)
	if err != nil {
		return closeOnError(err)
	}

	pageService, err := domainpages.NewService(store.Repository, reg, deps.Logger, deps.SentryHub)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating page service"))
	}

	httpServer, err := presentationhttp.NewServer(presentationhttp.Options{
		PageService: pageService,
		Health:      store.Repository,
		Logger:      deps.Logger,
		SentryHub:   deps.SentryHub,
		AdminToken:  deps.Config.AdminToken,
		CORSOrigin:  deps.Config.CORSOrigin,
		Version:     deps.Version,
		RateLimiter: presentationhttp.RateLimiterSettings{
			Burst:             deps.Config.RateLimit.Burst,
			RequestsPerSecond: deps.Config.RateLimit.RequestsPerSecond,
			ClientTTL:         deps.Config.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return store.Close()
	}

	return Result{
		PageService: pageService,
		HTTPServer:  httpServer,
		Registry:    reg,
		SyncReport:  report,
		Repository:  store.Repository,
		Cleanup:     cleanup,
	}, nil
}

// Sync opens the configured store, runs one synchronization pass and closes the store.
func Sync(ctx context.Context, deps Dependencies) (domainpages.SyncReport, error) {
	reg, err := registry.Load(deps.Config.ContentRegistry)
	if err != nil {
		return domainpages.SyncReport{}, eris.Wrap(err, "loading content registry")
	}

	store, err := OpenStore(ctx, deps.Config, deps.Logger)
	if err != nil {
		return domainpages.SyncReport{}, err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing page store")
		}
	}()

	return runSync(ctx, store.Repository, reg, deps)
}

// OpenStore opens the page repository selected by cfg.StoreDriver and prepares its schema.
func OpenStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return openMongoStore(ctx, cfg, logger)
	case config.DriverSQLite, "":
		return openSQLiteStore(ctx, cfg, logger)
	default:
		return Store{}, eris.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}

func openSQLiteStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (Store, error) {
	db, err := database.Open(database.Options{Path: cfg.DBPath, Logger: logger})
	if err != nil {
		return Store{}, eris.Wrap(err, "opening database")
	}

	closeDB := func() error { return database.Close(db) }

	if err := migrations.MigratePages(ctx, db, logger); err != nil {
		_ = closeDB()
		return Store{}, eris.Wrap(err, "running pages migrations")
	}

	repo, err := datapages.NewRepository(db, logger)
	if err != nil {
		_ = closeDB()
		return Store{}, eris.Wrap(err, "creating pages repository")
	}

	return Store{Repository: repo, Close: closeDB}, nil
}

func openMongoStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (Store, error) {
	client, db, err := mongostore.Open(ctx, mongostore.Options{
		URI:      cfg.DBURI,
		Database: cfg.DBName,
		Logger:   logger,
	})
	if err != nil {
		return Store{}, eris.Wrap(err, "opening mongodb")
	}

	closeClient := func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), storeCloseTimeout)
		defer cancel()
		return mongostore.Close(closeCtx, client)
	}

	repo, err := mongostore.NewRepository(client, db, logger)
	if err != nil {
		_ = closeClient()
		return Store{}, eris.Wrap(err, "creating pages repository")
	}

	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = closeClient()
		return Store{}, eris.Wrap(err, "ensuring pages indexes")
	}

	return Store{Repository: repo, Close: closeClient}, nil
}

func runSync(ctx context.Context, repo domainpages.Repository, reg *content.Registry, deps Dependencies) (domainpages.SyncReport, error) {
	synchronizer, err := domainpages.NewSynchronizer(repo, reg, deps.Logger, deps.SentryHub)
	if err != nil {
		return domainpages.SyncReport{}, eris.Wrap(err, "creating page synchronizer")
	}

	report, err := synchronizer.Run(ctx)
	if err != nil {
		return report, eris.Wrap(err, "synchronizing pages")
	}

	if !report.OK() && deps.Logger != nil {
		for name, pageErr := range report.Failed {
			deps.Logger.WithFields(logrus.Fields{
				"component": "bootstrap",
				"page":      name,
				"error":     pageErr.Error(),
			}).Warn("page left out of sync")
		}
	}

	return report, nil
}
