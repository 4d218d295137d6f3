// Package app owns the process lifecycle: it builds the session, credentials, document
// store and services from configuration and hands them to the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"

	"github.com/Lllllllleong/jobboard/internal/config"
	"github.com/Lllllllleong/jobboard/internal/credentials"
	"github.com/Lllllllleong/jobboard/internal/docstore"
	"github.com/Lllllllleong/jobboard/internal/gcp"
	"github.com/Lllllllleong/jobboard/internal/identity"
	"github.com/Lllllllleong/jobboard/internal/metrics"
	"github.com/Lllllllleong/jobboard/internal/services"
	"github.com/Lllllllleong/jobboard/internal/session"
)

// NewLogger returns a JSON logger at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// App holds the wired components. Session is the one signed-in identity for the
// process; everything that needs it receives it from here.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Collectors
	Session    *session.Store
	Privileged *credentials.ServiceAccountProvider
	Resolver   *credentials.Resolver
	Store      docstore.Store
	Async      docstore.AsyncStore
	Identity   *identity.Client
	Jobs       *services.JobRepository
	Profiles   *services.ProfileService

	httpClient  *http.Client
	objectsOnce sync.Once
	objects     *gcp.ObjectStore
	objectsErr  error
	closers     []func() error
}

type Option func(*App)

// WithHTTPClient sets the client used for REST and identity calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) { a.httpClient = hc }
}

// WithStore replaces the configured document store backend.
func WithStore(s docstore.Store) Option {
	return func(a *App) { a.Store = s }
}

// New wires every component described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Registry:   prometheus.NewRegistry(),
		Session:    session.New(),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Metrics = metrics.New(a.Registry)

	if cfg.Auth.ServiceAccountPath != "" {
		p, err := credentials.NewServiceAccountProvider(ctx, cfg.Auth.ServiceAccountPath, cfg.Auth.TokenEarlyExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to load service account: %w", err)
		}
		a.Privileged = p
	} else {
		logger.Info("No service account configured; requests will use the signed-in user's token")
	}

	resolverOpts := []credentials.Option{
		credentials.WithUserTokenForWrites(cfg.Auth.UserTokenForWrites),
		credentials.WithLogger(logger),
		credentials.WithMetrics(a.Metrics),
	}
	if a.Privileged != nil {
		resolverOpts = append(resolverOpts, credentials.WithPrivileged(a.Privileged))
	}
	a.Resolver = credentials.NewResolver(a.Session, resolverOpts...)

	if a.Store == nil {
		store, err := a.newStore(ctx)
		if err != nil {
			return nil, err
		}
		a.Store = store
	}
	a.Async = docstore.NewAsync(a.Store)

	if cfg.Identity.WebAPIKey != "" {
		idc, err := identity.NewClient(cfg.Identity.Endpoint, cfg.Identity.WebAPIKey, a.httpClient, logger)
		if err != nil {
			return nil, err
		}
		a.Identity = idc
	}

	a.Jobs = services.NewJobRepository(a.Store, cfg.JobsCollection, services.WithRepositoryLogger(logger))
	var auth services.Authenticator
	if a.Identity != nil {
		auth = a.Identity
	}
	a.Profiles = services.NewProfileService(a.Store, auth, a.Session, cfg.UsersCollection, logger)

	logger.Info("Application initialized",
		"project", cfg.ProjectID, "backend", cfg.DocStore.Backend, "privileged", a.Privileged != nil)
	return a, nil
}

func (a *App) newStore(ctx context.Context) (docstore.Store, error) {
	cfg := a.Config
	switch cfg.DocStore.Backend {
	case config.BackendSDK:
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID, cfg.DocStore.Database, a.clientOptions()...)
		if err != nil {
			return nil, err
		}
		store := gcp.NewFirestoreStore(client, a.Logger)
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return docstore.NewClient(docstore.Config{
			Endpoint:       cfg.DocStore.Endpoint,
			ProjectID:      cfg.ProjectID,
			Database:       cfg.DocStore.Database,
			RequestTimeout: cfg.DocStore.RequestTimeout,
		}, a.Resolver,
			docstore.WithHTTPClient(a.httpClient),
			docstore.WithLogger(a.Logger),
			docstore.WithMetrics(a.Metrics))
	}
}

// clientOptions makes the client libraries share the privileged token cache. Without
// a service account they fall back to application default credentials.
func (a *App) clientOptions() []option.ClientOption {
	if a.Privileged == nil {
		return nil
	}
	return []option.ClientOption{option.WithTokenSource(a.Privileged.TokenSource())}
}

// Objects returns the GCS object store, creating it on first use.
func (a *App) Objects(ctx context.Context) (*gcp.ObjectStore, error) {
	a.objectsOnce.Do(func() {
		client, err := storage.NewClient(ctx, a.clientOptions()...)
		if err != nil {
			a.objectsErr = fmt.Errorf("failed to create storage client: %w", err)
			return
		}
		a.objects = gcp.NewObjectStore(client)
		a.closers = append(a.closers, a.objects.Close)
	})
	return a.objects, a.objectsErr
}

func (a *App) Exporter(ctx context.Context) (*services.SnapshotExporter, error) {
	objects, err := a.Objects(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewSnapshotExporter(a.Jobs, objects, a.Config.Snapshots.Bucket, a.Logger)
}

func (a *App) Importer(ctx context.Context) (*services.JobImporter, error) {
	objects, err := a.Objects(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewJobImporter(a.Jobs, objects, a.Config.Snapshots.ImportConcurrency, a.Logger), nil
}

// MetricsHandler serves this app's metrics.
func (a *App) MetricsHandler() http.Handler {
	return metrics.Handler(a.Registry)
}

// Close releases client connections and signs the session out.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.Session.Clear()
	return errors.Join(errs...)
}
