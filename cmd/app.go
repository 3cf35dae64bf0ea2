package cmd

import (
	"context"
	"fmt"
	"io"

	"docsync/core/cache"
	"docsync/core/config"
	"docsync/core/database"
	"docsync/core/logger"
	"docsync/core/metrics"
	"docsync/core/propstore"
	"docsync/core/remote"
	"docsync/core/storage"
	"docsync/feature/source"
	"docsync/feature/source/bucket"
	"docsync/feature/source/gdrive"
	"docsync/feature/source/localfs"
	"docsync/feature/synchronizer"

	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// app holds the collaborators shared by the sync commands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	props   *propstore.GormStore
	cache   *cache.Cache
	metrics *metrics.Metrics
	closers []io.Closer
}

// newApp loads configuration and opens the property store and entry cache.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	a := &app{cfg: cfg, logger: logg, metrics: metrics.New()}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to property store: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB)
	}
	a.props = propstore.NewGormStore(db, cfg.Sync.Relationship)
	if err := a.props.Migrate(ctx); err != nil {
		a.close()
		return nil, err
	}

	backend, err := cache.NewBackend(cfg.Cache)
	if err != nil {
		a.close()
		return nil, err
	}
	if c, ok := backend.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	a.cache = cache.New(backend, cache.WithLogger(logg))

	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// sourceTree builds the source tree selected by source.kind.
func (a *app) sourceTree(ctx context.Context) (source.Tree, error) {
	cfg := a.cfg.Source
	switch cfg.Kind {
	case "", source.KindLocal:
		tree, err := localfs.NewOS(cfg.Path)
		if err != nil {
			return nil, err
		}
		return tree, nil
	case source.KindBucket:
		client, err := storage.NewClient(a.cfg.Storage)
		if err != nil {
			return nil, err
		}
		return bucket.New(client, a.cfg.Storage.Bucket, cfg.Prefix), nil
	case source.KindDrive:
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		tree, err := gdrive.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return tree, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// connector creates remote stores backed by the entry cache.
func (a *app) connector() synchronizer.Connector {
	client := remote.NewHTTPClient(a.cfg.Remote.Timeout())
	return func(ctx context.Context, host, userToken string) (remote.Store, error) {
		return remote.Connect(remote.Options{
			Host:       host,
			Token:      userToken,
			HTTPClient: client,
			Cache:      a.cache,
			ListingTTL: a.cfg.Cache.ListingTTL(),
			Logger:     a.logger,
		})
	}
}

// synchronizer builds a Synchronizer for opts.
func (a *app) synchronizer(ctx context.Context, opts synchronizer.Options) (*synchronizer.Synchronizer, error) {
	tree, err := a.sourceTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("open source tree: %w", err)
	}
	if opts.OneTimeCode == "" {
		opts.OneTimeCode = a.cfg.Remote.OneTimeCode
	}
	return synchronizer.New(opts, synchronizer.Deps{
		Tree:    tree,
		Props:   a.props,
		Auth:    remote.NewAuthenticator(a.cfg.Remote, nil, a.logger),
		Connect: a.connector(),
		Metrics: a.metrics,
		Logger:  a.logger,
	})
}
