package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/naaf-labs/naaf-cli/internal/db"
	"github.com/naaf-labs/naaf-cli/internal/newsfeed"
	"github.com/naaf-labs/naaf-cli/internal/registry"
	"github.com/naaf-labs/naaf-cli/internal/research"
	"github.com/naaf-labs/naaf-cli/internal/store"
	"github.com/naaf-labs/naaf-cli/internal/stream"
	"github.com/naaf-labs/naaf-cli/pkg/claude"
	"github.com/naaf-labs/naaf-cli/pkg/youdotcom"
)

// assessEnv holds the initialized clients, registry, and coordinator
// shared by the assess and serve commands.
type assessEnv struct {
	Store       store.Store
	Registry    *registry.Registry
	Broker      *stream.Broker
	Coordinator *research.Coordinator
	News        *newsfeed.Service
}

// Close releases resources held by the environment.
func (e *assessEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured store backend and migrates it.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, db.PoolOptions{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		st, err = store.NewSQLite(cfg.Store.Path)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEnv sets up the store, search and extraction clients, loads the
// dimension registry, and wires the coordinator. Callers should defer
// env.Close().
func initEnv(ctx context.Context) (*assessEnv, error) {
	if err := cfg.Validate("assess"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	reg := registry.Default()
	if cfg.Registry.Path != "" {
		reg, err = registry.LoadFromFile(cfg.Registry.Path)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load dimension registry")
		}
		zap.L().Info("dimension registry loaded from file",
			zap.String("path", cfg.Registry.Path),
			zap.Int("dimensions", reg.Count()),
		)
	}

	searchClient := youdotcom.NewClient(cfg.YouCom.Key,
		youdotcom.WithSearchBaseURL(cfg.YouCom.SearchBaseURL),
		youdotcom.WithNewsBaseURL(cfg.YouCom.NewsBaseURL),
		youdotcom.WithRateLimit(cfg.YouCom.RatePerSec),
		youdotcom.WithTimeout(cfg.YouCom.Timeout()),
	)
	extractor := claude.NewExtractor(cfg.Anthropic.Key,
		claude.WithModel(cfg.Anthropic.Model),
		claude.WithMaxTokens(cfg.Anthropic.MaxTokens),
	)

	broker := stream.NewBroker()
	worker := research.NewWorker(searchClient, extractor, zap.L(), research.WorkerOptions{
		Year:             cfg.Research.Year,
		ResultsPerQuery:  cfg.Research.ResultsPerQuery,
		QueriesPerMetric: cfg.Research.QueriesPerMetric,
		QueryRetries:     cfg.Research.QueryRetries,
	})
	coord := research.NewCoordinator(reg, worker, st, broker, zap.L(), research.CoordinatorOptions{
		Deadline: cfg.Research.Deadline(),
	})

	news := newsfeed.NewService(searchClient, zap.L(), newsfeed.Options{
		TTL:        cfg.News.TTL(),
		MaxEntries: cfg.News.MaxEntries,
		ItemCount:  cfg.News.ItemCount,
	})

	return &assessEnv{
		Store:       st,
		Registry:    reg,
		Broker:      broker,
		Coordinator: coord,
		News:        news,
	}, nil
}
