package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/db"
)

// initStore opens the configured catalog backend. Callers own Close.
func initStore(ctx context.Context) (catalog.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "sqlite":
		return catalog.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return catalog.NewPostgresStore(pool), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openCatalog opens the store and applies the schema.
func openCatalog(ctx context.Context) (catalog.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
