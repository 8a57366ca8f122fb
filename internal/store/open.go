package store

import (
	"context"
	"fmt"

	"shipquote/internal/config"
	"shipquote/internal/db"
)

// Open returns the loader configured by DATA_SOURCE. The returned close
// function releases any connection pool and is never nil.
func Open(ctx context.Context, cfg config.DataConfig) (Loader, func(), error) {
	switch cfg.Source {
	case config.SourcePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to connect db: %w", err)
		}
		return NewPostgresLoader(pool), pool.Close, nil
	case config.SourceFile, "":
		return NewFileLoader(cfg.Dir), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown data source %q", cfg.Source)
	}
}
