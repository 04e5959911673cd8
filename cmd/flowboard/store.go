package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/flowboard"
	"github.com/meikuraledutech/flowboard/config"
	"github.com/meikuraledutech/flowboard/memory"
	"github.com/meikuraledutech/flowboard/postgres"
	"github.com/meikuraledutech/flowboard/sqlite"
)

// openStore connects the configured backend. The returned close function
// is always safe to call.
func openStore(ctx context.Context, c config.StorageConfig) (flowboard.Store, func(), error) {
	switch c.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, func() {}, fmt.Errorf("ping: %w", err)
		}
		return postgres.New(pool), pool.Close, nil
	case "sqlite":
		st, err := sqlite.Open(c.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		return st, func() { st.Close() }, nil
	case "memory":
		return memory.New(), func() {}, nil
	}
	return nil, func() {}, fmt.Errorf("unknown storage driver %q", c.Driver)
}
