package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	URL             string        `envconfig:"URL" split_words:"true" required:"true"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"10"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" split_words:"true" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" split_words:"true" default:"30m"`
	PingTimeout     time.Duration `envconfig:"PING_TIMEOUT" split_words:"true" default:"5s"`
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.URL)
	if dsn == "" {
		return nil, fmt.Errorf("postgres: url is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx := ctx
	if cfg.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.PingTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return db, nil
}
