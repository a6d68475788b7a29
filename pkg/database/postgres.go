package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
}

// Schema is applied on start-up. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id            text PRIMARY KEY,
	full_name     text NOT NULL DEFAULT '',
	blood_type    text NOT NULL,
	is_donor      boolean NOT NULL DEFAULT false,
	latitude      double precision,
	longitude     double precision,
	phone         text,
	last_donation timestamptz
);

CREATE INDEX IF NOT EXISTS profiles_donor_blood_type_idx ON profiles (is_donor, blood_type);

CREATE TABLE IF NOT EXISTS emergency_requests (
	id             uuid PRIMARY KEY,
	blood_type     text NOT NULL,
	hospital       text NOT NULL,
	urgency        text NOT NULL,
	units_required integer NOT NULL CHECK (units_required >= 1),
	details        text NOT NULL DEFAULT '',
	latitude       double precision NOT NULL,
	longitude      double precision NOT NULL,
	requested_by   text,
	status         text NOT NULL,
	created_at     timestamptz NOT NULL,
	closed_at      timestamptz
);

CREATE INDEX IF NOT EXISTS emergency_requests_status_created_idx ON emergency_requests (status, created_at DESC);
`

func NewPostgres(ctx context.Context, config *PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}

	ctx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

func BootstrapPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to bootstrap postgres schema: %w", err)
	}
	return nil
}
