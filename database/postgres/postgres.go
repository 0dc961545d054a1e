package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mfdesk/mfgateway/config"
	"github.com/mfdesk/mfgateway/database"
	"github.com/mfdesk/mfgateway/database/base"

	// postgres driver registration
	_ "github.com/lib/pq"
)

var errHostNotSet = errors.New("postgres host not set")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY NOT NULL,
		ref_number TEXT NOT NULL,
		scheme_code TEXT NOT NULL,
		client_code TEXT NOT NULL,
		amount NUMERIC(19, 2) NOT NULL,
		transaction_type VARCHAR(1) NOT NULL,
		response JSONB,
		simulated BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_client_code_idx ON orders (client_code)`,
	`CREATE INDEX IF NOT EXISTS orders_ref_number_idx ON orders (ref_number)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id UUID PRIMARY KEY NOT NULL,
		kind VARCHAR(8) NOT NULL,
		client_code TEXT NOT NULL,
		payload JSONB,
		response JSONB,
		simulated BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		client_code TEXT PRIMARY KEY NOT NULL,
		first_name TEXT,
		last_name TEXT,
		email TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// DSN builds a lib/pq connection URL from cfg
func DSN(cfg *config.DatabaseConfig) (string, error) {
	if cfg.Host == "" {
		return "", errHostNotSet
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   cfg.Host,
		Path:   "/" + cfg.Name,
	}
	if cfg.Port != 0 {
		u.Host += ":" + strconv.FormatUint(uint64(cfg.Port), 10)
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Pass)
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect opens the PostgreSQL database described by cfg and creates the
// tables when missing
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*base.RelationalMap, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	return base.Connect(ctx, database.DBPostgres, dsn, fmt.Sprintf("%s/%s", cfg.Host, cfg.Name), schema)
}
