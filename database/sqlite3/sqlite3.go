package sqlite3

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/mfdesk/mfgateway/common"
	"github.com/mfdesk/mfgateway/database"
	"github.com/mfdesk/mfgateway/database/base"

	// sqlite3 driver registration
	_ "github.com/mattn/go-sqlite3"
)

var errPathNotSet = errors.New("sqlite3 database path not set")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY NOT NULL,
		ref_number TEXT NOT NULL,
		scheme_code TEXT NOT NULL,
		client_code TEXT NOT NULL,
		amount TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		response TEXT,
		simulated BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_client_code_idx ON orders (client_code)`,
	`CREATE INDEX IF NOT EXISTS orders_ref_number_idx ON orders (ref_number)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id TEXT PRIMARY KEY NOT NULL,
		kind TEXT NOT NULL,
		client_code TEXT NOT NULL,
		payload TEXT,
		response TEXT,
		simulated BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		client_code TEXT PRIMARY KEY NOT NULL,
		first_name TEXT,
		last_name TEXT,
		email TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
}

// Connect opens the SQLite3 database at path, creating its directory and
// tables when missing
func Connect(ctx context.Context, path string) (*base.RelationalMap, error) {
	if path == "" {
		return nil, errPathNotSet
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := common.CheckDir(dir, true); err != nil {
			return nil, err
		}
	}
	return base.Connect(ctx, database.DBSQLite3, path+"?_busy_timeout=5000", path, schema)
}
