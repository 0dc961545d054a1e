package repository

import (
	"context"
	"fmt"

	"github.com/mfdesk/mfgateway/config"
	"github.com/mfdesk/mfgateway/database"
	"github.com/mfdesk/mfgateway/database/mongodb"
	"github.com/mfdesk/mfgateway/database/postgres"
	"github.com/mfdesk/mfgateway/database/sqlite3"
	"github.com/mfdesk/mfgateway/log"
)

// Open connects the store selected by cfg.Driver. The none driver, or an
// empty one, returns a database.Noop.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (database.Store, error) {
	switch cfg.Driver {
	case database.DBNone, "":
		log.Warnln(log.DatabaseMgr, "Database disabled, orders and registrations will not be recorded")
		return database.Noop{}, nil
	case database.DBSQLite3:
		db, err := sqlite3.Connect(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case database.DBPostgres:
		db, err := postgres.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	case database.DBMongoDB:
		db, err := mongodb.Connect(ctx, cfg.URI, cfg.Name)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, cfg.Driver)
	}
}
