package base

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mfdesk/mfgateway/database"
	"github.com/mfdesk/mfgateway/log"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// Shared log strings for the SQL drivers
const (
	DBConnecting = "Opening connection to %s database %s"
	DBConnected  = "Connected to %s database, %d schema statements applied"
)

// RelationalMap is a connection to a SQL database shared by the sqlite3 and
// postgres drivers. Queries are written with ? placeholders and rebound for
// the driver in use.
type RelationalMap struct {
	db           *sqlx.DB
	InstanceName string
	now          func() time.Time
	m            sync.RWMutex
}

type orderRow struct {
	ID              string      `db:"id"`
	RefNumber       string      `db:"ref_number"`
	SchemeCode      string      `db:"scheme_code"`
	ClientCode      string      `db:"client_code"`
	Amount          string      `db:"amount"`
	TransactionType string      `db:"transaction_type"`
	Response        null.String `db:"response"`
	Simulated       bool        `db:"simulated"`
	CreatedAt       time.Time   `db:"created_at"`
}

type registrationRow struct {
	ID         string      `db:"id"`
	Kind       string      `db:"kind"`
	ClientCode string      `db:"client_code"`
	Payload    null.String `db:"payload"`
	Response   null.String `db:"response"`
	Simulated  bool        `db:"simulated"`
	CreatedAt  time.Time   `db:"created_at"`
}

type clientRow struct {
	ClientCode string      `db:"client_code"`
	FirstName  null.String `db:"first_name"`
	LastName   null.String `db:"last_name"`
	Email      null.String `db:"email"`
	CreatedAt  time.Time   `db:"created_at"`
}

// Connect opens driverName at dsn, verifies the connection and applies each
// schema statement inside a single transaction
func Connect(ctx context.Context, driverName, dsn, displayName string, schema []string) (*RelationalMap, error) {
	log.Debugf(log.DatabaseMgr, DBConnecting, driverName, displayName)
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", driverName, err)
	}
	r := &RelationalMap{db: db, InstanceName: driverName, now: time.Now}
	if err := r.applySchema(ctx, schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Errorf(log.DatabaseMgr, "Closing %s after failed schema: %v", driverName, closeErr)
		}
		return nil, err
	}
	log.Infof(log.DatabaseMgr, DBConnected, driverName, len(schema))
	return r, nil
}

func (r *RelationalMap) applySchema(ctx context.Context, schema []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range schema {
		if _, err = tx.ExecContext(ctx, schema[i]); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf(log.DatabaseMgr, "Schema rollback failed: %v", rbErr)
			}
			return fmt.Errorf("%s schema statement %d: %w", r.InstanceName, i, err)
		}
	}
	return tx.Commit()
}

func (r *RelationalMap) conn() (*sqlx.DB, error) {
	if r == nil || r.db == nil {
		return nil, database.ErrDatabaseNotConnected
	}
	return r.db, nil
}

// InsertOrder records a placed order
func (r *RelationalMap) InsertOrder(ctx context.Context, o *database.OrderRecord) error {
	r.m.RLock()
	defer r.m.RUnlock()
	db, err := r.conn()
	if err != nil {
		return err
	}
	if err = o.Prepare(r.now()); err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, `INSERT INTO orders
		(id, ref_number, scheme_code, client_code, amount, transaction_type, response, simulated, created_at)
		VALUES (:id, :ref_number, :scheme_code, :client_code, :amount, :transaction_type, :response, :simulated, :created_at)`,
		orderRow{
			ID:              o.ID.String(),
			RefNumber:       o.RefNumber,
			SchemeCode:      o.SchemeCode,
			ClientCode:      o.ClientCode,
			Amount:          o.Amount.String(),
			TransactionType: o.TransactionType,
			Response:        rawString(o.Response),
			Simulated:       o.Simulated,
			CreatedAt:       o.CreatedAt,
		})
	return err
}

// InsertRegistration records an accepted registration
func (r *RelationalMap) InsertRegistration(ctx context.Context, reg *database.RegistrationRecord) error {
	r.m.RLock()
	defer r.m.RUnlock()
	db, err := r.conn()
	if err != nil {
		return err
	}
	if err = reg.Prepare(r.now()); err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, `INSERT INTO registrations
		(id, kind, client_code, payload, response, simulated, created_at)
		VALUES (:id, :kind, :client_code, :payload, :response, :simulated, :created_at)`,
		registrationRow{
			ID:         reg.ID.String(),
			Kind:       string(reg.Kind),
			ClientCode: reg.ClientCode,
			Payload:    rawString(reg.Payload),
			Response:   rawString(reg.Response),
			Simulated:  reg.Simulated,
			CreatedAt:  reg.CreatedAt,
		})
	return err
}

// AddClient inserts c unless its client code is already registered
func (r *RelationalMap) AddClient(ctx context.Context, c *database.Client) (bool, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	db, err := r.conn()
	if err != nil {
		return false, err
	}
	if err = c.Prepare(r.now()); err != nil {
		return false, err
	}
	res, err := db.NamedExecContext(ctx, `INSERT INTO clients
		(client_code, first_name, last_name, email, created_at)
		VALUES (:client_code, :first_name, :last_name, :email, :created_at)
		ON CONFLICT (client_code) DO NOTHING`,
		clientRow{
			ClientCode: c.ClientCode,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			Email:      c.Email,
			CreatedAt:  c.CreatedAt,
		})
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clients returns the registry in insertion order
func (r *RelationalMap) Clients(ctx context.Context) ([]database.Client, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	db, err := r.conn()
	if err != nil {
		return nil, err
	}
	var rows []clientRow
	err = db.SelectContext(ctx, &rows,
		`SELECT client_code, first_name, last_name, email, created_at FROM clients ORDER BY created_at, client_code`)
	if err != nil {
		return nil, err
	}
	clients := make([]database.Client, len(rows))
	for i := range rows {
		clients[i] = database.Client{
			ClientCode: rows[i].ClientCode,
			FirstName:  rows[i].FirstName,
			LastName:   rows[i].LastName,
			Email:      rows[i].Email,
			CreatedAt:  rows[i].CreatedAt,
		}
	}
	return clients, nil
}

// Orders returns every recorded order for clientCode, newest first
func (r *RelationalMap) Orders(ctx context.Context, clientCode string) ([]database.OrderRecord, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	db, err := r.conn()
	if err != nil {
		return nil, err
	}
	var rows []orderRow
	err = db.SelectContext(ctx, &rows, db.Rebind(`SELECT id, ref_number, scheme_code, client_code, amount,
		transaction_type, response, simulated, created_at
		FROM orders WHERE client_code = ? ORDER BY created_at DESC`), clientCode)
	if err != nil {
		return nil, err
	}
	orders := make([]database.OrderRecord, len(rows))
	for i := range rows {
		if orders[i], err = rows[i].record(); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (o *orderRow) record() (database.OrderRecord, error) {
	rec := database.OrderRecord{
		RefNumber:       o.RefNumber,
		SchemeCode:      o.SchemeCode,
		ClientCode:      o.ClientCode,
		TransactionType: o.TransactionType,
		Simulated:       o.Simulated,
		CreatedAt:       o.CreatedAt,
	}
	var err error
	if rec.ID, err = uuid.FromString(o.ID); err != nil {
		return rec, err
	}
	if rec.Amount, err = decimal.NewFromString(o.Amount); err != nil {
		return rec, err
	}
	if o.Response.Valid {
		rec.Response = json.RawMessage(o.Response.String)
	}
	return rec, nil
}

// Close closes the connection pool. Later calls fail with
// database.ErrDatabaseNotConnected.
func (r *RelationalMap) Close() error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func rawString(b json.RawMessage) null.String {
	if len(b) == 0 {
		return null.String{}
	}
	return null.StringFrom(string(b))
}
