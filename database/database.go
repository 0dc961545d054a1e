package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// Supported database drivers
const (
	DBNone     = "none"
	DBSQLite3  = "sqlite3"
	DBPostgres = "postgres"
	DBMongoDB  = "mongodb"
)

// RegistrationKind distinguishes the registration flows that are recorded
type RegistrationKind string

// Registration kinds
const (
	RegistrationUCC   RegistrationKind = "UCC"
	RegistrationFATCA RegistrationKind = "FATCA"
)

var (
	// ErrDatabaseNotConnected is returned when a store is used before a
	// connection is established or after it is closed
	ErrDatabaseNotConnected = errors.New("database not connected")
	// ErrRecordIsNil is returned when a nil record is passed to an insert
	ErrRecordIsNil = errors.New("record is nil")
	// ErrUnsupportedDriver is returned for an unknown driver name
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrClientCodeNotSet is returned when a client without a code is added
	ErrClientCodeNotSet = errors.New("client code not set")
)

// Store persists gateway activity. Writes happen after the broker accepted a
// request and never affect the response sent to the caller.
type Store interface {
	InsertOrder(ctx context.Context, o *OrderRecord) error
	InsertRegistration(ctx context.Context, r *RegistrationRecord) error
	// AddClient inserts c unless a client with the same code exists. The
	// returned bool reports whether a row was written.
	AddClient(ctx context.Context, c *Client) (bool, error)
	Clients(ctx context.Context) ([]Client, error)
	// Orders returns the recorded orders of one client, newest first
	Orders(ctx context.Context, clientCode string) ([]OrderRecord, error)
	Close() error
}

// OrderRecord is a placed purchase order
type OrderRecord struct {
	ID              uuid.UUID       `json:"id"`
	RefNumber       string          `json:"refNumber"`
	SchemeCode      string          `json:"schemeCode"`
	ClientCode      string          `json:"clientCode"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transactionType"`
	Response        json.RawMessage `json:"response,omitempty"`
	Simulated       bool            `json:"simulated"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// RegistrationRecord is an accepted UCC or FATCA registration
type RegistrationRecord struct {
	ID         uuid.UUID        `json:"id"`
	Kind       RegistrationKind `json:"kind"`
	ClientCode string           `json:"clientCode"`
	Payload    json.RawMessage  `json:"payload,omitempty"`
	Response   json.RawMessage  `json:"response,omitempty"`
	Simulated  bool             `json:"simulated"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Client is an entry in the client registry
type Client struct {
	ClientCode string      `json:"clientCode"`
	FirstName  null.String `json:"firstName"`
	LastName   null.String `json:"lastName"`
	Email      null.String `json:"email"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Prepare fills a missing ID and creation time
func (o *OrderRecord) Prepare(now time.Time) error {
	if o == nil {
		return ErrRecordIsNil
	}
	if o.ID.IsNil() {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		o.ID = id
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now.UTC()
	}
	return nil
}

// Prepare fills a missing ID and creation time
func (r *RegistrationRecord) Prepare(now time.Time) error {
	if r == nil {
		return ErrRecordIsNil
	}
	if r.ID.IsNil() {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		r.ID = id
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now.UTC()
	}
	return nil
}

// Prepare checks the client code and fills a missing creation time
func (c *Client) Prepare(now time.Time) error {
	if c == nil {
		return ErrRecordIsNil
	}
	if c.ClientCode == "" {
		return ErrClientCodeNotSet
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now.UTC()
	}
	return nil
}

// NewClient builds a registry entry, leaving blank optional fields null
func NewClient(code, firstName, lastName, email string) *Client {
	return &Client{
		ClientCode: code,
		FirstName:  null.NewString(firstName, firstName != ""),
		LastName:   null.NewString(lastName, lastName != ""),
		Email:      null.NewString(email, email != ""),
	}
}

// Noop is a Store that discards writes. It backs the "none" driver.
type Noop struct{}

// InsertOrder does nothing
func (Noop) InsertOrder(context.Context, *OrderRecord) error { return nil }

// InsertRegistration does nothing
func (Noop) InsertRegistration(context.Context, *RegistrationRecord) error { return nil }

// AddClient does nothing
func (Noop) AddClient(context.Context, *Client) (bool, error) { return false, nil }

// Clients returns an empty registry
func (Noop) Clients(context.Context) ([]Client, error) { return []Client{}, nil }

// Orders returns no orders
func (Noop) Orders(context.Context, string) ([]OrderRecord, error) { return []OrderRecord{}, nil }

// Close does nothing
func (Noop) Close() error { return nil }
