package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mfdesk/mfgateway/database"
	"github.com/mfdesk/mfgateway/log"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection names
const (
	OrdersCollection        = "orders"
	RegistrationsCollection = "registrations"
	ClientsCollection       = "clients"
)

const (
	serverSelectionTimeout = 30 * time.Second
	pingTimeout            = 10 * time.Second
)

var errURINotSet = errors.New("mongodb uri not set")

// Mongo is a Store backed by a MongoDB database
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
	m      sync.RWMutex
}

type orderDoc struct {
	ID              string    `bson:"_id"`
	RefNumber       string    `bson:"order_ref_number"`
	SchemeCode      string    `bson:"scheme_code"`
	ClientCode      string    `bson:"client_code"`
	Amount          string    `bson:"order_amount"`
	TransactionType string    `bson:"trxn_type"`
	Response        string    `bson:"response,omitempty"`
	Simulated       bool      `bson:"simulated"`
	CreatedAt       time.Time `bson:"created_at"`
}

type registrationDoc struct {
	ID         string    `bson:"_id"`
	Kind       string    `bson:"kind"`
	ClientCode string    `bson:"client_code"`
	Payload    string    `bson:"payload,omitempty"`
	Response   string    `bson:"response,omitempty"`
	Simulated  bool      `bson:"simulated"`
	CreatedAt  time.Time `bson:"created_at"`
}

type clientDoc struct {
	ClientCode string    `bson:"_id"`
	FirstName  *string   `bson:"first_name,omitempty"`
	LastName   *string   `bson:"last_name,omitempty"`
	Email      *string   `bson:"email,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
}

func newOrderDoc(o *database.OrderRecord) orderDoc {
	return orderDoc{
		ID:              o.ID.String(),
		RefNumber:       o.RefNumber,
		SchemeCode:      o.SchemeCode,
		ClientCode:      o.ClientCode,
		Amount:          o.Amount.String(),
		TransactionType: o.TransactionType,
		Response:        string(o.Response),
		Simulated:       o.Simulated,
		CreatedAt:       o.CreatedAt,
	}
}

func (d *orderDoc) record() (database.OrderRecord, error) {
	id, err := uuid.FromString(d.ID)
	if err != nil {
		return database.OrderRecord{}, fmt.Errorf("order %s: %w", d.RefNumber, err)
	}
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return database.OrderRecord{}, fmt.Errorf("order %s amount: %w", d.RefNumber, err)
	}
	rec := database.OrderRecord{
		ID:              id,
		RefNumber:       d.RefNumber,
		SchemeCode:      d.SchemeCode,
		ClientCode:      d.ClientCode,
		Amount:          amount,
		TransactionType: d.TransactionType,
		Simulated:       d.Simulated,
		CreatedAt:       d.CreatedAt,
	}
	if d.Response != "" {
		rec.Response = json.RawMessage(d.Response)
	}
	return rec, nil
}

func newRegistrationDoc(r *database.RegistrationRecord) registrationDoc {
	return registrationDoc{
		ID:         r.ID.String(),
		Kind:       string(r.Kind),
		ClientCode: r.ClientCode,
		Payload:    string(r.Payload),
		Response:   string(r.Response),
		Simulated:  r.Simulated,
		CreatedAt:  r.CreatedAt,
	}
}

func newClientDoc(c *database.Client) clientDoc {
	return clientDoc{
		ClientCode: c.ClientCode,
		FirstName:  c.FirstName.Ptr(),
		LastName:   c.LastName.Ptr(),
		Email:      c.Email.Ptr(),
		CreatedAt:  c.CreatedAt,
	}
}

func (d *clientDoc) client() database.Client {
	return database.Client{
		ClientCode: d.ClientCode,
		FirstName:  null.StringFromPtr(d.FirstName),
		LastName:   null.StringFromPtr(d.LastName),
		Email:      null.StringFromPtr(d.Email),
		CreatedAt:  d.CreatedAt,
	}
}

// clientUpsert returns the filter and update that insert doc only when no
// client with its code exists
func clientUpsert(doc clientDoc) (filter, update bson.D) {
	return bson.D{{Key: "_id", Value: doc.ClientCode}},
		bson.D{{Key: "$setOnInsert", Value: doc}}
}

// Connect dials uri, verifies the primary is reachable and ensures the
// collection indexes exist
func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	if uri == "" {
		return nil, errURINotSet
	}
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(serverSelectionTimeout))
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		if dErr := client.Disconnect(ctx); dErr != nil {
			log.Errorf(log.DatabaseMgr, "MongoDB disconnect failed: %v", dErr)
		}
		return nil, fmt.Errorf("error pinging mongodb: %w", err)
	}
	m := &Mongo{client: client, db: client.Database(dbName), now: time.Now}
	if err = m.ensureIndexes(ctx); err != nil {
		if dErr := client.Disconnect(ctx); dErr != nil {
			log.Errorf(log.DatabaseMgr, "MongoDB disconnect failed: %v", dErr)
		}
		return nil, err
	}
	log.Infof(log.DatabaseMgr, "Connected to mongodb database %s", dbName)
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	indexes := map[string]bson.D{
		OrdersCollection:        {{Key: "client_code", Value: 1}, {Key: "created_at", Value: -1}},
		RegistrationsCollection: {{Key: "client_code", Value: 1}},
		ClientsCollection:       {{Key: "created_at", Value: 1}},
	}
	for coll, keys := range indexes {
		if _, err := m.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys}); err != nil {
			return fmt.Errorf("creating %s index: %w", coll, err)
		}
	}
	return nil
}

func (m *Mongo) collection(name string) (*mongo.Collection, error) {
	if m == nil || m.db == nil {
		return nil, database.ErrDatabaseNotConnected
	}
	return m.db.Collection(name), nil
}

// InsertOrder records a placed order
func (m *Mongo) InsertOrder(ctx context.Context, o *database.OrderRecord) error {
	m.m.RLock()
	defer m.m.RUnlock()
	coll, err := m.collection(OrdersCollection)
	if err != nil {
		return err
	}
	if err = o.Prepare(m.now()); err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, newOrderDoc(o))
	return err
}

// InsertRegistration records an accepted registration
func (m *Mongo) InsertRegistration(ctx context.Context, r *database.RegistrationRecord) error {
	m.m.RLock()
	defer m.m.RUnlock()
	coll, err := m.collection(RegistrationsCollection)
	if err != nil {
		return err
	}
	if err = r.Prepare(m.now()); err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, newRegistrationDoc(r))
	return err
}

// AddClient upserts c keyed by client code, leaving an existing entry
// untouched
func (m *Mongo) AddClient(ctx context.Context, c *database.Client) (bool, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	coll, err := m.collection(ClientsCollection)
	if err != nil {
		return false, err
	}
	if err = c.Prepare(m.now()); err != nil {
		return false, err
	}
	filter, update := clientUpsert(newClientDoc(c))
	res, err := coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// Clients returns the registry in insertion order
func (m *Mongo) Clients(ctx context.Context) ([]database.Client, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	coll, err := m.collection(ClientsCollection)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []clientDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	clients := make([]database.Client, len(docs))
	for i := range docs {
		clients[i] = docs[i].client()
	}
	return clients, nil
}

// Orders returns every recorded order for clientCode, newest first
func (m *Mongo) Orders(ctx context.Context, clientCode string) ([]database.OrderRecord, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	coll, err := m.collection(OrdersCollection)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Find(ctx,
		bson.D{{Key: "client_code", Value: clientCode}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []orderDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	orders := make([]database.OrderRecord, len(docs))
	for i := range docs {
		if orders[i], err = docs[i].record(); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// Close disconnects the client
func (m *Mongo) Close() error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	err := m.client.Disconnect(ctx)
	m.client, m.db = nil, nil
	return err
}
