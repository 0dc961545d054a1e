package sqlite3

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mfdesk/mfgateway/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectPathNotSet(t *testing.T) {
	t.Parallel()
	_, err := Connect(context.Background(), "")
	require.ErrorIs(t, err, errPathNotSet)
}

func TestConnectIdempotentSchema(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "mfgateway.db")
	db, err := Connect(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Connect(context.Background(), path)
	require.NoError(t, err, "reconnecting must not fail on existing tables")
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
}

func TestOrders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := Connect(ctx, filepath.Join(t.TempDir(), "mfgateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	base := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	first := &database.OrderRecord{
		RefNumber:       "ORD1",
		SchemeCode:      "HDFCLQ-GR",
		ClientCode:      "C1",
		Amount:          decimal.NewFromFloat(5000.5),
		TransactionType: "P",
		Response:        json.RawMessage(`{"status":"ok"}`),
		CreatedAt:       base,
	}
	second := &database.OrderRecord{
		RefNumber:       "ORD2",
		SchemeCode:      "ICICIEQ-GR",
		ClientCode:      "C1",
		Amount:          decimal.NewFromInt(1000),
		TransactionType: "P",
		Simulated:       true,
		CreatedAt:       base.Add(time.Minute),
	}
	require.NoError(t, db.InsertOrder(ctx, first))
	require.NoError(t, db.InsertOrder(ctx, second))
	require.NoError(t, db.InsertOrder(ctx, &database.OrderRecord{RefNumber: "ORD3", ClientCode: "C2", Amount: decimal.NewFromInt(1)}))
	assert.False(t, first.ID.IsNil(), "an ID is assigned on insert")

	orders, err := db.Orders(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD2", orders[0].RefNumber)
	assert.True(t, orders[0].Simulated)
	assert.Nil(t, orders[0].Response)
	assert.Equal(t, "ORD1", orders[1].RefNumber)
	assert.Equal(t, first.ID, orders[1].ID)
	assert.True(t, first.Amount.Equal(orders[1].Amount))
	assert.JSONEq(t, `{"status":"ok"}`, string(orders[1].Response))
	assert.True(t, base.Equal(orders[1].CreatedAt))

	orders, err = db.Orders(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	require.ErrorIs(t, db.InsertOrder(ctx, nil), database.ErrRecordIsNil)
}

func TestRegistrations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := Connect(ctx, filepath.Join(t.TempDir(), "mfgateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	rec := &database.RegistrationRecord{
		Kind:       database.RegistrationUCC,
		ClientCode: "C1",
		Payload:    json.RawMessage(`{"client_code":"C1"}`),
	}
	require.NoError(t, db.InsertRegistration(ctx, rec))
	assert.False(t, rec.ID.IsNil())
	assert.False(t, rec.CreatedAt.IsZero())
	require.Error(t, db.InsertRegistration(ctx, rec), "duplicate IDs are rejected")
}

func TestClients(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := Connect(ctx, filepath.Join(t.TempDir(), "mfgateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	clients, err := db.Clients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)

	base := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	c1 := database.NewClient("C1", "Asha", "", "asha@example.com")
	c1.CreatedAt = base
	added, err := db.AddClient(ctx, c1)
	require.NoError(t, err)
	assert.True(t, added)

	dup := database.NewClient("C1", "Other", "Name", "")
	added, err = db.AddClient(ctx, dup)
	require.NoError(t, err)
	assert.False(t, added, "existing client codes are left untouched")

	c2 := database.NewClient("C0", "Ravi", "K", "")
	c2.CreatedAt = base.Add(time.Second)
	_, err = db.AddClient(ctx, c2)
	require.NoError(t, err)

	_, err = db.AddClient(ctx, database.NewClient("", "x", "", ""))
	require.ErrorIs(t, err, database.ErrClientCodeNotSet)

	clients, err = db.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "C1", clients[0].ClientCode)
	assert.Equal(t, "Asha", clients[0].FirstName.String)
	assert.False(t, clients[0].LastName.Valid)
	assert.Equal(t, "asha@example.com", clients[0].Email.String)
	assert.Equal(t, "C0", clients[1].ClientCode)
}

func TestClosedStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := Connect(ctx, filepath.Join(t.TempDir(), "mfgateway.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.ErrorIs(t, db.InsertOrder(ctx, &database.OrderRecord{}), database.ErrDatabaseNotConnected)
	_, err = db.Clients(ctx)
	require.ErrorIs(t, err, database.ErrDatabaseNotConnected)
}
