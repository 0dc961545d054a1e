package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mfdesk/mfgateway/config"
	"github.com/mfdesk/mfgateway/database"
	"github.com/mfdesk/mfgateway/database/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := Open(ctx, &config.DatabaseConfig{Driver: database.DBNone})
	require.NoError(t, err)
	assert.IsType(t, database.Noop{}, s)

	s, err = Open(ctx, &config.DatabaseConfig{Driver: database.DBSQLite3, Path: filepath.Join(t.TempDir(), "db.sqlite")})
	require.NoError(t, err)
	assert.IsType(t, &base.RelationalMap{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, &config.DatabaseConfig{Driver: database.DBSQLite3})
	require.Error(t, err)
	assert.Nil(t, s, "failed connections return a nil interface")

	_, err = Open(ctx, &config.DatabaseConfig{Driver: "mysql"})
	require.ErrorIs(t, err, database.ErrUnsupportedDriver)

	_, err = Open(ctx, &config.DatabaseConfig{Driver: database.DBMongoDB})
	require.Error(t, err)
}
