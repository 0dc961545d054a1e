package common

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClientWithTimeout(t *testing.T) {
	t.Parallel()
	c := NewHTTPClientWithTimeout(5*time.Second, true)
	assert.Equal(t, 5*time.Second, c.Timeout)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, tr.TLSClientConfig)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)

	c = NewHTTPClientWithTimeout(time.Second, false)
	tr = c.Transport.(*http.Transport)
	if tr.TLSClientConfig != nil {
		assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)
	}
}

func TestCheckDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	missing := filepath.Join(root, "a", "b")
	require.Error(t, CheckDir(missing, false))
	require.NoError(t, CheckDir(missing, true))
	require.NoError(t, CheckDir(missing, false))

	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	require.ErrorIs(t, CheckDir(file, true), errDirIsFile)
}

func TestDates(t *testing.T) {
	t.Parallel()
	from, err := ParseDate(ISODateLayout, "fromDate", "2025-01-01")
	require.NoError(t, err)
	to, err := ParseDate(ISODateLayout, "toDate", "2025-01-08")
	require.NoError(t, err)
	assert.Equal(t, 7, DaysBetween(from, to))
	assert.Equal(t, 7, DaysBetween(to, from))

	_, err = ParseDate(DayFirstDateLayout, "from_date", "2025-01-01")
	require.Error(t, err)

	d, err := ParseDate(CompactDateLayout, "file", "05012025")
	require.NoError(t, err)
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, int64(1700000000123), UnixMillis(time.UnixMilli(1700000000123)))
}
