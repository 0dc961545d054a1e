package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	c.ObserveBrokerRequest("orderentry", "success", 150*time.Millisecond)
	c.ObserveBrokerRequest("orderentry", "success", 50*time.Millisecond)
	c.ObserveBrokerRequest("orderentry", "rejected", time.Millisecond)
	c.ObserveSnapshotDownload(true)
	c.ObserveSnapshotDownload(false)
	c.ObserveSnapshotCacheHit()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.brokerRequests.WithLabelValues("orderentry", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.brokerRequests.WithLabelValues("orderentry", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.masterDownloads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.masterCacheHits))
}

func TestHandler(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	c.ObserveSnapshotCacheHit()

	srv := httptest.NewServer(c.Handler())
	t.Cleanup(srv.Close)
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "mfgateway_scheme_master_cache_hits_total 1"))
}
