package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oceanlens/enginewatch/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	c := NewClient(&config.IngestionConfig{
		BaseURL:    baseURL,
		TenantName: "acme-shipping",
		VesselName: "mv-test",
		VesselID:   7,
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-03",
		WindowDays: 1,
	})
	c.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return c
}

const windowCSV = "dataTime,ME RPM,ME SHAFT POWER\n2024/01/01 10:00:00,55,4000\n2024/01/01 10:05:00,56,4100\n"

func TestFetchSignsAndConcatenatesWindows(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "true", r.Header.Get("from-api"))
		assert.Equal(t, "acme-shipping", r.Header.Get("X-tenant-id"))
		assert.NotEmpty(t, r.Header.Get("x-request-id"))

		var req exportRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mv-test", req.VesselName)
		assert.Equal(t, "acme-shipping", req.ClientName)
		assert.False(t, req.UploadToGCP)
		assert.Equal(t, signQuery(req.ClientName, req.VesselName, req.Query), req.Token,
			"token must match the gateway's recomputation")
		assert.Contains(t, req.Query, "vesselid IN (7)")

		w.Write([]byte(windowCSV))
	}))
	defer srv.Close()

	f, report, err := testClient(srv.URL).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&requests), "one request per day window")
	assert.Equal(t, 2, report.Windows)
	assert.Equal(t, 0, report.FailedWindows)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 4, f.Len())
	assert.Equal(t, 55.0, f.Value("ME RPM", 0))
}

func TestFetchSkipsFailedWindows(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(windowCSV))
	}))
	defer srv.Close()

	f, report, err := testClient(srv.URL).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Windows)
	assert.Equal(t, 1, report.FailedWindows)
	assert.Equal(t, 2, f.Len(), "only the healthy window contributes rows")
}

func TestFetchFailsWhenEveryWindowFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchRejectsBadDates(t *testing.T) {
	c := NewClient(&config.IngestionConfig{StartDate: "01/01/2024", EndDate: "2024-01-03"})
	_, _, err := c.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(windowCSV))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := testClient(srv.URL).Fetch(ctx)
	assert.Error(t, err)
}

func TestBuildQueryShape(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC)
	q := buildQuery(7, start, end, 45000)

	assert.Contains(t, q, `(packetdata ->> 'AM267') AS "ME SHAFT POWER"`)
	assert.Contains(t, q, `(packetdata ->> 'AM20') AS "ME RPM"`)
	assert.Contains(t, q, `to_char(packettime, 'yyyy/mm/DD HH24:MI:SS') AS "dataTime"`)
	assert.Contains(t, q, "packettime BETWEEN '2024-01-01 00:00:00' AND '2024-01-01 23:59:59'")
	assert.True(t, strings.HasSuffix(q, "LIMIT 45000"))

	assert.Equal(t, q, buildQuery(7, start, end, 45000), "query text is deterministic")
}

func TestSignQueryStable(t *testing.T) {
	a := signQuery("acme", "mv-test", "SELECT 1")
	b := signQuery("acme", "mv-test", "SELECT 1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, signQuery("acme", "mv-test", "SELECT 2"))
}
