package gfw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

const eventsBody = `{
  "limit": 3, "offset": 0, "total": 3,
  "entries": [
    {
      "id": "e1",
      "position": {"lat": -5.5, "lon": -165.25},
      "distances": {"startDistanceFromShoreKm": 0.8, "startDistanceFromPortKm": 12.5},
      "fishing": {"averageSpeedKnots": 3.1},
      "vessel": {"id": "9f8c-4a21", "name": "SEA STAR"}
    },
    {
      "id": "e2",
      "position": {"lat": 1, "lon": -150},
      "distances": {"startDistanceFromShoreKm": 40, "startDistanceFromPortKm": 90},
      "fishing": {"averageSpeedKnots": 0.4},
      "vessel": {}
    },
    {
      "id": "e3",
      "distances": {"startDistanceFromShoreKm": 1, "startDistanceFromPortKm": 2},
      "fishing": {"averageSpeedKnots": 1},
      "vessel": {"id": "no-position"}
    }
  ]
}`

func testConfig(url string) Config {
	return Config{
		BaseURL:          url,
		Token:            "test-token",
		Dataset:          "public-global-fishing-events:latest",
		Timeout:          5 * time.Second,
		RequestsPerSec:   1000,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}
}

func TestClient_FetchEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/events", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "public-global-fishing-events:latest", q.Get("datasets[0]"))
		assert.Equal(t, "2024-01-01", q.Get("start-date"))
		assert.Equal(t, "2024-01-31", q.Get("end-date"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "0", q.Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(eventsBody))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), zerolog.Nop())
	batch, err := c.FetchEvents(context.Background(), models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-31", Limit: 10})

	require.NoError(t, err)
	require.Len(t, batch, 2, "entry without a position is skipped")
	assert.Equal(t, models.VesselObservation{
		VesselID:          "9f8c-4a21",
		Speed:             3.1,
		DistanceFromShore: 800,
		DistanceFromPort:  12500,
		Lat:               -5.5,
		Lon:               -165.25,
	}, batch[0])
	assert.Equal(t, models.UnknownVesselID, batch[1].VesselID)
	assert.Equal(t, 40000.0, batch[1].DistanceFromShore)
}

func TestClient_FetchEvents_CapsAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(eventsBody))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), zerolog.Nop())
	batch, err := c.FetchEvents(context.Background(), models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-31", Limit: 1})

	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestClient_FetchEvents_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), zerolog.Nop())
	req := models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-31", Limit: 5}

	// Client errors never open the breaker
	for i := 0; i < 4; i++ {
		_, err := c.FetchEvents(context.Background(), req)
		var upErr *UpstreamError
		require.True(t, errors.As(err, &upErr), "attempt %d: %v", i, err)
		assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
		assert.Contains(t, upErr.Body, "invalid token")
	}
}

func TestClient_FetchEvents_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), zerolog.Nop())
	req := models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-31", Limit: 5}

	for i := 0; i < 2; i++ {
		_, err := c.FetchEvents(context.Background(), req)
		var upErr *UpstreamError
		require.True(t, errors.As(err, &upErr))
	}

	_, err := c.FetchEvents(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_FetchEvents_NoToken(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Token = ""
	c := NewClient(cfg, zerolog.Nop())

	_, err := c.FetchEvents(context.Background(), models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-02", Limit: 1})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestClient_FetchEvents_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entries": [`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), zerolog.Nop())
	_, err := c.FetchEvents(context.Background(), models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-02", Limit: 1})
	assert.ErrorContains(t, err, "decode")
}
