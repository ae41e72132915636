// Package gfw fetches fishing events from the Global Fishing Watch events API
// and converts them into vessel observations. It sits outside the pipeline:
// the pipeline only ever sees the validated observations it returns.
package gfw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/jengzang/mpawatch-backend-go/internal/metrics"
	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

const eventsPath = "/v3/events"

// ErrNoToken is returned when fetching without a configured API token
var ErrNoToken = errors.New("upstream API token not configured")

// ErrUnavailable is returned while the circuit breaker is open
var ErrUnavailable = errors.New("upstream API temporarily unavailable")

// UpstreamError is a non-success response from the events API
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("events API returned %d: %s", e.StatusCode, e.Body)
}

// Config configures the events client
type Config struct {
	BaseURL          string
	Token            string
	Dataset          string
	Timeout          time.Duration
	RequestsPerSec   float64
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Client calls the events API. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	dataset string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]models.VesselObservation]
	logger  zerolog.Logger
}

// NewClient creates an events client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		dataset: cfg.Dataset,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		logger:  logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]models.VesselObservation](gobreaker.Settings{
		Name:        "gfw-events",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Client errors (bad dates, bad token) say nothing about upstream health
		IsSuccessful: func(err error) bool {
			var upErr *UpstreamError
			if errors.As(err, &upErr) {
				return upErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return c
}

type eventsResponse struct {
	Entries []struct {
		Position struct {
			Lat *float64 `json:"lat"`
			Lon *float64 `json:"lon"`
		} `json:"position"`
		Distances struct {
			StartDistanceFromShoreKm *float64 `json:"startDistanceFromShoreKm"`
			StartDistanceFromPortKm  *float64 `json:"startDistanceFromPortKm"`
		} `json:"distances"`
		Fishing struct {
			AverageSpeedKnots *float64 `json:"averageSpeedKnots"`
		} `json:"fishing"`
		Vessel struct {
			ID string `json:"id"`
		} `json:"vessel"`
	} `json:"entries"`
}

// FetchEvents returns up to req.Limit observations between the request
// dates. Distances are converted from kilometers to meters. Entries missing
// a position, distance or speed are skipped.
func (c *Client) FetchEvents(ctx context.Context, req models.FetchRequest) (models.ObservationBatch, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	obs, err := c.breaker.Execute(func() ([]models.VesselObservation, error) {
		return c.fetch(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.UpstreamRequests.WithLabelValues("circuit_open").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, req models.FetchRequest) ([]models.VesselObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("datasets[0]", c.dataset)
	params.Set("start-date", req.StartDate)
	params.Set("end-date", req.EndDate)
	params.Set("limit", strconv.Itoa(req.Limit))
	params.Set("offset", "0")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+eventsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequests.WithLabelValues("http_error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.UpstreamRequests.WithLabelValues("http_error").Inc()
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	metrics.UpstreamRequests.WithLabelValues("ok").Inc()

	observations := make([]models.VesselObservation, 0, len(payload.Entries))
	skipped := 0
	for _, e := range payload.Entries {
		if len(observations) == req.Limit {
			break
		}
		if e.Position.Lat == nil || e.Position.Lon == nil ||
			e.Distances.StartDistanceFromShoreKm == nil || e.Distances.StartDistanceFromPortKm == nil ||
			e.Fishing.AverageSpeedKnots == nil {
			skipped++
			continue
		}

		vesselID := e.Vessel.ID
		if vesselID == "" {
			vesselID = models.UnknownVesselID
		}

		observations = append(observations, models.VesselObservation{
			VesselID:          vesselID,
			Speed:             *e.Fishing.AverageSpeedKnots,
			DistanceFromShore: *e.Distances.StartDistanceFromShoreKm * 1000,
			DistanceFromPort:  *e.Distances.StartDistanceFromPortKm * 1000,
			Lat:               *e.Position.Lat,
			Lon:               *e.Position.Lon,
		})
	}

	c.logger.Info().
		Str("start_date", req.StartDate).
		Str("end_date", req.EndDate).
		Int("entries", len(payload.Entries)).
		Int("skipped", skipped).
		Dur("took", time.Since(start)).
		Msg("fetched fishing events")

	return observations, nil
}
