package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jengzang/mpawatch-backend-go/internal/analysis"
	"github.com/jengzang/mpawatch-backend-go/internal/models"
	"github.com/jengzang/mpawatch-backend-go/internal/validation"
)

// ErrFetchDisabled is returned by Fetch when no event source is configured
var ErrFetchDisabled = errors.New("event fetching is not configured")

// EventSource supplies observations from an external feed
type EventSource interface {
	FetchEvents(ctx context.Context, req models.FetchRequest) (models.ObservationBatch, error)
}

// AnalysisService handles business logic for analysis runs
type AnalysisService struct {
	pipeline  *analysis.Pipeline
	events    EventSource
	validator *validation.Validator
}

// NewAnalysisService creates a new analysis service. events may be nil.
func NewAnalysisService(pipeline *analysis.Pipeline, events EventSource, validator *validation.Validator) *AnalysisService {
	return &AnalysisService{
		pipeline:  pipeline,
		events:    events,
		validator: validator,
	}
}

// Analyze runs the pipeline over a caller supplied batch
func (s *AnalysisService) Analyze(ctx context.Context, batch models.ObservationBatch) (*analysis.Result, error) {
	if batch == nil {
		batch = models.ObservationBatch{}
	}
	return s.pipeline.Run(ctx, batch)
}

// FetchAndAnalyze pulls events for the requested window and analyses them
func (s *AnalysisService) FetchAndAnalyze(ctx context.Context, req models.FetchRequest) (*analysis.Result, error) {
	if s.events == nil {
		return nil, ErrFetchDisabled
	}
	if err := s.validator.FetchRequest(req); err != nil {
		return nil, err
	}

	batch, err := s.events.FetchEvents(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	return s.pipeline.Run(ctx, s.dropInvalid(batch))
}

// dropInvalid removes upstream records that fail observation validation
func (s *AnalysisService) dropInvalid(batch models.ObservationBatch) models.ObservationBatch {
	valid := make(models.ObservationBatch, 0, len(batch))
	for i, obs := range batch {
		if s.validator.Observation(i, obs) == nil {
			valid = append(valid, obs)
		}
	}
	return valid
}
