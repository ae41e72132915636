// Package analysis runs the illegal-fishing pipeline: ocean filter, fishing
// classification, then MPA status assignment.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jengzang/mpawatch-backend-go/internal/metrics"
	"github.com/jengzang/mpawatch-backend-go/internal/models"
	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
	"github.com/jengzang/mpawatch-backend-go/internal/validation"
)

// MaxBatchSize caps a single pipeline run, matching the upstream page size
const MaxBatchSize = models.MaxFetchLimit

// Outcome tells a caller how a run ended. Empty outcomes are normal results,
// not failures.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeEmptyBatch     Outcome = "empty_batch"
	OutcomeNoOceanVessels Outcome = "no_ocean_vessels"
)

// Messages shown for empty outcomes
const (
	MessageEmptyBatch     = "No vessel observations to analyse."
	MessageNoOceanVessels = "No vessels found in ocean regions. Cannot proceed with prediction."
)

// StageCounts records how many observations survived each stage
type StageCounts struct {
	Input   int `json:"input"`
	InOcean int `json:"in_ocean"`
	InMPA   int `json:"in_mpa"`
}

// Result is the output of one pipeline run
type Result struct {
	RunID   string                `json:"run_id"`
	Outcome Outcome               `json:"outcome"`
	Message string                `json:"message,omitempty"`
	Counts  StageCounts           `json:"counts"`
	Summary models.IllegalSummary `json:"summary,omitempty"`
	Records []models.FinalRecord  `json:"records"`
}

// Empty reports whether the run stopped before producing records
func (r *Result) Empty() bool {
	return r.Outcome != OutcomeOK
}

// Predictor labels a batch with fishing predictions
type Predictor interface {
	Predict(batch models.ObservationBatch) ([]models.ClassifiedObservation, error)
}

// Pipeline holds the shared read-only resources of a run. It keeps no
// state between runs, so one Pipeline serves concurrent callers.
type Pipeline struct {
	locator   spatial.Locator
	predictor Predictor
	validator *validation.Validator
	maxBatch  int
	logger    zerolog.Logger
}

// NewPipeline wires the pipeline stages to their resources
func NewPipeline(locator spatial.Locator, predictor Predictor, validator *validation.Validator, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		locator:   locator,
		predictor: predictor,
		validator: validator,
		maxBatch:  MaxBatchSize,
		logger:    logger,
	}
}

// Run validates batch and pushes it through every stage. Validation,
// lookup and model failures are returned as errors; a batch with no vessel
// at sea is a Result with OutcomeNoOceanVessels.
func (p *Pipeline) Run(ctx context.Context, batch models.ObservationBatch) (*Result, error) {
	result := &Result{
		RunID:   uuid.NewString(),
		Counts:  StageCounts{Input: len(batch)},
		Records: []models.FinalRecord{},
	}
	logger := p.logger.With().Str("run_id", result.RunID).Logger()

	res, err := p.run(ctx, batch, result, logger)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Int("input", len(batch)).Msg("pipeline run failed")
		return nil, err
	}

	metrics.PipelineRuns.WithLabelValues(string(res.Outcome)).Inc()
	logger.Info().
		Str("outcome", string(res.Outcome)).
		Int("input", res.Counts.Input).
		Int("in_ocean", res.Counts.InOcean).
		Int("in_mpa", res.Counts.InMPA).
		Msg("pipeline run completed")

	return res, nil
}

func (p *Pipeline) run(ctx context.Context, batch models.ObservationBatch, result *Result, logger zerolog.Logger) (*Result, error) {
	err := timeStage("validate", func() error {
		return p.validator.Batch(batch, p.maxBatch)
	})
	if err != nil {
		return nil, err
	}

	if len(batch) == 0 {
		result.Outcome = OutcomeEmptyBatch
		result.Message = MessageEmptyBatch
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ocean models.ObservationBatch
	err = timeStage("ocean_filter", func() error {
		var err error
		ocean, err = spatial.Filter(batch, p.locator, spatial.LayerOcean)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ocean filter: %w", err)
	}
	result.Counts.InOcean = len(ocean)
	metrics.StageRecords.WithLabelValues("ocean_filter").Add(float64(len(ocean)))

	if len(ocean) == 0 {
		logger.Debug().Int("input", len(batch)).Msg("no observation inside the ocean mask")
		result.Outcome = OutcomeNoOceanVessels
		result.Message = MessageNoOceanVessels
		return result, nil
	}

	var classified []models.ClassifiedObservation
	err = timeStage("classify", func() error {
		var err error
		classified, err = p.predictor.Predict(ocean)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if len(classified) != len(ocean) {
		return nil, fmt.Errorf("classify: got %d predictions for %d records", len(classified), len(ocean))
	}
	metrics.StageRecords.WithLabelValues("classify").Add(float64(len(classified)))

	var records []models.FinalRecord
	err = timeStage("assign_status", func() error {
		var err error
		records, err = AssignStatus(classified, p.locator)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("assign status: %w", err)
	}
	metrics.StageRecords.WithLabelValues("assign_status").Add(float64(len(records)))

	result.Summary = models.Summarize(records)
	for status, n := range result.Summary {
		metrics.IllegalRecords.WithLabelValues(string(status)).Add(float64(n))
	}
	result.Counts.InMPA = result.Summary[models.IllegalYes] + result.Summary[models.IllegalMaybe]
	result.Outcome = OutcomeOK
	result.Records = records

	return result, nil
}

func timeStage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return err
}
