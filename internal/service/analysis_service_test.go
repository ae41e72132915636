package service

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/mpawatch-backend-go/internal/analysis"
	"github.com/jengzang/mpawatch-backend-go/internal/models"
	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
	"github.com/jengzang/mpawatch-backend-go/internal/validation"
)

type speedPredictor struct{}

// Predict marks trawling speeds as fishing
func (speedPredictor) Predict(batch models.ObservationBatch) ([]models.ClassifiedObservation, error) {
	out := make([]models.ClassifiedObservation, len(batch))
	for i, o := range batch {
		p := models.PredictionNotFishing
		if o.Speed >= 1 && o.Speed <= 5 {
			p = models.PredictionFishing
		}
		out[i] = models.ClassifiedObservation{VesselObservation: o, Prediction: p, Status: p.Status()}
	}
	return out, nil
}

type mockEventSource struct {
	mock.Mock
}

func (m *mockEventSource) FetchEvents(ctx context.Context, req models.FetchRequest) (models.ObservationBatch, error) {
	args := m.Called(ctx, req)
	batch, _ := args.Get(0).(models.ObservationBatch)
	return batch, args.Error(1)
}

func rect(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{{{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat}}}
}

func newTestService(t *testing.T, events EventSource) *AnalysisService {
	t.Helper()
	ocean, err := spatial.NewPolygonLayer(spatial.LayerOcean, []orb.Geometry{rect(-180, -60, -20, 60)}, nil)
	require.NoError(t, err)
	mpa, err := spatial.NewPolygonLayer(spatial.LayerMPA, []orb.Geometry{rect(-170, -10, -160, 0)}, nil)
	require.NoError(t, err)
	idx, err := spatial.NewGeometryIndex(ocean, mpa)
	require.NoError(t, err)

	v := validation.New()
	p := analysis.NewPipeline(idx, speedPredictor{}, v, zerolog.Nop())
	return NewAnalysisService(p, events, v)
}

func TestAnalysisService_Analyze(t *testing.T) {
	s := newTestService(t, nil)

	res, err := s.Analyze(context.Background(), models.ObservationBatch{
		{VesselID: "v-2", Speed: 3, DistanceFromShore: 800, DistanceFromPort: 1500, Lat: -5, Lon: -165},
	})

	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, models.IllegalYes, res.Records[0].Illegal)
}

func TestAnalysisService_Analyze_NilBatch(t *testing.T) {
	s := newTestService(t, nil)

	res, err := s.Analyze(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, analysis.OutcomeEmptyBatch, res.Outcome)
}

func TestAnalysisService_FetchAndAnalyze(t *testing.T) {
	events := new(mockEventSource)
	req := models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-31", Limit: 2}
	events.On("FetchEvents", mock.Anything, req).Return(models.ObservationBatch{
		{VesselID: "a", Speed: 0.3, DistanceFromShore: 100, DistanceFromPort: 100, Lat: -2, Lon: -162},
		{VesselID: "b", Speed: 2, DistanceFromShore: 100, DistanceFromPort: 100, Lat: 45, Lon: 10},
	}, nil)
	s := newTestService(t, events)

	res, err := s.FetchAndAnalyze(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, models.IllegalMaybe, res.Records[0].Illegal)
	events.AssertExpectations(t)
}

func TestAnalysisService_FetchAndAnalyze_InvalidRequest(t *testing.T) {
	events := new(mockEventSource)
	s := newTestService(t, events)

	_, err := s.FetchAndAnalyze(context.Background(), models.FetchRequest{StartDate: "2024-02-01", EndDate: "2024-01-01", Limit: 5})

	var recErr *validation.RecordError
	assert.True(t, errors.As(err, &recErr))
	events.AssertNotCalled(t, "FetchEvents", mock.Anything, mock.Anything)
}

func TestAnalysisService_FetchAndAnalyze_SourceError(t *testing.T) {
	events := new(mockEventSource)
	upstream := errors.New("connection reset")
	events.On("FetchEvents", mock.Anything, mock.Anything).Return(nil, upstream)
	s := newTestService(t, events)

	_, err := s.FetchAndAnalyze(context.Background(), models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-02", Limit: 5})
	assert.ErrorIs(t, err, upstream)
}

func TestAnalysisService_FetchDisabled(t *testing.T) {
	s := newTestService(t, nil)

	_, err := s.FetchAndAnalyze(context.Background(), models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-02", Limit: 5})
	assert.ErrorIs(t, err, ErrFetchDisabled)
}

func TestAnalysisService_FetchAndAnalyze_DropsInvalidUpstreamRecords(t *testing.T) {
	events := new(mockEventSource)
	req := models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-31", Limit: 3}
	events.On("FetchEvents", mock.Anything, req).Return(models.ObservationBatch{
		{VesselID: "bad-lat", Speed: 2, DistanceFromShore: 100, DistanceFromPort: 100, Lat: 95, Lon: -165},
		{VesselID: "a", Speed: 2, DistanceFromShore: 100, DistanceFromPort: 100, Lat: -5, Lon: -165},
		{VesselID: "bad-speed", Speed: -1, DistanceFromShore: 100, DistanceFromPort: 100, Lat: -5, Lon: -165},
	}, nil)
	s := newTestService(t, events)

	res, err := s.FetchAndAnalyze(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Counts.Input)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "a", res.Records[0].VesselID)
	assert.Equal(t, models.IllegalYes, res.Records[0].Illegal)
}

func TestAnalysisService_FetchAndAnalyze_AllUpstreamRecordsInvalid(t *testing.T) {
	events := new(mockEventSource)
	events.On("FetchEvents", mock.Anything, mock.Anything).Return(models.ObservationBatch{
		{VesselID: "bad-lat", Speed: 2, DistanceFromShore: 100, DistanceFromPort: 100, Lat: 95, Lon: -165},
	}, nil)
	s := newTestService(t, events)

	res, err := s.FetchAndAnalyze(context.Background(), models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-02", Limit: 1})

	require.NoError(t, err)
	assert.Equal(t, analysis.OutcomeEmptyBatch, res.Outcome)
}
