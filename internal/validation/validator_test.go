package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

func validObservation() models.VesselObservation {
	return models.VesselObservation{
		VesselID:          "9f8c-4a21",
		Speed:             3.2,
		DistanceFromShore: 800,
		DistanceFromPort:  1500,
		Lat:               -5,
		Lon:               -165,
	}
}

func fieldTags(t *testing.T, err error) map[string][]string {
	t.Helper()
	var recErr *RecordError
	require.True(t, errors.As(err, &recErr), "got %v", err)
	tags := make(map[string][]string, len(recErr.Fields))
	for _, f := range recErr.Fields {
		tags[f.Field] = append(tags[f.Field], f.Tag)
	}
	return tags
}

func TestValidator_Observation_Valid(t *testing.T) {
	v := New()

	assert.NoError(t, v.Observation(0, validObservation()))

	edge := validObservation()
	edge.Lat, edge.Lon = 90, 180
	edge.Speed, edge.DistanceFromShore, edge.DistanceFromPort = 0, 0, 0
	assert.NoError(t, v.Observation(0, edge))

	unknown := validObservation()
	unknown.VesselID = models.UnknownVesselID
	assert.NoError(t, v.Observation(0, unknown))
}

func TestValidator_Observation_Invalid(t *testing.T) {
	v := New()

	cases := []struct {
		name  string
		edit  func(*models.VesselObservation)
		field string
		tag   string
	}{
		{"missing id", func(o *models.VesselObservation) { o.VesselID = "" }, "vessel_id", "required"},
		{"id with space", func(o *models.VesselObservation) { o.VesselID = "MV Sea Star" }, "vessel_id", "vesselid"},
		{"negative speed", func(o *models.VesselObservation) { o.Speed = -1 }, "speed", "gte"},
		{"negative shore distance", func(o *models.VesselObservation) { o.DistanceFromShore = -0.1 }, "distance_from_shore", "gte"},
		{"lat out of range", func(o *models.VesselObservation) { o.Lat = 91 }, "lat", "lte"},
		{"lon out of range", func(o *models.VesselObservation) { o.Lon = -180.5 }, "lon", "gte"},
		{"nan speed", func(o *models.VesselObservation) { o.Speed = math.NaN() }, "speed", "finite"},
		{"infinite port distance", func(o *models.VesselObservation) { o.DistanceFromPort = math.Inf(1) }, "distance_from_port", "finite"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := validObservation()
			tc.edit(&obs)

			err := v.Observation(3, obs)

			require.Error(t, err)
			assert.Contains(t, fieldTags(t, err)[tc.field], tc.tag)
			assert.Contains(t, err.Error(), "record 3")
		})
	}
}

func TestValidator_Batch(t *testing.T) {
	v := New()

	bad := validObservation()
	bad.Lat = 100
	batch := models.ObservationBatch{validObservation(), bad, validObservation()}

	err := v.Batch(batch, 100)
	var recErr *RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, 1, recErr.Index)

	assert.NoError(t, v.Batch(models.ObservationBatch{}, 100))

	big := make(models.ObservationBatch, 101)
	assert.ErrorIs(t, v.Batch(big, 100), ErrBatchTooLarge)
}

func TestValidator_FetchRequest(t *testing.T) {
	v := New()

	assert.NoError(t, v.FetchRequest(models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-31", Limit: 100}))
	assert.NoError(t, v.FetchRequest(models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-01", Limit: 1}))

	cases := map[string]struct {
		req   models.FetchRequest
		field string
		tag   string
	}{
		"reversed dates": {models.FetchRequest{StartDate: "2024-02-01", EndDate: "2024-01-01", Limit: 10}, "end_date", "daterange"},
		"bad date":       {models.FetchRequest{StartDate: "01/02/2024", EndDate: "2024-01-01", Limit: 10}, "start_date", "datetime"},
		"zero limit":     {models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-02", Limit: 0}, "limit", "min"},
		"large limit":    {models.FetchRequest{StartDate: "2024-01-01", EndDate: "2024-01-02", Limit: 101}, "limit", "max"},
		"missing end":    {models.FetchRequest{StartDate: "2024-01-01", Limit: 5}, "end_date", "required"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := v.FetchRequest(tc.req)
			require.Error(t, err)
			assert.Contains(t, fieldTags(t, err)[tc.field], tc.tag)
		})
	}
}

func TestRecordError_Message(t *testing.T) {
	err := &RecordError{Index: 2, Fields: []FieldError{
		{Field: "lat", Tag: "lte", Message: "lat must be less than or equal to 90"},
		{Field: "speed", Tag: "gte", Message: "speed must be greater than or equal to 0"},
	}}
	assert.Equal(t, "record 2: lat must be less than or equal to 90; speed must be greater than or equal to 0", err.Error())
}
