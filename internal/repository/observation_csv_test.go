package repository

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

func TestReadObservationsCSV(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "observations.csv"))
	require.NoError(t, err)
	defer f.Close()

	batch, err := ReadObservationsCSV(f)

	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, models.VesselObservation{
		VesselID: "v-1", Speed: 0.2, DistanceFromShore: 5000, DistanceFromPort: 20000, Lat: 0, Lon: -160,
	}, batch[0])
	assert.Equal(t, models.UnknownVesselID, batch[1].VesselID)
	assert.Equal(t, 1500.5, batch[1].DistanceFromPort)
}

func TestReadObservationsCSV_Errors(t *testing.T) {
	_, err := ReadObservationsCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadObservationsCSV(strings.NewReader("vessel_id,lat,lon\nv,1,2\n"))
	assert.ErrorContains(t, err, "speed")

	_, err = ReadObservationsCSV(strings.NewReader(
		"vessel_id,speed,distance_from_shore,distance_from_port,lat,lon\nv,fast,1,1,0,0\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestReadObservationsCSV_HeaderOnly(t *testing.T) {
	batch, err := ReadObservationsCSV(strings.NewReader("vessel_id,speed,distance_from_shore,distance_from_port,lat,lon\n"))

	require.NoError(t, err)
	assert.NotNil(t, batch)
	assert.Empty(t, batch)
}

func TestWriteRecordsCSV(t *testing.T) {
	records := []models.FinalRecord{{
		ClassifiedObservation: models.ClassifiedObservation{
			VesselObservation: models.VesselObservation{
				VesselID: "v-1", Speed: 3.5, DistanceFromShore: 800, DistanceFromPort: 1500, Lat: -5, Lon: -165,
			},
			Prediction: models.PredictionFishing,
			Status:     models.PredictionFishing.Status(),
		},
		Illegal: models.IllegalYes,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsCSV(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(RecordColumns, ","), lines[0])
	assert.Equal(t, "v-1,3.5,800,1500,-5,-165,1,Fishing,yes,POINT(-165 -5)", lines[1])
}
