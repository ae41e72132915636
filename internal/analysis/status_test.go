package analysis

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
)

func TestAssignIllegal(t *testing.T) {
	cases := []struct {
		inMPA      bool
		prediction models.Prediction
		want       models.IllegalStatus
	}{
		{true, models.PredictionFishing, models.IllegalYes},
		{true, models.PredictionNotFishing, models.IllegalMaybe},
		{false, models.PredictionFishing, models.IllegalNo},
		{false, models.PredictionNotFishing, models.IllegalNo},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AssignIllegal(tc.inMPA, tc.prediction), "inMPA=%v prediction=%d", tc.inMPA, tc.prediction)
	}
}

func classified(id string, lon, lat float64, pred models.Prediction) models.ClassifiedObservation {
	return models.ClassifiedObservation{
		VesselObservation: models.VesselObservation{VesselID: id, Lat: lat, Lon: lon},
		Prediction:        pred,
		Status:            pred.Status(),
	}
}

func TestAssignStatus(t *testing.T) {
	idx := testIndex(t)
	in := []models.ClassifiedObservation{
		classified("fishing-in-mpa", -165, -5, models.PredictionFishing),
		classified("idle-in-mpa", -162, -2, models.PredictionNotFishing),
		classified("fishing-outside", -150, 5, models.PredictionFishing),
		classified("on-mpa-edge", -170, -5, models.PredictionFishing),
	}

	out, err := AssignStatus(in, idx)

	require.NoError(t, err)
	require.Len(t, out, len(in))
	assert.Equal(t, models.IllegalYes, out[0].Illegal)
	assert.Equal(t, models.IllegalMaybe, out[1].Illegal)
	assert.Equal(t, models.IllegalNo, out[2].Illegal)
	assert.Equal(t, models.IllegalNo, out[3].Illegal, "MPA boundary is outside")
	for i := range in {
		assert.Equal(t, in[i], out[i].ClassifiedObservation)
	}
}

func TestAssignStatus_MissingLayer(t *testing.T) {
	ocean, err := spatial.NewPolygonLayer(spatial.LayerOcean, []orb.Geometry{orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}, nil)
	require.NoError(t, err)
	idx, err := spatial.NewGeometryIndex(ocean)
	require.NoError(t, err)

	_, err = AssignStatus([]models.ClassifiedObservation{classified("a", 0.5, 0.2, 1)}, idx)
	assert.ErrorIs(t, err, spatial.ErrUnknownLayer)
}
