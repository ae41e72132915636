package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

func oceanIndex(t *testing.T) *GeometryIndex {
	t.Helper()
	idx, err := NewGeometryIndex(mustLayer(t, LayerOcean, orb.Polygon{square(-180, -60, -20, 60)}))
	require.NoError(t, err)
	return idx
}

func TestFilter_KeepsOrderAndAttributes(t *testing.T) {
	idx := oceanIndex(t)
	batch := models.ObservationBatch{
		{VesselID: "a", Speed: 1, Lat: 0, Lon: -160},
		{VesselID: "b", Speed: 2, Lat: 0, Lon: 10},
		{VesselID: "c", Speed: 3, DistanceFromShore: 1500, Lat: 5, Lon: -30},
	}

	got, err := Filter(batch, idx, LayerOcean)

	require.NoError(t, err)
	assert.Equal(t, models.ObservationBatch{batch[0], batch[2]}, got)
}

func TestFilter_Idempotent(t *testing.T) {
	idx := oceanIndex(t)
	batch := models.ObservationBatch{
		{VesselID: "a", Lat: 0, Lon: -160},
		{VesselID: "b", Lat: 0, Lon: -20}, // on the boundary
		{VesselID: "c", Lat: 70, Lon: -100},
	}

	once, err := Filter(batch, idx, LayerOcean)
	require.NoError(t, err)
	twice, err := Filter(once, idx, LayerOcean)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Len(t, once, 1)
}

func TestFilter_NoneInside(t *testing.T) {
	idx := oceanIndex(t)

	got, err := Filter(models.ObservationBatch{{VesselID: "a", Lat: 0, Lon: 100}}, idx, LayerOcean)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_UnknownLayer(t *testing.T) {
	_, err := Filter(models.ObservationBatch{{VesselID: "a"}}, oceanIndex(t), LayerMPA)
	assert.ErrorIs(t, err, ErrUnknownLayer)
}
