package classifier

import "github.com/jengzang/mpawatch-backend-go/internal/models"

// FeatureNames is the column order the scaler and forest were fitted on.
// Distances are meters and speed is knots; the vessel id is never a feature.
var FeatureNames = []string{"speed", "distance_from_shore", "distance_from_port", "lat", "lon"}

// NumFeatures is len(FeatureNames)
const NumFeatures = 5

// FeatureVector extracts the model input of one observation
func FeatureVector(obs models.VesselObservation) []float64 {
	return []float64{
		obs.Speed,
		obs.DistanceFromShore,
		obs.DistanceFromPort,
		obs.Lat,
		obs.Lon,
	}
}
