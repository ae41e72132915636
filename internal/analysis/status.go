package analysis

import (
	"github.com/paulmach/orb"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
)

// AssignIllegal combines MPA membership with the fishing prediction.
// Outside an MPA a vessel is never illegal, whatever it is doing.
func AssignIllegal(inMPA bool, prediction models.Prediction) models.IllegalStatus {
	switch {
	case !inMPA:
		return models.IllegalNo
	case prediction == models.PredictionFishing:
		return models.IllegalYes
	default:
		return models.IllegalMaybe
	}
}

// AssignStatus labels every classified observation against the MPA layer.
// Membership is computed once for the whole batch; the output keeps input
// order and length.
func AssignStatus(classified []models.ClassifiedObservation, locator spatial.Locator) ([]models.FinalRecord, error) {
	points := make([]orb.Point, len(classified))
	for i, c := range classified {
		points[i] = c.Point()
	}

	inMPA, err := locator.ContainingMask(points, spatial.LayerMPA)
	if err != nil {
		return nil, err
	}

	records := make([]models.FinalRecord, len(classified))
	for i, c := range classified {
		_, in := inMPA[i]
		records[i] = models.FinalRecord{
			ClassifiedObservation: c,
			Illegal:               AssignIllegal(in, c.Prediction),
		}
	}
	return records, nil
}
