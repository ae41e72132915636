package spatial

import (
	"github.com/paulmach/orb"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

// Locator is the containment query the filter needs
type Locator interface {
	ContainingMask(points []orb.Point, layer string) (map[int]struct{}, error)
}

// Filter returns the observations of batch located strictly inside layer,
// in their original order and with every attribute intact. An empty result
// is a normal outcome and is returned as an empty, non-nil batch.
func Filter(batch models.ObservationBatch, locator Locator, layer string) (models.ObservationBatch, error) {
	mask, err := locator.ContainingMask(batch.Points(), layer)
	if err != nil {
		return nil, err
	}

	filtered := make(models.ObservationBatch, 0, len(mask))
	for i, obs := range batch {
		if _, ok := mask[i]; ok {
			filtered = append(filtered, obs)
		}
	}
	return filtered, nil
}
