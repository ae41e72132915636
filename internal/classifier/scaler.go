package classifier

import (
	"fmt"
	"math"
)

// StandardScaler applies a fitted (x - mean) / scale transform. The fitted
// parameters are never updated at inference time.
type StandardScaler struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// NumFeatures returns the width the scaler was fitted on
func (s *StandardScaler) NumFeatures() int {
	return len(s.Mean)
}

// Validate checks the fitted parameters are usable
func (s *StandardScaler) Validate() error {
	if len(s.Mean) == 0 {
		return fmt.Errorf("%w: scaler has no fitted parameters", ErrFeatureMismatch)
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("%w: scaler mean has %d values, scale has %d", ErrFeatureMismatch, len(s.Mean), len(s.Scale))
	}
	if len(s.FeatureNames) > 0 && len(s.FeatureNames) != len(s.Mean) {
		return fmt.Errorf("%w: scaler names %d features but has %d parameters", ErrFeatureMismatch, len(s.FeatureNames), len(s.Mean))
	}
	for i := range s.Mean {
		if math.IsNaN(s.Mean[i]) || math.IsInf(s.Mean[i], 0) || math.IsNaN(s.Scale[i]) || math.IsInf(s.Scale[i], 0) {
			return fmt.Errorf("scaler parameter %d is not finite", i)
		}
	}
	return nil
}

// Transform scales one feature vector into a new slice.
// A zero scale leaves the centred value unscaled, as the fitted transform does
// for constant features.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d features, scaler expects %d", ErrFeatureMismatch, len(x), len(s.Mean))
	}

	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}
