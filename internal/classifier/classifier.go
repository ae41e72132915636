// Package classifier runs the fitted fishing-behaviour model at inference
// time. Training happens elsewhere; this package only loads the exported
// scaler and forest and applies them, never refitting either.
package classifier

import (
	"fmt"
	"slices"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

// Model is a fitted binary classifier over scaled feature vectors
type Model interface {
	NumFeatures() int
	Predict(x []float64) (models.Prediction, error)
}

// Classifier pairs a fitted scaler with the model trained on its output.
// It is immutable and safe for concurrent use.
type Classifier struct {
	scaler *StandardScaler
	model  Model
}

// New checks that scaler and model agree with FeatureNames and with each
// other
func New(scaler *StandardScaler, model Model) (*Classifier, error) {
	if scaler.NumFeatures() != NumFeatures {
		return nil, fmt.Errorf("%w: scaler fitted on %d features, want %d", ErrFeatureMismatch, scaler.NumFeatures(), NumFeatures)
	}
	if model.NumFeatures() != scaler.NumFeatures() {
		return nil, fmt.Errorf("%w: model expects %d features, scaler produces %d", ErrFeatureMismatch, model.NumFeatures(), scaler.NumFeatures())
	}
	if len(scaler.FeatureNames) > 0 && !slices.Equal(scaler.FeatureNames, FeatureNames) {
		return nil, fmt.Errorf("%w: scaler fitted on %v, want %v", ErrFeatureMismatch, scaler.FeatureNames, FeatureNames)
	}
	if f, ok := model.(*RandomForest); ok && len(f.FeatureNames) > 0 && !slices.Equal(f.FeatureNames, FeatureNames) {
		return nil, fmt.Errorf("%w: forest trained on %v, want %v", ErrFeatureMismatch, f.FeatureNames, FeatureNames)
	}

	return &Classifier{scaler: scaler, model: model}, nil
}

// Load reads and cross-checks both artifacts
func Load(scalerPath, forestPath string) (*Classifier, error) {
	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, err
	}
	forest, err := LoadForest(forestPath)
	if err != nil {
		return nil, err
	}

	c, err := New(scaler, forest)
	if err != nil {
		return nil, &IntegrityError{Artifact: forestPath, Err: err}
	}
	return c, nil
}

// Predict labels every observation of batch. The output has one entry per
// input, in input order.
func (c *Classifier) Predict(batch models.ObservationBatch) ([]models.ClassifiedObservation, error) {
	out := make([]models.ClassifiedObservation, len(batch))

	for i, obs := range batch {
		scaled, err := c.scaler.Transform(FeatureVector(obs))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		pred, err := c.model.Predict(scaled)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		out[i] = models.ClassifiedObservation{
			VesselObservation: obs,
			Prediction:        pred,
			Status:            pred.Status(),
		}
	}

	return out, nil
}
