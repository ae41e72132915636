package classifier

import (
	"errors"
	"fmt"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

// Node is one node of a fitted decision tree, stored in the flat array
// layout trees are exported in. Samples go left when
// x[Feature] <= Threshold. Leaves have Left == Right == -1 and carry the
// per-class weights in Value.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool {
	return n.Left < 0 && n.Right < 0
}

// Tree is a fitted decision tree; Nodes[0] is the root
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// RandomForest is a fitted binary random forest. Predictions average the
// class probabilities of every tree and take the most probable class.
type RandomForest struct {
	FeatureNames []string `json:"feature_names,omitempty"`
	NFeatures    int      `json:"n_features"`
	Classes      []int    `json:"classes"`
	Trees        []Tree   `json:"trees"`
}

// NumFeatures returns the width the forest was trained on
func (f *RandomForest) NumFeatures() int {
	return f.NFeatures
}

// Validate checks the forest is a well-formed binary classifier over
// NFeatures inputs
func (f *RandomForest) Validate() error {
	if f.NFeatures <= 0 {
		return errors.New("forest declares no features")
	}
	if len(f.FeatureNames) > 0 && len(f.FeatureNames) != f.NFeatures {
		return fmt.Errorf("%w: forest names %d features but declares %d", ErrFeatureMismatch, len(f.FeatureNames), f.NFeatures)
	}
	if len(f.Classes) != 2 || f.Classes[0] != int(models.PredictionNotFishing) || f.Classes[1] != int(models.PredictionFishing) {
		return fmt.Errorf("forest classes must be [0 1], got %v", f.Classes)
	}
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}

	for t, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		for i, n := range tree.Nodes {
			if n.IsLeaf() {
				if len(n.Value) != len(f.Classes) {
					return fmt.Errorf("tree %d node %d: leaf has %d class weights, want %d", t, i, len(n.Value), len(f.Classes))
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= f.NFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", t, i, n.Feature)
			}
			// Children always follow their parent, which also rules out cycles
			if n.Left <= i || n.Left >= len(tree.Nodes) || n.Right <= i || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", t, i)
			}
		}
	}
	return nil
}

// PredictProba returns the averaged class probabilities for a scaled vector
func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("%w: got %d features, forest expects %d", ErrFeatureMismatch, len(x), f.NFeatures)
	}

	proba := make([]float64, len(f.Classes))
	for i := range f.Trees {
		leaf := f.Trees[i].leaf(x)

		var total float64
		for _, w := range leaf.Value {
			total += w
		}
		if total == 0 {
			continue
		}
		for c, w := range leaf.Value {
			proba[c] += w / total
		}
	}

	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba, nil
}

// Predict returns the most probable class; ties go to the first class
func (f *RandomForest) Predict(x []float64) (models.Prediction, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}

	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return models.Prediction(f.Classes[best]), nil
}

func (t *Tree) leaf(x []float64) *Node {
	n := &t.Nodes[0]
	for !n.IsLeaf() {
		if x[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n
}
