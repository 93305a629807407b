// Package ml implements the gradient-boosted tree classifier that scores
// transactions. The model is trained once at process startup, is
// immutable afterwards and is safe to share across any number of
// concurrent inference calls without locking.
package ml

import (
	"fmt"
	"math"
)

// Model is a trained gradient-boosted tree ensemble for binary
// classification.
type Model struct {
	baseScore    float64 // prior log-odds
	trees        []*treeNode
	learningRate float64
	featureCount int
}

// PredictProbability returns the positive-class probability for one
// ordered feature vector. The vector width is asserted against the
// training layout on every call; a mismatch means training and inference
// disagree on feature ordering, which must never pass silently.
func (m *Model) PredictProbability(features []float64) (float64, error) {
	if len(features) != m.featureCount {
		return 0, fmt.Errorf("feature vector has %d values, model was trained on %d", len(features), m.featureCount)
	}

	raw := m.baseScore
	for _, tree := range m.trees {
		raw += m.learningRate * tree.predict(features)
	}
	return sigmoid(raw), nil
}

// FeatureCount returns the feature vector width the model was trained on.
func (m *Model) FeatureCount() int { return m.featureCount }

// TreeCount returns the number of fitted trees.
func (m *Model) TreeCount() int { return len(m.trees) }

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
