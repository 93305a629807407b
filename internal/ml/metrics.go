package ml

import (
	"fmt"
	"math/rand"
)

// Metrics summarizes binary classification quality on a held-out split.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	TruePositives  int `json:"truePositives"`
	FalsePositives int `json:"falsePositives"`
	TrueNegatives  int `json:"trueNegatives"`
	FalseNegatives int `json:"falseNegatives"`

	HoldoutSize int `json:"holdoutSize"`
}

// Evaluate reserves a stratified held-out fraction, trains on the
// remainder and scores the held-out rows at the 0.5 probability cutoff.
// It is a diagnostic only: the caller re-fits on the full dataset for
// serving, so the evaluation never affects the served model.
func Evaluate(features [][]float64, labels []bool, holdout float64, cfg TrainConfig) (Metrics, error) {
	if holdout <= 0 || holdout >= 1 {
		return Metrics{}, fmt.Errorf("holdout fraction must be in (0,1), got %v", holdout)
	}
	if len(features) != len(labels) {
		return Metrics{}, fmt.Errorf("feature/label length mismatch: %d vs %d", len(features), len(labels))
	}

	trainIdx, testIdx, err := stratifiedSplit(labels, holdout, cfg.Seed)
	if err != nil {
		return Metrics{}, err
	}

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]bool, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = features[idx]
		trainY[i] = labels[idx]
	}

	model, err := Fit(trainX, trainY, cfg)
	if err != nil {
		return Metrics{}, fmt.Errorf("holdout training failed: %w", err)
	}

	predicted := make([]bool, len(testIdx))
	actual := make([]bool, len(testIdx))
	for i, idx := range testIdx {
		p, err := model.PredictProbability(features[idx])
		if err != nil {
			return Metrics{}, err
		}
		predicted[i] = p >= 0.5
		actual[i] = labels[idx]
	}

	m := Score(predicted, actual)
	m.HoldoutSize = len(testIdx)
	return m, nil
}

// Score computes the confusion matrix and derived metrics.
func Score(predicted, actual []bool) Metrics {
	var m Metrics
	for i := range predicted {
		switch {
		case predicted[i] && actual[i]:
			m.TruePositives++
		case predicted[i] && !actual[i]:
			m.FalsePositives++
		case !predicted[i] && actual[i]:
			m.FalseNegatives++
		default:
			m.TrueNegatives++
		}
	}

	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// stratifiedSplit shuffles each label class independently and reserves
// the holdout fraction of both, so the test split keeps the class ratio.
func stratifiedSplit(labels []bool, holdout float64, seed int64) (trainIdx, testIdx []int, err error) {
	var pos, neg []int
	for i, label := range labels {
		if label {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	if len(pos) < 2 || len(neg) < 2 {
		return nil, nil, fmt.Errorf("cannot stratify: %d positive and %d negative samples", len(pos), len(neg))
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	rng.Shuffle(len(neg), func(i, j int) { neg[i], neg[j] = neg[j], neg[i] })

	posCut := int(float64(len(pos)) * holdout)
	negCut := int(float64(len(neg)) * holdout)
	if posCut < 1 {
		posCut = 1
	}
	if negCut < 1 {
		negCut = 1
	}

	testIdx = append(testIdx, pos[:posCut]...)
	testIdx = append(testIdx, neg[:negCut]...)
	trainIdx = append(trainIdx, pos[posCut:]...)
	trainIdx = append(trainIdx, neg[negCut:]...)
	return trainIdx, testIdx, nil
}
