package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainConfig controls the boosting run.
type TrainConfig struct {
	// Trees is the ensemble size.
	Trees int

	// MaxDepth limits each regression tree.
	MaxDepth int

	// LearningRate is the shrinkage applied to every tree.
	LearningRate float64

	// MinLeaf is the minimum sample count per leaf.
	MinLeaf int

	// Seed drives row subsampling. With SubsampleRatio 1.0 the fit is
	// fully deterministic regardless of seed.
	Seed int64

	// SubsampleRatio is the fraction of rows used per tree.
	SubsampleRatio float64
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.Trees <= 0 {
		c.Trees = 100
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 3
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.1
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = 20
	}
	if c.SubsampleRatio <= 0 || c.SubsampleRatio > 1 {
		c.SubsampleRatio = 1.0
	}
	return c
}

// Fit trains a gradient-boosted tree classifier on the binary logistic
// objective. Trees are fit to gradient residuals with Newton leaf steps.
// A fixed seed yields an identical model on identical data.
func Fit(features [][]float64, labels []bool, cfg TrainConfig) (*Model, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("training set is empty")
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("feature/label length mismatch: %d vs %d", len(features), len(labels))
	}

	width := len(features[0])
	if width == 0 {
		return nil, fmt.Errorf("feature vectors are empty")
	}
	for i, row := range features {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}

	cfg = cfg.withDefaults()
	n := len(features)

	y := make([]float64, n)
	positives := 0
	for i, label := range labels {
		if label {
			y[i] = 1
			positives++
		}
	}

	// Prior log-odds of the positive class, clamped away from the
	// degenerate single-class case.
	p0 := float64(positives) / float64(n)
	p0 = math.Min(math.Max(p0, 1e-6), 1-1e-6)
	base := math.Log(p0 / (1 - p0))

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = base
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	trees := make([]*treeNode, 0, cfg.Trees)
	for t := 0; t < cfg.Trees; t++ {
		for i := 0; i < n; i++ {
			p := sigmoid(raw[i])
			grad[i] = y[i] - p
			hess[i] = p * (1 - p)
		}

		idx := sampleRows(rng, n, cfg.SubsampleRatio)
		tree := buildTree(features, idx, grad, hess, 0, cfg.MaxDepth, cfg.MinLeaf)
		trees = append(trees, tree)

		for i := 0; i < n; i++ {
			raw[i] += cfg.LearningRate * tree.predict(features[i])
		}
	}

	return &Model{
		baseScore:    base,
		trees:        trees,
		learningRate: cfg.LearningRate,
		featureCount: width,
	}, nil
}

// sampleRows picks the row indices used for one tree.
func sampleRows(rng *rand.Rand, n int, ratio float64) []int {
	if ratio >= 1.0 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	k := int(float64(n) * ratio)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)
	return perm[:k]
}
