// Package label derives training labels for the synthetic dataset.
//
// The risk score here is a data-generation convenience that produces a
// training signal. It is not part of the fraud logic served to callers,
// and it is deliberately kept separate from the justification rules even
// where the thresholds look similar.
package label

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/opensource-finance/sentinel/internal/domain"
)

// RiskScore computes the weighted sum of independent risk contributions
// for one row.
func RiskScore(row domain.TrainingRow) float64 {
	score := row.Amount / 500 * 0.1
	if row.HourOfDay < 6 {
		score += 0.25
	}
	if row.CreditScore < 450 {
		score += 0.20
	}
	if row.Amount > row.MonthlyIncome*0.5 {
		score += 0.40
	}
	if row.Amount > 2500 {
		score += 0.30
	}
	return score
}

// Policy binarizes risk scores into fraud labels, in place.
type Policy interface {
	Apply(ds domain.Dataset)
}

// QuantilePolicy labels every row whose risk score reaches the given
// upper quantile of the whole dataset. Unlike the per-row random
// threshold it guarantees a minimum positive class of (1-Quantile) of
// the rows, which keeps a stratified train/test split viable.
type QuantilePolicy struct {
	// Quantile in (0,1); 0.97 labels the top 3% as fraud.
	Quantile float64
}

// Apply fills RiskScore and IsFraud for every row.
func (p QuantilePolicy) Apply(ds domain.Dataset) {
	if len(ds) == 0 {
		return
	}

	q := p.Quantile
	if q <= 0 || q >= 1 {
		q = 0.97
	}

	scores := make([]float64, len(ds))
	for i := range ds {
		ds[i].RiskScore = RiskScore(ds[i])
		scores[i] = ds[i].RiskScore
	}

	sort.Float64s(scores)
	idx := int(float64(len(scores)) * q)
	if idx >= len(scores) {
		idx = len(scores) - 1
	}
	cutoff := scores[idx]

	for i := range ds {
		ds[i].IsFraud = ds[i].RiskScore >= cutoff
	}
}

// RandomThresholdPolicy compares each row's risk score against an
// independent uniform threshold drawn from [0.5, 0.95).
//
// Deprecated: with an unlucky seed the positive class can end up too
// small to stratify a train/test split. Use QuantilePolicy; this one is
// kept for comparison runs only.
type RandomThresholdPolicy struct {
	Seed int64
}

// Apply fills RiskScore and IsFraud for every row.
func (p RandomThresholdPolicy) Apply(ds domain.Dataset) {
	rng := rand.New(rand.NewSource(p.Seed))
	for i := range ds {
		ds[i].RiskScore = RiskScore(ds[i])
		ds[i].IsFraud = ds[i].RiskScore > 0.5+rng.Float64()*0.45
	}
}

// PolicyForName returns the policy configured by name.
func PolicyForName(cfg domain.GeneratorConfig) (Policy, error) {
	switch cfg.LabelPolicy {
	case domain.LabelPolicyQuantile, "":
		return QuantilePolicy{Quantile: cfg.FraudQuantile}, nil
	case domain.LabelPolicyRandomThreshold:
		return RandomThresholdPolicy{Seed: cfg.Seed}, nil
	default:
		return nil, fmt.Errorf("unsupported label policy: %s", cfg.LabelPolicy)
	}
}
