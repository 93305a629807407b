// Package synth generates the reproducible labeled training dataset.
package synth

import (
	"math"
	"math/rand"

	"github.com/opensource-finance/sentinel/internal/domain"
)

// Distribution parameters for the synthetic client base. Ages cluster
// around 32, incomes around 4500/month, and the ticket size around 68,
// matching the profile the model is demonstrated on.
const (
	ageMean   = 32.0
	ageStdDev = 10.0
	ageMin    = 18
	ageMax    = 70

	incomeMeanLog = 4500.0
	incomeSigma   = 0.5

	creditScoreMin = 300
	creditScoreMax = 950 // exclusive

	amountMeanLog = 68.0
	amountSigma   = 0.8

	internationalRate = 0.03
)

// Generate produces n independent training rows from a fixed seed.
// The same (seed, n) pair always yields a bit-identical dataset: the
// generator owns a private rand source, draws in a fixed per-row order
// and performs no I/O. Labels are not assigned here; see the label
// package.
func Generate(seed int64, n int) domain.Dataset {
	rng := rand.New(rand.NewSource(seed))

	rows := make(domain.Dataset, n)
	for i := range rows {
		rows[i] = domain.TrainingRow{
			ClientProfile: domain.ClientProfile{
				Age:           clampInt(int(rng.NormFloat64()*ageStdDev+ageMean), ageMin, ageMax),
				MonthlyIncome: round2(logNormal(rng, math.Log(incomeMeanLog), incomeSigma)),
				CreditScore:   creditScoreMin + rng.Intn(creditScoreMax-creditScoreMin),
			},
			TransactionRecord: domain.TransactionRecord{
				Amount:          round2(logNormal(rng, math.Log(amountMeanLog), amountSigma)),
				HourOfDay:       rng.Intn(24),
				IsInternational: rng.Float64() < internationalRate,
			},
		}
	}
	return rows
}

// logNormal draws from a log-normal distribution with the given
// underlying mean and sigma.
func logNormal(rng *rand.Rand, mu, sigma float64) float64 {
	return math.Exp(mu + sigma*rng.NormFloat64())
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
