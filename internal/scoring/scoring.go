// Package scoring maps a single transaction record to a fraud
// probability with a human-readable justification.
package scoring

import (
	"math"

	"github.com/opensource-finance/sentinel/internal/domain"
)

// Predictor is the single capability required of the trained model.
type Predictor interface {
	PredictProbability(features []float64) (float64, error)
}

// Justifier builds the explanation string for a record.
type Justifier interface {
	Justify(v domain.FeatureVector) (string, error)
}

// Service is the stateless scoring pipeline. The model and justifier
// are injected once at startup and shared read-only across requests, so
// Predict is safe for unbounded concurrent callers.
type Service struct {
	model     Predictor
	justifier Justifier
}

// NewService creates a scoring service over a trained model.
func NewService(model Predictor, justifier Justifier) *Service {
	return &Service{
		model:     model,
		justifier: justifier,
	}
}

// Predict validates the record, scores it and attaches a justification.
// The probability is rounded to 4 decimal places. Errors are typed:
// *domain.ValidationError for missing keys, *domain.InternalError for
// any failure past validation.
func (s *Service) Predict(record map[string]any) (*domain.PredictionResult, error) {
	v, err := domain.ParseFeatureVector(record)
	if err != nil {
		return nil, err
	}

	probability, err := s.model.PredictProbability(v.Ordered())
	if err != nil {
		return nil, &domain.InternalError{Err: err}
	}

	justification, err := s.justifier.Justify(v)
	if err != nil {
		return nil, &domain.InternalError{Err: err}
	}

	return &domain.PredictionResult{
		Probability:   round4(probability),
		Justification: justification,
	}, nil
}

func round4(p float64) float64 {
	return math.Round(p*10000) / 10000
}
