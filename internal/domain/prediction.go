package domain

import (
	"fmt"
	"strings"
	"time"
)

// PredictionResult is the payload returned for a scored transaction.
// Probability is rounded to 4 decimal places.
type PredictionResult struct {
	PredictionID  string  `json:"predictionId,omitempty"`
	Probability   float64 `json:"probability"`
	Justification string  `json:"justification"`
}

// Prediction is the audit record stored for a served prediction.
type Prediction struct {
	ID            string         `json:"id"`
	Record        map[string]any `json:"record"`
	Probability   float64        `json:"probability"`
	Justification string         `json:"justification"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Alert is the record persisted for a prediction whose probability
// reached the alert threshold.
type Alert struct {
	ID           string    `json:"id"`
	PredictionID string    `json:"predictionId"`
	Probability  float64   `json:"probability"`
	Reasons      string    `json:"reasons"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ValidationError reports a request record missing required feature
// keys. It maps to HTTP 400 and is never retried.
type ValidationError struct {
	RequiredKeys []string
	MissingKeys  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required keys [%s]; required keys are [%s]",
		strings.Join(e.MissingKeys, ", "),
		strings.Join(e.RequiredKeys, ", "))
}

// InternalError wraps an unexpected failure during feature extraction or
// inference. It maps to HTTP 500; the process keeps serving.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }
