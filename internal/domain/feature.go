// Package domain defines the core types and interfaces for Sentinel.
package domain

import "fmt"

// Feature keys accepted by POST /predict. Semantics are fixed; the model
// never sees the names, only the ordered values.
const (
	FeatureAge             = "age"
	FeatureMonthlyIncome   = "monthlyIncome"
	FeatureCreditScore     = "creditScore"
	FeatureAmount          = "amount"
	FeatureHourOfDay       = "hourOfDay"
	FeatureIsInternational = "isInternational"
)

// FeatureNames lists the model features in their fixed process-wide
// order. This is the single source of truth for feature ordering:
// training and every inference call derive their column layout from it,
// never from map iteration or convention.
var FeatureNames = []string{
	FeatureAge,
	FeatureMonthlyIncome,
	FeatureCreditScore,
	FeatureAmount,
	FeatureHourOfDay,
	FeatureIsInternational,
}

// FeatureCount is the width of every feature vector.
const FeatureCount = 6

// FeatureVector is the ordered 6-tuple of client/transaction attributes
// consumed by the classifier.
type FeatureVector struct {
	Age             float64 `json:"age"`
	MonthlyIncome   float64 `json:"monthlyIncome"`
	CreditScore     float64 `json:"creditScore"`
	Amount          float64 `json:"amount"`
	HourOfDay       float64 `json:"hourOfDay"`
	IsInternational bool    `json:"isInternational"`
}

// Ordered returns the vector values in FeatureNames order.
func (v FeatureVector) Ordered() []float64 {
	intl := 0.0
	if v.IsInternational {
		intl = 1.0
	}
	return []float64{v.Age, v.MonthlyIncome, v.CreditScore, v.Amount, v.HourOfDay, intl}
}

// ParseFeatureVector builds a FeatureVector from a raw request record.
// A record missing any required key yields a *ValidationError naming the
// full required key set. A value of an unusable type yields a
// *InternalError, since by then the request shape was valid.
func ParseFeatureVector(record map[string]any) (FeatureVector, error) {
	var missing []string
	for _, name := range FeatureNames {
		if _, ok := record[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return FeatureVector{}, &ValidationError{
			RequiredKeys: FeatureNames,
			MissingKeys:  missing,
		}
	}

	var v FeatureVector
	fields := []struct {
		name string
		dst  *float64
	}{
		{FeatureAge, &v.Age},
		{FeatureMonthlyIncome, &v.MonthlyIncome},
		{FeatureCreditScore, &v.CreditScore},
		{FeatureAmount, &v.Amount},
		{FeatureHourOfDay, &v.HourOfDay},
	}
	for _, f := range fields {
		n, err := toFloat(record[f.name])
		if err != nil {
			return FeatureVector{}, &InternalError{Err: fmt.Errorf("feature %q: %w", f.name, err)}
		}
		*f.dst = n
	}

	intl, err := toBool(record[FeatureIsInternational])
	if err != nil {
		return FeatureVector{}, &InternalError{Err: fmt.Errorf("feature %q: %w", FeatureIsInternational, err)}
	}
	v.IsInternational = intl

	return v, nil
}

func toFloat(val any) (float64, error) {
	switch n := val.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", val)
	}
}

// toBool accepts JSON booleans as well as the 0/1 integer encoding used
// by the original dataset export.
func toBool(val any) (bool, error) {
	if b, ok := val.(bool); ok {
		return b, nil
	}
	n, err := toFloat(val)
	if err != nil {
		return false, fmt.Errorf("expected a bool or 0/1, got %T", val)
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("expected a bool or 0/1, got %v", val)
}
