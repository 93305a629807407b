package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/opensource-finance/sentinel/internal/domain"
	"github.com/opensource-finance/sentinel/internal/justify"
	"github.com/opensource-finance/sentinel/internal/label"
	"github.com/opensource-finance/sentinel/internal/ml"
	"github.com/opensource-finance/sentinel/internal/synth"
)

// newTestService trains a small real model so scoring tests exercise the
// same pipeline as startup.
func newTestService(t *testing.T) *Service {
	t.Helper()

	ds := synth.Generate(42, 2000)
	label.QuantilePolicy{Quantile: 0.97}.Apply(ds)

	model, err := ml.Fit(ds.FeatureMatrix(), ds.Labels(), ml.TrainConfig{Trees: 20, MaxDepth: 3, LearningRate: 0.1, Seed: 42})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	justifier, err := justify.NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	return NewService(model, justifier)
}

func validRecord() map[string]any {
	return map[string]any{
		"age":             30.0,
		"monthlyIncome":   4000.0,
		"creditScore":     400.0,
		"amount":          3000.0,
		"hourOfDay":       2.0,
		"isInternational": false,
	}
}

func TestPredictSuccess(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Predict(validRecord())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if result.Probability < 0 || result.Probability > 1 || math.IsNaN(result.Probability) {
		t.Errorf("probability %v outside [0,1]", result.Probability)
	}

	// 4-decimal rounding.
	if result.Probability != math.Round(result.Probability*10000)/10000 {
		t.Errorf("probability %v not rounded to 4 decimals", result.Probability)
	}

	wantReasons := []string{
		"amount exceeds average card limit",
		"amount high relative to monthly income",
		"atypical hour (late night)",
		"high amount for low-credit-score client",
	}
	if result.Justification != strings.Join(wantReasons, " | ") {
		t.Errorf("justification %q does not list the triggered reasons in order", result.Justification)
	}
}

func TestPredictFallbackJustification(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Predict(map[string]any{
		"age":             40.0,
		"monthlyIncome":   5000.0,
		"creditScore":     700.0,
		"amount":          50.0,
		"hourOfDay":       14.0,
		"isInternational": false,
	})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if result.Justification != justify.Fallback {
		t.Errorf("justification %q, want fallback", result.Justification)
	}
	if math.IsNaN(result.Probability) || math.IsInf(result.Probability, 0) {
		t.Errorf("probability %v is not finite", result.Probability)
	}
	if result.Probability < 0 || result.Probability > 1 {
		t.Errorf("probability %v outside [0,1]", result.Probability)
	}
}

func TestPredictEmptyRecord(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Predict(map[string]any{})
	if err == nil {
		t.Fatal("expected a validation error for an empty record")
	}

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *domain.ValidationError, got %T", err)
	}

	for _, name := range domain.FeatureNames {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("validation error %q does not name required key %q", err.Error(), name)
		}
	}
}

func TestPredictMissingSingleKey(t *testing.T) {
	svc := newTestService(t)

	record := validRecord()
	delete(record, "creditScore")

	_, err := svc.Predict(record)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *domain.ValidationError, got %v", err)
	}
	if len(ve.MissingKeys) != 1 || ve.MissingKeys[0] != "creditScore" {
		t.Errorf("MissingKeys = %v, want [creditScore]", ve.MissingKeys)
	}
}

func TestPredictBadValueType(t *testing.T) {
	svc := newTestService(t)

	record := validRecord()
	record["amount"] = "three thousand"

	_, err := svc.Predict(record)
	if err == nil {
		t.Fatal("expected an internal error for a non-numeric amount")
	}

	var ie *domain.InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *domain.InternalError, got %T", err)
	}
}

func TestPredictIdempotent(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Predict(validRecord())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	for i := 0; i < 20; i++ {
		again, err := svc.Predict(validRecord())
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if again.Probability != first.Probability || again.Justification != first.Justification {
			t.Fatalf("Predict is not idempotent: %+v vs %+v", first, again)
		}
	}
}

func TestPredictAcceptsZeroOneBooleans(t *testing.T) {
	svc := newTestService(t)

	record := validRecord()
	record["isInternational"] = 1.0

	result, err := svc.Predict(record)
	if err != nil {
		t.Fatalf("Predict failed with 0/1 boolean encoding: %v", err)
	}
	if result.Probability < 0 || result.Probability > 1 {
		t.Errorf("probability %v outside [0,1]", result.Probability)
	}
}

func TestPredictConcurrent(t *testing.T) {
	svc := newTestService(t)

	// Sequential baseline for distinct inputs.
	records := make([]map[string]any, 50)
	baseline := make([]*domain.PredictionResult, 50)
	for i := range records {
		r := validRecord()
		r["amount"] = 100.0 + float64(i)*75
		records[i] = r

		result, err := svc.Predict(r)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		baseline[i] = result
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(records))
	for i, r := range records {
		wg.Add(1)
		go func(i int, r map[string]any) {
			defer wg.Done()
			result, err := svc.Predict(r)
			if err != nil {
				errs <- err
				return
			}
			if result.Probability != baseline[i].Probability || result.Justification != baseline[i].Justification {
				errs <- fmt.Errorf("request %d diverged from sequential result", i)
			}
		}(i, r)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
