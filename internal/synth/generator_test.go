package synth

import (
	"reflect"
	"testing"
)

func TestGenerateDeterminism(t *testing.T) {
	first := Generate(42, 500)
	second := Generate(42, 500)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical seed must produce a bit-identical dataset")
	}

	different := Generate(43, 500)
	if reflect.DeepEqual(first, different) {
		t.Error("different seeds should not produce identical datasets")
	}
}

func TestGenerateRanges(t *testing.T) {
	ds := Generate(7, 5000)

	if len(ds) != 5000 {
		t.Fatalf("expected 5000 rows, got %d", len(ds))
	}

	for i, row := range ds {
		if row.Age < 18 || row.Age > 70 {
			t.Fatalf("row %d: age %d out of [18,70]", i, row.Age)
		}
		if row.MonthlyIncome <= 0 {
			t.Fatalf("row %d: monthlyIncome %.2f not positive", i, row.MonthlyIncome)
		}
		if row.CreditScore < 300 || row.CreditScore >= 950 {
			t.Fatalf("row %d: creditScore %d out of [300,950)", i, row.CreditScore)
		}
		if row.Amount <= 0 {
			t.Fatalf("row %d: amount %.2f not positive", i, row.Amount)
		}
		if row.HourOfDay < 0 || row.HourOfDay >= 24 {
			t.Fatalf("row %d: hourOfDay %d out of [0,24)", i, row.HourOfDay)
		}
	}
}

func TestGenerateStatisticalShape(t *testing.T) {
	ds := Generate(42, 20000)

	international := 0
	var ageSum float64
	for _, row := range ds {
		if row.IsInternational {
			international++
		}
		ageSum += float64(row.Age)
	}

	// Bernoulli(0.03) over 20k samples should land near 3%.
	rate := float64(international) / float64(len(ds))
	if rate < 0.02 || rate > 0.04 {
		t.Errorf("international rate %.4f outside [0.02, 0.04]", rate)
	}

	// Truncation pulls the mean slightly above 32.
	meanAge := ageSum / float64(len(ds))
	if meanAge < 30 || meanAge > 35 {
		t.Errorf("mean age %.2f outside [30, 35]", meanAge)
	}
}
