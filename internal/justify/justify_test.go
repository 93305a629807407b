package justify

import (
	"strings"
	"testing"

	"github.com/opensource-finance/sentinel/internal/domain"
)

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	return g
}

func TestJustifyAllRulesInOrder(t *testing.T) {
	g := newGenerator(t)

	got, err := g.Justify(domain.FeatureVector{
		Age:             30,
		MonthlyIncome:   4000,
		CreditScore:     400,
		Amount:          3000,
		HourOfDay:       2,
		IsInternational: false,
	})
	if err != nil {
		t.Fatalf("Justify failed: %v", err)
	}

	want := strings.Join([]string{
		"amount exceeds average card limit",
		"amount high relative to monthly income",
		"atypical hour (late night)",
		"high amount for low-credit-score client",
	}, " | ")

	if got != want {
		t.Errorf("Justify = %q, want %q", got, want)
	}
}

func TestJustifyFallback(t *testing.T) {
	g := newGenerator(t)

	got, err := g.Justify(domain.FeatureVector{
		Age:             40,
		MonthlyIncome:   5000,
		CreditScore:     700,
		Amount:          50,
		HourOfDay:       14,
		IsInternational: false,
	})
	if err != nil {
		t.Fatalf("Justify failed: %v", err)
	}
	if got != Fallback {
		t.Errorf("Justify = %q, want fallback %q", got, Fallback)
	}
}

func TestJustifySingleReasons(t *testing.T) {
	tests := []struct {
		name string
		v    domain.FeatureVector
		want string
	}{
		{
			name: "high amount only",
			v:    domain.FeatureVector{MonthlyIncome: 100000, CreditScore: 700, Amount: 2600, HourOfDay: 12},
			want: "amount exceeds average card limit",
		},
		{
			name: "high relative to income only",
			v:    domain.FeatureVector{MonthlyIncome: 400, CreditScore: 700, Amount: 300, HourOfDay: 12},
			want: "amount high relative to monthly income",
		},
		{
			name: "late night only",
			v:    domain.FeatureVector{MonthlyIncome: 5000, CreditScore: 700, Amount: 40, HourOfDay: 5},
			want: "atypical hour (late night)",
		},
		{
			name: "low credit score needs amount over 500",
			v:    domain.FeatureVector{MonthlyIncome: 5000, CreditScore: 400, Amount: 600, HourOfDay: 12},
			want: "high amount for low-credit-score client",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(t)
			got, err := g.Justify(tt.v)
			if err != nil {
				t.Fatalf("Justify failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Justify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJustifyLowCreditScoreRequiresBothConditions(t *testing.T) {
	g := newGenerator(t)

	// Low score but low amount: the rule must not fire.
	got, err := g.Justify(domain.FeatureVector{
		MonthlyIncome: 5000,
		CreditScore:   400,
		Amount:        100,
		HourOfDay:     12,
	})
	if err != nil {
		t.Fatalf("Justify failed: %v", err)
	}
	if got != Fallback {
		t.Errorf("Justify = %q, want fallback", got)
	}
}

func TestJustifyDeterminism(t *testing.T) {
	g := newGenerator(t)
	v := domain.FeatureVector{MonthlyIncome: 4000, CreditScore: 400, Amount: 3000, HourOfDay: 2}

	first, err := g.Justify(v)
	if err != nil {
		t.Fatalf("Justify failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := g.Justify(v)
		if err != nil {
			t.Fatalf("Justify failed: %v", err)
		}
		if again != first {
			t.Fatalf("Justify is not deterministic: %q vs %q", first, again)
		}
	}
}
