// Package justify builds the human-readable justification attached to
// every prediction.
//
// The rule set is authored independently of the training-time label rule
// and must stay decoupled from it: a justification explains a score in
// business terms, it does not reproduce the labeling heuristic.
package justify

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/opensource-finance/sentinel/internal/domain"
)

// Fallback is returned when no rule triggers.
const Fallback = "no obvious risk factor; decision based on overall model pattern"

// Separator joins triggered reasons.
const Separator = " | "

// rule pairs a CEL predicate with the reason reported when it fires.
type rule struct {
	expr   string
	reason string
}

// ruleTable is evaluated in this exact order; the order of reasons in
// the output string is part of the contract.
var ruleTable = []rule{
	{`amount > 2500.0`, "amount exceeds average card limit"},
	{`amount > monthly_income * 0.5`, "amount high relative to monthly income"},
	{`hour_of_day < 6.0`, "atypical hour (late night)"},
	{`credit_score < 450.0 && amount > 500.0`, "high amount for low-credit-score client"},
}

type compiledRule struct {
	program cel.Program
	reason  string
}

// Generator evaluates the fixed justification rules against a record.
// It is stateless after construction and safe for concurrent use.
type Generator struct {
	rules []compiledRule
}

// NewGenerator compiles the justification rules. A compile failure here
// is a startup failure: the service must not serve without a working
// justifier.
func NewGenerator() (*Generator, error) {
	env, err := cel.NewEnv(
		cel.Variable("age", cel.DoubleType),
		cel.Variable("monthly_income", cel.DoubleType),
		cel.Variable("credit_score", cel.DoubleType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("hour_of_day", cel.DoubleType),
		cel.Variable("is_international", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	compiled := make([]compiledRule, 0, len(ruleTable))
	for _, r := range ruleTable {
		ast, issues := env.Compile(r.expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile justification rule %q: %w", r.expr, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("justification rule %q must return bool, got %s", r.expr, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create program for rule %q: %w", r.expr, err)
		}
		compiled = append(compiled, compiledRule{program: program, reason: r.reason})
	}

	return &Generator{rules: compiled}, nil
}

// Justify evaluates the rules in order against the feature vector and
// joins the triggered reasons with Separator. It is deterministic and
// has no side effects.
func (g *Generator) Justify(v domain.FeatureVector) (string, error) {
	activation := map[string]any{
		"age":              v.Age,
		"monthly_income":   v.MonthlyIncome,
		"credit_score":     v.CreditScore,
		"amount":           v.Amount,
		"hour_of_day":      v.HourOfDay,
		"is_international": v.IsInternational,
	}

	var reasons []string
	for _, r := range g.rules {
		out, _, err := r.program.Eval(activation)
		if err != nil {
			return "", fmt.Errorf("justification rule evaluation: %w", err)
		}
		if out == types.True {
			reasons = append(reasons, r.reason)
		}
	}

	if len(reasons) == 0 {
		return Fallback, nil
	}
	return strings.Join(reasons, Separator), nil
}
