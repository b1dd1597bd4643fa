package analytics

import (
	"time"

	"spendlens/internal/core"
)

const (
	StatusOverBudget  = "over_budget"
	StatusUnderBudget = "under_budget"
)

type VarianceRecord struct {
	Category        string  `json:"category"`
	BudgetAmount    float64 `json:"budget_amount"`
	ActualAmount    float64 `json:"actual_amount"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variance_percent"`
	Period          string  `json:"period"`
	Status          string  `json:"status"`
	WindowStart     string  `json:"window_start"`
	WindowEnd       string  `json:"window_end,omitempty"`
}

// ComputeVariance compares one rule with the spend observed in its window.
// A rule exactly at budget is under budget.
func ComputeVariance(rule core.BudgetRule, w Window, actual core.Money) VarianceRecord {
	diff := actual.Cents - rule.Amount.Cents
	status := StatusUnderBudget
	if diff > 0 {
		status = StatusOverBudget
	}
	rec := VarianceRecord{
		Category:        rule.CategoryName,
		BudgetAmount:    rule.Amount.Float(),
		ActualAmount:    actual.Float(),
		Variance:        core.Money{Cents: diff}.Float(),
		VariancePercent: percent(float64(diff), float64(rule.Amount.Cents)),
		Period:          string(rule.Period),
		Status:          status,
		WindowStart:     w.Start.Format(time.DateOnly),
	}
	if !w.End.IsZero() {
		rec.WindowEnd = w.End.Format(time.DateOnly)
	}
	return rec
}
