package analytics

import (
	"fmt"
	"time"

	"spendlens/internal/core"
	"spendlens/internal/ledger"
)

// PeriodStart yields the first day of the budget period containing now.
// Each budget period has its own implementation.
type PeriodStart interface {
	Start(now time.Time) time.Time
}

// WeeklyStart starts periods on Monday.
type WeeklyStart struct{}

func (WeeklyStart) Start(now time.Time) time.Time { return ledger.Truncate(now, ledger.Week) }

// MonthlyStart starts periods on the first of the month.
type MonthlyStart struct{}

func (MonthlyStart) Start(now time.Time) time.Time { return ledger.Truncate(now, ledger.Month) }

// YearlyStart starts periods on January 1st.
type YearlyStart struct{}

func (YearlyStart) Start(now time.Time) time.Time { return ledger.Truncate(now, ledger.Year) }

var periodStarts = map[core.Period]PeriodStart{
	core.Weekly:  WeeklyStart{},
	core.Monthly: MonthlyStart{},
	core.Yearly:  YearlyStart{},
}

// GetPeriodStart returns the strategy for a budget period.
func GetPeriodStart(p core.Period) (PeriodStart, error) {
	s, ok := periodStarts[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidPeriod, p)
	}
	return s, nil
}

// RegisterPeriodStart adds or replaces the strategy for a period. It is not
// safe to call concurrently with GetPeriodStart.
func RegisterPeriodStart(p core.Period, s PeriodStart) {
	periodStarts[p] = s
}

// Window is an inclusive day range; a zero End means open-ended.
type Window struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether no day can fall inside the window.
func (w Window) Empty() bool {
	return !w.End.IsZero() && w.End.Before(w.Start)
}

// BudgetWindow intersects the current period of the rule with its active
// range [StartDate, EndDate].
func BudgetWindow(rule core.BudgetRule, now time.Time) (Window, error) {
	s, err := GetPeriodStart(rule.Period)
	if err != nil {
		return Window{}, err
	}
	w := Window{Start: s.Start(now)}
	if rule.StartDate.After(w.Start) {
		w.Start = rule.StartDate.Time
	}
	if !rule.EndDate.IsEmpty() {
		w.End = rule.EndDate.Time
	}
	return w, nil
}
