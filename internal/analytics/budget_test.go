package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

func cents(c int64) core.Money { return core.Money{Cents: c} }

func TestComputeVariance(t *testing.T) {
	w := Window{Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	tests := []struct {
		name        string
		budget      int64
		actual      int64
		wantVar     float64
		wantPercent float64
		wantStatus  string
	}{
		{"over budget", 50000, 60000, 100, 20, StatusOverBudget},
		{"exactly at budget", 50000, 50000, 0, 0, StatusUnderBudget},
		{"under budget", 50000, 40000, -100, -20, StatusUnderBudget},
		{"no spend", 50000, 0, -500, -100, StatusUnderBudget},
		{"zero budget with spend", 0, 1250, 12.5, 0, StatusOverBudget},
		{"zero budget no spend", 0, 0, 0, 0, StatusUnderBudget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := core.BudgetRule{CategoryName: "Groceries", Amount: cents(tt.budget), Period: core.Monthly}
			got := ComputeVariance(rule, w, cents(tt.actual))
			assert.InDelta(t, tt.wantVar, got.Variance, 1e-9)
			assert.InDelta(t, tt.wantPercent, got.VariancePercent, 1e-9)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, got.ActualAmount > got.BudgetAmount, got.Status == StatusOverBudget)
			assert.Equal(t, "2024-06-01", got.WindowStart)
			assert.Empty(t, got.WindowEnd)
			assert.Equal(t, "monthly", got.Period)
		})
	}
}

func TestBudgetWindow(t *testing.T) {
	// Wednesday.
	now := time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		rule      core.BudgetRule
		wantStart time.Time
		wantEnd   time.Time
		wantEmpty bool
	}{
		{
			name:      "weekly starts monday",
			rule:      core.BudgetRule{Period: core.Weekly, StartDate: core.NewDate(2024, 1, 1)},
			wantStart: day(2024, time.June, 10),
		},
		{
			name:      "monthly starts on the first",
			rule:      core.BudgetRule{Period: core.Monthly, StartDate: core.NewDate(2024, 1, 1)},
			wantStart: day(2024, time.June, 1),
		},
		{
			name:      "yearly starts january first",
			rule:      core.BudgetRule{Period: core.Yearly, StartDate: core.NewDate(2020, 3, 1)},
			wantStart: day(2024, time.January, 1),
		},
		{
			name:      "rule starting mid period",
			rule:      core.BudgetRule{Period: core.Monthly, StartDate: core.NewDate(2024, 6, 5)},
			wantStart: day(2024, time.June, 5),
		},
		{
			name:      "rule ending mid period",
			rule:      core.BudgetRule{Period: core.Monthly, StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 6, 20)},
			wantStart: day(2024, time.June, 1),
			wantEnd:   day(2024, time.June, 20),
		},
		{
			name:      "rule expired before period",
			rule:      core.BudgetRule{Period: core.Monthly, StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 5, 31)},
			wantStart: day(2024, time.June, 1),
			wantEnd:   day(2024, time.May, 31),
			wantEmpty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := BudgetWindow(tt.rule, now)
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(w.Start), "start = %v", w.Start)
			assert.True(t, tt.wantEnd.Equal(w.End), "end = %v", w.End)
			assert.Equal(t, tt.wantEmpty, w.Empty())
		})
	}
}

func TestBudgetWindowUnknownPeriod(t *testing.T) {
	_, err := BudgetWindow(core.BudgetRule{Period: "daily"}, time.Now())
	assert.True(t, errors.Is(err, core.ErrInvalidPeriod))
}

type fortnightStart struct{}

func (fortnightStart) Start(now time.Time) time.Time {
	return WeeklyStart{}.Start(now).AddDate(0, 0, -7)
}

func TestRegisterPeriodStart(t *testing.T) {
	const fortnightly core.Period = "fortnightly"
	RegisterPeriodStart(fortnightly, fortnightStart{})
	t.Cleanup(func() { delete(periodStarts, fortnightly) })

	s, err := GetPeriodStart(fortnightly)
	require.NoError(t, err)
	got := s.Start(time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), got)
}
