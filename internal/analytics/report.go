package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spendlens/internal/ledger"
)

// Report is the full analysis of one user at one point in time.
type Report struct {
	ReportID         string           `json:"report_id"`
	GeneratedAt      time.Time        `json:"generated_at"`
	UserID           int64            `json:"user_id"`
	UnusualSpending  []AnomalyRecord  `json:"unusual_spending"`
	SpendingTrends   Trends           `json:"spending_trends"`
	BudgetVariance   []VarianceRecord `json:"budget_variance"`
	IncomeVsExpenses Cashflow         `json:"income_vs_expenses"`
}

// Report runs every analysis against one snapshot of the ledger. Any store
// failure aborts the whole report; partial reports are never returned.
func (e *Engine) Report(ctx context.Context, userID int64) (*Report, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	snap, err := ledger.Open(ctx, e.reader)
	if err != nil {
		return nil, fmt.Errorf("open ledger snapshot: %w", err)
	}
	defer snap.Close()

	now := e.clock()
	rep := &Report{
		ReportID:    uuid.NewString(),
		GeneratedAt: now.Truncate(time.Second),
		UserID:      userID,
	}
	if rep.UnusualSpending, err = e.anomalies(ctx, snap, userID, now); err != nil {
		return nil, err
	}
	if rep.SpendingTrends, err = e.trends(ctx, snap, userID, now); err != nil {
		return nil, err
	}
	if rep.BudgetVariance, err = e.variance(ctx, snap, userID, now); err != nil {
		return nil, err
	}
	if rep.IncomeVsExpenses, err = e.cashflow(ctx, snap, userID, now); err != nil {
		return nil, err
	}
	return rep, nil
}
