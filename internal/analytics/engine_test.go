package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
	"spendlens/internal/ledger"
	mock_ledger "spendlens/internal/ledger/mocks"
	"spendlens/internal/ledger/memory"
)

var fixedNow = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

const (
	catGroceries int64 = iota + 1
	catDining
	catSalary
	catBooks
)

// fixture builds a ledger with three completed months (March to May) and a
// partial June for user 1.
func fixture(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	for _, c := range []core.Category{
		{ID: catGroceries, UserID: 1, Name: "Groceries", Type: core.Expense},
		{ID: catDining, UserID: 1, Name: "Dining", Type: core.Expense},
		{ID: catSalary, UserID: 1, Name: "Salary", Type: core.Income},
		{ID: catBooks, UserID: 1, Name: "Books", Type: core.Expense},
	} {
		require.NoError(t, s.AddCategory(c))
	}
	add := func(cat int64, typ core.TransactionType, amount int64, y, m, d int) {
		t.Helper()
		require.NoError(t, s.AddTransaction(core.Transaction{
			UserID:     1,
			CategoryID: cat,
			Type:       typ,
			Amount:     core.Money{Cents: amount * 100},
			Date:       core.NewDate(y, m, d),
		}))
	}
	for m, dining := range map[int]int64{3: 100, 4: 120, 5: 90} {
		add(catGroceries, core.Expense, 100, 2024, m, 10)
		add(catDining, core.Expense, dining, 2024, m, 12)
	}
	add(catSalary, core.Income, 3000, 2024, 5, 27)
	add(catSalary, core.Income, 3000, 2024, 6, 1)
	add(catGroceries, core.Expense, 500, 2024, 6, 3)
	add(catDining, core.Expense, 250, 2024, 6, 7)
	add(catDining, core.Expense, 150, 2024, 6, 14)

	require.NoError(t, s.AddBudgetRule(core.BudgetRule{UserID: 1, CategoryID: catDining, Amount: core.Money{Cents: 50000}, Period: core.Monthly, StartDate: core.NewDate(2024, 1, 1)}))
	require.NoError(t, s.AddBudgetRule(core.BudgetRule{UserID: 1, CategoryID: catGroceries, Amount: core.Money{Cents: 40000}, Period: core.Monthly, StartDate: core.NewDate(2024, 1, 1)}))
	require.NoError(t, s.AddBudgetRule(core.BudgetRule{UserID: 1, CategoryID: catBooks, Amount: core.Money{Cents: 2000}, Period: core.Weekly, StartDate: core.NewDate(2024, 1, 1)}))
	return s
}

func newEngine(r ledger.Reader) *analytics.Engine {
	cfg := analytics.DefaultConfig()
	cfg.AnomalyLookbackDays = 120
	return analytics.New(r, cfg, analytics.WithClock(func() time.Time { return fixedNow }))
}

func TestEngine_UnusualSpending(t *testing.T) {
	e := newEngine(fixture(t))
	got, err := e.UnusualSpending(context.Background(), 1)
	require.NoError(t, err)

	// Groceries jumps to 500 but its history is flat.
	require.Len(t, got, 1)
	assert.Equal(t, "Dining", got[0].Category)
	assert.Equal(t, 400.0, got[0].CurrentMonthly)
	assert.InDelta(t, 19.42, got[0].ZScore, 0.01)
}

func TestEngine_UnusualSpendingShortLookback(t *testing.T) {
	e := analytics.New(fixture(t), analytics.DefaultConfig(), analytics.WithClock(func() time.Time { return fixedNow }))
	got, err := e.UnusualSpending(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngine_SpendingTrends(t *testing.T) {
	e := newEngine(fixture(t))
	got, err := e.SpendingTrends(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, got.Trends, 2)
	assert.Equal(t, 4, got.Trends["Dining"].Months)
	assert.InDelta(t, 177.5, got.Trends["Dining"].AvgMonthly, 1e-9)
	assert.InDelta(t, 800, got.Trends["Groceries"].Total, 1e-9)
	assert.Equal(t, 4, got.Summary.MonthsAnalyzed)
	assert.Greater(t, got.Summary.OverallTrend, 0.0)
}

func TestEngine_BudgetVariance(t *testing.T) {
	e := newEngine(fixture(t))
	got, err := e.BudgetVariance(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 3)

	byCategory := map[string]analytics.VarianceRecord{}
	for _, v := range got {
		byCategory[v.Category] = v
	}
	dining := byCategory["Dining"]
	assert.Equal(t, 400.0, dining.ActualAmount)
	assert.Equal(t, -100.0, dining.Variance)
	assert.Equal(t, analytics.StatusUnderBudget, dining.Status)
	assert.Equal(t, "2024-06-01", dining.WindowStart)

	groceries := byCategory["Groceries"]
	assert.Equal(t, 100.0, groceries.Variance)
	assert.InDelta(t, 25, groceries.VariancePercent, 1e-9)
	assert.Equal(t, analytics.StatusOverBudget, groceries.Status)

	books := byCategory["Books"]
	assert.Equal(t, 0.0, books.ActualAmount)
	assert.Equal(t, -20.0, books.Variance)
	assert.Equal(t, "2024-06-10", books.WindowStart)
}

func TestEngine_IncomeVsExpenses(t *testing.T) {
	e := newEngine(fixture(t))
	got, err := e.IncomeVsExpenses(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, got.MonthlyData, 4)
	mar := got.MonthlyData[0]
	assert.Equal(t, "2024-03", mar.Month)
	assert.Equal(t, 0.0, mar.Income)
	assert.Equal(t, 200.0, mar.Expense)
	assert.True(t, mar.SavingsRateUndefined)

	jun := got.MonthlyData[3]
	assert.Equal(t, 3000.0, jun.Income)
	assert.Equal(t, 900.0, jun.Expense)
	assert.InDelta(t, 70, jun.SavingsRate, 1e-9)

	assert.Equal(t, 6000.0, got.Summary.TotalIncome)
	assert.Equal(t, 1510.0, got.Summary.TotalExpenses)
}

func TestEngine_Report(t *testing.T) {
	e := newEngine(fixture(t))
	rep, err := e.Report(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), rep.UserID)
	assert.Equal(t, fixedNow.Truncate(time.Second), rep.GeneratedAt)
	assert.NotEmpty(t, rep.ReportID)
	assert.Len(t, rep.UnusualSpending, 1)
	assert.Len(t, rep.BudgetVariance, 3)
	assert.Len(t, rep.IncomeVsExpenses.MonthlyData, 4)

	again, err := e.Report(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, rep.ReportID, again.ReportID)
	again.ReportID = rep.ReportID
	assert.Equal(t, rep, again)
}

func TestEngine_ReportUnknownUser(t *testing.T) {
	e := newEngine(fixture(t))
	rep, err := e.Report(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, rep.UnusualSpending)
	assert.Empty(t, rep.SpendingTrends.Trends)
	assert.Equal(t, 0, rep.SpendingTrends.Summary.MonthsAnalyzed)
	assert.Empty(t, rep.BudgetVariance)
	assert.Empty(t, rep.IncomeVsExpenses.MonthlyData)
}

func TestEngine_RejectsInvalidUser(t *testing.T) {
	e := newEngine(memory.New())
	_, err := e.Report(context.Background(), 0)
	assert.ErrorIs(t, err, core.ErrMissingUser)
}

func TestEngine_StoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	down := ledger.Unavailable("aggregates", errors.New("dial tcp 127.0.0.1:5432: connection refused"))
	reader := mock_ledger.NewMockReader(ctrl)
	reader.EXPECT().Aggregates(gomock.Any(), gomock.Any()).Return(nil, down).AnyTimes()
	reader.EXPECT().BudgetRules(gomock.Any(), int64(1)).Return(nil, down).AnyTimes()

	e := newEngine(reader)
	ctx := context.Background()

	rep, err := e.Report(ctx, 1)
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, ledger.ErrUnavailable)

	_, err = e.SpendingTrends(ctx, 1)
	assert.ErrorIs(t, err, ledger.ErrUnavailable)
	_, err = e.BudgetVariance(ctx, 1)
	assert.ErrorIs(t, err, ledger.ErrUnavailable)
	_, err = e.IncomeVsExpenses(ctx, 1)
	assert.ErrorIs(t, err, ledger.ErrUnavailable)
	_, err = e.UnusualSpending(ctx, 1)
	assert.ErrorIs(t, err, ledger.ErrUnavailable)
}

// snapshotReader is a store able to pin a snapshot.
type snapshotReader struct {
	*mock_ledger.MockReader
	snapshotter *mock_ledger.MockSnapshotter
}

func (s snapshotReader) Snapshot(ctx context.Context) (ledger.Snapshot, error) {
	return s.snapshotter.Snapshot(ctx)
}

func TestEngine_ReportReadsOneSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snap := mock_ledger.NewMockSnapshot(ctrl)
	snap.EXPECT().Aggregates(gomock.Any(), gomock.Any()).Return([]ledger.Aggregate{}, nil).MinTimes(4)
	snap.EXPECT().BudgetRules(gomock.Any(), int64(7)).Return(nil, nil)
	snap.EXPECT().Close().Return(nil)

	snapshotter := mock_ledger.NewMockSnapshotter(ctrl)
	snapshotter.EXPECT().Snapshot(gomock.Any()).Return(snap, nil)

	// The live reader has no expectations: any direct read fails the test.
	store := snapshotReader{MockReader: mock_ledger.NewMockReader(ctrl), snapshotter: snapshotter}

	rep, err := newEngine(store).Report(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rep.UserID)
}

func TestEngine_PeriodComparison(t *testing.T) {
	e := newEngine(fixture(t))
	got, err := e.PeriodComparison(context.Background(), 1, ledger.Month, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01", got.PeriodStart)
	require.Len(t, got.Categories, 3)
	assert.Equal(t, "Groceries", got.Categories[0].Category)
	assert.Equal(t, analytics.DirectionUp, got.Categories[0].Direction)
	assert.InDelta(t, 400, got.Categories[0].ChangePercent, 1e-9)

	dining := got.Categories[1]
	assert.Equal(t, "Dining", dining.Category)
	assert.Equal(t, 400.0, dining.CurrentSpend)
	assert.Equal(t, 90.0, dining.PreviousSpend)

	books := got.Categories[2]
	assert.Equal(t, analytics.DirectionNew, books.Direction)
	assert.Equal(t, 0.0, books.PredictedSpend)

	_, err = e.PeriodComparison(context.Background(), 1, ledger.Year, fixedNow)
	assert.ErrorIs(t, err, ledger.ErrInvalidGranularity)
}

func TestEngine_SpendingByCategoryAndSummary(t *testing.T) {
	e := newEngine(fixture(t))
	ctx := context.Background()

	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := e.SpendingByCategory(ctx, 1, june, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Groceries", got[0].Category)
	assert.InDelta(t, 500.0/900*100, got[0].Percentage, 1e-9)
	assert.Equal(t, "Books", got[2].Category)
	assert.Equal(t, 0.0, got[2].Percentage)

	sum, err := e.Summary(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "all_time", sum.Period)
	assert.Equal(t, 6000.0, sum.TotalIncome)
	assert.Equal(t, 1510.0, sum.TotalExpenses)
	assert.Equal(t, 4490.0, sum.NetIncome)

	sum, err = e.Summary(ctx, 1, june, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "custom", sum.Period)
	assert.Equal(t, 2100.0, sum.NetIncome)
}
