// Package analytics derives spending trends, unusual spending, budget
// variance and cashflow summaries from a ledger.
//
// The statistics are pure functions over in-memory series (EstimateTrends,
// DetectAnomalies, ComputeVariance, SummarizeCashflow). Engine shapes the
// ledger queries that feed them and holds no per-request state, so one
// Engine can serve concurrent callers.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spendlens/internal/core"
	"spendlens/internal/ledger"
)

type Engine struct {
	reader ledger.Reader
	cfg    Config
	now    func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(reader ledger.Reader, cfg Config, opts ...Option) *Engine {
	e := &Engine{reader: reader, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) clock() time.Time { return e.now().UTC() }

// SpendingTrends fits expense trends over the trailing TrendMonths.
func (e *Engine) SpendingTrends(ctx context.Context, userID int64) (Trends, error) {
	return e.trends(ctx, e.reader, userID, e.clock())
}

// UnusualSpending lists categories whose current month is out of band.
func (e *Engine) UnusualSpending(ctx context.Context, userID int64) ([]AnomalyRecord, error) {
	return e.anomalies(ctx, e.reader, userID, e.clock())
}

// BudgetVariance evaluates every budget rule of the user.
func (e *Engine) BudgetVariance(ctx context.Context, userID int64) ([]VarianceRecord, error) {
	return e.variance(ctx, e.reader, userID, e.clock())
}

// IncomeVsExpenses summarizes the trailing CashflowMonths.
func (e *Engine) IncomeVsExpenses(ctx context.Context, userID int64) (Cashflow, error) {
	return e.cashflow(ctx, e.reader, userID, e.clock())
}

func checkUser(userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: %d", core.ErrMissingUser, userID)
	}
	return nil
}

func (e *Engine) trends(ctx context.Context, r ledger.Reader, userID int64, now time.Time) (Trends, error) {
	if err := checkUser(userID); err != nil {
		return Trends{}, err
	}
	rows, err := r.Aggregates(ctx, ledger.Query{
		UserID:      userID,
		Start:       ledger.MonthsBack(now, e.cfg.TrendMonths),
		GroupBy:     ledger.ByCategory,
		Granularity: ledger.Month,
		Type:        core.Expense,
	})
	if err != nil {
		return Trends{}, fmt.Errorf("spending trends: %w", err)
	}
	return EstimateTrends(seriesByCategory(rows)), nil
}

func (e *Engine) anomalies(ctx context.Context, r ledger.Reader, userID int64, now time.Time) ([]AnomalyRecord, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	monthStart := ledger.Truncate(now, ledger.Month)
	lookback := ledger.Truncate(now, ledger.Day).AddDate(0, 0, -e.cfg.AnomalyLookbackDays)

	var history []Series
	if lookback.Before(monthStart) {
		rows, err := r.Aggregates(ctx, ledger.Query{
			UserID:      userID,
			Start:       lookback,
			End:         monthStart.AddDate(0, 0, -1),
			GroupBy:     ledger.ByCategory,
			Granularity: ledger.Month,
			Type:        core.Expense,
		})
		if err != nil {
			return nil, fmt.Errorf("unusual spending history: %w", err)
		}
		history = seriesByCategory(rows)
	}

	rows, err := r.Aggregates(ctx, ledger.Query{
		UserID:      userID,
		Start:       monthStart,
		GroupBy:     ledger.ByCategory,
		Granularity: ledger.Whole,
		Type:        core.Expense,
	})
	if err != nil {
		return nil, fmt.Errorf("unusual spending current month: %w", err)
	}
	current := make(map[string]float64, len(rows))
	for _, row := range rows {
		current[row.Key] += row.Amount.Float()
	}
	return DetectAnomalies(history, current, e.cfg.SigmaThreshold), nil
}

func (e *Engine) variance(ctx context.Context, r ledger.Reader, userID int64, now time.Time) ([]VarianceRecord, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	rules, err := r.BudgetRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("budget rules: %w", err)
	}
	out := make([]VarianceRecord, 0, len(rules))
	for _, rule := range rules {
		w, err := BudgetWindow(rule, now)
		if err != nil {
			return nil, fmt.Errorf("budget rule %d: %w", rule.ID, err)
		}
		var actual core.Money
		if !w.Empty() {
			rows, err := r.Aggregates(ctx, ledger.Query{
				UserID:      userID,
				Start:       w.Start,
				End:         w.End,
				GroupBy:     ledger.ByCategory,
				Granularity: ledger.Whole,
				Type:        core.Expense,
				CategoryID:  rule.CategoryID,
			})
			if err != nil {
				return nil, fmt.Errorf("budget variance: %w", err)
			}
			for _, row := range rows {
				actual = actual.Add(row.Amount)
			}
		}
		out = append(out, ComputeVariance(rule, w, actual))
	}
	return out, nil
}

func (e *Engine) cashflow(ctx context.Context, r ledger.Reader, userID int64, now time.Time) (Cashflow, error) {
	if err := checkUser(userID); err != nil {
		return Cashflow{}, err
	}
	rows, err := r.Aggregates(ctx, ledger.Query{
		UserID:      userID,
		Start:       ledger.MonthsBack(now, e.cfg.CashflowMonths),
		GroupBy:     ledger.ByType,
		Granularity: ledger.Month,
	})
	if err != nil {
		return Cashflow{}, fmt.Errorf("income vs expenses: %w", err)
	}
	byMonth := map[int64]*MonthFlow{}
	for _, row := range rows {
		k := row.Bucket.Unix()
		m, ok := byMonth[k]
		if !ok {
			m = &MonthFlow{Month: row.Bucket}
			byMonth[k] = m
		}
		switch core.TransactionType(row.Key) {
		case core.Income:
			m.Income += row.Amount.Float()
		case core.Expense:
			m.Expense += row.Amount.Float()
		}
	}
	months := make([]MonthFlow, 0, len(byMonth))
	for _, m := range byMonth {
		months = append(months, *m)
	}
	return SummarizeCashflow(months), nil
}

// PeriodComparison compares every expense category in the day, week or
// month containing date with the preceding one, and predicts the next.
func (e *Engine) PeriodComparison(ctx context.Context, userID int64, g ledger.Granularity, date time.Time) (PeriodComparison, error) {
	if err := checkUser(userID); err != nil {
		return PeriodComparison{}, err
	}
	days, err := comparisonLookback(g)
	if err != nil {
		return PeriodComparison{}, err
	}
	cats, err := e.reader.Categories(ctx, userID, core.Expense)
	if err != nil {
		return PeriodComparison{}, fmt.Errorf("period comparison: %w", err)
	}
	cur, prev := periodRange(date, g)

	totals := func(w Window) (map[int64]ledger.Aggregate, error) {
		rows, err := e.reader.Aggregates(ctx, ledger.Query{
			UserID:      userID,
			Start:       w.Start,
			End:         w.End,
			GroupBy:     ledger.ByCategory,
			Granularity: ledger.Whole,
			Type:        core.Expense,
		})
		if err != nil {
			return nil, fmt.Errorf("period comparison: %w", err)
		}
		out := make(map[int64]ledger.Aggregate, len(rows))
		for _, row := range rows {
			out[row.CategoryID] = row
		}
		return out, nil
	}
	curTotals, err := totals(cur)
	if err != nil {
		return PeriodComparison{}, err
	}
	prevTotals, err := totals(prev)
	if err != nil {
		return PeriodComparison{}, err
	}
	histTotals, err := totals(Window{Start: ledger.Truncate(e.clock(), ledger.Day).AddDate(0, 0, -days)})
	if err != nil {
		return PeriodComparison{}, err
	}

	out := PeriodComparison{
		Period:      string(g),
		Date:        date.Format(time.DateOnly),
		PeriodStart: cur.Start.Format(time.DateOnly),
		Categories:  make([]CategoryComparison, 0, len(cats)),
	}
	for _, c := range cats {
		current := curTotals[c.ID].Amount.Float()
		previous := prevTotals[c.ID].Amount.Float()
		var historical float64
		if h := histTotals[c.ID]; h.Count > 0 {
			historical = h.Amount.Float() / float64(h.Count)
		}
		dir, change := Direction(current, previous)
		out.Categories = append(out.Categories, CategoryComparison{
			CategoryID:     c.ID,
			Category:       c.Name,
			CurrentSpend:   current,
			PreviousSpend:  previous,
			ChangePercent:  change,
			Direction:      dir,
			PredictedSpend: Predict(current, previous, historical),
		})
	}
	sort.SliceStable(out.Categories, func(i, j int) bool {
		a, b := out.Categories[i], out.Categories[j]
		if a.CurrentSpend != b.CurrentSpend {
			return a.CurrentSpend > b.CurrentSpend
		}
		return a.Category < b.Category
	})
	return out, nil
}

// SpendingByCategory reports every expense category with its share of the
// total spend in [start, end]. Zero times leave that side of the range open.
func (e *Engine) SpendingByCategory(ctx context.Context, userID int64, start, end time.Time) ([]CategorySpend, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	cats, err := e.reader.Categories(ctx, userID, core.Expense)
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	rows, err := e.reader.Aggregates(ctx, ledger.Query{
		UserID:      userID,
		Start:       start,
		End:         end,
		GroupBy:     ledger.ByCategory,
		Granularity: ledger.Whole,
		Type:        core.Expense,
	})
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	spent := make(map[int64]core.Money, len(rows))
	var total core.Money
	for _, row := range rows {
		spent[row.CategoryID] = spent[row.CategoryID].Add(row.Amount)
		total = total.Add(row.Amount)
	}
	out := make([]CategorySpend, 0, len(cats))
	for _, c := range cats {
		amount := spent[c.ID]
		out = append(out, CategorySpend{
			CategoryID: c.ID,
			Category:   c.Name,
			Amount:     amount.Float(),
			Percentage: percent(float64(amount.Cents), float64(total.Cents)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// Summary totals income and expenses in [start, end].
func (e *Engine) Summary(ctx context.Context, userID int64, start, end time.Time) (Summary, error) {
	if err := checkUser(userID); err != nil {
		return Summary{}, err
	}
	rows, err := e.reader.Aggregates(ctx, ledger.Query{
		UserID:      userID,
		Start:       start,
		End:         end,
		GroupBy:     ledger.ByType,
		Granularity: ledger.Whole,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	var income, expense core.Money
	for _, row := range rows {
		switch core.TransactionType(row.Key) {
		case core.Income:
			income = income.Add(row.Amount)
		case core.Expense:
			expense = expense.Add(row.Amount)
		}
	}
	out := Summary{
		TotalIncome:   income.Float(),
		TotalExpenses: expense.Float(),
		NetIncome:     core.Money{Cents: income.Cents - expense.Cents}.Float(),
		Period:        "custom",
	}
	if start.IsZero() && end.IsZero() {
		out.Period = "all_time"
	}
	return out, nil
}

// seriesByCategory regroups bucketed rows, already ordered by bucket, into
// one chronological series per category name.
func seriesByCategory(rows []ledger.Aggregate) []Series {
	idx := map[string]int{}
	var out []Series
	for _, row := range rows {
		i, ok := idx[row.Key]
		if !ok {
			i = len(out)
			idx[row.Key] = i
			out = append(out, Series{Category: row.Key})
		}
		pts := out[i].Points
		if n := len(pts); n > 0 && pts[n-1].Period.Equal(row.Bucket) {
			pts[n-1].Amount += row.Amount.Float()
			continue
		}
		out[i].Points = append(pts, Point{Period: row.Bucket, Amount: row.Amount.Float()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
