package analytics

import (
	"sort"
	"time"
)

type CashflowMonth struct {
	Month       string  `json:"month"`
	Income      float64 `json:"income"`
	Expense     float64 `json:"expense"`
	NetIncome   float64 `json:"net_income"`
	SavingsRate float64 `json:"savings_rate"`
	// SavingsRateUndefined marks months without income, where SavingsRate is 0
	// by convention rather than by measurement.
	SavingsRateUndefined bool `json:"savings_rate_undefined"`
}

type CashflowSummary struct {
	AvgMonthlyIncome   float64 `json:"avg_monthly_income"`
	AvgMonthlyExpenses float64 `json:"avg_monthly_expenses"`
	AvgNetIncome       float64 `json:"avg_net_income"`
	AvgSavingsRate     float64 `json:"avg_savings_rate"`
	TotalIncome        float64 `json:"total_income"`
	TotalExpenses      float64 `json:"total_expenses"`
}

type Cashflow struct {
	MonthlyData []CashflowMonth `json:"monthly_data"`
	Summary     CashflowSummary `json:"summary"`
}

// MonthFlow is the raw income and expense of one calendar month.
type MonthFlow struct {
	Month   time.Time
	Income  float64
	Expense float64
}

// SummarizeCashflow derives net income and savings rate per month plus
// window averages and totals. Months are reported in chronological order.
func SummarizeCashflow(months []MonthFlow) Cashflow {
	sorted := append([]MonthFlow(nil), months...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Month.Before(sorted[j].Month) })

	out := Cashflow{MonthlyData: make([]CashflowMonth, 0, len(sorted))}
	if len(sorted) == 0 {
		return out
	}
	var incomes, expenses, nets, rates []float64
	for _, m := range sorted {
		net := m.Income - m.Expense
		cm := CashflowMonth{
			Month:                m.Month.Format("2006-01"),
			Income:               m.Income,
			Expense:              m.Expense,
			NetIncome:            net,
			SavingsRate:          percent(net, m.Income),
			SavingsRateUndefined: m.Income == 0,
		}
		out.MonthlyData = append(out.MonthlyData, cm)
		incomes = append(incomes, m.Income)
		expenses = append(expenses, m.Expense)
		nets = append(nets, net)
		rates = append(rates, cm.SavingsRate)
	}
	out.Summary = CashflowSummary{
		AvgMonthlyIncome:   mean(incomes),
		AvgMonthlyExpenses: mean(expenses),
		AvgNetIncome:       mean(nets),
		AvgSavingsRate:     mean(rates),
		TotalIncome:        sum(incomes),
		TotalExpenses:      sum(expenses),
	}
	return out
}
