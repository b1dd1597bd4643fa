package analytics

import (
	"fmt"
	"time"

	"spendlens/internal/ledger"
)

const (
	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStable = "stable"
	DirectionNew    = "new"
)

// directionBand is the change percent beyond which spend is trending.
const directionBand = 10.0

// Weights of the next-period prediction.
const (
	currentWeight    = 0.4
	trendWeight      = 0.4
	historicalWeight = 0.2
	fallbackFactor   = 0.8
)

type CategoryComparison struct {
	CategoryID     int64   `json:"category_id"`
	Category       string  `json:"category"`
	CurrentSpend   float64 `json:"current_spend"`
	PreviousSpend  float64 `json:"previous_spend"`
	ChangePercent  float64 `json:"change_percent"`
	Direction      string  `json:"trend_direction"`
	PredictedSpend float64 `json:"predicted_spend"`
}

type PeriodComparison struct {
	Period      string               `json:"period"`
	Date        string               `json:"date"`
	PeriodStart string               `json:"period_start"`
	Categories  []CategoryComparison `json:"trends"`
}

type CategorySpend struct {
	CategoryID int64   `json:"category_id"`
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type Summary struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	NetIncome     float64 `json:"net_income"`
	Period        string  `json:"period"`
}

// historyDays is the lookback used for the average transaction amount
// feeding the prediction of each comparison granularity.
var historyDays = map[ledger.Granularity]int{
	ledger.Day:   30,
	ledger.Week:  84,
	ledger.Month: 365,
}

func comparisonLookback(g ledger.Granularity) (int, error) {
	days, ok := historyDays[g]
	if !ok {
		return 0, fmt.Errorf("%w: %q (want day, week or month)", ledger.ErrInvalidGranularity, g)
	}
	return days, nil
}

// Direction classifies the change between two periods. A category with no
// previous spend is new and reports a zero change.
func Direction(current, previous float64) (string, float64) {
	if previous <= 0 {
		return DirectionNew, 0
	}
	change := (current - previous) / previous * 100
	switch {
	case change > directionBand:
		return DirectionUp, change
	case change < -directionBand:
		return DirectionDown, change
	default:
		return DirectionStable, change
	}
}

// Predict weighs the current spend, its change since the previous period
// and the historical average transaction amount. Negative results fall back
// to a fraction of the current spend.
func Predict(current, previous, historical float64) float64 {
	var delta float64
	if previous > 0 {
		delta = current - previous
	}
	p := current*currentWeight + delta*trendWeight + historical*historicalWeight
	if p < 0 {
		return current * fallbackFactor
	}
	return p
}

func periodRange(date time.Time, g ledger.Granularity) (cur, prev Window) {
	start := ledger.Truncate(date, g)
	next := ledger.Next(start, g)
	before := ledger.Previous(start, g)
	cur = Window{Start: start, End: next.AddDate(0, 0, -1)}
	prev = Window{Start: before, End: start.AddDate(0, 0, -1)}
	return cur, prev
}
