package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func series(category string, start time.Time, amounts ...float64) Series {
	s := Series{Category: category}
	for i, a := range amounts {
		s.Points = append(s.Points, Point{Period: start.AddDate(0, i, 0), Amount: a})
	}
	return s
}

func TestEstimateTrends(t *testing.T) {
	jan := month(2024, time.January)
	got := EstimateTrends([]Series{
		series("Groceries", jan, 100, 150, 200),
		series("Dining", jan, 80, 60, 40),
		series("Gifts", jan, 300),
	})

	require.Len(t, got.Trends, 2)
	assert.NotContains(t, got.Trends, "Gifts")

	g := got.Trends["Groceries"]
	assert.InDelta(t, 50, g.Slope, 1e-9)
	assert.InDelta(t, 150, g.AvgMonthly, 1e-9)
	assert.InDelta(t, 450, g.Total, 1e-9)
	assert.InDelta(t, 5000.0/3, g.Variance, 1e-9)
	assert.Equal(t, 3, g.Months)

	assert.InDelta(t, -20, got.Trends["Dining"].Slope, 1e-9)

	// Per month totals: 480, 210, 240.
	assert.Equal(t, 3, got.Summary.MonthsAnalyzed)
	assert.InDelta(t, 310, got.Summary.AvgMonthlyTotal, 1e-9)
	assert.InDelta(t, -120, got.Summary.OverallTrend, 1e-9)
}

func TestEstimateTrendsAverageIsMeanOfSeries(t *testing.T) {
	inputs := [][]float64{
		{1, 2},
		{12.5, 99.99, 0.01, 42},
		{1000, 1000, 1000, 1000, 1000, 1},
	}
	for _, amounts := range inputs {
		got := EstimateTrends([]Series{series("X", month(2023, time.May), amounts...)})
		var total float64
		for _, a := range amounts {
			total += a
		}
		assert.InDelta(t, total/float64(len(amounts)), got.Trends["X"].AvgMonthly, 1e-9)
	}
}

func TestEstimateTrendsGapsAreNotFilled(t *testing.T) {
	s := Series{Category: "Travel", Points: []Point{
		{Period: month(2024, time.January), Amount: 100},
		{Period: month(2024, time.April), Amount: 200},
	}}
	got := EstimateTrends([]Series{s})
	// Two points, one index apart, regardless of the calendar gap.
	assert.InDelta(t, 100, got.Trends["Travel"].Slope, 1e-9)
	assert.Equal(t, 2, got.Summary.MonthsAnalyzed)
}

func TestEstimateTrendsEmpty(t *testing.T) {
	got := EstimateTrends(nil)
	assert.Empty(t, got.Trends)
	assert.NotNil(t, got.Trends)
	assert.Equal(t, TrendSummary{}, got.Summary)
}

func TestEstimateTrendsSinglePointStillCountsInSummary(t *testing.T) {
	got := EstimateTrends([]Series{series("Gifts", month(2024, time.March), 300)})
	assert.Empty(t, got.Trends)
	assert.Equal(t, 1, got.Summary.MonthsAnalyzed)
	assert.Equal(t, 0.0, got.Summary.OverallTrend)
	assert.InDelta(t, 300, got.Summary.AvgMonthlyTotal, 1e-9)
}
