package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spendlens/internal/ledger"
)

func TestDirection(t *testing.T) {
	tests := []struct {
		current, previous float64
		want              string
		change            float64
	}{
		{120, 100, DirectionUp, 20},
		{80, 100, DirectionDown, -20},
		{105, 100, DirectionStable, 5},
		{110, 100, DirectionStable, 10},
		{50, 0, DirectionNew, 0},
		{0, 0, DirectionNew, 0},
	}
	for _, tt := range tests {
		dir, change := Direction(tt.current, tt.previous)
		assert.Equal(t, tt.want, dir, "Direction(%v, %v)", tt.current, tt.previous)
		assert.InDelta(t, tt.change, change, 1e-9)
	}
}

func TestPredict(t *testing.T) {
	// 0.4*200 + 0.4*(200-100) + 0.2*50
	assert.InDelta(t, 130, Predict(200, 100, 50), 1e-9)
	// No previous spend: trend term is dropped.
	assert.InDelta(t, 90, Predict(200, 0, 50), 1e-9)
	// Sharp drop turns negative and falls back to 80% of current.
	assert.InDelta(t, 8, Predict(10, 100, 0), 1e-9)
}

func TestPeriodRange(t *testing.T) {
	date := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		g                           ledger.Granularity
		curStart, curEnd, prevStart string
	}{
		{ledger.Day, "2024-03-06", "2024-03-06", "2024-03-05"},
		{ledger.Week, "2024-03-04", "2024-03-10", "2024-02-26"},
		{ledger.Month, "2024-03-01", "2024-03-31", "2024-02-01"},
	}
	for _, tt := range tests {
		cur, prev := periodRange(date, tt.g)
		assert.Equal(t, tt.curStart, cur.Start.Format(time.DateOnly), tt.g)
		assert.Equal(t, tt.curEnd, cur.End.Format(time.DateOnly), tt.g)
		assert.Equal(t, tt.prevStart, prev.Start.Format(time.DateOnly), tt.g)
		assert.True(t, prev.End.Equal(cur.Start.AddDate(0, 0, -1)))
	}
}

func TestComparisonLookbackRejectsYear(t *testing.T) {
	_, err := comparisonLookback(ledger.Year)
	assert.ErrorIs(t, err, ledger.ErrInvalidGranularity)
}
