package analytics

import (
	"sort"
	"time"
)

// Point is one period total of a series.
type Point struct {
	Period time.Time
	Amount float64
}

// Series is the chronological history of one category.
type Series struct {
	Category string
	Points   []Point
}

func (s Series) amounts() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Amount
	}
	return out
}

type TrendRecord struct {
	Category   string  `json:"category"`
	Slope      float64 `json:"slope"`
	AvgMonthly float64 `json:"avg_monthly"`
	Total      float64 `json:"total"`
	Variance   float64 `json:"variance"`
	Months     int     `json:"months"`
}

type TrendSummary struct {
	OverallTrend    float64 `json:"overall_trend"`
	AvgMonthlyTotal float64 `json:"avg_monthly_total"`
	MonthsAnalyzed  int     `json:"months_analyzed"`
}

type Trends struct {
	Trends  map[string]TrendRecord `json:"trends"`
	Summary TrendSummary           `json:"summary"`
}

// EstimateTrends fits a linear trend per category and over the per-period
// total. Missing periods are not filled in. Categories with fewer than two
// points get no record.
func EstimateTrends(series []Series) Trends {
	out := Trends{Trends: map[string]TrendRecord{}}

	totals := map[int64]float64{}
	for _, s := range series {
		for _, p := range s.Points {
			totals[p.Period.Unix()] += p.Amount
		}
		if len(s.Points) < 2 {
			continue
		}
		ys := s.amounts()
		out.Trends[s.Category] = TrendRecord{
			Category:   s.Category,
			Slope:      slope(ys),
			AvgMonthly: mean(ys),
			Total:      sum(ys),
			Variance:   populationVariance(ys),
			Months:     len(ys),
		}
	}

	if len(totals) == 0 {
		return out
	}
	periods := make([]int64, 0, len(totals))
	for p := range totals {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })
	overall := make([]float64, len(periods))
	for i, p := range periods {
		overall[i] = totals[p]
	}
	out.Summary = TrendSummary{
		OverallTrend:    slope(overall),
		AvgMonthlyTotal: mean(overall),
		MonthsAnalyzed:  len(overall),
	}
	return out
}
