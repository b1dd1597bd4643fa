package analytics

import "sort"

type AnomalyRecord struct {
	Category       string  `json:"category"`
	AvgMonthly     float64 `json:"avg_monthly"`
	StdDevMonthly  float64 `json:"stddev_monthly"`
	CurrentMonthly float64 `json:"current_monthly"`
	ZScore         float64 `json:"z_score"`
	ExcessAmount   float64 `json:"excess_amount"`
	MonthsObserved int     `json:"months_observed"`
}

// DetectAnomalies flags categories whose current spend exceeds their
// historical monthly mean by more than sigma sample standard deviations.
//
// history holds completed months only. A category needs at least two of
// them and a non-zero deviation to be considered. Results are ordered by
// z-score, highest first.
func DetectAnomalies(history []Series, current map[string]float64, sigma float64) []AnomalyRecord {
	out := []AnomalyRecord{}
	for _, s := range history {
		cur, ok := current[s.Category]
		if !ok || len(s.Points) < 2 {
			continue
		}
		ys := s.amounts()
		avg := mean(ys)
		sd := sampleStdDev(ys)
		if sd == 0 {
			continue
		}
		if cur <= avg+sigma*sd {
			continue
		}
		out = append(out, AnomalyRecord{
			Category:       s.Category,
			AvgMonthly:     avg,
			StdDevMonthly:  sd,
			CurrentMonthly: cur,
			ZScore:         (cur - avg) / sd,
			ExcessAmount:   cur - avg,
			MonthsObserved: len(ys),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ZScore != out[j].ZScore {
			return out[i].ZScore > out[j].ZScore
		}
		return out[i].Category < out[j].Category
	})
	return out
}
