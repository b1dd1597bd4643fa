package analytics

import (
	"errors"
	"fmt"
)

// Config holds the tunable windows and thresholds of the engine.
type Config struct {
	// AnomalyLookbackDays bounds the history used for anomaly baselines.
	AnomalyLookbackDays int
	// SigmaThreshold is k in "current > mean + k*stddev".
	SigmaThreshold float64
	TrendMonths    int
	CashflowMonths int
}

func DefaultConfig() Config {
	return Config{
		AnomalyLookbackDays: 30,
		SigmaThreshold:      2.0,
		TrendMonths:         6,
		CashflowMonths:      12,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.AnomalyLookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("anomaly lookback must be positive, got %d", c.AnomalyLookbackDays))
	}
	if c.SigmaThreshold <= 0 {
		errs = append(errs, fmt.Errorf("sigma threshold must be positive, got %g", c.SigmaThreshold))
	}
	if c.TrendMonths <= 0 {
		errs = append(errs, fmt.Errorf("trend window must be positive, got %d", c.TrendMonths))
	}
	if c.CashflowMonths <= 0 {
		errs = append(errs, fmt.Errorf("cashflow window must be positive, got %d", c.CashflowMonths))
	}
	return errors.Join(errs...)
}
