package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"spendlens/internal/analytics"
)

type Config struct {
	// Ledger store
	DataBackend    string
	SQLiteDBPath   string
	PostgresDSN    string
	DBMaxOpenConns int
	LedgerFixture  string

	// Analytics windows and thresholds
	AnomalyLookbackDays int
	AnomalySigma        float64
	TrendMonths         int
	CashflowMonths      int

	// Report sinks
	ReportOutputDir   string
	ReportGCSBucket   string
	ReportGCSPrefix   string
	ReportSheetName   string
	ReportConcurrency int

	// Google
	GoogleSpreadsheetID         string
	GoogleServiceAccountJSON    string
	GoogleServiceAccountFile    string
	GoogleApplicationCredential string

	// AMQP
	AMQPURL          string
	AMQPExchange     string
	AMQPRequestQueue string
	AMQPReportQueue  string

	// Scheduler
	ScheduleInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	defaults := analytics.DefaultConfig()

	cfg := &Config{
		DataBackend:    getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/spendlens.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN", 10),
		LedgerFixture:  getEnv("LEDGER_FIXTURE", ""),

		AnomalyLookbackDays: getEnvInt("ANOMALY_LOOKBACK_DAYS", defaults.AnomalyLookbackDays),
		AnomalySigma:        getEnvFloat("ANOMALY_SIGMA", defaults.SigmaThreshold),
		TrendMonths:         getEnvInt("TREND_MONTHS", defaults.TrendMonths),
		CashflowMonths:      getEnvInt("CASHFLOW_MONTHS", defaults.CashflowMonths),

		ReportOutputDir:   getEnv("REPORT_OUTPUT_DIR", ""),
		ReportGCSBucket:   getEnv("REPORT_GCS_BUCKET", ""),
		ReportGCSPrefix:   getEnv("REPORT_GCS_PREFIX", "reports"),
		ReportSheetName:   getEnv("REPORT_SHEET_NAME", "Reports"),
		ReportConcurrency: getEnvInt("REPORT_CONCURRENCY", 4),

		GoogleSpreadsheetID:         getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON:    getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:    getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleApplicationCredential: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "spendlens"),
		AMQPRequestQueue: getEnv("AMQP_REQUEST_QUEUE", "report_requests"),
		AMQPReportQueue:  getEnv("AMQP_REPORT_QUEUE", "reports"),

		ScheduleInterval: getEnvDuration("SCHEDULE_INTERVAL", 24*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// AnalyticsConfig returns the engine settings carried by c.
func (c *Config) AnalyticsConfig() analytics.Config {
	return analytics.Config{
		AnomalyLookbackDays: c.AnomalyLookbackDays,
		SigmaThreshold:      c.AnomalySigma,
		TrendMonths:         c.TrendMonths,
		CashflowMonths:      c.CashflowMonths,
	}
}

// HasGoogleCredentials reports whether any service account source is set.
func (c *Config) HasGoogleCredentials() bool {
	return c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "" || c.GoogleApplicationCredential != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" {
		if c.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
		}
		if c.DBMaxOpenConns < 1 {
			errors = append(errors, fmt.Sprintf("invalid max open connections %d: must be at least 1", c.DBMaxOpenConns))
		}
	}

	if c.LedgerFixture != "" {
		if _, err := os.Stat(c.LedgerFixture); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("ledger fixture does not exist: %s", c.LedgerFixture))
		}
	}

	if err := c.AnalyticsConfig().Validate(); err != nil {
		errors = append(errors, strings.Split(err.Error(), "\n")...)
	}

	if c.ReportConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid report concurrency %d: must be at least 1", c.ReportConcurrency))
	} else if c.ReportConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid report concurrency %d: must be at most 64", c.ReportConcurrency))
	}

	// Sheets sink needs both a target and credentials
	if c.GoogleSpreadsheetID != "" {
		if c.ReportSheetName == "" {
			errors = append(errors, "report sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if !c.HasGoogleCredentials() {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for the sheets sink")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRequestQueue == "" {
			errors = append(errors, "AMQP request queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPReportQueue == "" {
			errors = append(errors, "AMQP report queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ScheduleInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid schedule interval %v: must be at least 1 minute", c.ScheduleInterval))
	} else if c.ScheduleInterval > 31*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid schedule interval %v: must be at most 31 days", c.ScheduleInterval))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
