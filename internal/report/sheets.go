package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendlens/internal/analytics"
	"spendlens/internal/log"
)

// SheetHeader is the column layout of the report summary sheet.
var SheetHeader = []any{
	"Generated At", "Report ID", "User", "Income", "Expenses",
	"Avg Savings Rate", "Overall Trend", "Anomalies", "Over Budget",
}

// ValuesAPI is the subset of the Sheets values service the sink needs.
type ValuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

type sheetsValues struct {
	svc *gsheet.Service
}

func (v sheetsValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v sheetsValues) Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := v.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

// Credentials names the service account sources, tried in order.
type Credentials struct {
	JSON            string
	File            string
	ApplicationFile string
}

// SheetsSink appends one summary row per report to "<year> <sheet>".
type SheetsSink struct {
	values        ValuesAPI
	spreadsheetID string
	sheetBase     string
}

// NewSheetsSink creates a Sheets service using service account credentials.
func NewSheetsSink(ctx context.Context, spreadsheetID, sheetBase string, creds Credentials) (*SheetsSink, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewSheetsSinkWithValues(sheetsValues{svc: svc}, spreadsheetID, sheetBase), nil
}

func NewSheetsSinkWithValues(values ValuesAPI, spreadsheetID, sheetBase string) *SheetsSink {
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = "Reports"
	}
	return &SheetsSink{values: values, spreadsheetID: spreadsheetID, sheetBase: sheetBase}
}

func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	var credentialsJSON []byte
	var err error

	switch {
	case strings.TrimSpace(creds.JSON) != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(creds.JSON)
	case strings.TrimSpace(creds.File) != "" || strings.TrimSpace(creds.ApplicationFile) != "":
		file := strings.TrimSpace(creds.File)
		if file == "" {
			file = strings.TrimSpace(creds.ApplicationFile)
		}
		slog.DebugContext(ctx, "Reading service account credentials", "path", file)
		credentialsJSON, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Write(ctx context.Context, rep *analytics.Report) (string, error) {
	sheet := yearPrefixedName(s.sheetBase, rep.GeneratedAt.Year())

	// Find the next empty row
	existing, err := s.values.Get(ctx, s.spreadsheetID, fmt.Sprintf("%s!A:A", sheet))
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}

	rows := [][]any{SummaryRow(rep)}
	nextRow := len(existing) + 1
	if len(existing) == 0 {
		rows = [][]any{SheetHeader, SummaryRow(rep)}
	}
	lastRow := nextRow + len(rows) - 1

	rng := fmt.Sprintf("%s!A%d:I%d", sheet, nextRow, lastRow)
	if err := s.values.Update(ctx, s.spreadsheetID, rng, rows); err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}
	ref := fmt.Sprintf("%s!A%d:I%d", sheet, lastRow, lastRow)
	log.FromContext(ctx).DebugContext(ctx, "Report row appended",
		log.FieldSink, s.Name(),
		log.FieldSinkRef, ref,
		log.FieldOperation, log.OpAppend)
	return ref, nil
}

// SummaryRow flattens the headline numbers of rep into one sheet row.
func SummaryRow(rep *analytics.Report) []any {
	overBudget := 0
	for _, v := range rep.BudgetVariance {
		if v.Status == analytics.StatusOverBudget {
			overBudget++
		}
	}
	summary := rep.IncomeVsExpenses.Summary
	return []any{
		rep.GeneratedAt.UTC().Format(time.RFC3339),
		rep.ReportID,
		rep.UserID,
		summary.TotalIncome,
		summary.TotalExpenses,
		summary.AvgSavingsRate,
		rep.SpendingTrends.Summary.OverallTrend,
		len(rep.UnusualSpending),
		overBudget,
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
