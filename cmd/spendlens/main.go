package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/analytics"
	"spendlens/internal/backend"
	"spendlens/internal/cli"
	"spendlens/internal/config"
	"spendlens/internal/core"
	"spendlens/internal/ledger"
	"spendlens/internal/log"
	"spendlens/internal/report"
	"spendlens/internal/services"
	"spendlens/internal/storage"
)

var errUsage = errors.New("usage")

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, logger, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		} else {
			logger.ErrorContext(ctx, "Command failed", log.FieldOperation, os.Args[1], log.FieldError, err)
		}
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "spendlens - spending analytics")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  spendlens <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  report      Full report (trends, anomalies, budget, cashflow)")
	fmt.Fprintln(w, "  trends      Month-over-month spending trends")
	fmt.Fprintln(w, "  anomalies   Categories with unusual spending this month")
	fmt.Fprintln(w, "  budget      Budget vs actual for every rule")
	fmt.Fprintln(w, "  cashflow    Monthly income, expenses and savings rate")
	fmt.Fprintln(w, "  compare     Current vs previous period per category")
	fmt.Fprintln(w, "  categories  Spending by category over a range")
	fmt.Fprintln(w, "  summary     Income, expenses and net over a range")
	fmt.Fprintln(w, "  migrate     Apply database migrations")
	fmt.Fprintln(w, "  seed        Import a JSON ledger fixture into the database")
	fmt.Fprintln(w, "  request     Queue a report request for the report worker")
	fmt.Fprintln(w, "  help        Show this help message")
	fmt.Fprintln(w, "\nRun 'spendlens <command> -h' for more information on a command.")
}

func run(ctx context.Context, logger *log.Logger, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	case "migrate":
		return runMigrate(ctx, logger, rest)
	case "seed":
		return runSeed(ctx, logger, rest)
	case "request":
		return runRequest(ctx, logger, rest, stdout)
	case "report", "trends", "anomalies", "budget", "cashflow", "compare", "categories", "summary":
		return runAnalytics(ctx, logger, cmd, rest, stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return errUsage
	}
}

// analyticsFlags are shared by every read command.
type analyticsFlags struct {
	user    *int64
	start   *string
	end     *string
	gran    *string
	date    *string
	out     *string
	publish *bool
}

func runAnalytics(ctx context.Context, logger *log.Logger, cmd string, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	f := analyticsFlags{user: fs.Int64("user", 0, "User id (required)")}
	switch cmd {
	case "categories", "summary":
		f.start = fs.String("start", "", "Range start, YYYY-MM-DD (optional)")
		f.end = fs.String("end", "", "Range end, YYYY-MM-DD (optional)")
	case "compare":
		f.gran = fs.String("granularity", "month", "Period length: day, week or month")
		f.date = fs.String("date", "", "Reference date, YYYY-MM-DD (defaults to today)")
	case "report":
		f.out = fs.String("out", "", "Write the report to this file instead of stdout")
		f.publish = fs.Bool("publish", false, "Also deliver the report to every configured sink")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *f.user <= 0 {
		return fmt.Errorf("-user is required: %w", core.ErrMissingUser)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	res := cli.InitLedger(ctx, logger, cfg)
	if res.Cleanup != nil {
		defer res.Cleanup()
	}
	engine := analytics.New(res.Ledger, cfg.AnalyticsConfig())

	var out any
	var err error
	switch cmd {
	case "report":
		var rep *analytics.Report
		if *f.publish {
			rep, err = publishReport(ctx, logger, cfg, engine, *f.user)
		} else {
			rep, err = engine.Report(ctx, *f.user)
		}
		if err != nil {
			return err
		}
		if *f.out != "" {
			// A failed write falls back to stdout so the report is not lost
			err := report.WriteFile(rep, *f.out)
			if err == nil {
				fmt.Fprintf(stdout, "Report %s written to %s\n", rep.ReportID, *f.out)
				return nil
			}
			logger.WarnContext(ctx, "Report file write failed",
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeSink,
				log.FieldReportID, rep.ReportID,
				"path", *f.out)
		}
		out = rep
	case "trends":
		out, err = engine.SpendingTrends(ctx, *f.user)
	case "anomalies":
		out, err = engine.UnusualSpending(ctx, *f.user)
	case "budget":
		out, err = engine.BudgetVariance(ctx, *f.user)
	case "cashflow":
		out, err = engine.IncomeVsExpenses(ctx, *f.user)
	case "compare":
		date := time.Now().UTC()
		if *f.date != "" {
			d, perr := core.ParseDate(*f.date)
			if perr != nil {
				return perr
			}
			date = d.Time
		}
		out, err = engine.PeriodComparison(ctx, *f.user, ledger.Granularity(*f.gran), date)
	case "categories", "summary":
		start, end, perr := parseRange(*f.start, *f.end)
		if perr != nil {
			return perr
		}
		if cmd == "categories" {
			out, err = engine.SpendingByCategory(ctx, *f.user, start, end)
		} else {
			out, err = engine.Summary(ctx, *f.user, start, end)
		}
	}
	if err != nil {
		return err
	}
	return writeJSON(stdout, out)
}

func runMigrate(ctx context.Context, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := cli.LoadAndValidateConfig(logger)
	var err error
	switch backend.BackendType(cfg.DataBackend) {
	case backend.SQLiteBackend:
		err = storage.RunSQLiteMigrations(cfg.SQLiteDBPath)
	case backend.PostgresBackend:
		err = storage.RunPostgresMigrations(cfg.PostgresDSN)
	default:
		return fmt.Errorf("backend %q has no migrations", cfg.DataBackend)
	}
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Migrations applied", log.FieldBackend, cfg.DataBackend, log.FieldOperation, log.OpMigrate)
	return nil
}

func runSeed(ctx context.Context, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	file := fs.String("file", "", "Path to the JSON ledger fixture (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("-file is required")
	}

	fx, err := ledger.LoadFixture(*file)
	if err != nil {
		return err
	}

	cfg := cli.LoadAndValidateConfig(logger)
	res := cli.InitLedger(ctx, logger, cfg)
	if res.Cleanup != nil {
		defer res.Cleanup()
	}
	if res.Importer == nil {
		return fmt.Errorf("backend %q cannot be seeded", cfg.DataBackend)
	}
	if err := res.Importer.Import(ctx, fx); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Ledger seeded",
		log.FieldOperation, log.OpImport,
		"transactions", len(fx.Transactions),
		"budget_rules", len(fx.BudgetRules))
	return nil
}

func runRequest(ctx context.Context, logger *log.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	user := fs.Int64("user", 0, "User id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user <= 0 {
		return fmt.Errorf("-user is required: %w", core.ErrMissingUser)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required to queue report requests")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPReportQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	msg, err := client.PublishReportRequest(ctx, *user)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Report request queued",
		log.FieldRequestID, msg.RequestID,
		log.FieldUserID, msg.UserID)
	fmt.Fprintln(stdout, msg.RequestID)
	return nil
}

// publishReport runs the report through ReportService so every configured
// sink receives it. Sink failures are logged and do not fail the command.
func publishReport(ctx context.Context, logger *log.Logger, cfg *config.Config, engine *analytics.Engine, userID int64) (*analytics.Report, error) {
	var publisher report.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPReportQueue)
		if err != nil {
			return nil, err
		}
		defer client.Close()
		publisher = client
	}

	set, err := backend.CreateSinks(ctx, cfg, publisher, logger.Logger)
	if err != nil {
		return nil, err
	}
	defer set.Cleanup()

	res, err := services.NewReportService(engine, logger, set.Sinks...).Generate(ctx, userID)
	if err != nil {
		return nil, err
	}
	for sink, ref := range res.SinkRefs {
		logger.InfoContext(ctx, "Report delivered", log.FieldSink, sink, log.FieldSinkRef, ref)
	}
	return res.Report, nil
}

// parseRange turns optional YYYY-MM-DD bounds into times; empty means open.
func parseRange(start, end string) (time.Time, time.Time, error) {
	var s, e time.Time
	if start != "" {
		d, err := core.ParseDate(start)
		if err != nil {
			return s, e, fmt.Errorf("-start: %w", err)
		}
		s = d.Time
	}
	if end != "" {
		d, err := core.ParseDate(end)
		if err != nil {
			return s, e, fmt.Errorf("-end: %w", err)
		}
		e = d.Time
	}
	if !s.IsZero() && !e.IsZero() && e.Before(s) {
		return s, e, fmt.Errorf("%w: end %s before start %s", ledger.ErrInvalidRange, end, start)
	}
	return s, e, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
