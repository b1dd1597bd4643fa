package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"spendlens/internal/core"
	"spendlens/internal/ledger"
)

// Repository is a SQL-backed ledger. It implements ledger.Reader and
// ledger.Snapshotter on top of SQLite or PostgreSQL.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	queries *Queries
}

var (
	_ ledger.Reader      = (*Repository)(nil)
	_ ledger.Snapshotter = (*Repository)(nil)
)

// OpenSQLite opens (creating if needed) the database file and migrates it.
func OpenSQLite(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(SQLite.Driver, dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newRepository(db, SQLite), nil
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string, maxOpenConns int) (*Repository, error) {
	db, err := sql.Open(Postgres.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, ledger.Unavailable("ping", err)
	}

	if err := RunPostgresMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newRepository(db, Postgres), nil
}

func newRepository(db *sql.DB, d Dialect) *Repository {
	return &Repository{db: db, dialect: d, queries: New(db, d)}
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Dialect() Dialect { return r.dialect }

// Aggregates implements ledger.Reader.
func (r *Repository) Aggregates(ctx context.Context, q ledger.Query) ([]ledger.Aggregate, error) {
	return aggregates(ctx, r.queries, q)
}

// BudgetRules implements ledger.Reader.
func (r *Repository) BudgetRules(ctx context.Context, userID int64) ([]core.BudgetRule, error) {
	return budgetRules(ctx, r.queries, userID)
}

// Categories implements ledger.Reader.
func (r *Repository) Categories(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Category, error) {
	cats, err := r.queries.ListCategories(ctx, userID, string(typ))
	if err != nil {
		return nil, ledger.Unavailable("categories", err)
	}
	return cats, nil
}

// Users implements ledger.Reader.
func (r *Repository) Users(ctx context.Context) ([]int64, error) {
	ids, err := r.queries.ListUserIDs(ctx)
	if err != nil {
		return nil, ledger.Unavailable("users", err)
	}
	return ids, nil
}

// Snapshot pins one read transaction. PostgreSQL runs it at REPEATABLE
// READ; SQLite transactions are already serializable.
func (r *Repository) Snapshot(ctx context.Context) (ledger.Snapshot, error) {
	var opts *sql.TxOptions
	if r.dialect.Name == Postgres.Name {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, ledger.Unavailable("begin snapshot", err)
	}
	return &txSnapshot{tx: tx, queries: r.queries.WithTx(tx)}, nil
}

type txSnapshot struct {
	tx      *sql.Tx
	queries *Queries
}

func (s *txSnapshot) Aggregates(ctx context.Context, q ledger.Query) ([]ledger.Aggregate, error) {
	return aggregates(ctx, s.queries, q)
}

func (s *txSnapshot) BudgetRules(ctx context.Context, userID int64) ([]core.BudgetRule, error) {
	return budgetRules(ctx, s.queries, userID)
}

func (s *txSnapshot) Categories(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Category, error) {
	cats, err := s.queries.ListCategories(ctx, userID, string(typ))
	if err != nil {
		return nil, ledger.Unavailable("categories", err)
	}
	return cats, nil
}

func (s *txSnapshot) Users(ctx context.Context) ([]int64, error) {
	ids, err := s.queries.ListUserIDs(ctx)
	if err != nil {
		return nil, ledger.Unavailable("users", err)
	}
	return ids, nil
}

// Close ends the read transaction. Nothing was written, so it rolls back.
func (s *txSnapshot) Close() error {
	if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}

func aggregates(ctx context.Context, q *Queries, lq ledger.Query) ([]ledger.Aggregate, error) {
	if err := lq.Validate(); err != nil {
		return nil, err
	}
	rows, err := q.Aggregates(ctx, lq)
	if err != nil {
		return nil, ledger.Unavailable("aggregates", err)
	}
	out := make([]ledger.Aggregate, 0, len(rows))
	for _, row := range rows {
		agg := ledger.Aggregate{
			Key:        row.GroupKey,
			CategoryID: row.CategoryID,
			Amount:     core.Money{Cents: row.AmountCents},
			Count:      row.Count,
		}
		if row.Bucket != "" {
			b, err := time.Parse(time.DateOnly, row.Bucket)
			if err != nil {
				return nil, fmt.Errorf("parse bucket %q: %w", row.Bucket, err)
			}
			agg.Bucket = b
		}
		out = append(out, agg)
	}
	return out, nil
}

func budgetRules(ctx context.Context, q *Queries, userID int64) ([]core.BudgetRule, error) {
	rows, err := q.ListBudgetRules(ctx, userID)
	if err != nil {
		return nil, ledger.Unavailable("budget rules", err)
	}
	out := make([]core.BudgetRule, 0, len(rows))
	for _, row := range rows {
		start, err := core.ParseDate(row.StartDate)
		if err != nil {
			return nil, fmt.Errorf("budget rule %d: %w", row.ID, err)
		}
		rule := core.BudgetRule{
			ID:           row.ID,
			UserID:       row.UserID,
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			Amount:       core.Money{Cents: row.AmountCents},
			Period:       core.Period(row.Period),
			StartDate:    start,
		}
		if row.EndDate.Valid {
			if rule.EndDate, err = core.ParseDate(row.EndDate.String); err != nil {
				return nil, fmt.Errorf("budget rule %d: %w", row.ID, err)
			}
		}
		out = append(out, rule)
	}
	return out, nil
}

// Import writes every record of fx in one transaction. Users referenced
// without a declaration get a placeholder email.
func (r *Repository) Import(ctx context.Context, fx *ledger.Fixture) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Unavailable("begin import", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	declared := map[int64]core.User{}
	for _, u := range fx.Users {
		declared[u.ID] = u
	}
	for _, id := range fx.UserIDs() {
		u, ok := declared[id]
		if !ok || u.Email == "" {
			u = core.User{ID: id, Email: fmt.Sprintf("user-%d@spendlens.local", id), Name: u.Name}
		}
		if err := q.UpsertUser(ctx, u); err != nil {
			return fmt.Errorf("import user %d: %w", id, err)
		}
	}
	for _, c := range fx.Categories {
		if err := q.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("import category %d: %w", c.ID, err)
		}
	}
	for i, t := range fx.Transactions {
		if err := q.CreateTransaction(ctx, t); err != nil {
			return fmt.Errorf("import transaction %d: %w", i, err)
		}
	}
	for i, b := range fx.BudgetRules {
		if err := q.CreateBudgetRule(ctx, b); err != nil {
			return fmt.Errorf("import budget rule %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Ledger fixture imported",
		"backend", r.dialect.Name,
		"users", len(fx.UserIDs()),
		"categories", len(fx.Categories),
		"transactions", len(fx.Transactions),
		"budget_rules", len(fx.BudgetRules))
	return nil
}
