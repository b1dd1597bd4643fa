package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"spendlens/internal/core"
	"spendlens/internal/ledger"
)

// AggregateRow is one grouped sum as returned by the database.
type AggregateRow struct {
	GroupKey    string
	CategoryID  int64
	Bucket      string
	AmountCents int64
	Count       int64
}

// aggregateSQL builds the grouped sum for q. Every filter is bound as a
// parameter; only column expressions are interpolated.
func (q *Queries) aggregateSQL(lq ledger.Query) (string, []interface{}) {
	var keyCol, idCol string
	var group []string
	switch lq.GroupBy {
	case ledger.ByType:
		keyCol, idCol = "t.type", "0"
		group = append(group, "t.type")
	default:
		keyCol, idCol = "c.name", "c.id"
		group = append(group, "c.id", "c.name")
	}

	bucket := q.dialect.Bucket(lq.Granularity, "t.date")
	bucketCol := "''"
	if bucket != "" {
		bucketCol = bucket
		group = append(group, bucket)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s AS group_key, %s AS category_id, %s AS bucket,
       CAST(SUM(t.amount_cents) AS BIGINT) AS amount_cents, COUNT(*) AS n
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE t.user_id = ?`, keyCol, idCol, bucketCol)

	args := []interface{}{lq.UserID}
	if !lq.Start.IsZero() {
		sb.WriteString(" AND t.date >= ?")
		args = append(args, lq.Start.Format(time.DateOnly))
	}
	if !lq.End.IsZero() {
		sb.WriteString(" AND t.date <= ?")
		args = append(args, lq.End.Format(time.DateOnly))
	}
	if lq.Type != "" {
		sb.WriteString(" AND t.type = ?")
		args = append(args, string(lq.Type))
	}
	if lq.CategoryID != 0 {
		sb.WriteString(" AND t.category_id = ?")
		args = append(args, lq.CategoryID)
	}
	sb.WriteString("\nGROUP BY " + strings.Join(group, ", "))
	sb.WriteString("\nORDER BY bucket, group_key, category_id")
	return q.dialect.Rebind(sb.String()), args
}

func (q *Queries) Aggregates(ctx context.Context, lq ledger.Query) ([]AggregateRow, error) {
	query, args := q.aggregateSQL(lq)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AggregateRow
	for rows.Next() {
		var i AggregateRow
		if err := rows.Scan(&i.GroupKey, &i.CategoryID, &i.Bucket, &i.AmountCents, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type BudgetRuleRow struct {
	ID           int64
	UserID       int64
	CategoryID   int64
	CategoryName string
	AmountCents  int64
	Period       string
	StartDate    string
	EndDate      sql.NullString
}

func (q *Queries) ListBudgetRules(ctx context.Context, userID int64) ([]BudgetRuleRow, error) {
	query := q.dialect.Rebind(`SELECT b.id, b.user_id, b.category_id, c.name, b.amount_cents, b.period, ` +
		q.dialect.DateText("b.start_date") + `, ` + q.dialect.DateText("b.end_date") + `
FROM budget_rules b
JOIN categories c ON c.id = b.category_id
WHERE b.user_id = ?
ORDER BY b.id`)
	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetRuleRow
	for rows.Next() {
		var i BudgetRuleRow
		if err := rows.Scan(&i.ID, &i.UserID, &i.CategoryID, &i.CategoryName, &i.AmountCents, &i.Period, &i.StartDate, &i.EndDate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) ListCategories(ctx context.Context, userID int64, typ string) ([]core.Category, error) {
	query := `SELECT id, user_id, name, type FROM categories WHERE user_id = ?`
	args := []interface{}{userID}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, typ)
	}
	query += ` ORDER BY name, id`
	rows, err := q.db.QueryContext(ctx, q.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []core.Category
	for rows.Next() {
		var i core.Category
		var t string
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &t); err != nil {
			return nil, err
		}
		i.Type = core.TransactionType(t)
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) UpsertUser(ctx context.Context, u core.User) error {
	_, err := q.db.ExecContext(ctx, q.dialect.Rebind(
		`INSERT INTO users (id, email, name) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`),
		u.ID, u.Email, u.Name)
	return err
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := q.db.ExecContext(ctx, q.dialect.Rebind(
		`INSERT INTO categories (id, user_id, name, type) VALUES (?, ?, ?, ?)`),
		c.ID, c.UserID, c.Name, string(c.Type))
	return err
}

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) error {
	var account sql.NullInt64
	if t.AccountID > 0 {
		account = sql.NullInt64{Int64: t.AccountID, Valid: true}
	}
	_, err := q.db.ExecContext(ctx, q.dialect.Rebind(
		`INSERT INTO transactions (user_id, account_id, category_id, amount_cents, type, date, description)
VALUES (?, ?, ?, ?, ?, ?, ?)`),
		t.UserID, account, t.CategoryID, t.Amount.Cents, string(t.Type), t.Date.String(), t.Description)
	return err
}

func (q *Queries) CreateBudgetRule(ctx context.Context, r core.BudgetRule) error {
	var end sql.NullString
	if !r.EndDate.IsEmpty() {
		end = sql.NullString{String: r.EndDate.String(), Valid: true}
	}
	_, err := q.db.ExecContext(ctx, q.dialect.Rebind(
		`INSERT INTO budget_rules (user_id, category_id, amount_cents, period, start_date, end_date)
VALUES (?, ?, ?, ?, ?, ?)`),
		r.UserID, r.CategoryID, r.Amount.Cents, string(r.Period), r.StartDate.String(), end)
	return err
}
