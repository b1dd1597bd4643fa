// Package ledger defines the read contract between the analytics engine and
// the transaction store.
//
// A Reader returns time-bucketed aggregates; it never applies business
// rules beyond filtering by user, date range and transaction type.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendlens/internal/core"
)

// Granularity is the calendar truncation applied to transaction dates.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
	// Whole collapses the range into a single bucket with a zero Bucket time.
	Whole Granularity = "none"
)

// GroupBy selects the aggregation key.
type GroupBy string

const (
	ByCategory GroupBy = "category"
	ByType     GroupBy = "type"
)

var (
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidGroupBy     = errors.New("invalid group by")
	ErrInvalidRange       = errors.New("invalid date range")
)

// Query describes one aggregate read.
type Query struct {
	UserID      int64
	Start       time.Time // inclusive
	End         time.Time // inclusive; zero means no upper bound
	GroupBy     GroupBy
	Granularity Granularity
	Type        core.TransactionType // empty means both types
	CategoryID  int64                // zero means every category
}

// Validate checks the query shape before it reaches a store.
func (q Query) Validate() error {
	if q.UserID <= 0 {
		return core.ErrMissingUser
	}
	switch q.Granularity {
	case Day, Week, Month, Year, Whole:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGranularity, q.Granularity)
	}
	switch q.GroupBy {
	case ByCategory, ByType:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGroupBy, q.GroupBy)
	}
	if q.Type != "" && !q.Type.Valid() {
		return core.ErrInvalidType
	}
	if q.CategoryID < 0 {
		return fmt.Errorf("invalid category id %d", q.CategoryID)
	}
	if !q.End.IsZero() && q.End.Before(q.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Aggregate is one (group key, period bucket) sum.
type Aggregate struct {
	// Key is the category name or the transaction type, depending on GroupBy.
	Key        string
	CategoryID int64
	Bucket     time.Time
	Amount     core.Money
	Count      int64
}

//go:generate mockgen -destination=mocks/mock_ledger.go -source=ledger.go

// Reader is the read-only view of a ledger store.
type Reader interface {
	// Aggregates returns sums ordered by bucket then key. No matching rows
	// yields an empty slice and a nil error.
	Aggregates(ctx context.Context, q Query) ([]Aggregate, error)
	// BudgetRules returns every budget rule of the user, category name resolved.
	BudgetRules(ctx context.Context, userID int64) ([]core.BudgetRule, error)
	// Categories lists the user's categories, optionally filtered by type.
	Categories(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Category, error)
	// Users lists ids of every user with a ledger.
	Users(ctx context.Context) ([]int64, error)
}

// Snapshot is a Reader pinned to one consistent view of the store.
type Snapshot interface {
	Reader
	Close() error
}

// Snapshotter is implemented by stores able to pin a consistent view.
type Snapshotter interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Open returns a snapshot of r when supported, or r itself with a no-op Close.
func Open(ctx context.Context, r Reader) (Snapshot, error) {
	if s, ok := r.(Snapshotter); ok {
		return s.Snapshot(ctx)
	}
	return nopSnapshot{r}, nil
}

type nopSnapshot struct{ Reader }

func (nopSnapshot) Close() error { return nil }
