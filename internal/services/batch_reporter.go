package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// UserLister is satisfied by every ledger.Reader.
type UserLister interface {
	Users(ctx context.Context) ([]int64, error)
}

// BatchResult summarises one batch run.
type BatchResult struct {
	Users     int
	Succeeded int
	// SinkFailures counts reports produced whose delivery partly failed.
	SinkFailures int
	// Failed maps user id to the error that prevented its report.
	Failed   map[int64]error
	Duration time.Duration
}

// Err joins the per-user failures in user order.
func (r *BatchResult) Err() error {
	ids := make([]int64, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, r.Failed[id])
	}
	return errors.Join(errs...)
}

// BatchReporter generates the report of every user with bounded parallelism.
type BatchReporter struct {
	service *ReportService
	users   UserLister
	limit   int
}

func NewBatchReporter(service *ReportService, users UserLister, limit int) *BatchReporter {
	if limit < 1 {
		limit = 1
	}
	return &BatchReporter{service: service, users: users, limit: limit}
}

// Run reports on every user. A failing user does not stop the others; only a
// failure to list users is returned as an error.
func (b *BatchReporter) Run(ctx context.Context) (*BatchResult, error) {
	start := time.Now()

	ids, err := b.users.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	result := &BatchResult{
		Users:  len(ids),
		Failed: make(map[int64]error),
	}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(b.limit)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				result.Failed[id] = err
				mu.Unlock()
				return nil
			}

			res, err := b.service.Generate(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed[id] = err
			case res.SinkErr != nil:
				result.Succeeded++
				result.SinkFailures++
			default:
				result.Succeeded++
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(start)
	slog.InfoContext(ctx, "Batch report run finished",
		"users", result.Users,
		"succeeded", result.Succeeded,
		"failed", len(result.Failed),
		"sink_failures", result.SinkFailures,
		"duration", result.Duration)

	return result, nil
}
