// Package report delivers composed analytics reports to their destinations.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"spendlens/internal/analytics"
)

//go:generate mockgen -destination=mocks/mock_sink.go -source=sink.go

// Sink stores or forwards a report. Write returns a reference to where the
// report ended up (a path, an object URI, a sheet range).
type Sink interface {
	Name() string
	Write(ctx context.Context, rep *analytics.Report) (string, error)
}

// Encode renders rep as indented JSON with a trailing newline.
func Encode(rep *analytics.Report) ([]byte, error) {
	body, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report %s: %w", rep.ReportID, err)
	}
	return append(body, '\n'), nil
}

// ObjectName lays reports out as <prefix>/user-<id>/<date>/<report_id>.json.
func ObjectName(prefix string, rep *analytics.Report) string {
	return path.Join(
		prefix,
		fmt.Sprintf("user-%d", rep.UserID),
		rep.GeneratedAt.UTC().Format("2006-01-02"),
		rep.ReportID+".json",
	)
}
