package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"spendlens/internal/analytics"
	"spendlens/internal/log"
)

// FileSink writes each report as a JSON file below a directory.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Write(ctx context.Context, rep *analytics.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := Encode(rep)
	if err != nil {
		return "", err
	}

	name := filepath.Join(s.dir, filepath.FromSlash(ObjectName("", rep)))
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	// Write next to the target and rename so readers never see a partial file
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	if err := os.Rename(tmp, name); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize report file: %w", err)
	}
	log.FromContext(ctx).DebugContext(ctx, "Report file written",
		log.FieldSink, s.Name(),
		log.FieldSinkRef, name)
	return name, nil
}

// WriteFile writes a single report to an explicit path, creating parent directories.
func WriteFile(rep *analytics.Report, name string) error {
	body, err := Encode(rep)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(name, body, 0644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}
