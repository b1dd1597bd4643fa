package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	return entry
}

func TestNew_JSONFormatCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Component: ComponentWorker, Output: &buf})

	logger.InfoContext(context.Background(), "started", FieldUserID, int64(7))

	entry := decodeLine(t, &buf)
	if entry["msg"] != "started" {
		t.Errorf("msg = %v, want started", entry["msg"])
	}
	if entry[FieldComponent] != ComponentWorker {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentWorker)
	}
	if entry[FieldUserID] != float64(7) {
		t.Errorf("user_id = %v, want 7", entry[FieldUserID])
	}
}

func TestNew_TextFormatRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: FormatText, Component: ComponentApp, Output: &buf})

	logger.InfoContext(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info line written below warn level: %s", buf.String())
	}

	logger.WarnContext(context.Background(), "shown")
	if !strings.Contains(buf.String(), "msg=shown") || !strings.Contains(buf.String(), "component=app") {
		t.Errorf("unexpected text output: %s", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: FormatJSON, Component: ComponentApp, Output: &buf})
	child := base.WithComponent(ComponentStorage)

	if child.Component() != ComponentStorage {
		t.Errorf("Component() = %q, want %q", child.Component(), ComponentStorage)
	}
	if base.Component() != ComponentApp {
		t.Errorf("base component changed to %q", base.Component())
	}

	child.ErrorContext(context.Background(), "boom")
	entry := decodeLine(t, &buf)
	if entry[FieldComponent] != ComponentStorage {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentStorage)
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := New(DefaultConfig()).With(FieldRequestID, "req-1")
	ctx := NewContext(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Errorf("FromContext() returned a different logger")
	}
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("fallback component = %q, want unknown", got.Component())
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithUser(3).
		WithReport("r-1").
		WithSink("file", "").
		WithError(nil).
		WithAnomaly("Dining", 2.5)

	if _, ok := fields[FieldError]; ok {
		t.Error("nil error should not add an error field")
	}
	if _, ok := fields[FieldSinkRef]; ok {
		t.Error("empty ref should not add a sink_ref field")
	}
	if fields[FieldCategory] != "Dining" || fields[FieldZScore] != 2.5 {
		t.Errorf("anomaly fields = %v", fields)
	}
	if got := len(fields.ToSlice()); got != 2*len(fields) {
		t.Errorf("ToSlice() length = %d, want %d", got, 2*len(fields))
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: FormatJSON, Output: &buf}))
	ctx := context.Background()

	sl.LogSinkFailure(ctx, "r-9", "gcs", errors.New("bucket missing"))
	entry := decodeLine(t, &buf)
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry[FieldSink] != "gcs" || entry[FieldErrorType] != ErrorTypeSink || entry[FieldError] != "bucket missing" {
		t.Errorf("unexpected sink failure entry: %v", entry)
	}

	buf.Reset()
	sl.LogReportGenerated(ctx, 4, "r-10", 2, 1500*time.Millisecond)
	entry = decodeLine(t, &buf)
	if entry[FieldReportID] != "r-10" || entry[FieldDuration] != float64(1500) || entry["anomalies"] != float64(2) {
		t.Errorf("unexpected report entry: %v", entry)
	}

	buf.Reset()
	sl.LogError(ctx, "read failed", errors.New("closed"), ComponentStorage, OpRead, nil)
	entry = decodeLine(t, &buf)
	if entry["level"] != "ERROR" || entry[FieldOperation] != OpRead {
		t.Errorf("unexpected error entry: %v", entry)
	}
}
