package cli

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	logger := SetupLogger("scheduler")

	if logger.Component() != "scheduler" {
		t.Errorf("Component() = %q, want scheduler", logger.Component())
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("default logger should have debug enabled")
	}
}

func TestSetupLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("LOG_FORMAT", "")

	SetupLogger("app")

	ctx := context.Background()
	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		t.Error("debug should be disabled after fallback")
	}
	if !slog.Default().Enabled(ctx, slog.LevelInfo) {
		t.Error("info should be enabled after fallback")
	}
}
