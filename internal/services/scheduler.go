package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SchedulerConfig holds configuration for the report scheduler
type SchedulerConfig struct {
	// Interval between batch runs (default: 24h)
	Interval time.Duration

	// RunOnStart triggers a batch immediately instead of waiting one interval
	RunOnStart bool
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:   24 * time.Hour,
		RunOnStart: true,
	}
}

// BatchRunner is implemented by BatchReporter.
type BatchRunner interface {
	Run(ctx context.Context) (*BatchResult, error)
}

// Scheduler runs a batch report generation on a fixed interval
type Scheduler struct {
	batch  BatchRunner
	config SchedulerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	runs    int
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(batch BatchRunner, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	return &Scheduler{
		batch:  batch,
		config: config,
	}
}

// Start begins the scheduling loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("report scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Report scheduler started",
		"interval", s.config.Interval,
		"run_on_start", s.config.RunOnStart)

	return nil
}

// Stop gracefully stops the scheduler and waits for an in-flight batch.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Report scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Report scheduler stop timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Runs returns how many batches have completed.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Scheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.runOnce(ctx)
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.batch.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Batch report run failed", "error", err)
	} else if len(result.Failed) > 0 {
		slog.WarnContext(ctx, "Some reports could not be generated",
			"failed", len(result.Failed),
			"error", result.Err())
	}

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
}
