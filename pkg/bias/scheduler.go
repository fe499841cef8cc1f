package bias

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a full bias analysis on a cron schedule (e.g., nightly
// at 4 AM).
type Scheduler struct {
	monitor  *Monitor
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates an analysis scheduler for the given monitor.
func NewScheduler(monitor *Monitor, schedule string) *Scheduler {
	return &Scheduler{
		monitor:  monitor,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "bias.scheduler"),
	}
}

// Start begins scheduled analysis using the configured cron expression.
// An empty schedule disables the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("analysis schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runAnalysis(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule bias analysis: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("bias analysis scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runAnalysis executes one full analysis cycle across all agents.
func (s *Scheduler) runAnalysis(ctx context.Context) {
	s.logger.Info("starting scheduled bias analysis")

	result := s.monitor.RunFullAnalysis(ctx, "")
	if result.TotalViolations > 0 {
		s.logger.Warn("scheduled bias analysis found violations",
			"analyses", result.TotalAnalyses,
			"violations", result.TotalViolations,
		)
	} else {
		s.logger.Info("scheduled bias analysis completed",
			"analyses", result.TotalAnalyses,
		)
	}
}

// Stop stops the scheduler and waits for any running analysis to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("bias analysis scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled analysis time, if any.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
