package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jengzang/tableviz/internal/logger"
)

// Refresher reloads every url-backed dataset
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// RefreshScheduler reloads url-backed datasets on a cron schedule
type RefreshScheduler struct {
	refresher Refresher
	schedule  string
	timeout   time.Duration
	cron      *cron.Cron
	running   bool
	mu        sync.Mutex
	logger    zerolog.Logger
}

// NewRefreshScheduler validates schedule and returns a stopped scheduler.
// Each run is bounded by timeout.
func NewRefreshScheduler(refresher Refresher, schedule string, timeout time.Duration) (*RefreshScheduler, error) {
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return &RefreshScheduler{
		refresher: refresher,
		schedule:  schedule,
		timeout:   timeout,
		logger:    logger.Get("refresh-scheduler"),
	}, nil
}

// Start starts the scheduler
func (s *RefreshScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.cron = cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.cron.Entries()[0].Next).
		Msg("Refresh scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info().Msg("Refresh scheduler stopped")
}

// RunOnce performs one refresh cycle
func (s *RefreshScheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	n, err := s.refresher.RefreshAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int("refreshed", n).Msg("Scheduled refresh failed")
		return
	}
	s.logger.Info().
		Int("refreshed", n).
		Dur("duration", time.Since(start)).
		Msg("Scheduled refresh completed")
}
