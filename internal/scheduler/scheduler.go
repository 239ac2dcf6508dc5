// Package scheduler runs the upload retention sweep on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Defaults for the retention sweep.
const (
	DefaultSchedule  = "@every 1h"
	DefaultRetention = 24 * time.Hour
)

// Sweeper deletes session data older than maxAge.
type Sweeper interface {
	Sweep(maxAge time.Duration, now time.Time) ([]string, error)
}

// SessionForgetter drops bookkeeping for a deleted session.
type SessionForgetter interface {
	DeleteSession(ctx context.Context, id string) error
}

// Config configures a Scheduler.
type Config struct {
	Schedule  string
	Retention time.Duration
	Logger    *slog.Logger
}

// Scheduler periodically sweeps expired sessions.
type Scheduler struct {
	schedule  cron.Schedule
	retention time.Duration
	sweeper   Sweeper
	forgetter SessionForgetter
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a five-field cron expression or a descriptor such
// as "@hourly" or "@every 30m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	return parser.Parse(spec)
}

// New parses the schedule and builds a Scheduler. forgetter may be nil.
func New(cfg Config, sweeper Sweeper, forgetter SessionForgetter) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("scheduler requires a sweeper")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	sched, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", cfg.Schedule, err)
	}
	return &Scheduler{
		schedule:  sched,
		retention: cfg.Retention,
		sweeper:   sweeper,
		forgetter: forgetter,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

// Next returns the first sweep time after from.
func (s *Scheduler) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}

// Start launches the background loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(loopCtx)
	s.logger.Info("sweep scheduler started", slog.Duration("retention", s.retention))
	return nil
}

// Run blocks until ctx is done, sweeping on schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce performs a single sweep and returns the deleted session ids.
func (s *Scheduler) RunOnce(ctx context.Context) ([]string, error) {
	deleted, err := s.sweeper.Sweep(s.retention, s.now())
	if err != nil {
		return nil, err
	}
	if s.forgetter != nil {
		for _, id := range deleted {
			if err := s.forgetter.DeleteSession(ctx, id); err != nil {
				s.logger.Warn("failed to forget session", slog.String("session", id), slog.String("error", err.Error()))
			}
		}
	}
	if len(deleted) > 0 {
		s.logger.Info("swept expired sessions", slog.Int("count", len(deleted)))
	}
	return deleted, nil
}

// Stop shuts down the loop and waits for it to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("sweep scheduler stopped")
	return nil
}
