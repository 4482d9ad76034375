// Package scheduler triggers the refectory lifecycle jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Lifecycle is the set of scheduled operations of the refectory engine
type Lifecycle interface {
	RunDailySweep(ctx context.Context) error
	RunServiceOpening(ctx context.Context) error
	RunWeeklyPurge(ctx context.Context) error
	DispatchReport(ctx context.Context) error
}

const (
	DefaultDaily          = "0 0 * * *"
	DefaultServiceOpening = "0 12 * * *"
	DefaultWeekly         = "0 6 * * 1"
	DefaultJobTimeout     = 5 * time.Minute
)

// Config holds the cron specs, evaluated in Location
type Config struct {
	Location       *time.Location
	Daily          string
	ServiceOpening string
	Weekly         string
	JobTimeout     time.Duration
}

type Scheduler struct {
	cron      *cron.Cron
	lifecycle Lifecycle
	logger    *zap.Logger
	timeout   time.Duration

	mu   sync.Mutex
	base context.Context
}

// New registers the daily, service opening and weekly jobs. An invalid cron
// spec is reported here rather than at Start.
func New(lc Lifecycle, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}

	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		lifecycle: lc,
		logger:    logger,
		timeout:   cfg.JobTimeout,
		base:      context.Background(),
	}

	jobs := []struct {
		name string
		spec string
		fn   func(context.Context)
	}{
		{"daily", orDefault(cfg.Daily, DefaultDaily), s.daily},
		{"service opening", orDefault(cfg.ServiceOpening, DefaultServiceOpening), s.serviceOpening},
		{"weekly", orDefault(cfg.Weekly, DefaultWeekly), s.weekly},
	}
	for _, j := range jobs {
		fn := j.fn
		if _, err := s.cron.AddFunc(j.spec, func() { s.run(fn) }); err != nil {
			return nil, fmt.Errorf("schedule %s job %q: %w", j.name, j.spec, err)
		}
		logger.Info("job scheduled", zap.String("job", j.name), zap.String("spec", j.spec))
	}
	return s, nil
}

// Start runs the cron loop. Jobs derive their context from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()
	s.cron.Start()
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(fn func(context.Context)) {
	s.mu.Lock()
	base := s.base
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(base, s.timeout)
	defer cancel()
	fn(ctx)
}

func (s *Scheduler) daily(ctx context.Context) {
	s.logErr("daily sweep", s.lifecycle.RunDailySweep(ctx))
}

func (s *Scheduler) serviceOpening(ctx context.Context) {
	s.logErr("service opening", s.lifecycle.RunServiceOpening(ctx))
}

// weekly mails the reports, then purges closed forms. A failed report does not
// hold back the purge.
func (s *Scheduler) weekly(ctx context.Context) {
	s.logErr("report dispatch", s.lifecycle.DispatchReport(ctx))
	s.logErr("weekly purge", s.lifecycle.RunWeeklyPurge(ctx))
}

func (s *Scheduler) logErr(job string, err error) {
	if err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", job), zap.Error(err))
	}
}

func orDefault(spec, def string) string {
	if spec == "" {
		return def
	}
	return spec
}

// cronLogger routes cron's own messages into zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
