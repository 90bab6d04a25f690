package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-rates-backend/internal/ingest"
)

// ErrRunInProgress is returned by RunNow while another run holds the lock.
var ErrRunInProgress = errors.New("ingestion run already in progress")

type Runner interface {
	Run(ctx context.Context) (*ingest.Report, error)
}

type Options struct {
	Spec       string        // cron spec or descriptor, e.g. "@every 1h"
	RunOnStart bool          // run once immediately on Start
	RunTimeout time.Duration // bound on a single run
}

// RunStatus describes the most recent finished run.
type RunStatus struct {
	At     time.Time      `json:"at"`
	Report *ingest.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Scheduler invokes the pipeline on a cron schedule. Runs never overlap:
// the cron chain skips a tick while a job is active, and RunNow refuses to
// start while any run (scheduled or manual) holds the run lock.
type Scheduler struct {
	runner Runner
	opts   Options
	cron   *cron.Cron
	logger *logrus.Entry

	runMu sync.Mutex
	wg    sync.WaitGroup

	mu      sync.Mutex
	running bool
	baseCtx context.Context
	last    *RunStatus
}

func New(runner Runner, opts Options, logger *logrus.Logger) (*Scheduler, error) {
	if opts.Spec == "" {
		opts.Spec = "@every 1h"
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 90 * time.Second
	}
	if _, err := cron.ParseStandard(opts.Spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", opts.Spec, err)
	}

	entry := logger.WithField("component", "scheduler")
	cl := cronLogger{entry: entry}
	return &Scheduler{
		runner: runner,
		opts:   opts,
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		logger: entry,
	}, nil
}

// Start registers the schedule and returns immediately. Runs derive their
// context from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn("Already running")
		return nil
	}

	s.baseCtx = ctx
	if _, err := s.cron.AddFunc(s.opts.Spec, s.runScheduled); err != nil {
		return fmt.Errorf("schedule ingestion: %w", err)
	}
	s.cron.Start()
	s.running = true

	if s.opts.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runScheduled()
		}()
	}

	s.logger.WithFields(logrus.Fields{
		"schedule":     s.opts.Spec,
		"run_on_start": s.opts.RunOnStart,
		"run_timeout":  s.opts.RunTimeout,
	}).Info("Ingestion scheduler started")
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Ingestion scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns the most recent finished run, or nil if none has finished.
func (s *Scheduler) LastRun() *RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}

// RunNow runs the pipeline outside the schedule, bounded by RunTimeout.
func (s *Scheduler) RunNow(ctx context.Context) (*ingest.Report, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	report, err := s.runner.Run(ctx)

	status := &RunStatus{At: time.Now(), Report: report}
	if err != nil {
		status.Error = err.Error()
	}
	s.mu.Lock()
	s.last = status
	s.mu.Unlock()

	return report, err
}

func (s *Scheduler) runScheduled() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.RunNow(ctx); errors.Is(err, ErrRunInProgress) {
		s.logger.Warn("Previous run still active, skipping")
	}
}

// cronLogger routes cron's internal logging through logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
