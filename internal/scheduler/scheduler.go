// Package scheduler triggers the weekly batch on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/orbitplan/internal/orchestrator"
)

// Runner executes one weekly batch.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) (orchestrator.Summary, error)
}

// Options configures a Scheduler.
type Options struct {
	Spec     string // standard 5-field cron expression
	Timezone string
	Request  orchestrator.Request
	Timeout  time.Duration // per run; 0 means none
	Log      logrus.FieldLogger
}

// Scheduler runs the configured request on every cron tick. A tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	entry   cron.EntryID
	runner  Runner
	req     orchestrator.Request
	timeout time.Duration
	log     logrus.FieldLogger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New validates the schedule and registers the job.
func New(runner Runner, opts Options) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("batch runner is required")
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	cl := cronLogger{log: log}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    c,
		runner:  runner,
		req:     opts.Request,
		timeout: opts.Timeout,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	id, err := c.AddFunc(opts.Spec, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("add cron: %w", err)
	}
	s.entry = id
	return s, nil
}

// Start begins cron execution.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels a running batch and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// Next returns the next activation time, or zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// NextAfter returns the first activation strictly after t.
func (s *Scheduler) NextAfter(t time.Time) time.Time {
	return s.cron.Entry(s.entry).Schedule.Next(t)
}

func (s *Scheduler) tick() {
	if _, err := s.Trigger(s.ctx); err != nil {
		s.log.WithError(err).Error("scheduled batch failed")
	}
}

// Trigger runs the configured request once.
func (s *Scheduler) Trigger(ctx context.Context) (orchestrator.Summary, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.log.Info("scheduled batch starting")
	sum, err := s.runner.Run(ctx, s.req)
	if err != nil {
		return sum, err
	}
	s.log.WithFields(logrus.Fields{
		"run_id":     sum.RunID,
		"week_start": sum.WeekStart,
		"saved":      sum.Counts.Saved,
		"failed":     sum.Counts.Failed,
	}).Info("scheduled batch finished")
	return sum, nil
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
