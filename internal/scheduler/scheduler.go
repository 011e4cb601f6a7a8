// Package scheduler triggers pipeline runs on a cron schedule and keeps runs
// of the same pipeline from overlapping.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/churn-etl/internal/model"
)

const (
	// ScheduleOnce runs the pipeline a single time when the scheduler starts.
	ScheduleOnce = "@once"
	// ScheduleManual never runs on its own; runs come from Trigger only.
	ScheduleManual = "@manual"
)

// ErrRunInProgress is returned by Trigger while another run is active.
var ErrRunInProgress = errors.New("pipeline run already in progress")

type Runner interface {
	Run(ctx context.Context) (*model.RunOutcome, error)
}

type Scheduler struct {
	runner   Runner
	schedule string
	cron     *cron.Cron
	running  atomic.Bool
	// once tracks the goroutine started for ScheduleOnce.
	once sync.WaitGroup
}

func New(schedule string, runner Runner) *Scheduler {
	if schedule == "" {
		schedule = ScheduleManual
	}
	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		cron:     cron.New(),
	}
}

func (s *Scheduler) Schedule() string { return s.schedule }

// Validate reports whether the schedule expression can be parsed.
func Validate(schedule string) error {
	switch schedule {
	case "", ScheduleOnce, ScheduleManual:
		return nil
	}
	_, err := cron.ParseStandard(schedule)
	return err
}

// Start registers the schedule. Scheduled runs use ctx and are skipped while
// a previous run is still going.
func (s *Scheduler) Start(ctx context.Context) error {
	switch s.schedule {
	case ScheduleManual:
		log.Info().Msg("pipeline schedule is manual, waiting for triggers")
		return nil
	case ScheduleOnce:
		s.once.Add(1)
		go func() {
			defer s.once.Done()
			s.scheduled(ctx)
		}()
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.scheduled(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("pipeline scheduler started")
	return nil
}

func (s *Scheduler) scheduled(ctx context.Context) {
	if _, err := s.Trigger(ctx); errors.Is(err, ErrRunInProgress) {
		log.Warn().Msg("pipeline is still running, skipping scheduled trigger")
	}
}

// Trigger runs the pipeline now unless a run is already active.
func (s *Scheduler) Trigger(ctx context.Context) (*model.RunOutcome, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	return s.runner.Run(ctx)
}

func (s *Scheduler) Running() bool { return s.running.Load() }

// Stop halts the cron loop and returns a context that is done once running
// cron jobs and the @once run have returned.
func (s *Scheduler) Stop() context.Context {
	cronDone := s.cron.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.once.Wait()
		cancel()
	}()
	return ctx
}
