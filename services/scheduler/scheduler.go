// Package schedulersvc runs the weekly pairing generation on a cron schedule.
package schedulersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"

	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/pairing"
)

const jobName = "weekly-pairing"

type Scheduler struct {
	scheduler gocron.Scheduler
	pairsSvc  pairing.ServiceInterface
	logger    core.Logger
	timeout   time.Duration
}

// New returns a stopped scheduler with the pairing job registered. spec is a 5 fields cron expression.
func New(spec string, pairsSvc pairing.ServiceInterface, logger core.Logger, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	opts = append([]gocron.SchedulerOption{gocron.WithLocation(time.UTC)}, opts...)
	sched, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating scheduler")
	}

	s := &Scheduler{scheduler: sched, pairsSvc: pairsSvc, logger: logger, timeout: time.Minute}
	_, err = sched.NewJob(
		gocron.CronJob(spec, false),
		gocron.NewTask(s.generate),
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, errors.Wrapf(err, "scheduling %s job %q", jobName, spec)
	}
	return s, nil
}

func (s *Scheduler) generate() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.pairsSvc.GenerateNextWeek(ctx, nil)
	switch {
	case errors.Cause(err) == pairing.ErrLockNotAcquired:
		s.logger.Warn("scheduled pairing skipped: a generation is in progress")
	case err != nil:
		s.logger.Error(fmt.Sprintf("scheduled pairing: %v", err), err)
	default:
		s.logger.Info(fmt.Sprintf("scheduled pairing: week %d generated with %d pairs", res.Week, len(res.Matches)))
	}
}

func (s *Scheduler) Start() { s.scheduler.Start() }

func (s *Scheduler) Stop() error { return s.scheduler.Shutdown() }

// RunNow triggers the pairing job outside of its schedule.
func (s *Scheduler) RunNow() error {
	for _, job := range s.scheduler.Jobs() {
		if job.Name() == jobName {
			return job.RunNow()
		}
	}
	return errors.Errorf("job %s not found", jobName)
}
