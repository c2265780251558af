package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RunTimeout bounds a single scheduled run.
const RunTimeout = 30 * time.Minute

// Scheduler triggers the Runner on cron schedules.
type Scheduler struct {
	Runner         *Runner
	AlertSchedule  string
	DigestSchedule string
	Logger         *logrus.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewScheduler registers both jobs. Schedules are standard 5-field cron
// expressions evaluated in UTC; an empty schedule disables that job.
func NewScheduler(runner *Runner, alertSchedule, digestSchedule string, logger *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		Runner:         runner,
		AlertSchedule:  alertSchedule,
		DigestSchedule: digestSchedule,
		Logger:         logger,
		cron:           cron.New(cron.WithLocation(time.UTC)),
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (Summary, error)
	}{
		{"alerts", alertSchedule, runner.RunAlerts},
		{"digest", digestSchedule, runner.RunDigest},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		j := j
		if _, err := s.cron.AddFunc(j.spec, func() { s.trigger(j.name, j.run) }); err != nil {
			return nil, fmt.Errorf("%s schedule %q: %w", j.name, j.spec, err)
		}
	}
	return s, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.Logger.Infof("[Scheduler] Started (alerts %q, digest %q)", s.AlertSchedule, s.DigestSchedule)
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.Logger.Info("[Scheduler] Stopped")
}

// Entries is the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) trigger(name string, run func(context.Context) (Summary, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()

	if _, err := run(ctx); err != nil {
		s.Logger.WithField("job", name).Errorf("[Scheduler] Run failed: %v", err)
	}
}
