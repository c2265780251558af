/*
Package jobs runs the batch side of the forecaster: the daily low-balance
alert and the weekly digest.

PURPOSE:
  For every profile, gather its accounts and items, build a forecast and
  send mail when warranted. Profiles are processed by a bounded worker
  pool; one profile failing never aborts the batch.

ALERTS:
  - horizon is AlertHorizonDays (default 7)
  - sent only if the forecast has low-balance days
  - at most one per profile per local day (Store.MarkAlertSent)

DIGEST:
  - horizon is the profile's tier maximum, never less than 7 days
  - sent to every digest-enabled profile

SEE ALSO:
  - scheduler.go: cron wiring
  - notify/compose.go: message bodies
*/
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omarqouqas/cashflowforecaster/config"
	"github.com/omarqouqas/cashflowforecaster/forecast"
	"github.com/omarqouqas/cashflowforecaster/notify"
)

// AlertKindLowBalance is the alert_log kind for low-balance alerts.
const AlertKindLowBalance = "low_balance"

// Summary counts what a run did. Processed is every profile looked at;
// each of those ends up in exactly one of Sent, Skipped or Failed.
type Summary struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d processed, %d sent, %d skipped, %d failed", s.Processed, s.Sent, s.Skipped, s.Failed)
}

// Runner executes the batch jobs.
type Runner struct {
	Store            forecast.Store
	Sender           notify.Sender
	Tiers            config.Tiers
	Concurrency      int
	AlertHorizonDays int
	Logger           *logrus.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewRunner builds a Runner from the jobs and tier configuration.
func NewRunner(cfg *config.Config, store forecast.Store, sender notify.Sender, logger *logrus.Logger) *Runner {
	return &Runner{
		Store:            store,
		Sender:           sender,
		Tiers:            cfg.Forecast.Tiers,
		Concurrency:      cfg.Jobs.Concurrency,
		AlertHorizonDays: cfg.Jobs.AlertHorizonDays,
		Logger:           logger,
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
)

// RunAlerts sends low-balance alerts. The error is non-nil only when the
// profile list itself can't be loaded.
func (r *Runner) RunAlerts(ctx context.Context) (Summary, error) {
	horizon := r.AlertHorizonDays
	if horizon <= 0 {
		horizon = 7
	}
	return r.run(ctx, "alerts", func(ctx context.Context, p forecast.Profile, now time.Time) (outcome, error) {
		if !p.AlertsEnabled {
			return outcomeSkipped, nil
		}
		g, err := r.gather(ctx, p, horizon, now)
		if err != nil {
			return outcomeSkipped, err
		}
		result := forecast.BuildForecast(g.Input)

		msg, ok := notify.ComposeLowBalanceAlert(g.Profile, result)
		if !ok {
			return outcomeSkipped, nil
		}
		today := forecast.Today(now, g.Input.Location)
		first, err := r.Store.MarkAlertSent(ctx, p.ID, AlertKindLowBalance, today)
		if err != nil {
			return outcomeSkipped, fmt.Errorf("recording alert: %w", err)
		}
		if !first {
			return outcomeSkipped, nil
		}
		if err := r.Sender.Send(ctx, msg); err != nil {
			return outcomeSkipped, err
		}
		return outcomeSent, nil
	})
}

// RunDigest sends the weekly digest.
func (r *Runner) RunDigest(ctx context.Context) (Summary, error) {
	return r.run(ctx, "digest", func(ctx context.Context, p forecast.Profile, now time.Time) (outcome, error) {
		if !p.DigestEnabled {
			return outcomeSkipped, nil
		}
		horizon := r.Tiers.HorizonFor(p.Tier, 0)
		if horizon < notify.DigestDays {
			horizon = notify.DigestDays
		}
		g, err := r.gather(ctx, p, horizon, now)
		if err != nil {
			return outcomeSkipped, err
		}
		result := forecast.BuildForecast(g.Input)
		if err := r.Sender.Send(ctx, notify.ComposeDigest(g.Profile, result)); err != nil {
			return outcomeSkipped, err
		}
		return outcomeSent, nil
	})
}

func (r *Runner) gather(ctx context.Context, p forecast.Profile, horizon int, now time.Time) (*forecast.Gathered, error) {
	g, err := forecast.Gather(ctx, r.Store, p.ID, horizon, now)
	if err != nil {
		return nil, err
	}
	if g.TZError != nil {
		r.Logger.WithField("profile", p.ID).Warnf("Using UTC: %v", g.TZError)
	}
	return g, nil
}

type profileFunc func(ctx context.Context, p forecast.Profile, now time.Time) (outcome, error)

// run fans fn out over all profiles with at most Concurrency in flight.
func (r *Runner) run(ctx context.Context, job string, fn profileFunc) (Summary, error) {
	log := r.Logger.WithField("job", job)
	start := time.Now()

	profiles, err := r.Store.ListProfiles(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing profiles: %w", err)
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	workers := r.Concurrency
	if workers <= 0 {
		workers = 5
	}

	var (
		summary Summary
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, workers)
	)
	for _, p := range profiles {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(p forecast.Profile) {
			defer func() {
				<-sem
				wg.Done()
			}()

			res, err := fn(ctx, p, now)

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			switch {
			case err != nil:
				summary.Failed++
				log.WithField("profile", p.ID).Errorf("Failed: %v", err)
			case res == outcomeSent:
				summary.Sent++
			default:
				summary.Skipped++
			}
		}(p)
	}
	wg.Wait()

	log.WithField("took", time.Since(start).String()).Infof("Completed: %s", summary)
	return summary, ctx.Err()
}
