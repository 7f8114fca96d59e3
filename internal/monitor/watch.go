package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/downloader"
	"github.com/google/uuid"
)

// WatchOptions control the continuous monitoring loop
type WatchOptions struct {
	Options
	Interval time.Duration
	// Jitter spreads each interval by up to ±Jitter of its length
	Jitter float64
	// MaxIterations stops the loop after that many passes, 0 runs forever
	MaxIterations int
}

// CheckAll checks every enabled account in turn. A failing account is logged
// and counted, the pass carries on with the next one.
func (m *Monitor) CheckAll(ctx context.Context, opts Options) (*models.CheckRun, error) {
	accounts, err := m.accounts.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	run := &models.CheckRun{
		ID:        uuid.NewString(),
		StartedAt: m.now(),
	}
	if !opts.DryRun {
		if err := m.runs.StartRun(ctx, run); err != nil {
			return nil, err
		}
	}

	m.log.Infof("checking %d accounts", len(accounts))

	for i, account := range accounts {
		if i > 0 {
			if err := m.pause(ctx, m.cfg.BetweenAccounts); err != nil {
				break
			}
		}

		out, err := m.CheckAccount(ctx, account, opts)
		run.AccountsChecked++
		run.VideosFound += len(out.New)
		run.VideosDownloaded += out.Downloaded
		run.Failures += out.Failed
		if opts.OnChecked != nil {
			opts.OnChecked(out)
		}

		if err != nil {
			if ctx.Err() != nil {
				break
			}
			run.Failures++
			m.log.Errorf("check of @%s failed: %v", account.Username, err)
			if nerr := m.notifier.Error(ctx, "@"+account.Username+": "+downloader.Classify(err).Message); nerr != nil {
				m.log.Warnf("failed to send error notification: %v", nerr)
			}
		}
	}

	run.FinishedAt = m.now()
	if !opts.DryRun {
		if err := m.runs.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			return run, err
		}
	}

	m.log.Infow("msg", "pass finished", "accounts", run.AccountsChecked, "new", run.VideosFound,
		"downloaded", run.VideosDownloaded, "failures", run.Failures,
		"took", run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String())
	return run, ctx.Err()
}

// Watch runs CheckAll until ctx is done or MaxIterations passes completed,
// waiting Interval between passes. Trigger cuts a wait short.
// ErrNoAccounts is only returned when the first pass finds no account; later
// the watcher idles until accounts are enabled again.
func (m *Monitor) Watch(ctx context.Context, opts WatchOptions) error {
	for iteration := 1; ; iteration++ {
		_, err := m.CheckAll(ctx, opts.Options)
		switch {
		case errors.Is(err, ErrNoAccounts) && iteration == 1:
			return err
		case errors.Is(err, ErrNoAccounts):
			m.log.Warn("no enabled accounts, waiting for the next check")
		case ctx.Err() != nil:
			m.log.Info("monitoring stopped")
			return nil
		case err != nil:
			m.log.Errorf("pass %d failed: %v", iteration, err)
		}

		if opts.MaxIterations > 0 && iteration >= opts.MaxIterations {
			m.log.Infof("completed %d passes", iteration)
			return nil
		}

		next := m.jittered(opts.Interval, opts.Jitter)
		m.log.Infof("next check in %s", next.Round(time.Second))
		if err := m.wait(ctx, next, m.trigger); err != nil {
			m.log.Info("monitoring stopped")
			return nil
		}
	}
}

// Trigger asks a waiting Watch for an immediate pass. It reports false when
// a pass is already requested.
func (m *Monitor) Trigger() bool {
	select {
	case m.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (m *Monitor) jittered(interval time.Duration, jitter float64) time.Duration {
	spread := int64(float64(interval) * jitter)
	if spread <= 0 {
		return interval
	}
	return interval + time.Duration(m.randN(2*spread+1)-spread)
}
