package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/bot"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/downloader"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/handler"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/monitor"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/notify"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/report"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/server"
	"github.com/spf13/cobra"
)

func (c *cli) checkCommand() *cobra.Command {
	var (
		users  []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check all enabled accounts once",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			lock, err := monitor.AcquireLock(a.cfg.Database.File)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			if err := a.addAccounts(ctx, out, users, models.PlatformTikTok); err != nil {
				return err
			}

			notifier, err := a.notifier(nil)
			if err != nil {
				return err
			}
			m, _ := c.newMonitor(a, notifier)

			run, err := m.CheckAll(ctx, monitor.Options{
				DryRun:    dryRun,
				OnChecked: func(o monitor.Outcome) { report.Outcome(out, o, dryRun) },
			})
			if errors.Is(err, monitor.ErrNoAccounts) {
				return fmt.Errorf("%w, add one with: tiktok-monitor add <username>", err)
			}
			if run != nil {
				fmt.Fprintln(out)
				report.Run(out, run)
			}
			return err
		}),
	}
	cmd.Flags().StringSliceVarP(&users, "users", "u", nil, "accounts to add before checking")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list new videos without downloading them")
	return cmd
}

func (c *cli) watchCommand() *cobra.Command {
	var (
		users      []string
		interval   int
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check all enabled accounts periodically",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, a *app, _ []string) error {
			out := cmd.OutOrStdout()

			if cmd.Flags().Changed("interval") {
				if interval <= 0 {
					return fmt.Errorf("interval must be positive, got %d", interval)
				}
				a.cfg.Monitor.IntervalMinutes = interval
			}

			lock, err := monitor.AcquireLock(a.cfg.Database.File)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			if err := a.addAccounts(cmd.Context(), out, users, models.PlatformTikTok); err != nil {
				return err
			}

			var (
				control *bot.Bot
				shared  notify.Sender
			)
			if n := a.cfg.Notifications; n.Control {
				control, err = bot.New(n.TelegramToken, n.TelegramChatID, a.logger)
				if err != nil {
					return fmt.Errorf("failed to start control bot: %w", err)
				}
				shared = control.Sender()
			}

			notifier, err := a.notifier(shared)
			if err != nil {
				return err
			}
			m, fetcher := c.newMonitor(a, notifier)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var wg sync.WaitGroup
			a.startBackground(ctx, &wg, control, m, fetcher)

			fmt.Fprintf(out, "👀 Watching accounts every %d minutes, press Ctrl+C to stop\n", a.cfg.Monitor.IntervalMinutes)
			err = m.Watch(ctx, monitor.WatchOptions{
				Options: monitor.Options{
					OnChecked: func(o monitor.Outcome) { report.Outcome(out, o, false) },
				},
				Interval:      a.cfg.Monitor.Interval(),
				Jitter:        a.cfg.Monitor.IntervalJitter,
				MaxIterations: iterations,
			})

			cancel()
			wg.Wait()

			if errors.Is(err, monitor.ErrNoAccounts) {
				return fmt.Errorf("%w, add one with: tiktok-monitor add <username>", err)
			}
			return err
		}),
	}
	cmd.Flags().StringSliceVarP(&users, "users", "u", nil, "accounts to add before watching")
	cmd.Flags().IntVarP(&interval, "interval", "i", 0, "minutes between checks (overrides monitor.interval_minutes)")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "stop after this many checks (0 runs until interrupted)")
	return cmd
}

// startBackground runs the control bot and the status server next to the
// watcher when they are configured
func (a *app) startBackground(ctx context.Context, wg *sync.WaitGroup, control *bot.Bot, m *monitor.Monitor, fetcher downloader.Fetcher) {
	if control != nil {
		control.RegisterHandler(handler.NewStartHandler(a.logger))
		control.RegisterHandler(handler.NewAccountsHandler(a.accounts, a.logger))
		control.RegisterHandler(handler.NewStatsHandler(a.stats, a.logger))
		control.RegisterHandler(handler.NewCheckHandler(m, a.logger))
		control.RegisterHandler(handler.NewLinkHandler(fetcher, a.logger))

		wg.Add(1)
		go func() {
			defer wg.Done()
			control.Run(ctx)
		}()
	}

	if addr := a.cfg.Server.Addr; addr != "" {
		srv := server.New(addr, a.accounts, a.stats, a.logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				a.log.Error(err)
			}
		}()
	}
}
