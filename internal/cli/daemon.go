package cli

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/fatih/color"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/monitor"
	"github.com/spf13/cobra"
)

var errNotRunning = errors.New("no watcher is running")

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a watcher is running on the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			pid, running, err := monitor.LockOwner(cfg.Database.File)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !running {
				color.New(color.FgHiBlack).Fprintln(out, "⚪ No watcher running")
				return nil
			}
			color.New(color.FgHiGreen).Fprintf(out, "🟢 Watcher running (PID %d)\n", pid)
			return nil
		},
	}
}

func (c *cli) stopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask the running watcher to stop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			pid, running, err := monitor.LockOwner(cfg.Database.File)
			if err != nil {
				return err
			}
			if !running {
				return errNotRunning
			}

			if err := c.terminate(pid); err != nil {
				return fmt.Errorf("failed to stop PID %d: %w", pid, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🛑 Sent stop signal to PID %d\n", pid)
			return nil
		},
	}
}

func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Signal(syscall.SIGTERM)
}
