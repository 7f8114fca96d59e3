package cli

import (
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/report"
	"github.com/spf13/cobra"
)

func (c *cli) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show download statistics",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, a *app, _ []string) error {
			snapshot, err := report.Collect(cmd.Context(), a.stats, a.videos)
			if err != nil {
				return err
			}
			report.Stats(cmd.OutOrStdout(), snapshot)
			return nil
		}),
	}
}

func (c *cli) reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the detailed download report",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, a *app, _ []string) error {
			snapshot, err := report.Collect(cmd.Context(), a.stats, a.videos)
			if err != nil {
				return err
			}
			report.Full(cmd.OutOrStdout(), snapshot)
			return nil
		}),
	}
}
