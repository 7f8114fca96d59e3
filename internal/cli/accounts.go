package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/repository"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/report"
	"github.com/spf13/cobra"
)

func (c *cli) addCommand() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "add USER...",
		Short: "Start monitoring accounts",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			p := models.Platform(strings.ToLower(platform))
			if !models.ValidPlatform(p) {
				return fmt.Errorf("unknown platform %q, use tiktok or youtube", platform)
			}
			return a.addAccounts(cmd.Context(), cmd.OutOrStdout(), args, p)
		}),
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", string(models.PlatformTikTok), "platform of the accounts (tiktok, youtube)")
	return cmd
}

func (c *cli) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove USER",
		Short: "Stop monitoring an account, keeping its history",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			username, err := usernameArg(args[0])
			if err != nil {
				return err
			}
			if err := a.accounts.Disable(cmd.Context(), username); err != nil {
				return accountError(username, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "⏸ Disabled @%s (history kept, enable it again with: enable %s)\n", username, username)
			return nil
		}),
	}
}

func (c *cli) enableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable USER",
		Short: "Resume monitoring a disabled account",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			username, err := usernameArg(args[0])
			if err != nil {
				return err
			}
			if err := a.accounts.Enable(cmd.Context(), username); err != nil {
				return accountError(username, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "▶️ Enabled @%s\n", username)
			return nil
		}),
	}
}

func (c *cli) deleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete USER",
		Short: "Remove an account and its video records (files stay on disk)",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			username, err := usernameArg(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete @%s and all its video records?", username)) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}

			removed, err := a.accounts.Delete(cmd.Context(), username)
			if err != nil {
				return accountError(username, err)
			}
			fmt.Fprintf(out, "🗑 Deleted @%s and %d video records\n", username, removed)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (c *cli) listCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show monitored accounts",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, a *app, _ []string) error {
			accounts, err := a.accounts.List(cmd.Context(), all)
			if err != nil {
				return err
			}
			report.Accounts(cmd.OutOrStdout(), accounts)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include disabled accounts")
	return cmd
}

func (a *app) addAccounts(ctx context.Context, out io.Writer, names []string, platform models.Platform) error {
	for _, name := range names {
		username, err := usernameArg(name)
		if err != nil {
			return err
		}

		created, err := a.accounts.Add(ctx, username, platform)
		if err != nil {
			return err
		}
		if created {
			a.log.Infof("account added: %s (%s)", username, platform)
			fmt.Fprintf(out, "✅ Added @%s\n", username)
		} else {
			fmt.Fprintf(out, "ℹ️ @%s is already monitored\n", username)
		}
	}
	return nil
}

func usernameArg(raw string) (string, error) {
	if username := models.NormalizeUsername(raw); username != "" {
		return username, nil
	}
	return "", fmt.Errorf("invalid username %q", raw)
}

func accountError(username string, err error) error {
	if errors.Is(err, repository.ErrAccountNotFound) {
		return fmt.Errorf("@%s is not monitored", username)
	}
	return err
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
