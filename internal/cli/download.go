package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/downloader"
	"github.com/spf13/cobra"
)

func (c *cli) downloadCommand() *cobra.Command {
	var (
		file    string
		quality string
	)

	cmd := &cobra.Command{
		Use:   "download [URL...]",
		Short: "Download single videos without monitoring their accounts",
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			urls := args
			if file != "" {
				fromFile, err := readURLs(file)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return errors.New("no URL given, pass URLs as arguments or with --file")
			}

			if quality != "" {
				a.cfg.Download.Quality = quality
			}
			_, fetcher := c.downloaders(a.cfg, a.logger)

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			failed := 0
			for i, url := range urls {
				fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(urls), url)

				res, err := fetcher.Download(cmd.Context(), downloader.Video{URL: url})
				if err != nil {
					if cmd.Context().Err() != nil {
						return cmd.Context().Err()
					}
					a.log.Errorf("failed to download %s: %v", url, err)
					printFailure(errOut, err)
					failed++
					continue
				}
				color.New(color.FgHiGreen).Fprintf(out, "✅ %s\n", res.Video.Title)
				fmt.Fprintf(out, "   %s\n", res.FilePath)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d downloads failed", failed, len(urls))
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one URL per line")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "format or quality label (overrides download.quality)")
	return cmd
}

// readURLs reads one URL per line, skipping blank lines and # comments
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open url list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}
	return urls, nil
}

func printFailure(w io.Writer, err error) {
	classified := downloader.Classify(err)

	color.New(color.FgHiRed, color.Bold).Fprintf(w, "❌ %s\n", classified.Message)
	solutions := classified.Solutions()
	if len(solutions) == 0 {
		return
	}
	fmt.Fprintln(w, "💡 Possible solutions:")
	for i, s := range solutions {
		fmt.Fprintf(w, "   %d. %s\n", i+1, s)
	}
}
