package cli

import (
	"errors"
	"io"
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/config"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/repository"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/downloader"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/logger"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/monitor"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/notify"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"
)

type downloadersFunc func(cfg *config.Config, logger log.Logger) (downloader.Lister, downloader.Fetcher)

type cli struct {
	configPath string
	outputDir  string
	dbPath     string

	downloaders downloadersFunc
	terminate   func(pid int) error
}

// NewRootCommand builds the tiktok-monitor command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&cli{downloaders: newDownloaders, terminate: terminate})
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "tiktok-monitor",
		Short:        "Watch TikTok and YouTube accounts and download new videos",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", config.DefaultPath, "configuration file")
	flags.StringVarP(&c.outputDir, "output", "o", "", "download directory (overrides monitor.output_dir)")
	flags.StringVar(&c.dbPath, "db", "", "database file (overrides database.db_file)")

	root.AddCommand(
		c.addCommand(),
		c.removeCommand(),
		c.enableCommand(),
		c.deleteCommand(),
		c.listCommand(),
		c.checkCommand(),
		c.watchCommand(),
		c.statsCommand(),
		c.reportCommand(),
		c.downloadCommand(),
		c.statusCommand(),
		c.stopCommand(),
	)
	return root
}

// app holds what a command needs once configuration is loaded
type app struct {
	cfg      *config.Config
	logger   log.Logger
	log      *log.Helper
	db       *database.DB
	accounts *repository.AccountRepository
	videos   *repository.VideoRepository
	stats    *repository.StatsRepository
	logFile  io.Closer
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	if c.outputDir != "" {
		cfg.Monitor.OutputDir = c.outputDir
	}
	if c.dbPath != "" {
		cfg.Database.File = c.dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) open(cmd *cobra.Command) (*app, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	l, logFile, err := logger.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	helper := log.NewHelper(log.With(l, "module", "cli"))

	if removed, err := logger.Prune(cfg.Logging.Dir, cfg.Logging.RetainDays, time.Now()); err != nil {
		helper.Warnf("failed to prune old logs: %v", err)
	} else if removed > 0 {
		helper.Debugf("removed %d old log files", removed)
	}

	db, err := database.Open(database.Config{Path: cfg.Database.File, LogQueries: cfg.Database.LogQueries}, l)
	if err != nil {
		logFile.Close()
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		logFile.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   l,
		log:      helper,
		db:       db,
		accounts: repository.NewAccountRepository(db.DB),
		videos:   repository.NewVideoRepository(db.DB),
		stats:    repository.NewStatsRepository(db.DB),
		logFile:  logFile,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.db.Close(), a.logFile.Close())
}

// run opens the app for the duration of f
func (c *cli) run(f func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := c.open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return f(cmd, a, args)
	}
}

func newDownloaders(cfg *config.Config, logger log.Logger) (downloader.Lister, downloader.Fetcher) {
	minDelay, maxDelay := config.Span(cfg.Download.RetryDelay)

	ytdlp := downloader.NewYTDLP(downloader.YTDLPConfig{
		Executable:  cfg.Download.YTDLPPath,
		OutputDir:   cfg.Monitor.OutputDir,
		Format:      cfg.Download.Quality,
		CookiesFile: cfg.Download.CookiesFile,
		ExtraArgs:   cfg.Download.Args(),
		Retry: downloader.RetryPolicy{
			Attempts:      cfg.Download.Retries,
			MinDelay:      minDelay,
			MaxDelay:      maxDelay,
			RateLimitWait: time.Duration(cfg.Download.RateLimitWait) * time.Second,
		},
	}, logger)

	router := &downloader.Router{Default: ytdlp}
	if cfg.Download.YouTubeNative {
		router.YouTube = downloader.NewYouTube(cfg.Monitor.OutputDir, cfg.Download.Quality, logger)
	}
	return ytdlp, router
}

func (c *cli) newMonitor(a *app, notifier notify.Notifier) (*monitor.Monitor, downloader.Fetcher) {
	lister, fetcher := c.downloaders(a.cfg, a.logger)

	betweenDownloadsMin, betweenDownloadsMax := config.Span(a.cfg.Monitor.Delays.BetweenDownloads)
	betweenUsersMin, betweenUsersMax := config.Span(a.cfg.Monitor.Delays.BetweenUsers)

	m := monitor.New(monitor.Config{
		MaxVideos:        a.cfg.Monitor.MaxVideosPerCheck,
		BetweenDownloads: monitor.Delay{Min: betweenDownloadsMin, Max: betweenDownloadsMax},
		BetweenAccounts:  monitor.Delay{Min: betweenUsersMin, Max: betweenUsersMax},
	}, a.accounts, a.videos, a.stats, lister, fetcher, notifier, a.logger)
	return m, fetcher
}

// notifier connects to Telegram when notifications are enabled. shared is
// the control bot client, reused when the bot runs in the same process.
func (a *app) notifier(shared notify.Sender) (notify.Notifier, error) {
	n := a.cfg.Notifications
	if !n.Enabled {
		return notify.Nop{}, nil
	}
	if shared != nil {
		return notify.NewTelegram(shared, n.TelegramChatID), nil
	}

	api, err := notify.Dial(n.TelegramToken, time.Duration(n.Timeout)*time.Second)
	if err != nil {
		return nil, err
	}
	return notify.NewTelegram(api, n.TelegramChatID), nil
}
