package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
)

// DefaultPath is the config file looked up when none is given
const DefaultPath = "config.yaml"

// Config is the user configuration supplied by YAML file and environment
type Config struct {
	Monitor       Monitor       `yaml:"monitor"`
	Download      Download      `yaml:"download"`
	Notifications Notifications `yaml:"notifications"`
	Database      Database      `yaml:"database"`
	Logging       Logging       `yaml:"logging"`
	Server        Server        `yaml:"server"`
}

type Monitor struct {
	IntervalMinutes   int     `yaml:"interval_minutes" env:"MONITOR_INTERVAL_MINUTES" env-default:"30" validate:"gt=0"`
	IntervalJitter    float64 `yaml:"interval_jitter" env:"MONITOR_INTERVAL_JITTER" env-default:"0.1" validate:"gte=0,lt=1"`
	OutputDir         string  `yaml:"output_dir" env:"MONITOR_OUTPUT_DIR" env-default:"./tiktok_downloads" validate:"required"`
	MaxVideosPerCheck int     `yaml:"max_videos_per_check" env:"MONITOR_MAX_VIDEOS_PER_CHECK" env-default:"5" validate:"gt=0"`
	Delays            Delays  `yaml:"anti_bot_delays"`
}

// Delays are [min, max] second ranges used to pace requests
type Delays struct {
	BetweenDownloads []int `yaml:"between_downloads" env:"MONITOR_DELAY_BETWEEN_DOWNLOADS" env-default:"5,15" validate:"len=2,dive,gte=0"`
	BetweenUsers     []int `yaml:"between_users" env:"MONITOR_DELAY_BETWEEN_USERS" env-default:"10,30" validate:"len=2,dive,gte=0"`
}

type Download struct {
	Quality          string   `yaml:"quality" env:"DOWNLOAD_QUALITY" env-default:"best" validate:"required"`
	YTDLPPath        string   `yaml:"ytdlp_path" env:"YTDLP_PATH" env-default:"yt-dlp" validate:"required"`
	CookiesFile      string   `yaml:"cookies_file" env:"DOWNLOAD_COOKIES_FILE"`
	GeoBypass        bool     `yaml:"geo_bypass" env:"DOWNLOAD_GEO_BYPASS" env-default:"true"`
	GeoBypassCountry string   `yaml:"geo_bypass_country" env:"DOWNLOAD_GEO_BYPASS_COUNTRY" env-default:"US" validate:"omitempty,len=2,alpha"`
	ExtraArgs        []string `yaml:"extra_args" env:"DOWNLOAD_EXTRA_ARGS" env-separator:" "`
	YouTubeNative    bool     `yaml:"youtube_native" env:"DOWNLOAD_YOUTUBE_NATIVE"`
	Retries          int      `yaml:"retries" env:"DOWNLOAD_RETRIES" env-default:"3" validate:"gte=1,lte=10"`
	RetryDelay       []int    `yaml:"retry_delay" env:"DOWNLOAD_RETRY_DELAY" env-default:"15,45" validate:"len=2,dive,gte=0"`
	RateLimitWait    int      `yaml:"rate_limit_wait" env:"DOWNLOAD_RATE_LIMIT_WAIT" env-default:"300" validate:"gte=0"`
}

type Notifications struct {
	Enabled        bool   `yaml:"enabled" env:"NOTIFICATIONS_ENABLED"`
	Control        bool   `yaml:"control" env:"NOTIFICATIONS_CONTROL"`
	Timeout        int    `yaml:"timeout" env:"NOTIFICATIONS_TIMEOUT" env-default:"5" validate:"gt=0"`
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
}

type Database struct {
	File       string `yaml:"db_file" env:"DB_PATH" env-default:"tiktok_monitor.db" validate:"required"`
	LogQueries bool   `yaml:"log_queries" env:"DB_LOG_QUERIES"`
}

type Logging struct {
	Dir        string `yaml:"log_dir" env:"LOG_DIR" env-default:"logs"`
	Level      string `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO" validate:"oneof=DEBUG INFO WARN WARNING ERROR debug info warn warning error"`
	RetainDays int    `yaml:"retain_days" env:"LOG_RETAIN_DAYS" env-default:"7" validate:"gte=0"`
}

type Server struct {
	Addr string `yaml:"addr" env:"SERVER_ADDR" validate:"omitempty,hostname_port"`
}

// Load reads .env, then the YAML file at path. A missing file is not an
// error: defaults and environment variables are used instead.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	var err error
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.Monitor.OutputDir,
		&c.Download.YTDLPPath,
		&c.Download.CookiesFile,
		&c.Database.File,
		&c.Logging.Dir,
	} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for name, r := range map[string][]int{
		"monitor.anti_bot_delays.between_downloads": c.Monitor.Delays.BetweenDownloads,
		"monitor.anti_bot_delays.between_users":     c.Monitor.Delays.BetweenUsers,
		"download.retry_delay":                      c.Download.RetryDelay,
	} {
		if r[0] > r[1] {
			return fmt.Errorf("invalid configuration: %s min %d is greater than max %d", name, r[0], r[1])
		}
	}

	if c.Notifications.Enabled || c.Notifications.Control {
		if c.Notifications.TelegramToken == "" || c.Notifications.TelegramChatID == 0 {
			return fmt.Errorf("invalid configuration: telegram notifications need TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
		}
	}
	return nil
}

// Interval is the pause between monitoring passes
func (m Monitor) Interval() time.Duration {
	return time.Duration(m.IntervalMinutes) * time.Minute
}

// Span converts a validated [min, max] seconds range to durations
func Span(r []int) (time.Duration, time.Duration) {
	if len(r) < 2 {
		return 0, 0
	}
	return time.Duration(r[0]) * time.Second, time.Duration(r[1]) * time.Second
}

// Args returns the extra yt-dlp arguments including geo bypass
func (d Download) Args() []string {
	var args []string
	if d.GeoBypass && d.GeoBypassCountry != "" {
		args = append(args, "--xff", strings.ToUpper(d.GeoBypassCountry))
	}
	return append(args, d.ExtraArgs...)
}
