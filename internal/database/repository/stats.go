package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/jmoiron/sqlx"
)

// Summary holds library-wide totals
type Summary struct {
	Videos          int64 `db:"videos"`
	Views           int64 `db:"views"`
	Likes           int64 `db:"likes"`
	EnabledAccounts int64 `db:"enabled_accounts"`
}

// AuthorCount represents downloads grouped by video author. Videos without
// an author count for the account that produced them.
type AuthorCount struct {
	Author string `db:"author"`
	Videos int64  `db:"videos"`
	Views  int64  `db:"views"`
	Likes  int64  `db:"likes"`
}

// DayCount represents downloads on one calendar day (UTC)
type DayCount struct {
	Day    string `db:"day"`
	Videos int64  `db:"videos"`
}

// StatsRepository handles reporting queries and check run bookkeeping
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Summary returns totals over all stored videos
func (r *StatsRepository) Summary(ctx context.Context) (*Summary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM videos) AS videos,
			(SELECT COALESCE(SUM(views), 0) FROM videos) AS views,
			(SELECT COALESCE(SUM(likes), 0) FROM videos) AS likes,
			(SELECT COUNT(*) FROM accounts WHERE enabled = 1) AS enabled_accounts
	`

	var summary Summary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

// TopAuthors returns the accounts with the most downloads (top N)
func (r *StatsRepository) TopAuthors(ctx context.Context, limit int) ([]AuthorCount, error) {
	query := `
		SELECT COALESCE(NULLIF(author, ''), account) AS author, COUNT(*) AS videos,
			COALESCE(SUM(views), 0) AS views, COALESCE(SUM(likes), 0) AS likes
		FROM videos
		GROUP BY 1
		ORDER BY videos DESC, author
		LIMIT ?
	`

	var results []AuthorCount
	if err := r.db.SelectContext(ctx, &results, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get top authors: %w", err)
	}
	return results, nil
}

// ByDay returns download counts for the most recent days that had downloads
func (r *StatsRepository) ByDay(ctx context.Context, days int) ([]DayCount, error) {
	query := `
		SELECT date(downloaded_at, 'unixepoch') AS day, COUNT(*) AS videos
		FROM videos
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?
	`

	var results []DayCount
	if err := r.db.SelectContext(ctx, &results, query, days); err != nil {
		return nil, fmt.Errorf("failed to get daily counts: %w", err)
	}
	return results, nil
}

// StartRun records the beginning of a check pass
func (r *StatsRepository) StartRun(ctx context.Context, run *models.CheckRun) error {
	query := `INSERT INTO check_runs (id, started_at) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, run.ID, toUnix(run.StartedAt)); err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a check pass
func (r *StatsRepository) FinishRun(ctx context.Context, run *models.CheckRun) error {
	query := `
		UPDATE check_runs
		SET finished_at = ?, accounts_checked = ?, videos_found = ?, videos_downloaded = ?, failures = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		toUnix(run.FinishedAt),
		run.AccountsChecked,
		run.VideosFound,
		run.VideosDownloaded,
		run.Failures,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to record run result: %w", err)
	}
	return nil
}

// LastRun returns the most recent check pass, or nil if none was recorded
func (r *StatsRepository) LastRun(ctx context.Context) (*models.CheckRun, error) {
	query := `
		SELECT id, started_at, finished_at, accounts_checked, videos_found, videos_downloaded, failures
		FROM check_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1
	`

	var row checkRunRow
	err := r.db.GetContext(ctx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	run := row.model()
	return &run, nil
}
