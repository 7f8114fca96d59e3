package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/jmoiron/sqlx"
)

// ErrAccountNotFound is returned when a mutation targets an unknown username
var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `username, platform, enabled, last_check, last_video_id, last_video_timestamp, total_videos, created_at`

// AccountRepository handles monitored account persistence
type AccountRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

// Add registers an account for monitoring. Adding an existing username is a
// no-op and reports created=false.
func (r *AccountRepository) Add(ctx context.Context, username string, platform models.Platform) (bool, error) {
	if platform == "" {
		platform = models.PlatformTikTok
	}

	query := `
		INSERT INTO accounts (username, platform, enabled, created_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(username) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, username, string(platform), r.now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to add account: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add account: %w", err)
	}
	return n > 0, nil
}

// Disable stops monitoring an account but keeps its history
func (r *AccountRepository) Disable(ctx context.Context, username string) error {
	return r.setEnabled(ctx, username, false)
}

// Enable re-enables a previously disabled account
func (r *AccountRepository) Enable(ctx context.Context, username string) error {
	return r.setEnabled(ctx, username, true)
}

func (r *AccountRepository) setEnabled(ctx context.Context, username string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET enabled = ? WHERE username = ?`, enabled, username)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Delete permanently removes an account and its video records, returning how
// many video records were removed. Downloaded files are left on disk.
func (r *AccountRepository) Delete(ctx context.Context, username string) (int64, error) {
	var removed int64

	err := database.WrapTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE username = ?`, username)
		if err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrAccountNotFound
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM videos WHERE account = ?`, username)
		if err != nil {
			return fmt.Errorf("failed to delete account videos: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})

	return removed, err
}

// Get retrieves an account by username, returning nil when it does not exist
func (r *AccountRepository) Get(ctx context.Context, username string) (*models.Account, error) {
	var row accountRow
	err := r.db.GetContext(ctx, &row, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account := row.model()
	return &account, nil
}

// ListEnabled returns the accounts a check pass should visit
func (r *AccountRepository) ListEnabled(ctx context.Context) ([]models.Account, error) {
	var rows []accountRow
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE enabled = 1 ORDER BY created_at, username`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]models.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.model())
	}
	return accounts, nil
}

// List returns accounts with the number of videos stored for each, busiest
// accounts first
func (r *AccountRepository) List(ctx context.Context, includeDisabled bool) ([]models.AccountSummary, error) {
	builder := squirrel.
		Select(
			"a.username AS username",
			"a.platform AS platform",
			"a.enabled AS enabled",
			"a.last_check AS last_check",
			"a.last_video_id AS last_video_id",
			"a.last_video_timestamp AS last_video_timestamp",
			"a.total_videos AS total_videos",
			"a.created_at AS created_at",
			"COUNT(v.id) AS stored_videos",
		).
		From("accounts a").
		LeftJoin("videos v ON v.account = a.username").
		GroupBy("a.username").
		OrderBy("a.total_videos DESC", "a.username")

	if !includeDisabled {
		builder = builder.Where(squirrel.Eq{"a.enabled": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build account query: %w", err)
	}

	var rows []struct {
		accountRow
		StoredVideos int64 `db:"stored_videos"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	summaries := make([]models.AccountSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, models.AccountSummary{
			Account:      row.accountRow.model(),
			StoredVideos: row.StoredVideos,
		})
	}
	return summaries, nil
}

// AdvanceWatermark moves the last seen video timestamp forward. Older
// timestamps are ignored so the watermark never decreases.
func (r *AccountRepository) AdvanceWatermark(ctx context.Context, username string, timestamp int64, videoID string) error {
	query := `
		UPDATE accounts
		SET last_video_id = CASE WHEN ? > last_video_timestamp THEN ? ELSE last_video_id END,
			last_video_timestamp = MAX(last_video_timestamp, ?)
		WHERE username = ?
	`

	if _, err := r.db.ExecContext(ctx, query, timestamp, videoID, timestamp, username); err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}
	return nil
}

// RecordCheck stamps the check time and adds newly stored videos to the total
func (r *AccountRepository) RecordCheck(ctx context.Context, username string, downloaded int, at time.Time) error {
	query := `UPDATE accounts SET total_videos = total_videos + ?, last_check = ? WHERE username = ?`
	if _, err := r.db.ExecContext(ctx, query, downloaded, toUnix(at), username); err != nil {
		return fmt.Errorf("failed to record check: %w", err)
	}
	return nil
}

// CountEnabled returns the number of monitored accounts
func (r *AccountRepository) CountEnabled(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts WHERE enabled = 1`)
	return count, err
}
