package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/jmoiron/sqlx"
)

const videoColumns = `id, account, url, title, author, upload_date, upload_timestamp, likes, views, file_path, downloaded_at`

// VideoRepository handles downloaded video persistence
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository creates a new VideoRepository
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Exists reports whether a video id was already downloaded
func (r *VideoRepository) Exists(ctx context.Context, videoID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM videos WHERE id = ?)`, videoID)
	if err != nil {
		return false, fmt.Errorf("failed to check video: %w", err)
	}
	return exists, nil
}

// Insert records a downloaded video. A video id is stored at most once:
// inserting a known id leaves the existing row untouched and reports
// created=false.
func (r *VideoRepository) Insert(ctx context.Context, video *models.Video) (bool, error) {
	query := `
		INSERT INTO videos (` + videoColumns + `)
		VALUES (:id, :account, :url, :title, :author, :upload_date, :upload_timestamp, :likes, :views, :file_path, :downloaded_at)
		ON CONFLICT(id) DO NOTHING
	`

	res, err := r.db.NamedExecContext(ctx, query, newVideoRow(video))
	if err != nil {
		return false, fmt.Errorf("failed to record video: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record video: %w", err)
	}
	return n > 0, nil
}

// Get retrieves a video by id, returning nil when it does not exist
func (r *VideoRepository) Get(ctx context.Context, videoID string) (*models.Video, error) {
	var row videoRow
	err := r.db.GetContext(ctx, &row, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	video := row.model()
	return &video, nil
}

// CountByAccount returns the number of stored videos for an account
func (r *VideoRepository) CountByAccount(ctx context.Context, account string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM videos WHERE account = ?`, account)
	return count, err
}

// Recent returns the most recently downloaded videos (top N)
func (r *VideoRepository) Recent(ctx context.Context, limit int) ([]models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos ORDER BY downloaded_at DESC, upload_timestamp DESC LIMIT ?`

	var rows []videoRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent videos: %w", err)
	}

	videos := make([]models.Video, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, row.model())
	}
	return videos, nil
}
