package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/starwatch/sentiment/internal/domain"
)

// CommentRepository handles database operations for posts and comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListUnenriched retrieves comments that have not been enriched yet, oldest
// first so a backlog drains in arrival order. Comments with a ledger entry
// whose backoff has not elapsed, or whose retries are exhausted, are held
// back; once next_retry_at passes the regular poll loop picks them up again.
func (r *CommentRepository) ListUnenriched(ctx context.Context, limit int) ([]domain.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author, c.body, c.likes, c.posted_at, c.enriched_at
		FROM comments c
		WHERE c.enriched_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM enrichment_failures f
			WHERE f.comment_id = c.id
			  AND (f.retry_count >= f.max_retries OR f.next_retry_at > NOW())
		  )
		ORDER BY c.posted_at, c.id
		LIMIT $1
	`

	var comments []domain.Comment
	if err := r.db.SelectContext(ctx, &comments, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unenriched comments: %w", err)
	}

	return comments, nil
}

// Post retrieves a post by its ID.
func (r *CommentRepository) Post(ctx context.Context, postID string) (*domain.Post, error) {
	query := `SELECT id, platform, caption, posted_at FROM posts WHERE id = $1`

	var post domain.Post
	if err := r.db.GetContext(ctx, &post, query, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &post, nil
}

// MarkEnriched stamps a comment as processed.
func (r *CommentRepository) MarkEnriched(ctx context.Context, commentID string, at time.Time) error {
	query := `UPDATE comments SET enriched_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, at, commentID)
	if err != nil {
		return fmt.Errorf("failed to mark comment enriched: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ClearEnriched resets a comment for re-enrichment, typically after a catalog
// change that should be reflected in its signals.
func (r *CommentRepository) ClearEnriched(ctx context.Context, commentID string) error {
	query := `UPDATE comments SET enriched_at = NULL WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, commentID)
	if err != nil {
		return fmt.Errorf("failed to clear enriched stamp: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// CountUnenriched returns the current backlog size.
func (r *CommentRepository) CountUnenriched(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE enriched_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unenriched comments: %w", err)
	}
	return count, nil
}
