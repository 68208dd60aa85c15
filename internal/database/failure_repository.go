package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/starwatch/sentiment/internal/domain"
)

// FailureRepository is the enrichment dead-letter ledger. Failed comments are
// upserted here with exponential backoff state until they succeed or exhaust
// their retries.
type FailureRepository struct {
	db *sqlx.DB
}

// NewFailureRepository creates a new failure ledger repository.
func NewFailureRepository(db *sqlx.DB) *FailureRepository {
	return &FailureRepository{db: db}
}

// FailureStats summarizes the ledger.
type FailureStats struct {
	Total     int64 `db:"total"     json:"total"`
	Retryable int64 `db:"retryable" json:"retryable"`
	Exhausted int64 `db:"exhausted" json:"exhausted"`
}

// Record creates a failure entry for the comment or advances the retry state
// of the existing one. Backoff doubles per attempt starting at one minute,
// capped at one hour, computed in SQL so concurrent writers agree.
func (r *FailureRepository) Record(ctx context.Context, commentID, postID, message string, code domain.ErrorCode) error {
	query := `
		INSERT INTO enrichment_failures (comment_id, post_id, error_message, error_code, next_retry_at)
		VALUES ($1, $2, $3, $4, NOW() + INTERVAL '60 seconds')
		ON CONFLICT (comment_id) DO UPDATE SET
			retry_count = enrichment_failures.retry_count + 1,
			error_message = EXCLUDED.error_message,
			error_code = EXCLUDED.error_code,
			last_attempt_at = NOW(),
			next_retry_at = NOW() + LEAST(POWER(2, enrichment_failures.retry_count + 1) * 60, 3600) * INTERVAL '1 second'
	`

	if _, err := r.db.ExecContext(ctx, query, commentID, postID, message, code); err != nil {
		return fmt.Errorf("failed to record enrichment failure: %w", err)
	}

	return nil
}

// ListRetryable returns failures whose backoff has elapsed, next retry first.
func (r *FailureRepository) ListRetryable(ctx context.Context, limit int) ([]domain.EnrichmentFailure, error) {
	query := `
		SELECT id, comment_id, post_id, error_message, error_code, retry_count,
		       max_retries, next_retry_at, created_at, last_attempt_at
		FROM enrichment_failures
		WHERE retry_count < max_retries AND next_retry_at <= NOW()
		ORDER BY next_retry_at
		LIMIT $1
	`

	var failures []domain.EnrichmentFailure
	if err := r.db.SelectContext(ctx, &failures, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list retryable failures: %w", err)
	}

	return failures, nil
}

// Delete removes a comment's ledger entry after a successful enrichment.
func (r *FailureRepository) Delete(ctx context.Context, commentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM enrichment_failures WHERE comment_id = $1`, commentID); err != nil {
		return fmt.Errorf("failed to delete enrichment failure: %w", err)
	}
	return nil
}

// Stats returns ledger counts broken out by retry state.
func (r *FailureRepository) Stats(ctx context.Context) (*FailureStats, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE retry_count < max_retries) AS retryable,
		       COUNT(*) FILTER (WHERE retry_count >= max_retries) AS exhausted
		FROM enrichment_failures
	`

	var stats FailureStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get failure stats: %w", err)
	}

	return &stats, nil
}

// CountByErrorCode returns per-code failure counts, highest first.
func (r *FailureRepository) CountByErrorCode(ctx context.Context) (map[domain.ErrorCode]int64, error) {
	query := `
		SELECT error_code, COUNT(*) AS count
		FROM enrichment_failures
		GROUP BY error_code
		ORDER BY count DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count failures by code: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ErrorCode]int64)
	for rows.Next() {
		var code domain.ErrorCode
		var count int64
		if scanErr := rows.Scan(&code, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan failure count: %w", scanErr)
		}
		counts[code] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate failure counts: %w", err)
	}

	return counts, nil
}

// CleanupExhausted removes entries that ran out of retries and have not been
// touched since the given age.
func (r *FailureRepository) CleanupExhausted(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM enrichment_failures
		WHERE retry_count >= max_retries
		  AND last_attempt_at < NOW() - $1 * INTERVAL '1 second'
	`

	result, err := r.db.ExecContext(ctx, query, int64(olderThan.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup exhausted failures: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
