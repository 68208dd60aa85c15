package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/starwatch/sentiment/internal/domain"
)

// ReviewRepository handles database operations for the manual review queue.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new review queue repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Enqueue inserts a review item, or refreshes the pending one for the same
// (comment, mention) so re-enrichment does not pile up duplicates. The
// conflict target matches the partial unique index on unreviewed items.
func (r *ReviewRepository) Enqueue(ctx context.Context, item domain.ReviewQueueItem) error {
	query := `
		INSERT INTO review_queue (id, comment_id, mention_text, context, confidence,
		                          candidate_subject_ids, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (comment_id, mention_text) WHERE NOT reviewed
		DO UPDATE SET
			context = EXCLUDED.context,
			confidence = EXCLUDED.confidence,
			candidate_subject_ids = EXCLUDED.candidate_subject_ids,
			reason = EXCLUDED.reason,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.CommentID,
		item.MentionText,
		item.Context,
		item.Confidence,
		pq.Array(item.CandidateSubjectIDs),
		item.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue review item: %w", err)
	}

	return nil
}

// ListPending retrieves unreviewed items, oldest first.
func (r *ReviewRepository) ListPending(ctx context.Context, limit int) ([]domain.ReviewQueueItem, error) {
	query := `
		SELECT id, comment_id, mention_text, context, confidence,
		       candidate_subject_ids, reason, reviewed, assigned_subject_id,
		       created_at, updated_at
		FROM review_queue
		WHERE reviewed = FALSE
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}
	defer rows.Close()

	var items []domain.ReviewQueueItem
	for rows.Next() {
		var item domain.ReviewQueueItem
		if scanErr := rows.Scan(
			&item.ID,
			&item.CommentID,
			&item.MentionText,
			&item.Context,
			&item.Confidence,
			pq.Array(&item.CandidateSubjectIDs),
			&item.Reason,
			&item.Reviewed,
			&item.AssignedSubjectID,
			&item.CreatedAt,
			&item.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan review item: %w", scanErr)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review queue: %w", err)
	}

	return items, nil
}

// Resolve marks an item reviewed with the assigned subject. The comment is
// reset for re-enrichment by the caller so the decision takes effect.
func (r *ReviewRepository) Resolve(ctx context.Context, id uuid.UUID, subjectID int64) error {
	query := `
		UPDATE review_queue
		SET reviewed = TRUE, assigned_subject_id = $1, updated_at = NOW()
		WHERE id = $2 AND reviewed = FALSE
	`

	return r.finish(ctx, query, subjectID, id)
}

// Reject marks an item reviewed with no subject assigned.
func (r *ReviewRepository) Reject(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE review_queue
		SET reviewed = TRUE, assigned_subject_id = NULL, updated_at = NOW()
		WHERE id = $1 AND reviewed = FALSE
	`

	return r.finish(ctx, query, id)
}

// CommentID returns the comment a review item belongs to.
func (r *ReviewRepository) CommentID(ctx context.Context, id uuid.UUID) (string, error) {
	var commentID string
	err := r.db.QueryRowContext(ctx, `SELECT comment_id FROM review_queue WHERE id = $1`, id).Scan(&commentID)
	if err != nil {
		return "", fmt.Errorf("failed to get review item comment: %w", err)
	}
	return commentID, nil
}

func (r *ReviewRepository) finish(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update review item: %w", err)
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
