package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/starwatch/sentiment/internal/analytics"
	"github.com/starwatch/sentiment/internal/domain"
)

// AnalyticsRepository runs the window queries behind the analytics engine.
// Windows are over comment posted_at, so rankings reflect when the audience
// spoke rather than when the pipeline caught up.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// SubjectMentionCounts ranks subjects by distinct-comment mentions within the
// window. subjectType filters when non-empty.
func (r *AnalyticsRepository) SubjectMentionCounts(ctx context.Context, from, to time.Time, subjectType string, limit int) ([]analytics.SubjectMentions, error) {
	query := `
		SELECT s.subject_id, t.display_name, COUNT(DISTINCT s.comment_id) AS mentions
		FROM signals s
		JOIN tracked_subjects t ON t.id = s.subject_id
		JOIN comments c ON c.id = s.comment_id
		WHERE s.signal_type = 'sentiment'
		  AND s.subject_id IS NOT NULL
		  AND c.posted_at >= $1 AND c.posted_at < $2
	`
	args := []any{from, to}

	if subjectType != "" {
		args = append(args, subjectType)
		query += fmt.Sprintf(" AND t.subject_type = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(`
		GROUP BY s.subject_id, t.display_name
		ORDER BY mentions DESC, s.subject_id
		LIMIT $%d`, len(args))

	var counts []analytics.SubjectMentions
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count subject mentions: %w", err)
	}

	return counts, nil
}

// PostSubjectMentionCounts ranks subjects mentioned in one post's comments.
func (r *AnalyticsRepository) PostSubjectMentionCounts(ctx context.Context, postID string) ([]analytics.SubjectMentions, error) {
	query := `
		SELECT s.subject_id, t.display_name, COUNT(DISTINCT s.comment_id) AS mentions
		FROM signals s
		JOIN tracked_subjects t ON t.id = s.subject_id
		JOIN comments c ON c.id = s.comment_id
		WHERE s.signal_type = 'sentiment'
		  AND s.subject_id IS NOT NULL
		  AND c.post_id = $1
		GROUP BY s.subject_id, t.display_name
		ORDER BY mentions DESC, s.subject_id
	`

	var counts []analytics.SubjectMentions
	if err := r.db.SelectContext(ctx, &counts, query, postID); err != nil {
		return nil, fmt.Errorf("failed to count post subject mentions: %w", err)
	}

	return counts, nil
}

// PostCaption returns a post's caption text.
func (r *AnalyticsRepository) PostCaption(ctx context.Context, postID string) (string, error) {
	var caption string
	err := r.db.QueryRowContext(ctx, `SELECT caption FROM posts WHERE id = $1`, postID).Scan(&caption)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("failed to get post caption: %w", err)
	}
	return caption, nil
}

// SentimentRows returns a subject's sentiment signals within the window,
// stamped with the comment's posted_at for bucketing.
func (r *AnalyticsRepository) SentimentRows(ctx context.Context, subjectID int64, from, to time.Time) ([]analytics.SignalRow, error) {
	query := `
		SELECT s.comment_id, s.numeric_value, s.weight_score, s.label,
		       c.posted_at AS created_at
		FROM signals s
		JOIN comments c ON c.id = s.comment_id
		WHERE s.signal_type = 'sentiment'
		  AND s.subject_id = $1
		  AND c.posted_at >= $2 AND c.posted_at < $3
		ORDER BY c.posted_at
	`

	var signalRows []analytics.SignalRow
	if err := r.db.SelectContext(ctx, &signalRows, query, subjectID, from, to); err != nil {
		return nil, fmt.Errorf("failed to load sentiment rows: %w", err)
	}

	return signalRows, nil
}
