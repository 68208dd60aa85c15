package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/starwatch/sentiment/internal/domain"
)

// SignalRepository handles database operations for enrichment signals.
type SignalRepository struct {
	db *sqlx.DB
}

// NewSignalRepository creates a new signal repository.
func NewSignalRepository(db *sqlx.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// ReplaceCommentSignals writes a comment's full signal set in one transaction.
// Stale rows from a previous enrichment are removed first so re-enrichment
// replaces rather than accumulates. The upsert target matches the expression
// unique index on (comment_id, COALESCE(subject_id, 0), signal_type).
func (r *SignalRepository) ReplaceCommentSignals(ctx context.Context, commentID string, signals []domain.Signal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err = tx.ExecContext(ctx, `DELETE FROM signals WHERE comment_id = $1`, commentID); err != nil {
		return fmt.Errorf("failed to clear comment signals: %w", err)
	}

	query := `
		INSERT INTO signals (id, comment_id, subject_id, signal_type, label,
		                     numeric_value, weight_score, confidence, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (comment_id, COALESCE(subject_id, 0::bigint), signal_type)
		DO UPDATE SET
			label = EXCLUDED.label,
			numeric_value = EXCLUDED.numeric_value,
			weight_score = EXCLUDED.weight_score,
			confidence = EXCLUDED.confidence,
			source = EXCLUDED.source,
			updated_at = NOW()
	`

	for i := range signals {
		s := &signals[i]
		if _, err = tx.ExecContext(
			ctx,
			query,
			s.ID,
			commentID,
			s.SubjectID,
			s.Type,
			s.Label,
			s.NumericValue,
			s.WeightScore,
			s.Confidence,
			s.Source,
		); err != nil {
			return fmt.Errorf("failed to upsert signal: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signals: %w", err)
	}

	return nil
}

// ListByComment retrieves the signals written for a comment.
func (r *SignalRepository) ListByComment(ctx context.Context, commentID string) ([]domain.Signal, error) {
	query := `
		SELECT id, comment_id, subject_id, signal_type, label, numeric_value,
		       weight_score, confidence, source, created_at, updated_at
		FROM signals
		WHERE comment_id = $1
		ORDER BY signal_type, subject_id NULLS FIRST
	`

	var signals []domain.Signal
	if err := r.db.SelectContext(ctx, &signals, query, commentID); err != nil {
		return nil, fmt.Errorf("failed to list comment signals: %w", err)
	}

	return signals, nil
}
