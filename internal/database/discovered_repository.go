package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/starwatch/sentiment/internal/domain"
)

// DiscoveredRepository tracks names seen during enrichment that did not match
// any tracked subject.
type DiscoveredRepository struct {
	db        *sqlx.DB
	sampleCap int
}

// NewDiscoveredRepository creates a new discovered-subject repository.
// sampleCap bounds how many example contexts are kept per name.
func NewDiscoveredRepository(db *sqlx.DB, sampleCap int) *DiscoveredRepository {
	if sampleCap <= 0 {
		sampleCap = 5
	}
	return &DiscoveredRepository{db: db, sampleCap: sampleCap}
}

// Record creates the entry for a name or bumps its mention count, refreshing
// last_seen and appending the context sample until the cap is reached.
func (r *DiscoveredRepository) Record(ctx context.Context, name string, inferredType domain.SubjectType, sampleContext string) error {
	query := `
		INSERT INTO discovered_subjects (name, inferred_type, mention_count, sample_contexts)
		VALUES ($1, $2, 1, ARRAY[$3]::text[])
		ON CONFLICT (name) DO UPDATE SET
			mention_count = discovered_subjects.mention_count + 1,
			last_seen = NOW(),
			sample_contexts = CASE
				WHEN $3 <> '' AND cardinality(discovered_subjects.sample_contexts) < $4
					THEN array_append(discovered_subjects.sample_contexts, $3)
				ELSE discovered_subjects.sample_contexts
			END
	`

	if _, err := r.db.ExecContext(ctx, query, name, inferredType, sampleContext, r.sampleCap); err != nil {
		return fmt.Errorf("failed to record discovered subject: %w", err)
	}

	return nil
}

// ListPending retrieves unreviewed discoveries, most mentioned first.
func (r *DiscoveredRepository) ListPending(ctx context.Context, limit int) ([]domain.DiscoveredSubject, error) {
	query := `
		SELECT id, name, inferred_type, mention_count, first_seen, last_seen,
		       sample_contexts, reviewed
		FROM discovered_subjects
		WHERE reviewed = FALSE
		ORDER BY mention_count DESC, last_seen DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list discovered subjects: %w", err)
	}
	defer rows.Close()

	var discovered []domain.DiscoveredSubject
	for rows.Next() {
		var d domain.DiscoveredSubject
		if scanErr := rows.Scan(
			&d.ID,
			&d.Name,
			&d.InferredType,
			&d.MentionCount,
			&d.FirstSeen,
			&d.LastSeen,
			pq.Array(&d.SampleContexts),
			&d.Reviewed,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan discovered subject: %w", scanErr)
		}
		discovered = append(discovered, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discovered subjects: %w", err)
	}

	return discovered, nil
}

// MarkReviewed flags a discovery as handled, typically after promotion to the
// tracked catalog or dismissal.
func (r *DiscoveredRepository) MarkReviewed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE discovered_subjects SET reviewed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark discovery reviewed: %w", err)
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

// Cleanup removes low-signal discoveries not seen since the cutoff.
func (r *DiscoveredRepository) Cleanup(ctx context.Context, minMentions int, lastSeenBefore time.Time) (int64, error) {
	query := `DELETE FROM discovered_subjects WHERE mention_count < $1 AND last_seen < $2`

	result, err := r.db.ExecContext(ctx, query, minMentions, lastSeenBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup discovered subjects: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
