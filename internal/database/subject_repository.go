package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/starwatch/sentiment/internal/domain"
)

// SubjectRepository handles database operations for tracked subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectColumns = `id, display_name, canonical_name, subject_type, aliases, active, created_at, updated_at`

// Create inserts a new tracked subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *domain.TrackedSubject) error {
	query := `
		INSERT INTO tracked_subjects (display_name, canonical_name, subject_type, aliases, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		subject.DisplayName,
		subject.CanonicalName,
		subject.Type,
		pq.Array(subject.Aliases),
		subject.Active,
	).Scan(&subject.ID, &subject.CreatedAt, &subject.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}

	return nil
}

// GetByID retrieves a subject by its ID.
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*domain.TrackedSubject, error) {
	query := `SELECT ` + subjectColumns + ` FROM tracked_subjects WHERE id = $1`

	subject, err := scanSubject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	return subject, nil
}

// List retrieves all subjects, optionally including inactive ones.
func (r *SubjectRepository) List(ctx context.Context, includeInactive bool) ([]domain.TrackedSubject, error) {
	query := `SELECT ` + subjectColumns + ` FROM tracked_subjects`
	if !includeInactive {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY id`

	return r.querySubjects(ctx, query)
}

// ListActive retrieves the active subjects used to build the match catalog.
func (r *SubjectRepository) ListActive(ctx context.Context) ([]domain.TrackedSubject, error) {
	query := `SELECT ` + subjectColumns + ` FROM tracked_subjects WHERE active = TRUE ORDER BY id`

	return r.querySubjects(ctx, query)
}

// Update modifies a subject's names, type, aliases, and active flag.
func (r *SubjectRepository) Update(ctx context.Context, subject *domain.TrackedSubject) error {
	query := `
		UPDATE tracked_subjects
		SET display_name = $1, canonical_name = $2, subject_type = $3, aliases = $4,
		    active = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		subject.DisplayName,
		subject.CanonicalName,
		subject.Type,
		pq.Array(subject.Aliases),
		subject.Active,
		subject.ID,
	).Scan(&subject.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update subject: %w", err)
	}

	return nil
}

// AddAlias appends an alias to a subject unless it is already present.
func (r *SubjectRepository) AddAlias(ctx context.Context, id int64, alias string) error {
	query := `
		UPDATE tracked_subjects
		SET aliases = array_append(aliases, $1), updated_at = NOW()
		WHERE id = $2 AND NOT ($1 = ANY(aliases))
	`

	result, err := r.db.ExecContext(ctx, query, alias, id)
	if err != nil {
		return fmt.Errorf("failed to add alias: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Either the subject does not exist or the alias is already there.
		exists, existsErr := r.exists(ctx, id)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return domain.ErrNotFound
		}
	}

	return nil
}

// SetActive toggles whether a subject participates in catalog builds.
func (r *SubjectRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE tracked_subjects SET active = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to set subject active: %w", err)
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

func (r *SubjectRepository) exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tracked_subjects WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subject exists: %w", err)
	}
	return exists, nil
}

func (r *SubjectRepository) querySubjects(ctx context.Context, query string, args ...any) ([]domain.TrackedSubject, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []domain.TrackedSubject
	for rows.Next() {
		var s domain.TrackedSubject
		if scanErr := rows.Scan(
			&s.ID,
			&s.DisplayName,
			&s.CanonicalName,
			&s.Type,
			pq.Array(&s.Aliases),
			&s.Active,
			&s.CreatedAt,
			&s.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", scanErr)
		}
		subjects = append(subjects, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subjects: %w", err)
	}

	return subjects, nil
}

func scanSubject(row *sql.Row) (*domain.TrackedSubject, error) {
	var s domain.TrackedSubject
	err := row.Scan(
		&s.ID,
		&s.DisplayName,
		&s.CanonicalName,
		&s.Type,
		pq.Array(&s.Aliases),
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
