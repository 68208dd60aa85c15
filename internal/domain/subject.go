// Package domain contains the core domain models for the sentiment service.
package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an entity is not found in the database.
var ErrNotFound = errors.New("entity not found")

// SubjectType categorizes what kind of entity a tracked subject is.
type SubjectType string

const (
	SubjectPerson SubjectType = "person"
	SubjectWork   SubjectType = "work"
	SubjectBrand  SubjectType = "brand"
	SubjectPair   SubjectType = "pair"
)

// TrackedSubject is a named entity explicitly monitored for sentiment.
// Subjects are created by catalog administration, mutated when promoted from
// discovery, and never auto-deleted.
type TrackedSubject struct {
	ID            int64       `db:"id"             json:"id"`
	DisplayName   string      `db:"display_name"   json:"display_name"`
	CanonicalName string      `db:"canonical_name" json:"canonical_name"`
	Type          SubjectType `db:"subject_type"   json:"subject_type"`
	Aliases       []string    `db:"aliases"        json:"aliases"`
	Active        bool        `db:"active"         json:"active"`
	CreatedAt     time.Time   `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"     json:"updated_at"`
}

// DiscoveredSubject is a name surfaced during enrichment that is not in the
// tracked catalog. mention_count is incremented at most once per comment.
type DiscoveredSubject struct {
	ID             int64     `db:"id"              json:"id"`
	Name           string    `db:"name"            json:"name"`
	InferredType   string    `db:"inferred_type"   json:"inferred_type"`
	MentionCount   int       `db:"mention_count"   json:"mention_count"`
	FirstSeen      time.Time `db:"first_seen"      json:"first_seen"`
	LastSeen       time.Time `db:"last_seen"       json:"last_seen"`
	SampleContexts []string  `db:"sample_contexts" json:"sample_contexts"`
	Reviewed       bool      `db:"reviewed"        json:"reviewed"`
}
