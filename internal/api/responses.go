package api

import (
	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/database"
	"github.com/starwatch/sentiment/internal/domain"
)

const defaultListLimit = 50

// SubjectsListResponse wraps a subject listing.
type SubjectsListResponse struct {
	Subjects []domain.TrackedSubject `json:"subjects"`
	Total    int                     `json:"total"`
}

// CreateSubjectRequest creates a tracked subject.
type CreateSubjectRequest struct {
	DisplayName string   `json:"display_name" binding:"required"`
	Type        string   `json:"subject_type" binding:"required,oneof=person work brand pair"`
	Aliases     []string `json:"aliases"`
}

func (r *CreateSubjectRequest) toSubject() *domain.TrackedSubject {
	aliases := make([]string, 0, len(r.Aliases))
	for _, alias := range r.Aliases {
		if normalized := catalog.Normalize(alias); catalog.ValidCandidate(normalized) {
			aliases = append(aliases, normalized)
		}
	}

	return &domain.TrackedSubject{
		DisplayName:   r.DisplayName,
		CanonicalName: catalog.Normalize(r.DisplayName),
		Type:          domain.SubjectType(r.Type),
		Aliases:       aliases,
		Active:        true,
	}
}

// SeedSubjectsRequest bulk-creates tracked subjects.
type SeedSubjectsRequest struct {
	Subjects []CreateSubjectRequest `json:"subjects" binding:"required,min=1,max=500"`
}

// UpdateSubjectRequest partially updates a tracked subject.
type UpdateSubjectRequest struct {
	DisplayName *string   `json:"display_name"`
	Type        *string   `json:"subject_type"`
	Aliases     *[]string `json:"aliases"`
	Active      *bool     `json:"active"`
}

func (r *UpdateSubjectRequest) apply(subject *domain.TrackedSubject) {
	if r.DisplayName != nil {
		subject.DisplayName = *r.DisplayName
		subject.CanonicalName = catalog.Normalize(*r.DisplayName)
	}
	if r.Type != nil {
		subject.Type = domain.SubjectType(*r.Type)
	}
	if r.Aliases != nil {
		aliases := make([]string, 0, len(*r.Aliases))
		for _, alias := range *r.Aliases {
			if normalized := catalog.Normalize(alias); catalog.ValidCandidate(normalized) {
				aliases = append(aliases, normalized)
			}
		}
		subject.Aliases = aliases
	}
	if r.Active != nil {
		subject.Active = *r.Active
	}
}

// EnrichmentStatusResponse reports backlog depth and the failure ledger.
type EnrichmentStatusResponse struct {
	Backlog  int64                      `json:"backlog"`
	Failures database.FailureStats      `json:"failures"`
	ByCode   map[domain.ErrorCode]int64 `json:"failures_by_code"`
}

// FailuresListResponse wraps ledger entries whose backoff has elapsed.
type FailuresListResponse struct {
	Failures []domain.EnrichmentFailure `json:"failures"`
	Count    int                        `json:"count"`
}

// ReviewListResponse wraps the pending review queue.
type ReviewListResponse struct {
	Items []domain.ReviewQueueItem `json:"items"`
	Total int                      `json:"total"`
}

// ResolveReviewRequest assigns a subject to a review item. When AddAlias is
// set, the mention text is registered as an alias so future mentions resolve
// without review.
type ResolveReviewRequest struct {
	SubjectID int64  `json:"subject_id" binding:"required"`
	AddAlias  string `json:"add_alias"`
}

// DiscoveredListResponse wraps pending discoveries.
type DiscoveredListResponse struct {
	Discovered []domain.DiscoveredSubject `json:"discovered"`
	Total      int                        `json:"total"`
}

// PromoteDiscoveredRequest turns a discovery into a tracked subject.
type PromoteDiscoveredRequest struct {
	DisplayName string   `json:"display_name" binding:"required"`
	Type        string   `json:"subject_type" binding:"required,oneof=person work brand pair"`
	Aliases     []string `json:"aliases"`
}

func (r *PromoteDiscoveredRequest) toSubject() *domain.TrackedSubject {
	create := CreateSubjectRequest{DisplayName: r.DisplayName, Type: r.Type, Aliases: r.Aliases}
	return create.toSubject()
}

// CleanupDiscoveredRequest prunes stale low-mention discoveries.
type CleanupDiscoveredRequest struct {
	MinMentions    int `json:"min_mentions" binding:"required,min=1"`
	OlderThanHours int `json:"older_than_hours" binding:"required,min=1"`
}

// CleanupFailuresRequest prunes retry-exhausted ledger entries whose last
// attempt is older than the given age.
type CleanupFailuresRequest struct {
	OlderThanHours int `json:"older_than_hours" binding:"required,min=1"`
}
