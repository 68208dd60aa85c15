package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewReason explains why a mention resolution was queued for a human
// instead of producing a signal.
type ReviewReason string

const (
	// ReasonLowConfidence marks resolutions whose combined confidence fell
	// below the auto-resolve threshold.
	ReasonLowConfidence ReviewReason = "low_confidence"
	// ReasonAliasCollision marks mentions whose surface form maps to more
	// than one tracked subject.
	ReasonAliasCollision ReviewReason = "alias_collision"
	// ReasonProviderFlagged marks mentions the sentiment provider itself
	// reported as ambiguous.
	ReasonProviderFlagged ReviewReason = "provider_flagged"
)

// ReviewQueueItem holds a low-confidence resolution for human adjudication.
// Resolution is a manual, external act; resolved items do not alter the alias
// catalog.
type ReviewQueueItem struct {
	ID                  uuid.UUID    `db:"id"                    json:"id"`
	CommentID           string       `db:"comment_id"            json:"comment_id"`
	MentionText         string       `db:"mention_text"          json:"mention_text"`
	Context             string       `db:"context"               json:"context"`
	Confidence          float64      `db:"confidence"            json:"confidence"`
	CandidateSubjectIDs []int64      `db:"candidate_subject_ids" json:"candidate_subject_ids"`
	Reason              ReviewReason `db:"reason"                json:"reason"`
	Reviewed            bool         `db:"reviewed"              json:"reviewed"`
	AssignedSubjectID   *int64       `db:"assigned_subject_id"   json:"assigned_subject_id,omitempty"`
	CreatedAt           time.Time    `db:"created_at"            json:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at"            json:"updated_at"`
}
