package domain

import (
	"time"

	"github.com/google/uuid"
)

// SignalType identifies what kind of observation a signal carries.
type SignalType string

const (
	SignalSentiment SignalType = "sentiment"
	SignalEmotion   SignalType = "emotion"
	// SignalStance is reserved. No provider currently attributes per-subject
	// stance, so the pipeline never writes it; the type exists so stored rows
	// and queries have a stable vocabulary when a capable provider lands.
	SignalStance SignalType = "stance"
)

// Signal source constants name the provider that produced a signal.
const (
	SourceLexicon         = "lexicon"
	SourceModel           = "model"
	SourceLexiconFallback = "lexicon_fallback"
)

// Sentiment label constants.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// Signal is one scored observation tied to a comment and optionally to a
// subject. A nil SubjectID means the signal is comment-level rather than
// subject-specific. Signals are unique per (comment, subject, type);
// re-enrichment updates rows in place.
type Signal struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	CommentID    string     `db:"comment_id"    json:"comment_id"`
	SubjectID    *int64     `db:"subject_id"    json:"subject_id,omitempty"`
	Type         SignalType `db:"signal_type"   json:"signal_type"`
	Label        string     `db:"label"         json:"label"`
	NumericValue float64    `db:"numeric_value" json:"numeric_value"`
	WeightScore  float64    `db:"weight_score"  json:"weight_score"`
	Confidence   float64    `db:"confidence"    json:"confidence"`
	Source       string     `db:"source"        json:"source"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// SentimentLabel maps a score in −1..1 onto a label. The ±0.05 dead zone
// matches the lexicon scorer's neutral convention.
func SentimentLabel(value float64) string {
	switch {
	case value >= 0.05:
		return LabelPositive
	case value <= -0.05:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Emotion label constants, coarse bands over the sentiment score.
const (
	EmotionJoy         = "joy"
	EmotionApproval    = "approval"
	EmotionNeutral     = "neutral"
	EmotionDisapproval = "disapproval"
	EmotionAnger       = "anger"
)

// EmotionLabel maps a score in −1..1 onto a coarse emotion band.
func EmotionLabel(value float64) string {
	switch {
	case value >= 0.5:
		return EmotionJoy
	case value >= 0.05:
		return EmotionApproval
	case value <= -0.5:
		return EmotionAnger
	case value <= -0.05:
		return EmotionDisapproval
	default:
		return EmotionNeutral
	}
}
