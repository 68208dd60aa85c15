// Package sentiment implements the pluggable sentiment provider family:
// a deterministic lexicon scorer, a context-aware model-backed client, and a
// hybrid provider that escalates between them.
package sentiment

import "context"

// SubjectHint describes one tracked subject passed to a provider as
// disambiguation context. Hints are context, never forced targets: a provider
// scores only the subjects it judges to be actually discussed.
type SubjectHint struct {
	ID            int64    `json:"id"`
	DisplayName   string   `json:"display_name"`
	CanonicalName string   `json:"canonical_name"`
	Type          string   `json:"type"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Request carries one comment to score along with its post caption and the
// full tracked-subject list.
type Request struct {
	Text     string
	Caption  string
	Subjects []SubjectHint
}

// Score is one sentiment observation with the provider's confidence in it.
type Score struct {
	Value      float64 // −1..1
	Confidence float64 // 0..1
}

// AmbiguousMention is a mention the provider could not attribute to a single
// subject.
type AmbiguousMention struct {
	Name       string
	Candidates []string
	Confidence float64
	Reason     string
}

// Result is the common provider output: an overall score for the comment,
// per-subject scores keyed by the name the provider used, mentions it flagged
// as ambiguous, and names it surfaced that match no hint.
type Result struct {
	Overall    Score
	PerSubject map[string]Score
	Ambiguous  []AmbiguousMention
	Discovered []string
	Source     string
}

// Provider scores a comment's sentiment and attributes it to subjects
// actually discussed.
type Provider interface {
	// Score analyzes one comment. Implementations return an error only for
	// transport or response failures; an empty result is a normal outcome.
	Score(ctx context.Context, req Request) (*Result, error)

	// Name identifies the provider in signal rows and logs.
	Name() string
}
