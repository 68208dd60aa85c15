// Package pipeline orchestrates per-comment enrichment: mention extraction,
// provider scoring, confidence routing, and idempotent signal writes.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/domain"
	"github.com/starwatch/sentiment/internal/logger"
	"github.com/starwatch/sentiment/internal/metrics"
	"github.com/starwatch/sentiment/internal/sentiment"
)

// State tracks a comment through the enrichment state machine.
type State string

const (
	StatePending    State = "pending"
	StateExtracting State = "extracting"
	StateScoring    State = "scoring"
	StateWriting    State = "writing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

const contextSnippetLen = 140

// Discovery is one unmatched valid mention registered for review.
type Discovery struct {
	Name         string
	InferredType domain.SubjectType
	Context      string
}

// CommentResult carries everything one comment's enrichment produced. The
// runner commits Signals atomically and records the rest.
type CommentResult struct {
	Comment    domain.Comment
	State      State
	Signals    []domain.Signal
	Discovered []Discovery
	Review     []domain.ReviewQueueItem
	Err        error
	ErrorCode  domain.ErrorCode
}

// EnricherConfig tunes routing thresholds.
type EnricherConfig struct {
	// AutoResolveConfidence routes resolutions at or above it to signal
	// writes; anything below queues for review.
	AutoResolveConfidence float64
}

// Enricher runs the extraction and scoring stages for single comments.
// The catalog is fixed for the enricher's lifetime; build a new enricher per
// run when the catalog may have changed.
type Enricher struct {
	cat      *catalog.Catalog
	provider sentiment.Provider
	cfg      EnricherConfig
	metrics  *metrics.Metrics
	log      logger.Logger
}

// NewEnricher builds an enricher over a catalog and a provider.
func NewEnricher(cat *catalog.Catalog, provider sentiment.Provider, cfg EnricherConfig, m *metrics.Metrics, log logger.Logger) *Enricher {
	if cfg.AutoResolveConfidence == 0 {
		cfg.AutoResolveConfidence = 0.7
	}
	return &Enricher{cat: cat, provider: provider, cfg: cfg, metrics: m, log: log}
}

// Enrich runs one comment through extraction and scoring. The result's State
// is StateWriting on success: signal persistence is the runner's stage.
func (e *Enricher) Enrich(ctx context.Context, comment domain.Comment, post domain.Post) *CommentResult {
	result := &CommentResult{Comment: comment, State: StatePending}

	result.State = StateExtracting
	mentions := e.extractCandidates(comment.Body, post.Caption)

	result.State = StateScoring
	provResult, err := e.provider.Score(ctx, sentiment.Request{
		Text:     comment.Body,
		Caption:  post.Caption,
		Subjects: e.subjectHints(),
	})
	if err != nil {
		result.State = StateFailed
		result.Err = fmt.Errorf("score comment %s: %w", comment.ID, err)
		result.ErrorCode = domain.ClassifyError(err)
		return result
	}

	e.route(result, mentions, provResult)

	result.State = StateWriting
	return result
}

// extractCandidates collects catalog mentions from the comment body and the
// post caption. A mention that is a whole-word substring of a longer mention
// is dropped so "jon" inside "jon roe" does not route separately.
func (e *Enricher) extractCandidates(body, caption string) []string {
	seen := make(map[string]bool)
	var mentions []string
	for _, text := range []string{body, caption} {
		for _, m := range e.cat.ExtractMentions(text) {
			if !seen[m] {
				seen[m] = true
				mentions = append(mentions, m)
			}
		}
	}

	filtered := mentions[:0]
	for _, m := range mentions {
		contained := false
		for _, other := range mentions {
			if m != other && strings.Contains(" "+other+" ", " "+m+" ") {
				contained = true
				break
			}
		}
		if !contained {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func (e *Enricher) subjectHints() []sentiment.SubjectHint {
	subjects := e.cat.Subjects()
	hints := make([]sentiment.SubjectHint, 0, len(subjects))
	for _, s := range subjects {
		hints = append(hints, sentiment.SubjectHint{
			ID:            s.ID,
			DisplayName:   s.DisplayName,
			CanonicalName: s.CanonicalName,
			Type:          string(s.Type),
			Aliases:       s.Aliases,
		})
	}
	return hints
}

// route turns the provider result and extracted mentions into signals, review
// items, and discoveries. Candidate names from every source pass the validity
// filter, and discovery is deduplicated within the comment.
func (e *Enricher) route(result *CommentResult, mentions []string, prov *sentiment.Result) {
	comment := result.Comment
	weight := comment.WeightScore()
	now := time.Now()

	handled := make(map[string]bool)
	discovered := make(map[string]bool)
	subjectsSignalled := make(map[int64]bool)

	handleCandidate := func(rawName string) {
		name := catalog.Normalize(rawName)
		if name == "" || handled[name] {
			return
		}
		handled[name] = true

		res := e.cat.Resolve(rawName)
		switch res.Outcome {
		case catalog.OutcomeRejected:
			// Garbage mention, silently dropped.
			return

		case catalog.OutcomeUnresolved:
			if !discovered[name] {
				discovered[name] = true
				result.Discovered = append(result.Discovered, Discovery{
					Name:         name,
					InferredType: domain.SubjectPerson,
					Context:      snippet(comment.Body),
				})
				e.metrics.IncSubjectsDiscovered()
			}

		case catalog.OutcomeAmbiguous:
			result.Review = append(result.Review, domain.ReviewQueueItem{
				ID:                  uuid.New(),
				CommentID:           comment.ID,
				MentionText:         name,
				Context:             snippet(comment.Body),
				Confidence:          res.Confidence,
				CandidateSubjectIDs: res.Candidates,
				Reason:              domain.ReasonAliasCollision,
				CreatedAt:           now,
				UpdatedAt:           now,
			})
			e.metrics.IncReviewQueued()

		case catalog.OutcomeResolved:
			subject, ok := e.cat.Subject(res.SubjectID)
			if !ok {
				return
			}
			score, scored := lookupScore(prov, name, subject)
			if !scored {
				// The provider judged this subject not actually discussed;
				// scoring it anyway would mis-attribute sentiment.
				return
			}

			effective := res.Confidence * score.Confidence
			if effective < e.cfg.AutoResolveConfidence {
				result.Review = append(result.Review, domain.ReviewQueueItem{
					ID:                  uuid.New(),
					CommentID:           comment.ID,
					MentionText:         name,
					Context:             snippet(comment.Body),
					Confidence:          effective,
					CandidateSubjectIDs: []int64{subject.ID},
					Reason:              domain.ReasonLowConfidence,
					CreatedAt:           now,
					UpdatedAt:           now,
				})
				e.metrics.IncReviewQueued()
				return
			}

			if subjectsSignalled[subject.ID] {
				return
			}
			subjectsSignalled[subject.ID] = true

			subjectID := subject.ID
			result.Signals = append(result.Signals,
				domain.Signal{
					ID:           uuid.New(),
					CommentID:    comment.ID,
					SubjectID:    &subjectID,
					Type:         domain.SignalSentiment,
					Label:        domain.SentimentLabel(score.Value),
					NumericValue: score.Value,
					WeightScore:  weight,
					Confidence:   score.Confidence,
					Source:       prov.Source,
					CreatedAt:    now,
					UpdatedAt:    now,
				},
				domain.Signal{
					ID:           uuid.New(),
					CommentID:    comment.ID,
					SubjectID:    &subjectID,
					Type:         domain.SignalEmotion,
					Label:        domain.EmotionLabel(score.Value),
					NumericValue: score.Value,
					WeightScore:  weight,
					Confidence:   score.Confidence,
					Source:       prov.Source,
					CreatedAt:    now,
					UpdatedAt:    now,
				},
			)
		}
	}

	for _, m := range mentions {
		handleCandidate(m)
	}
	for name := range prov.PerSubject {
		handleCandidate(name)
	}
	for _, name := range prov.Discovered {
		handleCandidate(name)
	}

	for _, amb := range prov.Ambiguous {
		name := catalog.Normalize(amb.Name)
		if name == "" || !catalog.ValidCandidate(name) {
			continue
		}
		result.Review = append(result.Review, domain.ReviewQueueItem{
			ID:          uuid.New(),
			CommentID:   comment.ID,
			MentionText: name,
			Context:     snippet(comment.Body),
			Confidence:  amb.Confidence,
			Reason:      domain.ReasonProviderFlagged,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		e.metrics.IncReviewQueued()
	}

	// Exactly one comment-level signal carries the overall sentiment,
	// regardless of how many subjects resolved.
	result.Signals = append(result.Signals, domain.Signal{
		ID:           uuid.New(),
		CommentID:    comment.ID,
		Type:         domain.SignalSentiment,
		Label:        domain.SentimentLabel(prov.Overall.Value),
		NumericValue: prov.Overall.Value,
		WeightScore:  weight,
		Confidence:   prov.Overall.Confidence,
		Source:       prov.Source,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	// Emotion falls back to comment level when no subject resolved.
	if len(subjectsSignalled) == 0 {
		result.Signals = append(result.Signals, domain.Signal{
			ID:           uuid.New(),
			CommentID:    comment.ID,
			Type:         domain.SignalEmotion,
			Label:        domain.EmotionLabel(prov.Overall.Value),
			NumericValue: prov.Overall.Value,
			WeightScore:  weight,
			Confidence:   prov.Overall.Confidence,
			Source:       prov.Source,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
}

// lookupScore finds the provider's score for a resolved subject. Providers
// key per-subject scores by whatever name they used, so the mention text and
// the subject's own names are all tried.
func lookupScore(prov *sentiment.Result, mention string, subject domain.TrackedSubject) (sentiment.Score, bool) {
	candidates := []string{mention, subject.CanonicalName, subject.DisplayName}
	candidates = append(candidates, subject.Aliases...)

	for _, c := range candidates {
		norm := catalog.Normalize(c)
		for name, score := range prov.PerSubject {
			if catalog.Normalize(name) == norm {
				return score, true
			}
		}
	}
	return sentiment.Score{}, false
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= contextSnippetLen {
		return text
	}
	return string(runes[:contextSnippetLen])
}
