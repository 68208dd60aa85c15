package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/domain"
	"github.com/starwatch/sentiment/internal/pipeline"
	"github.com/starwatch/sentiment/internal/sentiment"
)

type fakeProvider struct {
	result *sentiment.Result
	err    error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Score(_ context.Context, _ sentiment.Request) (*sentiment.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func trackedCatalog() *catalog.Catalog {
	return catalog.Build([]domain.TrackedSubject{
		{ID: 1, DisplayName: "Jane Doe", CanonicalName: "jane doe", Type: domain.SubjectPerson, Aliases: []string{"Janie"}, Active: true},
		{ID: 2, DisplayName: "Jon Roe", CanonicalName: "jon roe", Type: domain.SubjectPerson, Active: true},
	}, nil)
}

func newTestEnricher(provider sentiment.Provider) *pipeline.Enricher {
	return pipeline.NewEnricher(trackedCatalog(), provider, pipeline.EnricherConfig{AutoResolveConfidence: 0.7}, nil, nil)
}

func sentimentSignals(signals []domain.Signal) []domain.Signal {
	var out []domain.Signal
	for _, s := range signals {
		if s.Type == domain.SignalSentiment {
			out = append(out, s)
		}
	}
	return out
}

func subjectSignal(signals []domain.Signal, subjectID int64, signalType domain.SignalType) *domain.Signal {
	for i, s := range signals {
		if s.Type == signalType && s.SubjectID != nil && *s.SubjectID == subjectID {
			return &signals[i]
		}
	}
	return nil
}

func TestEnrich_LowConfidenceRoutesToReviewNotSignal(t *testing.T) {
	provider := &fakeProvider{result: &sentiment.Result{
		Overall:    sentiment.Score{Value: 0.5, Confidence: 0.9},
		PerSubject: map[string]sentiment.Score{"jane doe": {Value: 0.5, Confidence: 0.65}},
		Source:     domain.SourceModel,
	}}
	e := newTestEnricher(provider)

	result := e.Enrich(context.Background(),
		domain.Comment{ID: "c1", PostID: "p1", Body: "jane doe was fine I guess"},
		domain.Post{ID: "p1"})

	if result.State != pipeline.StateWriting {
		t.Fatalf("State = %v, want writing", result.State)
	}
	if got := subjectSignal(result.Signals, 1, domain.SignalSentiment); got != nil {
		t.Errorf("subject signal written at effective confidence 0.65: %+v", got)
	}
	if len(result.Review) != 1 {
		t.Fatalf("Review = %+v, want one item", result.Review)
	}
	item := result.Review[0]
	if item.Reason != domain.ReasonLowConfidence {
		t.Errorf("Reason = %v, want low_confidence", item.Reason)
	}
	if item.Confidence < 0.64 || item.Confidence > 0.66 {
		t.Errorf("Confidence = %v, want ~0.65", item.Confidence)
	}
}

func TestEnrich_UninvolvedSubjectNotScored(t *testing.T) {
	// The comment mentions jane doe; the provider judged jon roe not
	// discussed and returned no score for it.
	provider := &fakeProvider{result: &sentiment.Result{
		Overall:    sentiment.Score{Value: 0.7, Confidence: 0.9},
		PerSubject: map[string]sentiment.Score{"jane doe": {Value: 0.7, Confidence: 0.9}},
		Source:     domain.SourceModel,
	}}
	e := newTestEnricher(provider)

	result := e.Enrich(context.Background(),
		domain.Comment{ID: "c1", PostID: "p1", Body: "jane doe and jon roe were there, jane doe was amazing"},
		domain.Post{ID: "p1"})

	if got := subjectSignal(result.Signals, 2, domain.SignalSentiment); got != nil {
		t.Errorf("uninvolved subject scored: %+v", got)
	}
	if got := subjectSignal(result.Signals, 1, domain.SignalSentiment); got == nil {
		t.Error("discussed subject missing its signal")
	}
}

func TestEnrich_AmbiguousMentionQueuedForReview(t *testing.T) {
	cat := catalog.Build([]domain.TrackedSubject{
		{ID: 2, DisplayName: "Jon Roe", CanonicalName: "jon roe", Type: domain.SubjectPerson, Aliases: []string{"Jon"}, Active: true},
		{ID: 3, DisplayName: "Jon Snow", CanonicalName: "jon snow", Type: domain.SubjectPerson, Aliases: []string{"Jon"}, Active: true},
	}, nil)
	provider := &fakeProvider{result: &sentiment.Result{
		Overall: sentiment.Score{Value: 0.4, Confidence: 0.9},
		Source:  domain.SourceLexicon,
	}}
	e := pipeline.NewEnricher(cat, provider, pipeline.EnricherConfig{AutoResolveConfidence: 0.7}, nil, nil)

	result := e.Enrich(context.Background(),
		domain.Comment{ID: "c1", PostID: "p1", Body: "jon was so good in this"},
		domain.Post{ID: "p1"})

	if len(result.Review) != 1 {
		t.Fatalf("Review = %+v, want one alias-collision item", result.Review)
	}
	item := result.Review[0]
	if item.Reason != domain.ReasonAliasCollision {
		t.Errorf("Reason = %v, want alias_collision", item.Reason)
	}
	if len(item.CandidateSubjectIDs) != 2 {
		t.Errorf("CandidateSubjectIDs = %v, want both candidates", item.CandidateSubjectIDs)
	}
	for _, s := range result.Signals {
		if s.SubjectID != nil {
			t.Errorf("ambiguous mention produced a subject signal: %+v", s)
		}
	}
}

func TestEnrich_DiscoveryDeduplicatedWithinComment(t *testing.T) {
	// The same unknown name arrives via both the discovered list and the
	// per-subject scores; it must register once.
	provider := &fakeProvider{result: &sentiment.Result{
		Overall:    sentiment.Score{Value: 0.6, Confidence: 0.9},
		PerSubject: map[string]sentiment.Score{"rina sawayama": {Value: 0.6, Confidence: 0.9}},
		Discovered: []string{"rina sawayama"},
		Source:     domain.SourceModel,
	}}
	e := newTestEnricher(provider)

	result := e.Enrich(context.Background(),
		domain.Comment{ID: "c1", PostID: "p1", Body: "rina sawayama is everything"},
		domain.Post{ID: "p1"})

	if len(result.Discovered) != 1 {
		t.Fatalf("Discovered = %+v, want exactly one entry", result.Discovered)
	}
	if result.Discovered[0].Name != "rina sawayama" {
		t.Errorf("Discovered name = %q, want rina sawayama", result.Discovered[0].Name)
	}
}

func TestEnrich_GarbageCandidatesDropped(t *testing.T) {
	provider := &fakeProvider{result: &sentiment.Result{
		Overall:    sentiment.Score{Value: 0.2, Confidence: 0.9},
		Discovered: []string{"🔥🔥🔥", "!!", "x", "12345", "the"},
		Source:     domain.SourceModel,
	}}
	e := newTestEnricher(provider)

	result := e.Enrich(context.Background(),
		domain.Comment{ID: "c1", PostID: "p1", Body: "🔥🔥🔥 !!"},
		domain.Post{ID: "p1"})

	if len(result.Discovered) != 0 {
		t.Errorf("Discovered = %+v, want none for garbage candidates", result.Discovered)
	}
	if len(result.Review) != 0 {
		t.Errorf("Review = %+v, want none for garbage candidates", result.Review)
	}
}

func TestEnrich_CommentLevelSignalAlwaysWritten(t *testing.T) {
	provider := &fakeProvider{result: &sentiment.Result{
		Overall: sentiment.Score{Value: -0.3, Confidence: 0.8},
		Source:  domain.SourceLexicon,
	}}
	e := newTestEnricher(provider)

	result := e.Enrich(context.Background(),
		domain.Comment{ID: "c1", PostID: "p1", Body: "that was rough", Likes: 150},
		domain.Post{ID: "p1"})

	sentiments := sentimentSignals(result.Signals)
	if len(sentiments) != 1 {
		t.Fatalf("sentiment signals = %d, want exactly one comment-level", len(sentiments))
	}
	s := sentiments[0]
	if s.SubjectID != nil {
		t.Error("comment-level signal must have nil subject id")
	}
	if s.WeightScore != 2.5 {
		t.Errorf("WeightScore = %v, want 2.5 for 150 likes", s.WeightScore)
	}

	// Emotion falls back to comment level when nothing resolved.
	foundEmotion := false
	for _, sig := range result.Signals {
		if sig.Type == domain.SignalEmotion && sig.SubjectID == nil {
			foundEmotion = true
		}
	}
	if !foundEmotion {
		t.Error("expected comment-level emotion fallback")
	}
}

func TestEnrich_ProviderErrorFailsComment(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model API returned 429 Too Many Requests")}
	e := newTestEnricher(provider)

	result := e.Enrich(context.Background(),
		domain.Comment{ID: "c1", PostID: "p1", Body: "anything"},
		domain.Post{ID: "p1"})

	if result.State != pipeline.StateFailed {
		t.Fatalf("State = %v, want failed", result.State)
	}
	if result.ErrorCode != domain.ErrorCodeProviderRateLimited {
		t.Errorf("ErrorCode = %v, want rate limited", result.ErrorCode)
	}
	if len(result.Signals) != 0 {
		t.Errorf("failed comment produced signals: %+v", result.Signals)
	}
}

func TestEnrich_EndToEndWithLexicon(t *testing.T) {
	e := pipeline.NewEnricher(trackedCatalog(), sentiment.NewLexicon(nil),
		pipeline.EnricherConfig{AutoResolveConfidence: 0.7}, nil, nil)

	result := e.Enrich(context.Background(),
		domain.Comment{ID: "c1", PostID: "p1", Body: "I love Jane Doe but hate Jon Roe!!", Likes: 0},
		domain.Post{ID: "p1"})

	if result.State != pipeline.StateWriting {
		t.Fatalf("State = %v, want writing (err=%v)", result.State, result.Err)
	}

	sentiments := sentimentSignals(result.Signals)
	if len(sentiments) != 3 {
		t.Fatalf("sentiment signals = %d, want 3 (comment-level, jane doe, jon roe)", len(sentiments))
	}

	jane := subjectSignal(result.Signals, 1, domain.SignalSentiment)
	if jane == nil || jane.NumericValue <= 0.3 {
		t.Errorf("jane doe signal = %+v, want numeric value > 0.3", jane)
	}
	jon := subjectSignal(result.Signals, 2, domain.SignalSentiment)
	if jon == nil || jon.NumericValue >= -0.3 {
		t.Errorf("jon roe signal = %+v, want numeric value < -0.3", jon)
	}

	var commentLevel *domain.Signal
	for i, s := range sentiments {
		if s.SubjectID == nil {
			commentLevel = &sentiments[i]
		}
	}
	if commentLevel == nil {
		t.Fatal("missing comment-level signal")
	}
	if commentLevel.WeightScore != 1.0 {
		t.Errorf("WeightScore = %v, want 1.0 for 0 likes", commentLevel.WeightScore)
	}

	if subjectSignal(result.Signals, 1, domain.SignalEmotion) == nil {
		t.Error("jane doe missing emotion signal")
	}
	if subjectSignal(result.Signals, 2, domain.SignalEmotion) == nil {
		t.Error("jon roe missing emotion signal")
	}
}
