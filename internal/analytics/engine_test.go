package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/starwatch/sentiment/internal/analytics"
	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/domain"
)

// fakeStore serves canned rows. SentimentRows consumes rowsByCall in order,
// which lets velocity tests hand back distinct windows.
type fakeStore struct {
	mentionCounts []analytics.SubjectMentions
	postCounts    []analytics.SubjectMentions
	caption       string
	rowsByCall    [][]analytics.SignalRow
	calls         int
}

func (f *fakeStore) SubjectMentionCounts(_ context.Context, _, _ time.Time, _ string, _ int) ([]analytics.SubjectMentions, error) {
	return f.mentionCounts, nil
}

func (f *fakeStore) PostSubjectMentionCounts(_ context.Context, _ string) ([]analytics.SubjectMentions, error) {
	return f.postCounts, nil
}

func (f *fakeStore) PostCaption(_ context.Context, _ string) (string, error) {
	return f.caption, nil
}

func (f *fakeStore) SentimentRows(_ context.Context, _ int64, _, _ time.Time) ([]analytics.SignalRow, error) {
	if f.calls >= len(f.rowsByCall) {
		return nil, nil
	}
	rows := f.rowsByCall[f.calls]
	f.calls++
	return rows, nil
}

func uniformRows(n int, value, weight float64) []analytics.SignalRow {
	rows := make([]analytics.SignalRow, n)
	for i := range rows {
		rows[i] = analytics.SignalRow{Value: value, Weight: weight, Label: domain.SentimentLabel(value)}
	}
	return rows
}

func newEngine(store *fakeStore) *analytics.Engine {
	return analytics.New(store, analytics.Config{AlertPercent: 30.0, MinSampleSize: 10}, nil)
}

func TestSentiment_TrueWeightedAverage(t *testing.T) {
	store := &fakeStore{rowsByCall: [][]analytics.SignalRow{{
		{Value: 0.8, Weight: 2},
		{Value: -0.4, Weight: 1},
	}}}

	got, err := newEngine(store).Sentiment(context.Background(), 1, time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("Sentiment() error = %v", err)
	}

	// (0.8·2 + (−0.4)·1) / (2+1) = 0.4 exactly.
	if got.Value != 0.4 {
		t.Errorf("Value = %v, want exactly 0.4", got.Value)
	}
	if got.CommentCount != 2 {
		t.Errorf("CommentCount = %d, want 2", got.CommentCount)
	}
	if got.Label != domain.LabelPositive {
		t.Errorf("Label = %q, want positive", got.Label)
	}
}

func TestSentiment_EmptyWindow(t *testing.T) {
	store := &fakeStore{}

	got, err := newEngine(store).Sentiment(context.Background(), 1, time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("Sentiment() error = %v", err)
	}
	if got.Value != 0 || got.CommentCount != 0 || got.TotalWeight != 0 {
		t.Errorf("empty window should yield zero values, got %+v", got)
	}
}

func TestComputeVelocity_InsufficientData(t *testing.T) {
	store := &fakeStore{rowsByCall: [][]analytics.SignalRow{
		uniformRows(5, 0.9, 1),  // recent: below min sample
		uniformRows(20, 0.1, 1), // previous
	}}

	got, err := newEngine(store).ComputeVelocity(context.Background(), 1, 72*time.Hour)
	if err != nil {
		t.Fatalf("ComputeVelocity() error = %v", err)
	}

	if !got.InsufficientData {
		t.Error("expected InsufficientData")
	}
	if got.Alert {
		t.Error("insufficient data must never alert")
	}
	if got.PercentChange != nil {
		t.Errorf("PercentChange = %v, want nil", *got.PercentChange)
	}
}

func TestComputeVelocity_AlertBoundary(t *testing.T) {
	tests := []struct {
		name      string
		recent    float64
		wantPct   float64
		wantAlert bool
	}{
		{name: "exactly 30 does not alert", recent: 0.65, wantPct: 30.0, wantAlert: false},
		{name: "30.01 alerts", recent: 0.65005, wantPct: 30.01, wantAlert: true},
		{name: "drop beyond threshold alerts", recent: 0.3, wantPct: -40.0, wantAlert: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{rowsByCall: [][]analytics.SignalRow{
				uniformRows(10, tt.recent, 1),
				uniformRows(10, 0.5, 1),
			}}

			got, err := newEngine(store).ComputeVelocity(context.Background(), 1, 72*time.Hour)
			if err != nil {
				t.Fatalf("ComputeVelocity() error = %v", err)
			}
			if got.PercentChange == nil {
				t.Fatal("PercentChange = nil, want a value")
			}
			if *got.PercentChange != tt.wantPct {
				t.Errorf("PercentChange = %v, want %v", *got.PercentChange, tt.wantPct)
			}
			if got.Alert != tt.wantAlert {
				t.Errorf("Alert = %v, want %v", got.Alert, tt.wantAlert)
			}
		})
	}
}

func TestComputeVelocity_ZeroPreviousIsDirectional(t *testing.T) {
	store := &fakeStore{rowsByCall: [][]analytics.SignalRow{
		uniformRows(10, 0.4, 1),
		uniformRows(10, 0, 1),
	}}

	got, err := newEngine(store).ComputeVelocity(context.Background(), 1, 72*time.Hour)
	if err != nil {
		t.Fatalf("ComputeVelocity() error = %v", err)
	}

	if got.PercentChange != nil {
		t.Errorf("PercentChange = %v, want nil when previous mean is zero", *got.PercentChange)
	}
	if got.Direction != analytics.DirectionUp {
		t.Errorf("Direction = %q, want up", got.Direction)
	}
	if got.Alert {
		t.Error("directional-only change must not alert")
	}
}

func TestComputeWindowVelocity_HalvesOfOneWindow(t *testing.T) {
	store := &fakeStore{rowsByCall: [][]analytics.SignalRow{
		uniformRows(10, 0.5, 1), // first half
		uniformRows(10, 0.75, 1), // second half
	}}

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)

	got, err := newEngine(store).ComputeWindowVelocity(context.Background(), 1, from, to)
	if err != nil {
		t.Fatalf("ComputeWindowVelocity() error = %v", err)
	}

	if got.PercentChange == nil || *got.PercentChange != 50.0 {
		t.Fatalf("PercentChange = %v, want 50", got.PercentChange)
	}
	if !got.Alert {
		t.Error("expected alert at 50 percent change")
	}
}

func TestTopSubjects_EmptyResult(t *testing.T) {
	store := &fakeStore{}

	got, err := newEngine(store).TopSubjects(context.Background(), time.Time{}, time.Now(), "", 10)
	if err != nil {
		t.Fatalf("TopSubjects() error = %v", err)
	}
	if got == nil {
		t.Fatal("TopSubjects() = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("TopSubjects() = %v, want empty", got)
	}
}

func TestTopSubjectForPost_CaptionPrecedence(t *testing.T) {
	cat := catalog.Build([]domain.TrackedSubject{
		{ID: 1, DisplayName: "Jane Doe", CanonicalName: "jane doe", Type: domain.SubjectPerson, Active: true},
		{ID: 2, DisplayName: "Jon Roe", CanonicalName: "jon roe", Type: domain.SubjectPerson, Active: true},
	}, nil)

	store := &fakeStore{
		caption: "Jane Doe behind the scenes",
		postCounts: []analytics.SubjectMentions{
			{SubjectID: 2, DisplayName: "Jon Roe", Mentions: 40},
			{SubjectID: 1, DisplayName: "Jane Doe", Mentions: 3},
		},
	}

	got, err := newEngine(store).TopSubjectForPost(context.Background(), cat, "post-1")
	if err != nil {
		t.Fatalf("TopSubjectForPost() error = %v", err)
	}
	if got == nil || got.SubjectID != 1 {
		t.Fatalf("TopSubjectForPost() = %+v, want caption subject 1 over higher-volume subject 2", got)
	}
	if got.Mentions != 3 {
		t.Errorf("Mentions = %d, want 3", got.Mentions)
	}
}

func TestTopSubjectForPost_FallsBackToMentionCount(t *testing.T) {
	cat := catalog.Build([]domain.TrackedSubject{
		{ID: 1, DisplayName: "Jane Doe", CanonicalName: "jane doe", Type: domain.SubjectPerson, Active: true},
	}, nil)

	store := &fakeStore{
		caption: "behind the scenes, day 3",
		postCounts: []analytics.SubjectMentions{
			{SubjectID: 1, DisplayName: "Jane Doe", Mentions: 12},
		},
	}

	got, err := newEngine(store).TopSubjectForPost(context.Background(), cat, "post-1")
	if err != nil {
		t.Fatalf("TopSubjectForPost() error = %v", err)
	}
	if got == nil || got.SubjectID != 1 || got.Mentions != 12 {
		t.Fatalf("TopSubjectForPost() = %+v, want mention-count fallback to subject 1", got)
	}
}

func TestTopSubjectForPost_NoSubjects(t *testing.T) {
	store := &fakeStore{caption: "just vibes"}

	got, err := newEngine(store).TopSubjectForPost(context.Background(), nil, "post-1")
	if err != nil {
		t.Fatalf("TopSubjectForPost() error = %v", err)
	}
	if got != nil {
		t.Errorf("TopSubjectForPost() = %+v, want nil", got)
	}
}

func TestLabelDistribution(t *testing.T) {
	store := &fakeStore{rowsByCall: [][]analytics.SignalRow{{
		{Value: 0.8, Weight: 1, Label: domain.LabelPositive},
		{Value: 0.6, Weight: 1, Label: domain.LabelPositive},
		{Value: 0, Weight: 1, Label: domain.LabelNeutral},
		{Value: -0.7, Weight: 1, Label: domain.LabelNegative},
	}}}

	got, err := newEngine(store).LabelDistribution(context.Background(), 1, time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("LabelDistribution() error = %v", err)
	}
	if got.Positive != 2 || got.Neutral != 1 || got.Negative != 1 || got.Total != 4 {
		t.Errorf("LabelDistribution() = %+v, want 2/1/1 of 4", got)
	}
}

func TestTimeSeries_BucketsAndEmptyWindow(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{rowsByCall: [][]analytics.SignalRow{{
		{Value: 0.5, Weight: 1, CreatedAt: base.Add(time.Hour)},
		{Value: 0.7, Weight: 1, CreatedAt: base.Add(2 * time.Hour)},
		{Value: -0.2, Weight: 1, CreatedAt: base.Add(25 * time.Hour)},
	}}}

	points, err := newEngine(store).TimeSeries(context.Background(), 1, base, base.Add(72*time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("TimeSeries() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("TimeSeries() = %d points, want 2 (empty buckets skipped)", len(points))
	}
	if points[0].CommentCount != 2 || points[1].CommentCount != 1 {
		t.Errorf("bucket counts = %d/%d, want 2/1", points[0].CommentCount, points[1].CommentCount)
	}

	empty, err := newEngine(&fakeStore{}).TimeSeries(context.Background(), 1, base, base.Add(24*time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("TimeSeries() empty error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("TimeSeries() empty = %v, want empty slice", empty)
	}
}
