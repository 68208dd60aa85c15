// Package analytics computes rankings, weighted sentiment, and velocity over
// stored signal rows.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/domain"
	"github.com/starwatch/sentiment/internal/logger"
)

// SignalRow is one sentiment signal as the engine consumes it.
type SignalRow struct {
	CommentID string    `db:"comment_id"`
	Value     float64   `db:"numeric_value"`
	Weight    float64   `db:"weight_score"`
	Label     string    `db:"label"`
	CreatedAt time.Time `db:"created_at"`
}

// SubjectMentions pairs a subject with its distinct-comment mention count.
type SubjectMentions struct {
	SubjectID   int64  `db:"subject_id"   json:"subject_id"`
	DisplayName string `db:"display_name" json:"display_name"`
	Mentions    int64  `db:"mentions"     json:"mentions"`
}

// Store supplies signal rows and mention counts from persistent storage.
type Store interface {
	// SubjectMentionCounts ranks subjects by distinct-comment mention count
	// within the window, optionally filtered by subject type.
	SubjectMentionCounts(ctx context.Context, from, to time.Time, subjectType string, limit int) ([]SubjectMentions, error)

	// PostSubjectMentionCounts ranks subjects mentioned in one post's comments.
	PostSubjectMentionCounts(ctx context.Context, postID string) ([]SubjectMentions, error)

	// PostCaption returns the caption of a post.
	PostCaption(ctx context.Context, postID string) (string, error)

	// SentimentRows returns a subject's sentiment signals within the window.
	SentimentRows(ctx context.Context, subjectID int64, from, to time.Time) ([]SignalRow, error)
}

// WeightedSentiment is an engagement-weighted average over a window.
type WeightedSentiment struct {
	SubjectID    int64   `json:"subject_id"`
	Value        float64 `json:"value"`
	Label        string  `json:"label"`
	CommentCount int     `json:"comment_count"`
	TotalWeight  float64 `json:"total_weight"`
}

// Velocity reports the relative change in mean sentiment between two
// comparable windows. PercentChange is nil when the previous window's mean is
// zero; the change is then directional only.
type Velocity struct {
	SubjectID        int64    `json:"subject_id"`
	Recent           float64  `json:"recent"`
	Previous         float64  `json:"previous"`
	RecentCount      int      `json:"recent_count"`
	PreviousCount    int      `json:"previous_count"`
	PercentChange    *float64 `json:"percent_change,omitempty"`
	Direction        string   `json:"direction"`
	Alert            bool     `json:"alert"`
	InsufficientData bool     `json:"insufficient_data"`
}

// Direction values for Velocity.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

// TimeSeriesPoint is one bucket of a sentiment time series.
type TimeSeriesPoint struct {
	Start        time.Time `json:"start"`
	Value        float64   `json:"value"`
	CommentCount int       `json:"comment_count"`
}

// Distribution counts a subject's signals by label.
type Distribution struct {
	SubjectID int64 `json:"subject_id"`
	Positive  int   `json:"positive"`
	Neutral   int   `json:"neutral"`
	Negative  int   `json:"negative"`
	Total     int   `json:"total"`
}

// Config tunes the engine's alerting thresholds.
type Config struct {
	// AlertPercent fires an alert when |percent_change| strictly exceeds it.
	AlertPercent float64
	// MinSampleSize is the minimum comments per window for velocity.
	MinSampleSize int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{AlertPercent: 30.0, MinSampleSize: 10}
}

// Engine answers analytics queries over the signal store.
type Engine struct {
	store Store
	cfg   Config
	log   logger.Logger
	now   func() time.Time
}

// New builds an analytics engine.
func New(store Store, cfg Config, log logger.Logger) *Engine {
	if cfg.AlertPercent == 0 {
		cfg.AlertPercent = DefaultConfig().AlertPercent
	}
	if cfg.MinSampleSize == 0 {
		cfg.MinSampleSize = DefaultConfig().MinSampleSize
	}
	return &Engine{store: store, cfg: cfg, log: log, now: time.Now}
}

// TopSubjects ranks subjects by distinct-comment mention count within the
// window. Zero rows yield an empty slice, not an error.
func (e *Engine) TopSubjects(ctx context.Context, from, to time.Time, subjectType string, limit int) ([]SubjectMentions, error) {
	rows, err := e.store.SubjectMentionCounts(ctx, from, to, subjectType, limit)
	if err != nil {
		return nil, fmt.Errorf("subject mention counts: %w", err)
	}
	if rows == nil {
		rows = []SubjectMentions{}
	}
	return rows, nil
}

// TopSubjectForPost picks the most relevant subject for one post. A caption
// that names a tracked subject takes precedence over raw mention count, which
// can surface an unrelated high-volume topic. Returns nil when neither the
// caption nor the comments yield a subject.
func (e *Engine) TopSubjectForPost(ctx context.Context, cat *catalog.Catalog, postID string) (*SubjectMentions, error) {
	caption, err := e.store.PostCaption(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("post caption: %w", err)
	}

	if cat != nil && caption != "" {
		for _, mention := range cat.ExtractMentions(caption) {
			res := cat.Resolve(mention)
			if res.Outcome != catalog.OutcomeResolved {
				continue
			}
			subject, ok := cat.Subject(res.SubjectID)
			if !ok {
				continue
			}
			counts, err := e.store.PostSubjectMentionCounts(ctx, postID)
			if err != nil {
				return nil, fmt.Errorf("post mention counts: %w", err)
			}
			mentions := int64(0)
			for _, c := range counts {
				if c.SubjectID == res.SubjectID {
					mentions = c.Mentions
				}
			}
			return &SubjectMentions{SubjectID: subject.ID, DisplayName: subject.DisplayName, Mentions: mentions}, nil
		}
	}

	counts, err := e.store.PostSubjectMentionCounts(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("post mention counts: %w", err)
	}
	if len(counts) == 0 {
		return nil, nil
	}
	top := counts[0]
	return &top, nil
}

// Sentiment computes the engagement-weighted average sentiment for a subject
// over a window: Σ(value·weight) / Σ(weight).
func (e *Engine) Sentiment(ctx context.Context, subjectID int64, from, to time.Time) (*WeightedSentiment, error) {
	rows, err := e.store.SentimentRows(ctx, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sentiment rows: %w", err)
	}

	value, totalWeight := weightedAverage(rows)
	return &WeightedSentiment{
		SubjectID:    subjectID,
		Value:        value,
		Label:        domain.SentimentLabel(value),
		CommentCount: len(rows),
		TotalWeight:  totalWeight,
	}, nil
}

// ComputeVelocity compares mean sentiment over [now−window, now] against
// [now−2·window, now−window]. Either window below MinSampleSize comments
// yields an explicit insufficient-data result, never an alert.
func (e *Engine) ComputeVelocity(ctx context.Context, subjectID int64, window time.Duration) (*Velocity, error) {
	now := e.now()

	recent, err := e.store.SentimentRows(ctx, subjectID, now.Add(-window), now)
	if err != nil {
		return nil, fmt.Errorf("recent window: %w", err)
	}
	previous, err := e.store.SentimentRows(ctx, subjectID, now.Add(-2*window), now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("previous window: %w", err)
	}

	return e.velocityFrom(subjectID, recent, previous), nil
}

// ComputeWindowVelocity applies the velocity formula to the first half vs the
// second half of one fixed window. Retrospective report semantics, with no
// dependency on the current time.
func (e *Engine) ComputeWindowVelocity(ctx context.Context, subjectID int64, from, to time.Time) (*Velocity, error) {
	mid := from.Add(to.Sub(from) / 2)

	firstHalf, err := e.store.SentimentRows(ctx, subjectID, from, mid)
	if err != nil {
		return nil, fmt.Errorf("first half: %w", err)
	}
	secondHalf, err := e.store.SentimentRows(ctx, subjectID, mid, to)
	if err != nil {
		return nil, fmt.Errorf("second half: %w", err)
	}

	return e.velocityFrom(subjectID, secondHalf, firstHalf), nil
}

func (e *Engine) velocityFrom(subjectID int64, recent, previous []SignalRow) *Velocity {
	v := &Velocity{
		SubjectID:     subjectID,
		RecentCount:   len(recent),
		PreviousCount: len(previous),
		Direction:     DirectionFlat,
	}

	if len(recent) < e.cfg.MinSampleSize || len(previous) < e.cfg.MinSampleSize {
		v.InsufficientData = true
		return v
	}

	v.Recent, _ = weightedAverage(recent)
	v.Previous, _ = weightedAverage(previous)

	switch {
	case v.Recent > v.Previous:
		v.Direction = DirectionUp
	case v.Recent < v.Previous:
		v.Direction = DirectionDown
	}

	if v.Previous == 0 {
		// Directional change only; a percentage would divide by zero.
		return v
	}

	// Percentages are reported to two decimals; rounding before the strict
	// comparison keeps the alert boundary stable under float noise.
	pct := math.Round((v.Recent-v.Previous)/math.Abs(v.Previous)*100*100) / 100
	v.PercentChange = &pct
	v.Alert = math.Abs(pct) > e.cfg.AlertPercent

	return v
}

// TimeSeries buckets a subject's sentiment over [from, to) into fixed
// intervals. Zero-row windows return an empty slice.
func (e *Engine) TimeSeries(ctx context.Context, subjectID int64, from, to time.Time, bucket time.Duration) ([]TimeSeriesPoint, error) {
	if bucket <= 0 {
		bucket = 24 * time.Hour
	}

	rows, err := e.store.SentimentRows(ctx, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sentiment rows: %w", err)
	}

	points := []TimeSeriesPoint{}
	for start := from; start.Before(to); start = start.Add(bucket) {
		end := start.Add(bucket)
		var inBucket []SignalRow
		for _, row := range rows {
			if !row.CreatedAt.Before(start) && row.CreatedAt.Before(end) {
				inBucket = append(inBucket, row)
			}
		}
		if len(inBucket) == 0 {
			continue
		}
		value, _ := weightedAverage(inBucket)
		points = append(points, TimeSeriesPoint{Start: start, Value: value, CommentCount: len(inBucket)})
	}
	return points, nil
}

// LabelDistribution counts a subject's signals by label over a window.
func (e *Engine) LabelDistribution(ctx context.Context, subjectID int64, from, to time.Time) (*Distribution, error) {
	rows, err := e.store.SentimentRows(ctx, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sentiment rows: %w", err)
	}

	dist := &Distribution{SubjectID: subjectID, Total: len(rows)}
	for _, row := range rows {
		switch row.Label {
		case domain.LabelPositive:
			dist.Positive++
		case domain.LabelNegative:
			dist.Negative++
		default:
			dist.Neutral++
		}
	}
	return dist, nil
}

// Compare computes weighted sentiment for several subjects over one window.
// Subjects with no rows appear with zero values rather than being dropped.
func (e *Engine) Compare(ctx context.Context, subjectIDs []int64, from, to time.Time) ([]WeightedSentiment, error) {
	results := make([]WeightedSentiment, 0, len(subjectIDs))
	for _, id := range subjectIDs {
		ws, err := e.Sentiment(ctx, id, from, to)
		if err != nil {
			return nil, err
		}
		results = append(results, *ws)
	}
	return results, nil
}

// weightedAverage returns Σ(value·weight)/Σ(weight) and the total weight.
// This is a true weighted average, not a mean of per-row products.
func weightedAverage(rows []SignalRow) (float64, float64) {
	var weightedSum, totalWeight float64
	for _, row := range rows {
		weight := row.Weight
		if weight <= 0 {
			weight = 1
		}
		weightedSum += weight * row.Value
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0, 0
	}
	return weightedSum / totalWeight, totalWeight
}
