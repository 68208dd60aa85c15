package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/domain"
	"github.com/starwatch/sentiment/internal/logger"
	"github.com/starwatch/sentiment/internal/metrics"
	"github.com/starwatch/sentiment/internal/sentiment"
)

// SubjectSource supplies the tracked-subject catalog state.
type SubjectSource interface {
	ListActive(ctx context.Context) ([]domain.TrackedSubject, error)
}

// CommentSource supplies unenriched comments and their posts.
type CommentSource interface {
	ListUnenriched(ctx context.Context, limit int) ([]domain.Comment, error)
	Post(ctx context.Context, postID string) (*domain.Post, error)
	MarkEnriched(ctx context.Context, commentID string, at time.Time) error
}

// SignalStore persists a comment's signal set atomically.
type SignalStore interface {
	// ReplaceCommentSignals upserts all of the comment's signals in one
	// transaction, keyed by (comment_id, subject_id, signal_type).
	ReplaceCommentSignals(ctx context.Context, commentID string, signals []domain.Signal) error
}

// DiscoveredStore tracks unmatched valid mentions.
type DiscoveredStore interface {
	// Record creates the entry or bumps its mention count by one, appending
	// the context sample up to the store's cap.
	Record(ctx context.Context, name string, inferredType domain.SubjectType, sampleContext string) error
}

// ReviewStore queues low-confidence resolutions.
type ReviewStore interface {
	// Enqueue upserts by (comment_id, mention_text) so re-enrichment does not
	// duplicate pending items.
	Enqueue(ctx context.Context, item domain.ReviewQueueItem) error
}

// FailureStore is the enrichment failure ledger.
type FailureStore interface {
	// Record creates a failure entry or increments the retry state of an
	// existing one.
	Record(ctx context.Context, commentID, postID, message string, code domain.ErrorCode) error

	// Delete clears a comment's ledger entry once it enriches successfully.
	Delete(ctx context.Context, commentID string) error
}

// RunnerConfig tunes batch shape and parallelism.
type RunnerConfig struct {
	BatchSize   int
	Concurrency int
	Enricher    EnricherConfig
}

// Summary reports one batch run. Per-comment failures never abort a batch;
// they surface here with their comment ids logged for replay.
type Summary struct {
	Processed      int           `json:"processed"`
	SignalsWritten int           `json:"signals_written"`
	Discovered     int           `json:"discovered"`
	Queued         int           `json:"queued"`
	Failed         int           `json:"failed"`
	Duration       time.Duration `json:"duration"`
}

// Runner drives batch enrichment: it rebuilds the catalog per run, scores
// comments on a worker pool, and commits each comment's writes atomically.
type Runner struct {
	subjects   SubjectSource
	comments   CommentSource
	signals    SignalStore
	discovered DiscoveredStore
	review     ReviewStore
	failures   FailureStore
	provider   sentiment.Provider
	cfg        RunnerConfig
	metrics    *metrics.Metrics
	log        logger.Logger
}

// NewRunner wires a runner over its stores and provider.
func NewRunner(
	subjects SubjectSource,
	comments CommentSource,
	signals SignalStore,
	discovered DiscoveredStore,
	review ReviewStore,
	failures FailureStore,
	provider sentiment.Provider,
	cfg RunnerConfig,
	m *metrics.Metrics,
	log logger.Logger,
) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Runner{
		subjects:   subjects,
		comments:   comments,
		signals:    signals,
		discovered: discovered,
		review:     review,
		failures:   failures,
		provider:   provider,
		cfg:        cfg,
		metrics:    m,
		log:        log,
	}
}

// RunOnce processes one batch of unenriched comments and returns its summary.
// The alias catalog is rebuilt from current subject state at the start of
// every run.
func (r *Runner) RunOnce(ctx context.Context) (*Summary, error) {
	start := time.Now()

	subjects, err := r.subjects.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active subjects: %w", err)
	}
	cat := catalog.Build(subjects, r.log)
	enricher := NewEnricher(cat, r.provider, r.cfg.Enricher, r.metrics, r.log)

	comments, err := r.comments.ListUnenriched(ctx, r.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list unenriched comments: %w", err)
	}

	summary := &Summary{}
	if len(comments) == 0 {
		summary.Duration = time.Since(start)
		return summary, nil
	}

	if r.log != nil {
		r.log.Info("starting enrichment batch",
			logger.Int("batch_size", len(comments)),
			logger.Int("concurrency", r.cfg.Concurrency),
			logger.Int("catalog_subjects", cat.Size()))
	}

	results := r.scoreAll(ctx, enricher, comments)

	// Writes are serialized: each comment's signal set commits in its own
	// transaction, and batch size only bounds how much work one run takes on.
	for _, result := range results {
		r.commit(ctx, result, summary)
	}

	summary.Duration = time.Since(start)

	if r.log != nil {
		r.log.Info("enrichment batch complete",
			logger.Int("processed", summary.Processed),
			logger.Int("signals", summary.SignalsWritten),
			logger.Int("discovered", summary.Discovered),
			logger.Int("queued", summary.Queued),
			logger.Int("failed", summary.Failed),
			logger.Duration("duration", summary.Duration))
	}

	return summary, nil
}

// scoreAll runs extraction and scoring on a worker pool.
func (r *Runner) scoreAll(ctx context.Context, enricher *Enricher, comments []domain.Comment) []*CommentResult {
	jobs := make(chan domain.Comment, len(comments))
	out := make(chan *CommentResult, len(comments))

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for comment := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				out <- r.scoreOne(ctx, enricher, comment)
			}
		}()
	}

	for _, c := range comments {
		jobs <- c
	}
	close(jobs)
	wg.Wait()
	close(out)

	results := make([]*CommentResult, 0, len(comments))
	for result := range out {
		results = append(results, result)
	}
	return results
}

func (r *Runner) scoreOne(ctx context.Context, enricher *Enricher, comment domain.Comment) *CommentResult {
	post, err := r.comments.Post(ctx, comment.PostID)
	if err != nil {
		return &CommentResult{
			Comment:   comment,
			State:     StateFailed,
			Err:       fmt.Errorf("load post %s: %w", comment.PostID, err),
			ErrorCode: domain.ClassifyError(err),
		}
	}
	return enricher.Enrich(ctx, comment, *post)
}

// commit writes one comment's outcome. A failure here marks the comment
// FAILED in the ledger and the batch continues.
func (r *Runner) commit(ctx context.Context, result *CommentResult, summary *Summary) {
	comment := result.Comment

	if result.State == StateFailed {
		r.recordFailure(ctx, result, summary)
		return
	}

	if err := r.signals.ReplaceCommentSignals(ctx, comment.ID, result.Signals); err != nil {
		result.State = StateFailed
		result.Err = fmt.Errorf("write signals for comment %s: %w", comment.ID, err)
		result.ErrorCode = domain.ErrorCodeStorage
		r.recordFailure(ctx, result, summary)
		return
	}

	for _, d := range result.Discovered {
		if err := r.discovered.Record(ctx, d.Name, d.InferredType, d.Context); err != nil && r.log != nil {
			r.log.Warn("record discovered subject",
				logger.String("name", d.Name),
				logger.String("comment_id", comment.ID),
				logger.Error(err))
		}
	}

	for _, item := range result.Review {
		if err := r.review.Enqueue(ctx, item); err != nil && r.log != nil {
			r.log.Warn("enqueue review item",
				logger.String("mention", item.MentionText),
				logger.String("comment_id", comment.ID),
				logger.Error(err))
		}
	}

	if err := r.comments.MarkEnriched(ctx, comment.ID, time.Now()); err != nil && r.log != nil {
		r.log.Warn("mark comment enriched",
			logger.String("comment_id", comment.ID),
			logger.Error(err))
	}

	// Retried comments re-enter through the regular unenriched query once
	// their backoff elapses, so success must clear the ledger entry.
	if err := r.failures.Delete(ctx, comment.ID); err != nil && r.log != nil {
		r.log.Warn("clear enrichment failure",
			logger.String("comment_id", comment.ID),
			logger.Error(err))
	}

	result.State = StateDone
	summary.Processed++
	summary.SignalsWritten += len(result.Signals)
	summary.Discovered += len(result.Discovered)
	summary.Queued += len(result.Review)
	r.metrics.IncCommentsProcessed()
	r.metrics.AddSignalsWritten(len(result.Signals))
}

func (r *Runner) recordFailure(ctx context.Context, result *CommentResult, summary *Summary) {
	comment := result.Comment
	summary.Failed++
	r.metrics.IncCommentsFailed()

	message := ""
	if result.Err != nil {
		message = result.Err.Error()
	}

	if r.log != nil {
		r.log.Error("comment enrichment failed",
			logger.String("comment_id", comment.ID),
			logger.String("post_id", comment.PostID),
			logger.String("error_code", string(result.ErrorCode)),
			logger.Error(result.Err))
	}

	if err := r.failures.Record(ctx, comment.ID, comment.PostID, message, result.ErrorCode); err != nil && r.log != nil {
		r.log.Error("record enrichment failure",
			logger.String("comment_id", comment.ID),
			logger.Error(err))
	}
}
