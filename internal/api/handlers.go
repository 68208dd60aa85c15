// Package api exposes the HTTP surface: catalog administration, enrichment
// control, analytics queries, and the review and discovery workflows.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/starwatch/sentiment/internal/analytics"
	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/database"
	"github.com/starwatch/sentiment/internal/domain"
	"github.com/starwatch/sentiment/internal/logger"
	"github.com/starwatch/sentiment/internal/pipeline"
)

// SubjectStore is the catalog administration surface.
type SubjectStore interface {
	Create(ctx context.Context, subject *domain.TrackedSubject) error
	GetByID(ctx context.Context, id int64) (*domain.TrackedSubject, error)
	List(ctx context.Context, includeInactive bool) ([]domain.TrackedSubject, error)
	ListActive(ctx context.Context) ([]domain.TrackedSubject, error)
	Update(ctx context.Context, subject *domain.TrackedSubject) error
	AddAlias(ctx context.Context, id int64, alias string) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// CommentStore is the slice of comment state the API touches.
type CommentStore interface {
	ClearEnriched(ctx context.Context, commentID string) error
	CountUnenriched(ctx context.Context) (int64, error)
}

// ReviewStore is the review-queue adjudication surface.
type ReviewStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.ReviewQueueItem, error)
	Resolve(ctx context.Context, id uuid.UUID, subjectID int64) error
	Reject(ctx context.Context, id uuid.UUID) error
	CommentID(ctx context.Context, id uuid.UUID) (string, error)
}

// DiscoveredStore is the discovery triage surface.
type DiscoveredStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.DiscoveredSubject, error)
	MarkReviewed(ctx context.Context, id int64) error
	Cleanup(ctx context.Context, minMentions int, lastSeenBefore time.Time) (int64, error)
}

// FailureStore reports on the enrichment dead-letter ledger.
type FailureStore interface {
	Stats(ctx context.Context) (*database.FailureStats, error)
	CountByErrorCode(ctx context.Context) (map[domain.ErrorCode]int64, error)
	ListRetryable(ctx context.Context, limit int) ([]domain.EnrichmentFailure, error)
	CleanupExhausted(ctx context.Context, olderThan time.Duration) (int64, error)
}

// EnrichmentRunner triggers a batch run on demand.
type EnrichmentRunner interface {
	RunOnce(ctx context.Context) (*pipeline.Summary, error)
}

// AnalyticsEngine is the query surface of the analytics package.
type AnalyticsEngine interface {
	TopSubjects(ctx context.Context, from, to time.Time, subjectType string, limit int) ([]analytics.SubjectMentions, error)
	TopSubjectForPost(ctx context.Context, cat *catalog.Catalog, postID string) (*analytics.SubjectMentions, error)
	Sentiment(ctx context.Context, subjectID int64, from, to time.Time) (*analytics.WeightedSentiment, error)
	ComputeVelocity(ctx context.Context, subjectID int64, window time.Duration) (*analytics.Velocity, error)
	ComputeWindowVelocity(ctx context.Context, subjectID int64, from, to time.Time) (*analytics.Velocity, error)
	TimeSeries(ctx context.Context, subjectID int64, from, to time.Time, bucket time.Duration) ([]analytics.TimeSeriesPoint, error)
	LabelDistribution(ctx context.Context, subjectID int64, from, to time.Time) (*analytics.Distribution, error)
	Compare(ctx context.Context, subjectIDs []int64, from, to time.Time) ([]analytics.WeightedSentiment, error)
}

// Pinger reports database liveness for the readiness check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler handles HTTP requests for the sentiment API.
type Handler struct {
	subjects   SubjectStore
	comments   CommentStore
	reviews    ReviewStore
	discovered DiscoveredStore
	failures   FailureStore
	runner     EnrichmentRunner
	engine     AnalyticsEngine
	db         Pinger
	log        logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	subjects SubjectStore,
	comments CommentStore,
	reviews ReviewStore,
	discovered DiscoveredStore,
	failures FailureStore,
	runner EnrichmentRunner,
	engine AnalyticsEngine,
	db Pinger,
	log logger.Logger,
) *Handler {
	return &Handler{
		subjects:   subjects,
		comments:   comments,
		reviews:    reviews,
		discovered: discovered,
		failures:   failures,
		runner:     runner,
		engine:     engine,
		db:         db,
		log:        log,
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sentiment",
	})
}

// ReadyCheck handles GET /ready.
func (h *Handler) ReadyCheck(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"checks": gin.H{"postgresql": err.Error()},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": gin.H{"postgresql": "ok"},
	})
}

// ListSubjects handles GET /api/v1/subjects.
func (h *Handler) ListSubjects(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	subjects, err := h.subjects.List(c.Request.Context(), includeInactive)
	if err != nil {
		h.log.Error("Failed to list subjects", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list subjects"})
		return
	}

	c.JSON(http.StatusOK, SubjectsListResponse{Subjects: subjects, Total: len(subjects)})
}

// GetSubject handles GET /api/v1/subjects/:id.
func (h *Handler) GetSubject(c *gin.Context) {
	id, ok := h.subjectID(c)
	if !ok {
		return
	}

	subject, err := h.subjects.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subject not found"})
			return
		}
		h.log.Error("Failed to get subject", logger.Int64("subject_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get subject"})
		return
	}

	c.JSON(http.StatusOK, subject)
}

// CreateSubject handles POST /api/v1/subjects.
func (h *Handler) CreateSubject(c *gin.Context) {
	var req CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject := req.toSubject()
	if !catalog.ValidCandidate(subject.CanonicalName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "canonical_name is not a usable match candidate"})
		return
	}

	if err := h.subjects.Create(c.Request.Context(), subject); err != nil {
		h.log.Error("Failed to create subject", logger.String("display_name", req.DisplayName), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subject"})
		return
	}

	h.log.Info("Subject created",
		logger.Int64("subject_id", subject.ID),
		logger.String("display_name", subject.DisplayName),
	)

	c.JSON(http.StatusCreated, subject)
}

// SeedSubjects handles POST /api/v1/subjects/seed, bulk-loading a catalog.
func (h *Handler) SeedSubjects(c *gin.Context) {
	var req SeedSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created := 0
	for i := range req.Subjects {
		subject := req.Subjects[i].toSubject()
		if !catalog.ValidCandidate(subject.CanonicalName) {
			continue
		}
		if err := h.subjects.Create(c.Request.Context(), subject); err != nil {
			h.log.Warn("Failed to seed subject",
				logger.String("display_name", subject.DisplayName),
				logger.Error(err),
			)
			continue
		}
		created++
	}

	h.log.Info("Catalog seeded", logger.Int("created", created), logger.Int("requested", len(req.Subjects)))

	c.JSON(http.StatusOK, gin.H{"created": created, "requested": len(req.Subjects)})
}

// UpdateSubject handles PUT /api/v1/subjects/:id.
func (h *Handler) UpdateSubject(c *gin.Context) {
	id, ok := h.subjectID(c)
	if !ok {
		return
	}

	var req UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject, err := h.subjects.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subject not found"})
			return
		}
		h.log.Error("Failed to load subject for update", logger.Int64("subject_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update subject"})
		return
	}

	req.apply(subject)

	if err := h.subjects.Update(c.Request.Context(), subject); err != nil {
		h.log.Error("Failed to update subject", logger.Int64("subject_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update subject"})
		return
	}

	c.JSON(http.StatusOK, subject)
}

// DeactivateSubject handles DELETE /api/v1/subjects/:id. Subjects are never
// removed, only excluded from future catalog builds.
func (h *Handler) DeactivateSubject(c *gin.Context) {
	id, ok := h.subjectID(c)
	if !ok {
		return
	}

	if err := h.subjects.SetActive(c.Request.Context(), id, false); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subject not found"})
			return
		}
		h.log.Error("Failed to deactivate subject", logger.Int64("subject_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate subject"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subject_id": id, "active": false})
}

// RunEnrichment handles POST /api/v1/enrich/run.
func (h *Handler) RunEnrichment(c *gin.Context) {
	summary, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		h.log.Error("Enrichment run failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// EnrichmentStatus handles GET /api/v1/enrich/status.
func (h *Handler) EnrichmentStatus(c *gin.Context) {
	backlog, err := h.comments.CountUnenriched(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to count backlog", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count backlog"})
		return
	}

	stats, err := h.failures.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to get failure stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get failure stats"})
		return
	}

	byCode, err := h.failures.CountByErrorCode(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to get failure codes", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get failure codes"})
		return
	}

	c.JSON(http.StatusOK, EnrichmentStatusResponse{
		Backlog:  backlog,
		Failures: *stats,
		ByCode:   byCode,
	})
}

// ListFailures handles GET /api/v1/enrich/failures.
func (h *Handler) ListFailures(c *gin.Context) {
	limit := intQuery(c, "limit", defaultListLimit)

	failures, err := h.failures.ListRetryable(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Failed to list retryable failures", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list retryable failures"})
		return
	}

	c.JSON(http.StatusOK, FailuresListResponse{
		Failures: failures,
		Count:    len(failures),
	})
}

// CleanupFailures handles POST /api/v1/enrich/failures/cleanup. It prunes
// entries that exhausted their retries long enough ago to be noise.
func (h *Handler) CleanupFailures(c *gin.Context) {
	var req CleanupFailuresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := h.failures.CleanupExhausted(c.Request.Context(), time.Duration(req.OlderThanHours)*time.Hour)
	if err != nil {
		h.log.Error("Failed to cleanup failures", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cleanup failures"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ListReviewQueue handles GET /api/v1/review.
func (h *Handler) ListReviewQueue(c *gin.Context) {
	limit := intQuery(c, "limit", defaultListLimit)

	items, err := h.reviews.ListPending(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Failed to list review queue", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list review queue"})
		return
	}

	c.JSON(http.StatusOK, ReviewListResponse{Items: items, Total: len(items)})
}

// ResolveReviewItem handles POST /api/v1/review/:id/resolve. The mention is
// added as an alias of the assigned subject and the comment is reset so the
// next run re-enriches it with the decision applied.
func (h *Handler) ResolveReviewItem(c *gin.Context) {
	id, ok := h.reviewID(c)
	if !ok {
		return
	}

	var req ResolveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	commentID, err := h.reviews.CommentID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "review item not found"})
		return
	}

	if err := h.reviews.Resolve(ctx, id, req.SubjectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "review item not found or already reviewed"})
			return
		}
		h.log.Error("Failed to resolve review item", logger.String("review_id", id.String()), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve review item"})
		return
	}

	if req.AddAlias != "" {
		if aliasErr := h.subjects.AddAlias(ctx, req.SubjectID, catalog.Normalize(req.AddAlias)); aliasErr != nil {
			h.log.Warn("Failed to add alias from review",
				logger.Int64("subject_id", req.SubjectID),
				logger.String("alias", req.AddAlias),
				logger.Error(aliasErr),
			)
		}
	}

	if clearErr := h.comments.ClearEnriched(ctx, commentID); clearErr != nil {
		h.log.Warn("Failed to reset comment for re-enrichment",
			logger.String("comment_id", commentID),
			logger.Error(clearErr),
		)
	}

	h.log.Info("Review item resolved",
		logger.String("review_id", id.String()),
		logger.Int64("subject_id", req.SubjectID),
	)

	c.JSON(http.StatusOK, gin.H{"review_id": id, "subject_id": req.SubjectID, "comment_id": commentID})
}

// RejectReviewItem handles POST /api/v1/review/:id/reject.
func (h *Handler) RejectReviewItem(c *gin.Context) {
	id, ok := h.reviewID(c)
	if !ok {
		return
	}

	if err := h.reviews.Reject(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "review item not found or already reviewed"})
			return
		}
		h.log.Error("Failed to reject review item", logger.String("review_id", id.String()), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject review item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"review_id": id, "rejected": true})
}

// ListDiscovered handles GET /api/v1/discovered.
func (h *Handler) ListDiscovered(c *gin.Context) {
	limit := intQuery(c, "limit", defaultListLimit)

	found, err := h.discovered.ListPending(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Failed to list discovered subjects", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list discovered subjects"})
		return
	}

	c.JSON(http.StatusOK, DiscoveredListResponse{Discovered: found, Total: len(found)})
}

// PromoteDiscovered handles POST /api/v1/discovered/:id/promote, creating a
// tracked subject from a discovery and marking it reviewed.
func (h *Handler) PromoteDiscovered(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid discovery id"})
		return
	}

	var req PromoteDiscoveredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject := req.toSubject()
	ctx := c.Request.Context()

	if err := h.subjects.Create(ctx, subject); err != nil {
		h.log.Error("Failed to promote discovery", logger.Int64("discovery_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to promote discovery"})
		return
	}

	if err := h.discovered.MarkReviewed(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.log.Warn("Failed to mark discovery reviewed", logger.Int64("discovery_id", id), logger.Error(err))
	}

	h.log.Info("Discovery promoted",
		logger.Int64("discovery_id", id),
		logger.Int64("subject_id", subject.ID),
	)

	c.JSON(http.StatusCreated, subject)
}

// DismissDiscovered handles POST /api/v1/discovered/:id/dismiss.
func (h *Handler) DismissDiscovered(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid discovery id"})
		return
	}

	if err := h.discovered.MarkReviewed(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "discovery not found"})
			return
		}
		h.log.Error("Failed to dismiss discovery", logger.Int64("discovery_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dismiss discovery"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"discovery_id": id, "dismissed": true})
}

// CleanupDiscovered handles POST /api/v1/discovered/cleanup.
func (h *Handler) CleanupDiscovered(c *gin.Context) {
	var req CleanupDiscoveredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cutoff := time.Now().Add(-time.Duration(req.OlderThanHours) * time.Hour)
	removed, err := h.discovered.Cleanup(c.Request.Context(), req.MinMentions, cutoff)
	if err != nil {
		h.log.Error("Failed to cleanup discoveries", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cleanup discoveries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *Handler) subjectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) reviewID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid review id"})
		return uuid.Nil, false
	}
	return id, true
}
