package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/logger"
)

const (
	defaultWindow      = 72 * time.Hour
	defaultBucket      = 24 * time.Hour
	defaultTopLimit    = 10
	maxCompareSubjects = 10
)

// TopSubjects handles GET /api/v1/analytics/top.
func (h *Handler) TopSubjects(c *gin.Context) {
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	subjectType := c.Query("type")
	limit := intQuery(c, "limit", defaultTopLimit)

	top, err := h.engine.TopSubjects(c.Request.Context(), from, to, subjectType, limit)
	if err != nil {
		h.log.Error("Failed to rank subjects", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rank subjects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "subjects": top})
}

// TopSubjectForPost handles GET /api/v1/analytics/posts/:id/top.
func (h *Handler) TopSubjectForPost(c *gin.Context) {
	postID := c.Param("id")

	subjects, err := h.subjects.ListActive(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to load catalog", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog"})
		return
	}
	cat := catalog.Build(subjects, h.log)

	top, err := h.engine.TopSubjectForPost(c.Request.Context(), cat, postID)
	if err != nil {
		h.log.Error("Failed to find top subject for post", logger.String("post_id", postID), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to find top subject"})
		return
	}
	if top == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no subject mentions for post"})
		return
	}

	c.JSON(http.StatusOK, top)
}

// SubjectSentiment handles GET /api/v1/analytics/subjects/:id/sentiment.
func (h *Handler) SubjectSentiment(c *gin.Context) {
	id, ok := h.subjectID(c)
	if !ok {
		return
	}
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	sentiment, err := h.engine.Sentiment(c.Request.Context(), id, from, to)
	if err != nil {
		h.log.Error("Failed to compute sentiment", logger.Int64("subject_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute sentiment"})
		return
	}

	c.JSON(http.StatusOK, sentiment)
}

// SubjectVelocity handles GET /api/v1/analytics/subjects/:id/velocity.
func (h *Handler) SubjectVelocity(c *gin.Context) {
	id, ok := h.subjectID(c)
	if !ok {
		return
	}

	window := defaultWindow
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window duration"})
			return
		}
		window = parsed
	}

	velocity, err := h.engine.ComputeVelocity(c.Request.Context(), id, window)
	if err != nil {
		h.log.Error("Failed to compute velocity", logger.Int64("subject_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute velocity"})
		return
	}

	c.JSON(http.StatusOK, velocity)
}

// SubjectWindowVelocity handles GET /api/v1/analytics/subjects/:id/window-velocity,
// the retrospective variant over an explicit interval.
func (h *Handler) SubjectWindowVelocity(c *gin.Context) {
	id, ok := h.subjectID(c)
	if !ok {
		return
	}
	from, to, ok := h.explicitWindow(c)
	if !ok {
		return
	}

	velocity, err := h.engine.ComputeWindowVelocity(c.Request.Context(), id, from, to)
	if err != nil {
		h.log.Error("Failed to compute window velocity", logger.Int64("subject_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute window velocity"})
		return
	}

	c.JSON(http.StatusOK, velocity)
}

// SubjectTimeSeries handles GET /api/v1/analytics/subjects/:id/timeseries.
func (h *Handler) SubjectTimeSeries(c *gin.Context) {
	id, ok := h.subjectID(c)
	if !ok {
		return
	}
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	bucket := defaultBucket
	if raw := c.Query("bucket"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bucket duration"})
			return
		}
		bucket = parsed
	}

	series, err := h.engine.TimeSeries(c.Request.Context(), id, from, to, bucket)
	if err != nil {
		h.log.Error("Failed to compute time series", logger.Int64("subject_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute time series"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subject_id": id, "from": from, "to": to, "points": series})
}

// SubjectDistribution handles GET /api/v1/analytics/subjects/:id/distribution.
func (h *Handler) SubjectDistribution(c *gin.Context) {
	id, ok := h.subjectID(c)
	if !ok {
		return
	}
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	distribution, err := h.engine.LabelDistribution(c.Request.Context(), id, from, to)
	if err != nil {
		h.log.Error("Failed to compute distribution", logger.Int64("subject_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute distribution"})
		return
	}

	c.JSON(http.StatusOK, distribution)
}

// CompareSubjects handles GET /api/v1/analytics/compare?ids=1,2,3.
func (h *Handler) CompareSubjects(c *gin.Context) {
	rawIDs := c.Query("ids")
	if rawIDs == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids query parameter is required"})
		return
	}

	var ids []int64
	for _, part := range strings.Split(rawIDs, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject id: " + part})
			return
		}
		ids = append(ids, id)
	}
	if len(ids) > maxCompareSubjects {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many subjects to compare"})
		return
	}

	from, to, ok := h.window(c)
	if !ok {
		return
	}

	compared, err := h.engine.Compare(c.Request.Context(), ids, from, to)
	if err != nil {
		h.log.Error("Failed to compare subjects", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compare subjects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "subjects": compared})
}

// window parses from/to query params, defaulting to the trailing 72 hours.
func (h *Handler) window(c *gin.Context) (time.Time, time.Time, bool) {
	to := time.Now()
	from := to.Add(-defaultWindow)

	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp, want RFC3339"})
			return time.Time{}, time.Time{}, false
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp, want RFC3339"})
			return time.Time{}, time.Time{}, false
		}
	}

	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return time.Time{}, time.Time{}, false
	}

	return from, to, true
}

// explicitWindow is like window but requires both bounds.
func (h *Handler) explicitWindow(c *gin.Context) (time.Time, time.Time, bool) {
	if c.Query("from") == "" || c.Query("to") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return time.Time{}, time.Time{}, false
	}
	return h.window(c)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
