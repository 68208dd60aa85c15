package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, handler *Handler, gatherer prometheus.Gatherer) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		subjects := v1.Group("/subjects")
		{
			subjects.GET("", handler.ListSubjects)              // GET /api/v1/subjects
			subjects.POST("", handler.CreateSubject)            // POST /api/v1/subjects
			subjects.POST("/seed", handler.SeedSubjects)        // POST /api/v1/subjects/seed
			subjects.GET("/:id", handler.GetSubject)            // GET /api/v1/subjects/:id
			subjects.PUT("/:id", handler.UpdateSubject)         // PUT /api/v1/subjects/:id
			subjects.DELETE("/:id", handler.DeactivateSubject)  // DELETE /api/v1/subjects/:id
		}

		enrich := v1.Group("/enrich")
		{
			enrich.POST("/run", handler.RunEnrichment)                // POST /api/v1/enrich/run
			enrich.GET("/status", handler.EnrichmentStatus)           // GET /api/v1/enrich/status
			enrich.GET("/failures", handler.ListFailures)             // GET /api/v1/enrich/failures
			enrich.POST("/failures/cleanup", handler.CleanupFailures) // POST /api/v1/enrich/failures/cleanup
		}

		analytics := v1.Group("/analytics")
		{
			analytics.GET("/top", handler.TopSubjects)                                  // GET /api/v1/analytics/top
			analytics.GET("/posts/:id/top", handler.TopSubjectForPost)                  // GET /api/v1/analytics/posts/:id/top
			analytics.GET("/subjects/:id/sentiment", handler.SubjectSentiment)          // GET /api/v1/analytics/subjects/:id/sentiment
			analytics.GET("/subjects/:id/velocity", handler.SubjectVelocity)            // GET /api/v1/analytics/subjects/:id/velocity
			analytics.GET("/subjects/:id/window-velocity", handler.SubjectWindowVelocity) // GET /api/v1/analytics/subjects/:id/window-velocity
			analytics.GET("/subjects/:id/timeseries", handler.SubjectTimeSeries)        // GET /api/v1/analytics/subjects/:id/timeseries
			analytics.GET("/subjects/:id/distribution", handler.SubjectDistribution)    // GET /api/v1/analytics/subjects/:id/distribution
			analytics.GET("/compare", handler.CompareSubjects)                          // GET /api/v1/analytics/compare
		}

		review := v1.Group("/review")
		{
			review.GET("", handler.ListReviewQueue)              // GET /api/v1/review
			review.POST("/:id/resolve", handler.ResolveReviewItem) // POST /api/v1/review/:id/resolve
			review.POST("/:id/reject", handler.RejectReviewItem)   // POST /api/v1/review/:id/reject
		}

		discovered := v1.Group("/discovered")
		{
			discovered.GET("", handler.ListDiscovered)                  // GET /api/v1/discovered
			discovered.POST("/cleanup", handler.CleanupDiscovered)      // POST /api/v1/discovered/cleanup
			discovered.POST("/:id/promote", handler.PromoteDiscovered)  // POST /api/v1/discovered/:id/promote
			discovered.POST("/:id/dismiss", handler.DismissDiscovered)  // POST /api/v1/discovered/:id/dismiss
		}
	}
}
