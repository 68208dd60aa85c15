// Package bootstrap assembles the service from its parts: configuration,
// logging, database, repositories, providers, pipeline, and analytics. Both
// daemons share this wiring.
package bootstrap

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/starwatch/sentiment/internal/analytics"
	"github.com/starwatch/sentiment/internal/api"
	"github.com/starwatch/sentiment/internal/config"
	"github.com/starwatch/sentiment/internal/database"
	"github.com/starwatch/sentiment/internal/logger"
	"github.com/starwatch/sentiment/internal/metrics"
	"github.com/starwatch/sentiment/internal/pipeline"
	"github.com/starwatch/sentiment/internal/sentiment"
)

// App holds the assembled service.
type App struct {
	Config   *config.Config
	Log      logger.Logger
	DB       *sqlx.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Subjects   *database.SubjectRepository
	Comments   *database.CommentRepository
	Signals    *database.SignalRepository
	Discovered *database.DiscoveredRepository
	Reviews    *database.ReviewRepository
	Failures   *database.FailureRepository

	Provider sentiment.Provider
	Runner   *pipeline.Runner
	Engine   *analytics.Engine
	Handler  *api.Handler
}

// New loads configuration and wires the full service graph.
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	app := &App{
		Config:     cfg,
		Log:        log,
		DB:         db,
		Registry:   registry,
		Metrics:    m,
		Subjects:   database.NewSubjectRepository(db),
		Comments:   database.NewCommentRepository(db),
		Signals:    database.NewSignalRepository(db),
		Discovered: database.NewDiscoveredRepository(db, cfg.Resolution.SampleContextCap),
		Reviews:    database.NewReviewRepository(db),
		Failures:   database.NewFailureRepository(db),
	}

	app.Provider = buildProvider(cfg, m, log)

	app.Runner = pipeline.NewRunner(
		app.Subjects,
		app.Comments,
		app.Signals,
		app.Discovered,
		app.Reviews,
		app.Failures,
		app.Provider,
		pipeline.RunnerConfig{
			BatchSize:   cfg.Service.BatchSize,
			Concurrency: cfg.Service.Concurrency,
			Enricher: pipeline.EnricherConfig{
				AutoResolveConfidence: cfg.Resolution.AutoResolveConfidence,
			},
		},
		m,
		log,
	)

	app.Engine = analytics.New(
		database.NewAnalyticsRepository(db),
		analytics.Config{
			AlertPercent:  cfg.Analytics.VelocityAlertPercent,
			MinSampleSize: cfg.Analytics.VelocityMinSampleSize,
		},
		log,
	)

	app.Handler = api.NewHandler(
		app.Subjects,
		app.Comments,
		app.Reviews,
		app.Discovered,
		app.Failures,
		app.Runner,
		app.Engine,
		db,
		log,
	)

	log.Info("Service assembled",
		logger.String("provider", app.Provider.Name()),
		logger.Int("batch_size", cfg.Service.BatchSize),
		logger.Int("concurrency", cfg.Service.Concurrency),
	)

	return app, nil
}

// buildProvider wires the scoring chain. The model sidecar is optional; when
// disabled the lexicon serves alone.
func buildProvider(cfg *config.Config, m *metrics.Metrics, log logger.Logger) sentiment.Provider {
	lexicon := sentiment.NewLexicon(log)
	if !cfg.Provider.ModelEnabled {
		log.Info("Model sidecar disabled, using lexicon provider only")
		return lexicon
	}

	model := sentiment.NewModel(cfg.Provider.ModelServiceURL, log)

	hybridCfg := sentiment.DefaultHybridConfig()
	if cfg.Provider.EscalationConfidence > 0 {
		hybridCfg.EscalationConfidence = cfg.Provider.EscalationConfidence
	}
	if cfg.Provider.NeutralBand > 0 {
		hybridCfg.NeutralBandLow = -cfg.Provider.NeutralBand
		hybridCfg.NeutralBandHigh = cfg.Provider.NeutralBand
	}
	if cfg.Provider.FallbackPenalty > 0 {
		hybridCfg.FallbackPenalty = cfg.Provider.FallbackPenalty
	}
	if cfg.Provider.ModelRPS > 0 {
		hybridCfg.ModelRPS = cfg.Provider.ModelRPS
	}
	if cfg.Provider.ModelBurst > 0 {
		hybridCfg.ModelBurst = cfg.Provider.ModelBurst
	}
	if cfg.Provider.ModelMaxRetries > 0 {
		hybridCfg.Retry.MaxAttempts = cfg.Provider.ModelMaxRetries
	}

	return sentiment.NewHybrid(lexicon, model, hybridCfg, m, log)
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("Failed to close database", logger.Error(err))
		}
	}
	_ = a.Log.Sync()
}

// ShutdownTimeout bounds graceful stops across the daemons.
const ShutdownTimeout = 30 * time.Second
