package config

import (
	"time"

	"github.com/starwatch/sentiment/internal/configloader"
)

// Default configuration values.
const (
	defaultServiceName         = "sentiment"
	defaultServiceVersion      = "1.0.0"
	defaultServicePort         = 8080
	defaultConcurrency         = 4
	defaultBatchSize           = 50
	defaultPollIntervalSec     = 30
	defaultDBHost              = "localhost"
	defaultDBPort              = 5432
	defaultDBUser              = "postgres"
	defaultDBName              = "sentiment"
	defaultDBSSLMode           = "disable"
	defaultDBMaxConns          = 25
	defaultDBMaxIdleConns      = 5
	defaultLogLevel            = "info"
	defaultLogFormat           = "json"
	defaultModelServiceURL     = "http://sentiment-model:8081"
	defaultModelRPS            = 5.0
	defaultModelBurst          = 10
	defaultModelMaxRetries     = 3
	defaultAutoResolve         = 0.7
	defaultEscalationConf      = 0.7
	defaultNeutralBand         = 0.2
	defaultFallbackPenalty     = 0.8
	defaultSampleContextCap    = 5
	defaultVelocityWindowHours = 72
	defaultVelocityMinSample   = 10
	defaultVelocityAlertPct    = 30.0
)

// Config holds all configuration for the sentiment service.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Database   DatabaseConfig   `yaml:"database"`
	Provider   ProviderConfig   `yaml:"provider"`
	Resolution ResolutionConfig `yaml:"resolution"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Port         int           `env:"SENTIMENT_PORT"        yaml:"port"`
	Debug        bool          `env:"APP_DEBUG"             yaml:"debug"`
	Concurrency  int           `env:"SENTIMENT_CONCURRENCY" yaml:"concurrency"`
	BatchSize    int           `yaml:"batch_size"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// ProviderConfig holds sentiment provider settings.
type ProviderConfig struct {
	ModelServiceURL      string  `env:"MODEL_SERVICE_URL" yaml:"model_service_url"`
	ModelEnabled         bool    `env:"MODEL_ENABLED"     yaml:"model_enabled"`
	ModelRPS             float64 `yaml:"model_rps"`
	ModelBurst           int     `yaml:"model_burst"`
	ModelMaxRetries      int     `yaml:"model_max_retries"`
	EscalationConfidence float64 `yaml:"escalation_confidence"`
	NeutralBand          float64 `yaml:"neutral_band"`
	FallbackPenalty      float64 `yaml:"fallback_penalty"`
}

// ResolutionConfig holds entity resolution settings.
type ResolutionConfig struct {
	AutoResolveConfidence float64 `yaml:"auto_resolve_confidence"`
	SampleContextCap      int     `yaml:"sample_context_cap"`
}

// AnalyticsConfig holds analytics engine settings.
type AnalyticsConfig struct {
	VelocityWindowHours   int     `yaml:"velocity_window_hours"`
	VelocityMinSampleSize int     `yaml:"velocity_min_sample_size"`
	VelocityAlertPercent  float64 `yaml:"velocity_alert_percent"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
	Output string `yaml:"output"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return configloader.LoadWithDefaults[Config](path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setProviderDefaults(&cfg.Provider)
	setResolutionDefaults(&cfg.Resolution)
	setAnalyticsDefaults(&cfg.Analytics)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
	if s.BatchSize == 0 {
		s.BatchSize = defaultBatchSize
	}
	if s.PollInterval == 0 {
		s.PollInterval = defaultPollIntervalSec * time.Second
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setProviderDefaults(p *ProviderConfig) {
	if p.ModelServiceURL == "" {
		p.ModelServiceURL = defaultModelServiceURL
	}
	if p.ModelRPS == 0 {
		p.ModelRPS = defaultModelRPS
	}
	if p.ModelBurst == 0 {
		p.ModelBurst = defaultModelBurst
	}
	if p.ModelMaxRetries == 0 {
		p.ModelMaxRetries = defaultModelMaxRetries
	}
	if p.EscalationConfidence == 0 {
		p.EscalationConfidence = defaultEscalationConf
	}
	if p.NeutralBand == 0 {
		p.NeutralBand = defaultNeutralBand
	}
	if p.FallbackPenalty == 0 {
		p.FallbackPenalty = defaultFallbackPenalty
	}
}

func setResolutionDefaults(r *ResolutionConfig) {
	if r.AutoResolveConfidence == 0 {
		r.AutoResolveConfidence = defaultAutoResolve
	}
	if r.SampleContextCap == 0 {
		r.SampleContextCap = defaultSampleContextCap
	}
}

func setAnalyticsDefaults(a *AnalyticsConfig) {
	if a.VelocityWindowHours == 0 {
		a.VelocityWindowHours = defaultVelocityWindowHours
	}
	if a.VelocityMinSampleSize == 0 {
		a.VelocityMinSampleSize = defaultVelocityMinSample
	}
	if a.VelocityAlertPercent == 0 {
		a.VelocityAlertPercent = defaultVelocityAlertPct
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}
