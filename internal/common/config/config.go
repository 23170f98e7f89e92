package config

import "fmt"

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Scoring       ScoringConfig           `mapstructure:"scoring"`
	Benchmark     BenchmarkConfig         `mapstructure:"benchmark"`
	Server        ServerConfig            `mapstructure:"server"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled bool `mapstructure:"enabled"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		Subject   string `mapstructure:"subject"`
	} `mapstructure:"email"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ScoringConfig selects the questionnaire and overrides its ranking knobs.
// A zero threshold or cap keeps the catalog's own value.
type ScoringConfig struct {
	CatalogVersion          string  `mapstructure:"catalog_version" validate:"required"`
	CatalogPath             string  `mapstructure:"catalog_path"`
	NeedsAttentionThreshold float64 `mapstructure:"needs_attention_threshold" validate:"gte=0,lte=100"`
	MaxRecommendations      int     `mapstructure:"max_recommendations" validate:"gte=0,lte=50"`
}

const (
	RefreshPublisherZeebe = "zeebe"
	RefreshPublisherSNS   = "sns"
	RefreshPublisherNone  = "none"
)

type BenchmarkConfig struct {
	FreshnessWindow  int    `mapstructure:"freshness_window" validate:"gt=0"` // days
	LookupTimeout    int    `mapstructure:"lookup_timeout" validate:"gt=0"`   // milliseconds
	CacheTTL         int    `mapstructure:"cache_ttl" validate:"gte=0"`       // seconds
	MinSampleSize    int    `mapstructure:"min_sample_size" validate:"gte=1"`
	RefreshLookback  int    `mapstructure:"refresh_lookback" validate:"gt=0"` // days
	RefreshPublisher string `mapstructure:"refresh_publisher" validate:"oneof=zeebe sns none"`
	RefreshTopicARN  string `mapstructure:"refresh_topic_arn" validate:"required_if=RefreshPublisher sns"`
}

type ServerConfig struct {
	Address      string  `mapstructure:"address"`
	RateLimit    float64 `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst    int     `mapstructure:"rate_burst"`
	ReadTimeout  int     `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int     `mapstructure:"write_timeout"` // milliseconds
}
