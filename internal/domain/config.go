package domain

// Config holds the complete Sentinel configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines feature availability
	Tier Tier `json:"tier"`

	// Startup training pipeline
	Generator GeneratorConfig `json:"generator"`
	Training  TrainingConfig  `json:"training"`

	// AlertThreshold is the probability at or above which a scored
	// prediction is also published to the flagged topic.
	AlertThreshold float64 `json:"alertThreshold"`

	// CacheTTLSeconds is how long scored predictions stay cached.
	CacheTTLSeconds int `json:"cacheTtlSeconds"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// GeneratorConfig controls the synthetic dataset produced at startup.
type GeneratorConfig struct {
	Seed    int64 `json:"seed"`
	Samples int   `json:"samples"`

	// LabelPolicy is "quantile" or "random-threshold" (deprecated).
	LabelPolicy string `json:"labelPolicy"`

	// FraudQuantile is the risk-score quantile above which rows are
	// labeled fraud under the quantile policy. 0.97 labels the top 3%.
	FraudQuantile float64 `json:"fraudQuantile"`
}

// TrainingConfig controls the boosting run at startup.
type TrainingConfig struct {
	Seed            int64   `json:"seed"`
	Trees           int     `json:"trees"`
	MaxDepth        int     `json:"maxDepth"`
	LearningRate    float64 `json:"learningRate"`
	HoldoutFraction float64 `json:"holdoutFraction"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	ServiceName  string `json:"serviceName"`
	ExporterType string `json:"exporterType"` // stdout, otlp, jaeger
	Endpoint     string `json:"endpoint"`
}

// Tier represents the product tier.
type Tier string

const (
	// TierCommunity is the free tier with SQLite + channels
	TierCommunity Tier = "community"

	// TierPro is the paid tier with PostgreSQL + NATS + Redis
	TierPro Tier = "pro"
)

// Label policy names accepted by GeneratorConfig.
const (
	LabelPolicyQuantile        = "quantile"
	LabelPolicyRandomThreshold = "random-threshold"
)

// DefaultConfig returns a default configuration for Community tier.
// The generator defaults reproduce the reference dataset: 20,000 samples
// from seed 42, labeled with the 97th-percentile quantile cutoff.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Generator: GeneratorConfig{
			Seed:          42,
			Samples:       20000,
			LabelPolicy:   LabelPolicyQuantile,
			FraudQuantile: 0.97,
		},
		Training: TrainingConfig{
			Seed:            42,
			Trees:           100,
			MaxDepth:        3,
			LearningRate:    0.1,
			HoldoutFraction: 0.25,
		},
		AlertThreshold:  0.7,
		CacheTTLSeconds: 300,
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./sentinel.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "sentinel",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "sentinel",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
