// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Classifier    ClassifierConfig        `mapstructure:"classifier"`
	Extractor     ExtractorConfig         `mapstructure:"extractor"`
	Embedding     EmbeddingConfig         `mapstructure:"embedding"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string `mapstructure:"address"`
	ReadTimeout    int    `mapstructure:"read_timeout"`    // milliseconds
	WriteTimeout   int    `mapstructure:"write_timeout"`   // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	MaxBodyBytes   int64  `mapstructure:"max_body_bytes"`
	MaxBatchSize   int    `mapstructure:"max_batch_size"`
}

// ClassifierConfig holds the similarity threshold and the reference set source.
type ClassifierConfig struct {
	MinConfidence  float64 `mapstructure:"min_confidence"`
	ReferencesPath string  `mapstructure:"references_path"` // empty = built-in set
}

type ExtractorConfig struct {
	BareNumberMinDigits int `mapstructure:"bare_number_min_digits"` // 0 disables the rule
}

// EmbeddingConfig selects and configures the sentence-embedding backend.
type EmbeddingConfig struct {
	Provider       string `mapstructure:"provider"` // http | ollama | voyage | hashing
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	Dimensions     int    `mapstructure:"dimensions"`
	Timeout        int    `mapstructure:"timeout"` // milliseconds
	StartupRetries int    `mapstructure:"startup_retries"`
	StartupBackoff int    `mapstructure:"startup_backoff"` // milliseconds
}

type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TTL       int    `mapstructure:"ttl"` // seconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	MetricsAddress string `mapstructure:"metrics_address"` // empty = served on the main listener
}
