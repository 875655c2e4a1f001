// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderHTTP    = "http"
	ProviderOllama  = "ollama"
	ProviderVoyage  = "voyage"
	ProviderHashing = "hashing"

	// DefaultMinConfidence is the lowest best-anchor cosine similarity reported
	// as a nominal intent. Below it the result falls back to UNKNOWN.
	DefaultMinConfidence = 0.5

	DefaultEmbeddingModel = "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment specific overlay, optional.
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// Enable ENV override like CLASSIFIER_MIN_CONFIDENCE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// bindEnvKeys registers the keys AutomaticEnv cannot discover when they are
// absent from every config file.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.address",
		"classifier.min_confidence",
		"classifier.references_path",
		"extractor.bare_number_min_digits",
		"embedding.provider",
		"embedding.base_url",
		"embedding.model",
		"embedding.api_key",
		"embedding.dimensions",
		"cache.enabled",
		"database.redis.address",
		"database.redis.password",
		"camunda.enabled",
		"camunda.broker_address",
		"logging.level",
		"logging.format",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// min_confidence = 0 is a legal threshold, so the default is only applied
	// when the key is missing altogether.
	if !v.IsSet("classifier.min_confidence") {
		cfg.Classifier.MinConfidence = DefaultMinConfidence
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the first location that has one.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// An unset variable expands to "" so applyDefaults and
			// validateConfig see the key as missing.
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if secrets are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Embedding.APIKey == "" {
		switch cfg.Embedding.Provider {
		case ProviderVoyage:
			cfg.Embedding.APIKey = os.Getenv("VOYAGEAI_API_KEY")
		case ProviderHTTP:
			cfg.Embedding.APIKey = os.Getenv("EMBEDDING_API_KEY")
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "intent-service"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 64 << 10
	}
	if cfg.Server.MaxBatchSize == 0 {
		cfg.Server.MaxBatchSize = 100
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderHTTP
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case ProviderVoyage:
			cfg.Embedding.Dimensions = 1024
		case ProviderHashing:
			cfg.Embedding.Dimensions = 256
		default:
			// paraphrase-multilingual-MiniLM-L12-v2
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 10000
	}
	if cfg.Embedding.StartupRetries == 0 {
		cfg.Embedding.StartupRetries = 10
	}
	if cfg.Embedding.StartupBackoff == 0 {
		cfg.Embedding.StartupBackoff = 2000
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 86400
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "intent:emb:"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Classifier.MinConfidence < 0 || cfg.Classifier.MinConfidence > 1 {
		return fmt.Errorf("classifier.min_confidence must be within [0,1], got %v", cfg.Classifier.MinConfidence)
	}

	if cfg.Extractor.BareNumberMinDigits < 0 {
		return fmt.Errorf("extractor.bare_number_min_digits must not be negative")
	}

	switch cfg.Embedding.Provider {
	case ProviderHTTP, ProviderOllama:
		if cfg.Embedding.BaseURL == "" {
			return fmt.Errorf("embedding.base_url is required for provider %q", cfg.Embedding.Provider)
		}
	case ProviderVoyage:
		if cfg.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for provider %q", cfg.Embedding.Provider)
		}
	case ProviderHashing:
	default:
		return fmt.Errorf("unknown embedding.provider %q", cfg.Embedding.Provider)
	}

	if cfg.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative")
	}

	if cfg.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when cache is enabled")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
