package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the tweetdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Judge     JudgeConfig     `yaml:"judge"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tweets    TweetsConfig    `yaml:"tweets"`
	Headings  HeadingsConfig  `yaml:"headings"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	DialTimeoutSec   int      `yaml:"dial_timeout_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds HNSW index settings.
type StorageConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	HNSWEFRuntime   int `yaml:"hnsw_ef_runtime"` // 0 = server default
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string               `yaml:"provider"` // metrics label
	APIKey     string               `yaml:"api_key"`
	BaseURL    string               `yaml:"base_url"`
	Model      string               `yaml:"model"`
	Dimensions int                  `yaml:"dimensions"`
	BatchSize  int                  `yaml:"batch_size"` // inputs per API call
	TimeoutSec int                  `yaml:"timeout_sec"`
	Cache      EmbeddingCacheConfig `yaml:"cache"`
}

// EmbeddingCacheConfig holds the Redis embedding cache settings.
type EmbeddingCacheConfig struct {
	Enabled   *bool `yaml:"enabled"`    // default: true
	TTLSec    int   `yaml:"ttl_sec"`    // 0 = no expiry
	LocalSize int   `yaml:"local_size"` // in-process LRU entries; 0 = off
}

// IsEnabled reports whether the embedding cache is on.
func (c EmbeddingCacheConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// JudgeConfig holds relevance judge (chat completion) settings.
type JudgeConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// SearchConfig holds search pipeline settings.
type SearchConfig struct {
	CandidateLimit          int           `yaml:"candidate_limit"` // per source
	MaxK                    int           `yaml:"max_k"`
	StoreTimeoutSec         int           `yaml:"store_timeout_sec"`
	DegradeOnEmbeddingError bool          `yaml:"degrade_on_embedding_error"`
	Weights                 WeightsConfig `yaml:"weights"`
}

// WeightsConfig holds the final score blend. All zero selects the defaults.
type WeightsConfig struct {
	Judge          float64 `yaml:"judge"`
	Lexical        float64 `yaml:"lexical"`
	Semantic       float64 `yaml:"semantic"`
	Recency        float64 `yaml:"recency"`
	RetweetPenalty float64 `yaml:"retweet_penalty"`
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// RateLimitConfig holds per-client limits for the search endpoint.
type RateLimitConfig struct {
	Requests   int `yaml:"requests"`
	WindowSec  int `yaml:"window_sec"`
	MaxClients int `yaml:"max_clients"`
}

// TweetsConfig holds the tweet embed proxy settings.
type TweetsConfig struct {
	BaseURL     string `yaml:"base_url"`
	UserAgent   string `yaml:"user_agent"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"` // 0 = no caching
}

// HeadingsConfig holds the headings scraper settings.
type HeadingsConfig struct {
	URL        string `yaml:"url"`
	RefreshSec int    `yaml:"refresh_sec"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding env variables and applying defaults.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.applyHTTPDefaults()
	c.applyProviderDefaults()
	c.applySearchDefaults()

	if c.Database.DialTimeoutSec <= 0 {
		c.Database.DialTimeoutSec = 5
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.HNSWM <= 0 {
		c.Storage.HNSWM = 32
	}
	if c.Storage.HNSWEFConstruct <= 0 {
		c.Storage.HNSWEFConstruct = 400
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 5000
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 2
	}
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 30
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 60
	}
	if c.RateLimit.MaxClients <= 0 {
		c.RateLimit.MaxClients = 10000
	}
	if c.Tweets.BaseURL == "" {
		c.Tweets.BaseURL = "https://api.fxtwitter.com"
	}
	if c.Tweets.UserAgent == "" {
		c.Tweets.UserAgent = "BusqueBusqued/1.0"
	}
	if c.Tweets.TimeoutSec <= 0 {
		c.Tweets.TimeoutSec = 10
	}
	if c.Headings.URL == "" {
		c.Headings.URL = "https://lapoliticaonline.com/"
	}
	if c.Headings.RefreshSec <= 0 {
		c.Headings.RefreshSec = 600
	}
	if c.Headings.TimeoutSec <= 0 {
		c.Headings.TimeoutSec = 15
	}
}

func (c *Config) applyHTTPDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// The judge alone may take tens of seconds.
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

func (c *Config) applyProviderDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-large"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 1000
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Judge.BaseURL == "" {
		c.Judge.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.Judge.Model == "" {
		c.Judge.Model = "openai/gpt-5-mini"
	}
	if c.Judge.MaxTokens <= 0 {
		c.Judge.MaxTokens = 600
	}
	if c.Judge.TimeoutSec <= 0 {
		c.Judge.TimeoutSec = 45
	}
}

func (c *Config) applySearchDefaults() {
	if c.Search.CandidateLimit <= 0 {
		c.Search.CandidateLimit = 150
	}
	if c.Search.MaxK <= 0 {
		c.Search.MaxK = 200
	}
	if c.Search.StoreTimeoutSec <= 0 {
		c.Search.StoreTimeoutSec = 5
	}
	if c.Search.Weights == (WeightsConfig{}) {
		c.Search.Weights = WeightsConfig{
			Judge:          0.6,
			Lexical:        0.15,
			Semantic:       0.15,
			Recency:        0.1,
			RetweetPenalty: 0.03,
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Cache.LocalSize < 0 {
		return fmt.Errorf("embedding.cache.local_size must not be negative, got %d", c.Embedding.Cache.LocalSize)
	}
	if c.Embedding.Cache.TTLSec < 0 {
		return fmt.Errorf("embedding.cache.ttl_sec must not be negative, got %d", c.Embedding.Cache.TTLSec)
	}
	if c.Judge.Temperature < 0 || c.Judge.Temperature > 2 {
		return fmt.Errorf("judge.temperature must be between 0 and 2, got %v", c.Judge.Temperature)
	}
	w := c.Search.Weights
	for name, v := range map[string]float64{
		"judge": w.Judge, "lexical": w.Lexical, "semantic": w.Semantic,
		"recency": w.Recency, "retweet_penalty": w.RetweetPenalty,
	} {
		if v < 0 {
			return fmt.Errorf("search.weights.%s must not be negative, got %v", name, v)
		}
	}
	if c.Tweets.CacheTTLSec < 0 {
		return fmt.Errorf("tweets.cache_ttl_sec must not be negative, got %d", c.Tweets.CacheTTLSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
