// Package config loads the per-environment YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the faqdex service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Routing    RoutingConfig    `yaml:"routing"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Database   DatabaseConfig   `yaml:"database"`
	Generation GenerationConfig `yaml:"generation"`
	Batch      BatchConfig      `yaml:"batch"`
	Startup    StartupConfig    `yaml:"startup"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigin string `yaml:"allowed_origin"` // default "*"
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CorpusConfig locates the precomputed corpus.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// RoutingConfig holds the confidence thresholds.
// Thresholds are pointers so an explicit 0 is kept; absent ones take the defaults.
type RoutingConfig struct {
	High            *float64 `yaml:"high"`
	Low             *float64 `yaml:"low"`
	BalancedFrom    *float64 `yaml:"balanced_from"` // default: midpoint of low and high
	ContextSnippets int      `yaml:"context_snippets"`
}

// EmbeddingConfig holds the query embedding provider settings.
type EmbeddingConfig struct {
	Provider         string      `yaml:"provider"` // label for metrics and logs
	APIKey           string      `yaml:"api_key"`
	BaseURL          string      `yaml:"base_url"`
	Model            string      `yaml:"model"`
	Dimensions       int         `yaml:"dimensions"`
	QueryInstruction string      `yaml:"query_instruction"`
	Cache            CacheConfig `yaml:"cache"`
}

// CacheConfig holds the query embedding cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// DatabaseConfig holds the cache database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// GenerationConfig holds the generation backend settings.
type GenerationConfig struct {
	Backend    string          `yaml:"backend"` // openai, local
	OpenAI     OpenAIConfig    `yaml:"openai"`
	Local      LocalConfig     `yaml:"local"`
	TimeoutSec int             `yaml:"timeout_sec"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	Strict     ModeConfig      `yaml:"strict"`
	Balanced   ModeConfig      `yaml:"balanced"`
	Persona    string          `yaml:"persona"`
	Domain     string          `yaml:"domain"`
}

// OpenAIConfig holds the chat completions provider settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LocalConfig holds the local model server settings.
type LocalConfig struct {
	ServerURL    string `yaml:"server_url"`
	Model        string `yaml:"model"`
	Token        string `yaml:"token"`
	SinglePrompt bool   `yaml:"single_prompt"`
}

// RateLimitConfig throttles generation calls. RPS 0 disables the limiter.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ModeConfig holds the sampling settings of one generation mode.
// Temperature is a pointer so an explicit 0 is kept.
type ModeConfig struct {
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
	MinTokens   int      `yaml:"min_tokens"`
}

// BatchConfig holds batch endpoint settings.
type BatchConfig struct {
	MaxSize int `yaml:"max_size"`
	Workers int `yaml:"workers"`
}

// batchWriteMargin is reserved out of the HTTP write timeout for encoding the batch response.
const batchWriteMargin = 2 * time.Second

// BatchDeadline bounds a batch so its response is written before the HTTP write timeout.
func (c *Config) BatchDeadline() time.Duration {
	d := time.Duration(c.HTTP.WriteTimeoutSec)*time.Second - batchWriteMargin
	if d < time.Second {
		d = time.Second
	}
	return d
}

// StartupConfig holds initialization settings.
type StartupConfig struct {
	// ProbeProviders calls the embedding provider once before serving.
	ProbeProviders bool `yaml:"probe_providers"`
	// HealthChecksEmbedding adds the embedding provider to /health checks.
	HealthChecksEmbedding bool `yaml:"health_checks_embedding"`
}

// Generation backends.
const (
	BackendOpenAI = "openai"
	BackendLocal  = "local"
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first; a missing one is ignored.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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

func floatPtr(v float64) *float64 { return &v }

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 7860
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.CORS.AllowedOrigin == "" {
		c.CORS.AllowedOrigin = "*"
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = "qa_data_with_embeddings.json"
	}

	if c.Routing.High == nil {
		c.Routing.High = floatPtr(0.85)
	}
	if c.Routing.Low == nil {
		c.Routing.Low = floatPtr(0.70)
	}
	if c.Routing.BalancedFrom == nil {
		c.Routing.BalancedFrom = floatPtr((*c.Routing.High + *c.Routing.Low) / 2)
	}
	if c.Routing.ContextSnippets <= 0 {
		c.Routing.ContextSnippets = 3
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "https://api.openai.com/v1"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	c.applyGenerationDefaults()

	if c.Batch.MaxSize <= 0 {
		c.Batch.MaxSize = 100
	}
}

func (c *Config) applyGenerationDefaults() {
	g := &c.Generation
	if g.Backend == "" {
		g.Backend = BackendOpenAI
	}
	if g.TimeoutSec <= 0 {
		g.TimeoutSec = 15
	}
	if g.RateLimit.RPS > 0 && g.RateLimit.Burst <= 0 {
		g.RateLimit.Burst = 1
	}
	if g.Strict.Temperature == nil {
		g.Strict.Temperature = floatPtr(0)
	}
	if g.Strict.MaxTokens <= 0 {
		g.Strict.MaxTokens = 200
	}
	if g.Strict.MinTokens <= 0 {
		g.Strict.MinTokens = 30
	}
	if g.Balanced.Temperature == nil {
		g.Balanced.Temperature = floatPtr(0.5)
	}
	if g.Balanced.MaxTokens <= 0 {
		g.Balanced.MaxTokens = 300
	}
	if g.Balanced.MinTokens <= 0 {
		g.Balanced.MinTokens = 30
	}
	if g.Persona == "" {
		g.Persona = "a friendly support assistant"
	}
	if g.Domain == "" {
		g.Domain = "this service"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.Routing.validate(); err != nil {
		return err
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.Cache.Enabled && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required when embedding.cache.enabled is set")
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if err := c.Generation.validate(); err != nil {
		return err
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers)
	}
	return nil
}

func (r RoutingConfig) validate() error {
	if r.High == nil || r.Low == nil || r.BalancedFrom == nil {
		return fmt.Errorf("routing.high, routing.low and routing.balanced_from are required")
	}
	high, low, balanced := *r.High, *r.Low, *r.BalancedFrom
	if low < 0 || low >= high || high > 1 {
		return fmt.Errorf("routing thresholds must satisfy 0 <= low < high <= 1, got low=%v high=%v", low, high)
	}
	if balanced < low || balanced > high {
		return fmt.Errorf("routing.balanced_from must be within [low, high], got %v", balanced)
	}
	if r.ContextSnippets < 1 {
		return fmt.Errorf("routing.context_snippets must be at least 1, got %d", r.ContextSnippets)
	}
	return nil
}

func (g GenerationConfig) validate() error {
	switch g.Backend {
	case BackendOpenAI:
		if g.OpenAI.Model == "" {
			return fmt.Errorf("generation.openai.model is required for the openai backend")
		}
	case BackendLocal:
		if g.Local.ServerURL == "" || g.Local.Model == "" {
			return fmt.Errorf("generation.local.server_url and generation.local.model are required for the local backend")
		}
	default:
		return fmt.Errorf("generation.backend must be %q or %q, got %q", BackendOpenAI, BackendLocal, g.Backend)
	}
	if g.RateLimit.RPS < 0 {
		return fmt.Errorf("generation.rate_limit.rps must not be negative, got %v", g.RateLimit.RPS)
	}
	for name, m := range map[string]ModeConfig{"strict": g.Strict, "balanced": g.Balanced} {
		if m.Temperature != nil && (*m.Temperature < 0 || *m.Temperature > 2) {
			return fmt.Errorf("generation.%s.temperature must be within [0, 2], got %v", name, *m.Temperature)
		}
		if m.MinTokens > m.MaxTokens {
			return fmt.Errorf("generation.%s.min_tokens must not exceed max_tokens", name)
		}
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
