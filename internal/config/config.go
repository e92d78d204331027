// Package config loads wayfinder settings from a YAML (or JSON) file and
// WAYFINDER_* environment variables. Environment values win over the file.
package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/wayfinder/pkg/workflows/support"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WAYFINDER_"

// Config is the full settings tree.
type Config struct {
	Log     LogConfig     `yaml:"log" json:"log"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	LLM     LLMConfig     `yaml:"llm" json:"llm"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Corpus  CorpusConfig  `yaml:"corpus" json:"corpus"`
	RAG     RAGConfig     `yaml:"rag" json:"rag"`
	Support SupportConfig `yaml:"support" json:"support"`
	Limits  LimitsConfig  `yaml:"limits" json:"limits"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text or json
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// RedisConfig selects the redis run store. An empty Addr keeps records in memory.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// StoreConfig applies to records in either store.
type StoreConfig struct {
	// MaskFields are regular expressions; matching input and output fields are stored masked.
	MaskFields []string `yaml:"mask_fields" json:"mask_fields"`
	// EncryptionKey is a base64 AES-256 key. When set, record payloads are sealed at rest.
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted for reading.
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
}

// Keys decodes the encryption keys. Active is nil when no key is configured.
func (s StoreConfig) Keys() (active []byte, fallbacks [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	decode := func(name, v string) ([]byte, error) {
		k, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(k) != 32 {
			return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(k))
		}
		return k, nil
	}
	if active, err = decode("store.encryption_key", s.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for i, v := range s.FallbackKeys {
		k, err := decode(fmt.Sprintf("store.fallback_keys[%d]", i), v)
		if err != nil {
			return nil, nil, err
		}
		fallbacks = append(fallbacks, k)
	}
	return active, fallbacks, nil
}

type LLMConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	APIKey      string        `yaml:"api_key" json:"api_key"`
	Model       string        `yaml:"model" json:"model"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	RPS         float64       `yaml:"rps" json:"rps"`
	Burst       int           `yaml:"burst" json:"burst"`
}

type SearchConfig struct {
	Endpoint   string        `yaml:"endpoint" json:"endpoint"`
	APIKey     string        `yaml:"api_key" json:"api_key"`
	NumResults int           `yaml:"num_results" json:"num_results"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	RPS        float64       `yaml:"rps" json:"rps"`
}

// CorpusConfig points at the YAML document collections backing the retrievers.
type CorpusConfig struct {
	QnA    string `yaml:"qna" json:"qna"`
	Device string `yaml:"device" json:"device"`
}

type RAGConfig struct {
	TopK               int    `yaml:"top_k" json:"top_k"`
	MaxRelevanceChecks int    `yaml:"max_relevance_checks" json:"max_relevance_checks"`
	MaxContextTokens   int    `yaml:"max_context_tokens" json:"max_context_tokens"`
	Encoding           string `yaml:"encoding" json:"encoding"`
}

type SupportConfig struct {
	// Keywords override the stock lists; empty lists keep the defaults.
	Keywords support.Keywords `yaml:"keywords" json:"keywords"`
	// UseLLM lets the LLM write the ai_response reply instead of the canned text.
	UseLLM bool `yaml:"use_llm" json:"use_llm"`
}

type LimitsConfig struct {
	MaxInputSize int `yaml:"max_input_size" json:"max_input_size"`
	MaxSteps     int `yaml:"max_steps" json:"max_steps"` // Zero disables the step guard
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Server:  ServerConfig{Addr: ":8080", ReadTimeout: 30 * time.Second, WriteTimeout: 120 * time.Second, ShutdownTimeout: 10 * time.Second},
		Metrics: MetricsConfig{Enabled: true, Namespace: "wayfinder"},
		Redis:   RedisConfig{Prefix: "wayfinder:run:"},
		LLM:     LLMConfig{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini", Timeout: 60 * time.Second},
		Search:  SearchConfig{NumResults: 5, Timeout: 30 * time.Second},
		RAG:     RAGConfig{TopK: 3, MaxRelevanceChecks: 3, Encoding: "cl100k_base"},
		Support: SupportConfig{Keywords: support.DefaultKeywords()},
		Limits:  LimitsConfig{MaxInputSize: 4096},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path, or a missing file, yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.Support.Keywords = cfg.Support.Keywords.Merge(support.DefaultKeywords())
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from the environment. Each key may also be read from a
// well-known unprefixed fallback (OPENAI_API_KEY, SERPER_API_KEY).
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string, fallbacks ...string) (string, bool) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			return v, true
		}
		for _, f := range fallbacks {
			if v, ok := lookup(f); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}

	var errs []error
	str := func(dst *string, key string, fallbacks ...string) {
		if v, ok := get(key, fallbacks...); ok {
			*dst = v
		}
	}
	num := func(dst *int, key string) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(dst *float64, key string) {
		if v, ok := get(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(dst *bool, key string) {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(dst *time.Duration, key string) {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.Format, "LOG_FORMAT")
	str(&c.Server.Addr, "SERVER_ADDR")
	boolean(&c.Metrics.Enabled, "METRICS_ENABLED")
	str(&c.Redis.Addr, "REDIS_ADDR")
	str(&c.Redis.Password, "REDIS_PASSWORD")
	num(&c.Redis.DB, "REDIS_DB")
	duration(&c.Redis.TTL, "REDIS_TTL")
	str(&c.Store.EncryptionKey, "STORE_ENCRYPTION_KEY")
	if v, ok := get("STORE_MASK_FIELDS"); ok {
		c.Store.MaskFields = strings.Split(v, ",")
	}
	str(&c.LLM.BaseURL, "LLM_BASE_URL")
	str(&c.LLM.APIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	str(&c.LLM.Model, "LLM_MODEL")
	float(&c.LLM.RPS, "LLM_RPS")
	str(&c.Search.APIKey, "SEARCH_API_KEY", "SERPER_API_KEY")
	boolean(&c.Support.UseLLM, "SUPPORT_USE_LLM")
	str(&c.Corpus.QnA, "CORPUS_QNA")
	str(&c.Corpus.Device, "CORPUS_DEVICE")
	num(&c.RAG.MaxContextTokens, "RAG_MAX_CONTEXT_TOKENS")
	num(&c.Limits.MaxInputSize, "MAX_INPUT_SIZE")
	num(&c.Limits.MaxSteps, "MAX_STEPS")

	return errors.Join(errs...)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.RAG.TopK < 1 {
		errs = append(errs, fmt.Errorf("rag.top_k must be >= 1, got %d", c.RAG.TopK))
	}
	if c.RAG.MaxRelevanceChecks < 1 {
		errs = append(errs, fmt.Errorf("rag.max_relevance_checks must be >= 1, got %d", c.RAG.MaxRelevanceChecks))
	}
	if c.RAG.MaxContextTokens < 0 {
		errs = append(errs, errors.New("rag.max_context_tokens must not be negative"))
	}
	if c.Limits.MaxInputSize < 0 || c.Limits.MaxSteps < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	if _, _, err := c.Store.Keys(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range c.Store.MaskFields {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("store.mask_fields: %q: %w", p, err))
		}
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
