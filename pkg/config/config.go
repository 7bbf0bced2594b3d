// Package config holds runtime settings for the defense pipeline.
// Everything is configurable via BULWARK_* environment variables, with an
// optional YAML overlay file for deployments that prefer config files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds global settings for the pipeline and gateway.
type Config struct {
	// === Gateway ===
	ListenAddr string // HTTP listen address (default ":8080")

	// === Semantic scanner ===
	// The remote judge is invoked only for requests that already classified
	// at high risk or above. Leave the endpoint empty to disable.
	SemanticEnabled       bool   // Master switch (default: endpoint is set)
	SemanticEndpoint      string // Judge endpoint URL
	SemanticModel         string // Model identifier passed to the judge
	SemanticAPIKey        string // Bearer token, if the endpoint wants one
	SemanticTimeoutMs     int    // Hard per-call timeout (default: 3000)
	SemanticMaxConcurrent int    // Concurrent outbound call bound (default: 32)

	// === Similarity backend ===
	// Used instead of the remote judge when only an embeddings endpoint is
	// available.
	EmbeddingsEndpoint  string  // Embeddings endpoint URL (Ollama-style)
	EmbeddingsModel     string  // Embedding model (default: "nomic-embed-text")
	SimilarityThreshold float64 // Cosine similarity cutoff (default: 0.65)

	// === Verdict cache ===
	RedisAddr          string // Redis address; empty disables caching
	VerdictCacheTTLSec int    // Cached verdict TTL in seconds (default: 300)

	// === Attack store ===
	PostgresDSN string // Postgres DSN; empty keeps records in memory

	// === Recorder ===
	RecorderCapacity int // Buffer size that triggers a synchronous flush (default: 20)
	RecorderFlushSec int // Periodic flush interval in seconds (default: 60)

	// === Logging ===
	LogRiskThreshold string // Minimum aggregate risk that emits threat logs (default: "high")
}

// NewDefaultConfig builds a Config from environment variables, then applies
// the YAML overlay named by BULWARK_CONFIG if present.
func NewDefaultConfig() *Config {
	cfg := &Config{
		ListenAddr:            GetEnv("BULWARK_LISTEN_ADDR", ":8080"),
		SemanticEndpoint:      GetEnv("BULWARK_SEMANTIC_ENDPOINT", ""),
		SemanticModel:         GetEnv("BULWARK_SEMANTIC_MODEL", "llama-guard3"),
		SemanticAPIKey:        GetEnv("BULWARK_SEMANTIC_API_KEY", ""),
		SemanticTimeoutMs:     GetEnvInt("BULWARK_SEMANTIC_TIMEOUT_MS", 3000),
		SemanticMaxConcurrent: GetEnvInt("BULWARK_SEMANTIC_MAX_CONCURRENT", 32),
		EmbeddingsEndpoint:    GetEnv("BULWARK_EMBEDDINGS_ENDPOINT", ""),
		EmbeddingsModel:       GetEnv("BULWARK_EMBEDDINGS_MODEL", "nomic-embed-text"),
		SimilarityThreshold:   GetEnvFloat("BULWARK_SIMILARITY_THRESHOLD", 0.65),
		RedisAddr:             GetEnv("BULWARK_REDIS_ADDR", ""),
		VerdictCacheTTLSec:    GetEnvInt("BULWARK_VERDICT_TTL_SECONDS", 300),
		PostgresDSN:           GetEnv("BULWARK_POSTGRES_DSN", ""),
		RecorderFlushSec:      GetEnvInt("BULWARK_RECORDER_FLUSH_SECONDS", 60),
		LogRiskThreshold:      GetEnv("BULWARK_LOG_RISK_THRESHOLD", "high"),
	}
	cfg.RecorderCapacity = GetEnvInt("BULWARK_RECORDER_CAPACITY", 20)
	cfg.SemanticEnabled = GetEnvBool("BULWARK_SEMANTIC_ENABLED", false)
	enabledSet := os.Getenv("BULWARK_SEMANTIC_ENABLED") != ""

	if path := os.Getenv("BULWARK_CONFIG"); path != "" {
		fileSetEnabled, err := cfg.applyFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[STARTUP] config overlay %s: %v\n", path, err)
		}
		enabledSet = enabledSet || fileSetEnabled
	}

	// unless explicitly configured, the semantic layer turns on when any
	// backend endpoint is present
	if !enabledSet {
		cfg.SemanticEnabled = cfg.SemanticEndpoint != "" || cfg.EmbeddingsEndpoint != ""
	}
	return cfg
}

// fileConfig mirrors Config with pointer fields so that keys absent from the
// YAML file leave the env-derived values untouched.
type fileConfig struct {
	ListenAddr            *string  `yaml:"listen_addr"`
	SemanticEnabled       *bool    `yaml:"semantic_enabled"`
	SemanticEndpoint      *string  `yaml:"semantic_endpoint"`
	SemanticModel         *string  `yaml:"semantic_model"`
	SemanticAPIKey        *string  `yaml:"semantic_api_key"`
	SemanticTimeoutMs     *int     `yaml:"semantic_timeout_ms"`
	SemanticMaxConcurrent *int     `yaml:"semantic_max_concurrent"`
	EmbeddingsEndpoint    *string  `yaml:"embeddings_endpoint"`
	EmbeddingsModel       *string  `yaml:"embeddings_model"`
	SimilarityThreshold   *float64 `yaml:"similarity_threshold"`
	RedisAddr             *string  `yaml:"redis_addr"`
	VerdictCacheTTLSec    *int     `yaml:"verdict_ttl_seconds"`
	PostgresDSN           *string  `yaml:"postgres_dsn"`
	RecorderCapacity      *int     `yaml:"recorder_capacity"`
	RecorderFlushSec      *int     `yaml:"recorder_flush_seconds"`
	LogRiskThreshold      *string  `yaml:"log_risk_threshold"`
}

func (c *Config) applyFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return false, fmt.Errorf("parse: %w", err)
	}

	setString(&c.ListenAddr, fc.ListenAddr)
	setBool(&c.SemanticEnabled, fc.SemanticEnabled)
	setString(&c.SemanticEndpoint, fc.SemanticEndpoint)
	setString(&c.SemanticModel, fc.SemanticModel)
	setString(&c.SemanticAPIKey, fc.SemanticAPIKey)
	setInt(&c.SemanticTimeoutMs, fc.SemanticTimeoutMs)
	setInt(&c.SemanticMaxConcurrent, fc.SemanticMaxConcurrent)
	setString(&c.EmbeddingsEndpoint, fc.EmbeddingsEndpoint)
	setString(&c.EmbeddingsModel, fc.EmbeddingsModel)
	setFloat(&c.SimilarityThreshold, fc.SimilarityThreshold)
	setString(&c.RedisAddr, fc.RedisAddr)
	setInt(&c.VerdictCacheTTLSec, fc.VerdictCacheTTLSec)
	setString(&c.PostgresDSN, fc.PostgresDSN)
	setInt(&c.RecorderCapacity, fc.RecorderCapacity)
	setInt(&c.RecorderFlushSec, fc.RecorderFlushSec)
	setString(&c.LogRiskThreshold, fc.LogRiskThreshold)
	return fc.SemanticEnabled != nil, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// Validate sanity-checks the numeric knobs.
func (c *Config) Validate() error {
	var problems []string
	if c.SemanticTimeoutMs <= 0 {
		problems = append(problems, "semantic timeout must be positive")
	}
	if c.RecorderCapacity <= 0 {
		problems = append(problems, "recorder capacity must be positive")
	}
	if c.RecorderFlushSec <= 0 {
		problems = append(problems, "recorder flush interval must be positive")
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		problems = append(problems, "similarity threshold must be in [0,1]")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Helper functions for environment variable parsing.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
