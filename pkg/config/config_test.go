package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.SemanticTimeoutMs != 3000 {
		t.Errorf("semantic timeout = %d, want 3000", cfg.SemanticTimeoutMs)
	}
	if cfg.RecorderCapacity != 20 {
		t.Errorf("recorder capacity = %d, want 20", cfg.RecorderCapacity)
	}
	if cfg.RecorderFlushSec != 60 {
		t.Errorf("recorder flush = %d, want 60", cfg.RecorderFlushSec)
	}
	if cfg.LogRiskThreshold != "high" {
		t.Errorf("log threshold = %q, want high", cfg.LogRiskThreshold)
	}
	if cfg.SimilarityThreshold != 0.65 {
		t.Errorf("similarity threshold = %v, want 0.65", cfg.SimilarityThreshold)
	}
	if cfg.SemanticEnabled {
		t.Error("semantic scanner should be disabled without an endpoint")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BULWARK_SEMANTIC_ENDPOINT", "http://judge.local/v1/scan")
	t.Setenv("BULWARK_SEMANTIC_TIMEOUT_MS", "1500")
	t.Setenv("BULWARK_RECORDER_CAPACITY", "50")

	cfg := NewDefaultConfig()
	if !cfg.SemanticEnabled {
		t.Error("setting the endpoint should enable the scanner by default")
	}
	if cfg.SemanticTimeoutMs != 1500 {
		t.Errorf("timeout = %d, want 1500", cfg.SemanticTimeoutMs)
	}
	if cfg.RecorderCapacity != 50 {
		t.Errorf("capacity = %d, want 50", cfg.RecorderCapacity)
	}
}

func TestEmbeddingsEndpointEnablesScanner(t *testing.T) {
	t.Setenv("BULWARK_EMBEDDINGS_ENDPOINT", "http://localhost:11434")

	if !NewDefaultConfig().SemanticEnabled {
		t.Error("embeddings endpoint should enable the semantic layer")
	}
}

func TestEnvExplicitDisable(t *testing.T) {
	t.Setenv("BULWARK_SEMANTIC_ENDPOINT", "http://judge.local/v1/scan")
	t.Setenv("BULWARK_SEMANTIC_ENABLED", "false")

	if NewDefaultConfig().SemanticEnabled {
		t.Error("explicit disable should win over the endpoint default")
	}
}

func TestYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulwark.yaml")
	overlay := "semantic_timeout_ms: 750\nlog_risk_threshold: medium\nredis_addr: localhost:6379\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BULWARK_CONFIG", path)
	t.Setenv("BULWARK_RECORDER_CAPACITY", "25")

	cfg := NewDefaultConfig()
	if cfg.SemanticTimeoutMs != 750 {
		t.Errorf("overlay timeout = %d, want 750", cfg.SemanticTimeoutMs)
	}
	if cfg.LogRiskThreshold != "medium" {
		t.Errorf("overlay threshold = %q, want medium", cfg.LogRiskThreshold)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("overlay redis = %q", cfg.RedisAddr)
	}
	// keys absent from the file keep their env values
	if cfg.RecorderCapacity != 25 {
		t.Errorf("capacity = %d, want env value 25", cfg.RecorderCapacity)
	}
	if cfg.RecorderFlushSec != 60 {
		t.Errorf("flush = %d, want default 60", cfg.RecorderFlushSec)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SemanticTimeoutMs = 0
	cfg.SimilarityThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("BULWARK_TEST_STR", "value")
	t.Setenv("BULWARK_TEST_INT", "42")
	t.Setenv("BULWARK_TEST_BOOL", "true")
	t.Setenv("BULWARK_TEST_FLOAT", "0.5")
	t.Setenv("BULWARK_TEST_BAD_INT", "not-a-number")

	if got := GetEnv("BULWARK_TEST_STR", "d"); got != "value" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("BULWARK_TEST_MISSING", "d"); got != "d" {
		t.Errorf("GetEnv default = %q", got)
	}
	if got := GetEnvInt("BULWARK_TEST_INT", 0); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("BULWARK_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt bad value = %d, want default", got)
	}
	if !GetEnvBool("BULWARK_TEST_BOOL", false) {
		t.Error("GetEnvBool should be true")
	}
	if got := GetEnvFloat("BULWARK_TEST_FLOAT", 0); got != 0.5 {
		t.Errorf("GetEnvFloat = %v", got)
	}
}
