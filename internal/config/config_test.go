package config

import (
	"testing"
	"time"
)

// =============================================================================
// 测试用例
// =============================================================================

// TestLoadDefaults 测试默认配置值
func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServiceName != "keigo-bridge" {
		t.Errorf("Expected service name keigo-bridge, got %s", cfg.ServiceName)
	}
	if cfg.DefaultLevel != 3 {
		t.Errorf("Expected default level 3, got %d", cfg.DefaultLevel)
	}
	if cfg.HistoryCapacity != 100 {
		t.Errorf("Expected history capacity 100, got %d", cfg.HistoryCapacity)
	}
	if cfg.LLMEnabled {
		t.Error("LLM should be disabled by default")
	}
	if cfg.LLMTimeout != 15*time.Second {
		t.Errorf("Expected LLM timeout 15s, got %v", cfg.LLMTimeout)
	}
	if cfg.StoragePath == "" {
		t.Error("Storage path should not be empty")
	}
}

// TestEnvOverrides 测试环境变量覆盖
func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEFAULT_LEVEL", "4")
	t.Setenv("HISTORY_CAPACITY", "50")
	t.Setenv("LLM_ENABLED", "true")
	t.Setenv("LLM_TIMEOUT", "30s")

	cfg := Load()
	if cfg.DefaultLevel != 4 {
		t.Errorf("Expected level 4 from env, got %d", cfg.DefaultLevel)
	}
	if cfg.HistoryCapacity != 50 {
		t.Errorf("Expected capacity 50 from env, got %d", cfg.HistoryCapacity)
	}
	if !cfg.LLMEnabled {
		t.Error("Expected LLM enabled from env")
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("Expected timeout 30s from env, got %v", cfg.LLMTimeout)
	}
}

// TestEnvHelpers 测试环境变量读取工具
func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")
	if got := getEnvAsInt("TEST_INT", 7); got != 7 {
		t.Errorf("Malformed int should fall back to default, got %d", got)
	}

	t.Setenv("TEST_FLOAT", "0.25")
	if got := getEnvAsFloat("TEST_FLOAT", 1.0); got != 0.25 {
		t.Errorf("Expected 0.25, got %f", got)
	}

	if got := getEnv("TEST_UNSET_KEY_XYZ", "fallback"); got != "fallback" {
		t.Errorf("Unset key should fall back, got %s", got)
	}
}

// TestMaskString 测试密钥掩码
func TestMaskString(t *testing.T) {
	if got := maskString("short"); got != "***" {
		t.Errorf("Short string should mask fully, got %s", got)
	}
	if got := maskString("sk-1234567890abcdef"); got != "sk-1...cdef" {
		t.Errorf("Long string should keep edges, got %s", got)
	}
}
