package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/keigobridge/service/internal/models"
)

// =============================================================================
// 测试用例
// =============================================================================

// TestNewClientByProvider 测试工厂按提供商创建客户端
func TestNewClientByProvider(t *testing.T) {
	deepseek, err := NewClient(&LLMConfig{Provider: ProviderDeepSeek, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("DeepSeek client creation failed: %v", err)
	}
	if deepseek.GetProvider() != ProviderDeepSeek {
		t.Errorf("Expected deepseek provider, got %s", deepseek.GetProvider())
	}
	if deepseek.GetModel() != "deepseek-chat" {
		t.Errorf("Expected default model deepseek-chat, got %s", deepseek.GetModel())
	}

	openai, err := NewClient(&LLMConfig{Provider: ProviderOpenAI, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("OpenAI client creation failed: %v", err)
	}
	if openai.GetModel() != "gpt-4o-mini" {
		t.Errorf("Expected default model gpt-4o-mini, got %s", openai.GetModel())
	}

	if _, err := NewClient(&LLMConfig{Provider: "unknown", APIKey: "k"}); err == nil {
		t.Error("Unknown provider should fail")
	}
	if _, err := NewClient(&LLMConfig{Provider: ProviderDeepSeek}); err == nil {
		t.Error("Missing API key should fail")
	}
}

// TestNewClientFromEnv 测试从环境变量读取API密钥
func TestNewClientFromEnv(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "env-key")
	client, err := NewClientFromEnv(ClientOptions{Provider: "deepseek"})
	if err != nil {
		t.Fatalf("NewClientFromEnv failed: %v", err)
	}
	if client.GetProvider() != ProviderDeepSeek {
		t.Errorf("Expected deepseek provider, got %s", client.GetProvider())
	}

	// 提供商专用键が無ければLLM_API_KEYへフォールバック
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("LLM_API_KEY", "generic-key")
	if _, err := NewClientFromEnv(ClientOptions{Provider: "deepseek"}); err != nil {
		t.Errorf("Fallback to LLM_API_KEY should succeed: %v", err)
	}

	// どの鍵も無ければエラー
	t.Setenv("LLM_API_KEY", "")
	if _, err := NewClientFromEnv(ClientOptions{Provider: "deepseek"}); err == nil {
		t.Error("Missing API key should fail")
	}
}

// TestCircuitBreaker 测试熔断器状态机
func TestCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  3,
		ResetTimeout: 50 * time.Millisecond,
	})

	if !cb.AllowRequest() {
		t.Error("Closed breaker should allow requests")
	}

	// 閾値まで失敗を記録すると熔断
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	if cb.GetState() != StateOpen {
		t.Errorf("Expected open state, got %v", cb.GetState())
	}
	if cb.AllowRequest() {
		t.Error("Open breaker should reject requests")
	}

	// 冷却後はHalfOpenで試行を許す
	time.Sleep(60 * time.Millisecond)
	if !cb.AllowRequest() {
		t.Error("Breaker should allow a probe after reset timeout")
	}
	if cb.GetState() != StateHalfOpen {
		t.Errorf("Expected half-open state, got %v", cb.GetState())
	}

	// 成功で復帰
	cb.RecordSuccess()
	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state after success, got %v", cb.GetState())
	}
}

// TestCacheManager 测试TTL缓存
func TestCacheManager(t *testing.T) {
	cache := NewCacheManager(50*time.Millisecond, 10)

	req := &LLMRequest{Prompt: "確認して", Model: "deepseek-chat", MaxTokens: 100, Temperature: 0.3}
	key := CacheKey(req)

	if _, ok := cache.Get(key); ok {
		t.Error("Empty cache should miss")
	}

	cache.Set(key, &LLMResponse{Content: "ご確認をお願いいたします。"})
	if cached, ok := cache.Get(key); !ok || cached.Content != "ご確認をお願いいたします。" {
		t.Error("Cache should hit after Set")
	}

	// TTL切れで未命中
	time.Sleep(60 * time.Millisecond)
	if _, ok := cache.Get(key); ok {
		t.Error("Expired entry should miss")
	}

	hits, misses, _ := cache.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("Expected 1 hit / 2 misses, got %d / %d", hits, misses)
	}
}

// TestCacheKeyDistinct 测试不同参数产生不同缓存键
func TestCacheKeyDistinct(t *testing.T) {
	base := &LLMRequest{Prompt: "確認して", Model: "m", MaxTokens: 100, Temperature: 0.3}
	variants := []*LLMRequest{
		{Prompt: "確認する", Model: "m", MaxTokens: 100, Temperature: 0.3},
		{Prompt: "確認して", Model: "m2", MaxTokens: 100, Temperature: 0.3},
		{Prompt: "確認して", Model: "m", MaxTokens: 200, Temperature: 0.3},
		{Prompt: "確認して", Model: "m", MaxTokens: 100, Temperature: 0.7},
	}

	baseKey := CacheKey(base)
	for _, v := range variants {
		if CacheKey(v) == baseKey {
			t.Errorf("Variant %+v should produce a distinct key", v)
		}
	}
	if CacheKey(base) != baseKey {
		t.Error("Same request should produce the same key")
	}
}

// TestRefinerFallsBackWithoutClient 测试无客户端时原样返回草稿
func TestRefinerFallsBackWithoutClient(t *testing.T) {
	refiner := NewRefiner(nil, nil, 15*time.Second, 512, 0.3)

	draft := "ご確認をお願いいたします。"
	refined, err := refiner.Refine(context.Background(), "確認して", draft, nil, 3)
	if err == nil {
		t.Error("Refiner without client should report an error")
	}
	if refined != draft {
		t.Errorf("Refiner should fall back to the draft, got %q", refined)
	}
}

// TestRefinerBuildPrompt 测试润色提示词的构建
func TestRefinerBuildPrompt(t *testing.T) {
	refiner := NewRefiner(nil, nil, 0, 512, 0.3)

	descriptor := &models.ContextDescriptor{
		Relationship: models.RelationshipSuperior,
		Situation:    models.SituationBusiness,
		Urgency:      models.UrgencyUrgent,
	}
	prompt := refiner.buildPrompt("確認して", "ご確認をお願いいたします。", descriptor, 4)

	for _, expected := range []string{"確認して", "ご確認をお願いいたします。", "superior", "business", "緊急"} {
		if !strings.Contains(prompt, expected) {
			t.Errorf("Prompt should contain %q, got:\n%s", expected, prompt)
		}
	}
}

// TestSanitizeRefined 测试LLM输出の清理
func TestSanitizeRefined(t *testing.T) {
	cases := []struct {
		input    string
		fallback string
		expected string
	}{
		{"「整えた文章です。」", "draft", "整えた文章です。"},
		{"  整えた文章です。  ", "draft", "整えた文章です。"},
		{"", "draft", "draft"},
		{"  ", "draft", "draft"},
	}
	for _, c := range cases {
		if got := sanitizeRefined(c.input, c.fallback); got != c.expected {
			t.Errorf("sanitizeRefined(%q) = %q, expected %q", c.input, got, c.expected)
		}
	}
}
