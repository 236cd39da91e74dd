package llm

import (
	"context"
	"time"
)

// =============================================================================
// 核心类型定义
// =============================================================================

// LLMProvider LLM提供商类型
type LLMProvider string

const (
	ProviderOpenAI   LLMProvider = "openai"
	ProviderDeepSeek LLMProvider = "deepseek"
)

// LLMRequest 统一的LLM请求结构
type LLMRequest struct {
	Prompt       string                 `json:"prompt"`
	SystemPrompt string                 `json:"system_prompt,omitempty"`
	MaxTokens    int                    `json:"max_tokens"`
	Temperature  float64                `json:"temperature"`
	Model        string                 `json:"model,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// LLMResponse 统一的LLM响应结构
type LLMResponse struct {
	Content    string        `json:"content"`
	TokensUsed int           `json:"tokens_used"`
	Model      string        `json:"model"`
	Provider   LLMProvider   `json:"provider"`
	Duration   time.Duration `json:"duration"`
}

// LLMConfig LLM配置
type LLMConfig struct {
	Provider  LLMProvider   `json:"provider"`
	APIKey    string        `json:"api_key"`
	BaseURL   string        `json:"base_url"`
	Model     string        `json:"model"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"` // requests per minute
}

// LLMError LLM错误类型
type LLMError struct {
	Provider  LLMProvider `json:"provider"`
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
}

func (e *LLMError) Error() string {
	return e.Message
}

// LLMClient 核心LLM客户端接口 - 策略模式的Strategy接口
type LLMClient interface {
	// 单次完成
	Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error)

	// 健康检查
	HealthCheck(ctx context.Context) error

	// 获取提供商信息
	GetProvider() LLMProvider

	// 获取模型名称
	GetModel() string

	// 关闭客户端
	Close() error
}

// validateLLMConfig 验证LLM配置并补全默认值
func validateLLMConfig(config *LLMConfig) error {
	if config.Provider == "" {
		return &LLMError{Code: "INVALID_CONFIG", Message: "Provider is required"}
	}
	if config.APIKey == "" {
		return &LLMError{Code: "INVALID_CONFIG", Message: "API key is required"}
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 60
	}
	return nil
}

// buildDefaultModel 构建默认模型名称
func buildDefaultModel(provider LLMProvider) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderDeepSeek:
		return "deepseek-chat"
	default:
		return ""
	}
}

// buildDefaultBaseURL 构建默认基础URL
func buildDefaultBaseURL(provider LLMProvider) string {
	switch provider {
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderDeepSeek:
		return "https://api.deepseek.com/v1"
	default:
		return ""
	}
}
