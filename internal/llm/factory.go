package llm

import (
	"fmt"
	"log"
	"os"
	"time"
)

// =============================================================================
// 客户端工厂 - 按提供商创建具体客户端
// =============================================================================

// NewClient 按配置创建LLM客户端
func NewClient(config *LLMConfig) (LLMClient, error) {
	switch config.Provider {
	case ProviderDeepSeek:
		return NewDeepSeekClient(config)
	case ProviderOpenAI:
		return NewOpenAIClient(config)
	default:
		return nil, &LLMError{
			Code:    "UNKNOWN_PROVIDER",
			Message: fmt.Sprintf("unsupported provider: %s", config.Provider),
		}
	}
}

// ClientOptions 从应用配置映射到客户端配置的参数
type ClientOptions struct {
	Provider  string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	RateLimit int
}

// NewClientFromEnv 从环境变量读取API密钥并创建客户端
// 查找顺序：<PROVIDER>_API_KEY → LLM_API_KEY
func NewClientFromEnv(opts ClientOptions) (LLMClient, error) {
	provider := LLMProvider(opts.Provider)

	apiKey := ""
	switch provider {
	case ProviderDeepSeek:
		apiKey = os.Getenv("DEEPSEEK_API_KEY")
	case ProviderOpenAI:
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("LLM_API_KEY")
	}
	if apiKey == "" {
		return nil, &LLMError{
			Provider: provider,
			Code:     "MISSING_API_KEY",
			Message:  fmt.Sprintf("no API key found for provider %s", provider),
		}
	}

	config := &LLMConfig{
		Provider:  provider,
		APIKey:    apiKey,
		Model:     opts.Model,
		BaseURL:   opts.BaseURL,
		Timeout:   opts.Timeout,
		RateLimit: opts.RateLimit,
	}

	client, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	log.Printf("🔥 LLM客户端已创建: provider=%s, model=%s", provider, client.GetModel())
	return client, nil
}
