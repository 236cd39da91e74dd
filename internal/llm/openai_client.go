package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// =============================================================================
// OpenAI客户端 - 与DeepSeek共享chat completions协议结构
// =============================================================================

// OpenAIClient OpenAI客户端
type OpenAIClient struct {
	*BaseAdapter
}

// NewOpenAIClient 创建OpenAI客户端
func NewOpenAIClient(config *LLMConfig) (*OpenAIClient, error) {
	if err := validateLLMConfig(config); err != nil {
		return nil, err
	}
	if config.Model == "" {
		config.Model = buildDefaultModel(ProviderOpenAI)
	}
	if config.BaseURL == "" {
		config.BaseURL = buildDefaultBaseURL(ProviderOpenAI)
	}
	return &OpenAIClient{
		BaseAdapter: NewBaseAdapter(ProviderOpenAI, config),
	}, nil
}

// Complete 执行单次完成请求
func (c *OpenAIClient) Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
	if err := c.CheckRateLimit(); err != nil {
		return nil, err
	}
	if err := c.CheckCircuitBreaker(); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.doChatRequest(ctx, req)
	if err != nil {
		c.RecordFailure()
		return nil, err
	}
	c.RecordSuccess()
	resp.Duration = time.Since(start)

	log.Printf("🎯 OpenAI完成请求成功: model=%s, tokens=%d, 耗时=%v",
		resp.Model, resp.TokensUsed, resp.Duration)
	return resp, nil
}

// doChatRequest 发送chat completions请求并解析响应
func (c *OpenAIClient) doChatRequest(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	messages := []chatMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, &LLMError{Provider: c.provider, Code: "MARSHAL_ERROR", Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &LLMError{Provider: c.provider, Code: "REQUEST_ERROR", Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &LLMError{Provider: c.provider, Code: "NETWORK_ERROR", Message: err.Error(), Retryable: true}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &LLMError{Provider: c.provider, Code: "READ_ERROR", Message: err.Error(), Retryable: true}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &LLMError{
			Provider:  c.provider,
			Code:      fmt.Sprintf("HTTP_%d", httpResp.StatusCode),
			Message:   string(respBody),
			Retryable: httpResp.StatusCode >= 500 || httpResp.StatusCode == http.StatusTooManyRequests,
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &LLMError{Provider: c.provider, Code: "UNMARSHAL_ERROR", Message: err.Error()}
	}
	if parsed.Error != nil {
		return nil, &LLMError{Provider: c.provider, Code: parsed.Error.Type, Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return nil, &LLMError{Provider: c.provider, Code: "EMPTY_RESPONSE", Message: "no choices in response"}
	}

	return &LLMResponse{
		Content:    parsed.Choices[0].Message.Content,
		TokensUsed: parsed.Usage.TotalTokens,
		Model:      model,
		Provider:   c.provider,
	}, nil
}

// HealthCheck 健康检查（最小完成请求）
func (c *OpenAIClient) HealthCheck(ctx context.Context) error {
	_, err := c.Complete(ctx, &LLMRequest{
		Prompt:      "ping",
		MaxTokens:   1,
		Temperature: 0,
	})
	return err
}
