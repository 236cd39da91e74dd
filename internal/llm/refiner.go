package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/keigobridge/service/internal/models"
)

// =============================================================================
// 敬语润色器 - 用LLM对确定性转换结果做最终润色
// LLM不可用或超时时原样返回草稿，流水线本身始终可用
// =============================================================================

// refinerSystemPrompt 润色用システムプロンプト
const refinerSystemPrompt = `あなたは日本語ビジネス文書の校正者です。` +
	`与えられた文章を、意味を変えずに自然で丁寧なビジネス日本語に整えてください。` +
	`出力は整えた文章のみとし、説明や注釈は含めないでください。`

// Refiner LLM润色器
type Refiner struct {
	client      LLMClient
	cache       *CacheManager
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

// NewRefiner 创建润色器
func NewRefiner(client LLMClient, cache *CacheManager, timeout time.Duration, maxTokens int, temperature float64) *Refiner {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Refiner{
		client:      client,
		cache:       cache,
		timeout:     timeout,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Refine 对草稿文本做LLM润色
// 返回润色后文本；失败时返回草稿原文和错误（调用方记录到元数据）
func (r *Refiner) Refine(ctx context.Context, original, draft string, descriptor *models.ContextDescriptor, level int) (string, error) {
	if r.client == nil {
		return draft, &LLMError{Code: "NO_CLIENT", Message: "LLM client not configured"}
	}

	req := &LLMRequest{
		Prompt:       r.buildPrompt(original, draft, descriptor, level),
		SystemPrompt: refinerSystemPrompt,
		MaxTokens:    r.maxTokens,
		Temperature:  r.temperature,
		Model:        r.client.GetModel(),
	}

	key := CacheKey(req)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			log.Printf("🎯 润色缓存命中: key=%s...", key[:12])
			return sanitizeRefined(cached.Content, draft), nil
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.Complete(timeoutCtx, req)
	if err != nil {
		log.Printf("⚠️ LLM润色失败，使用确定性结果: %v", err)
		return draft, err
	}

	if r.cache != nil {
		r.cache.Set(key, resp)
	}
	return sanitizeRefined(resp.Content, draft), nil
}

// buildPrompt 构建润色提示词（含上下文约束）
func (r *Refiner) buildPrompt(original, draft string, ctx *models.ContextDescriptor, level int) string {
	var sb strings.Builder
	sb.WriteString("次の下書きを整えてください。\n\n")
	sb.WriteString(fmt.Sprintf("元の文章: %s\n", original))
	sb.WriteString(fmt.Sprintf("下書き: %s\n\n", draft))
	sb.WriteString(fmt.Sprintf("丁寧さレベル: %d（1=カジュアル〜5=最高敬語）\n", level))
	if ctx != nil {
		sb.WriteString(fmt.Sprintf("相手との関係: %s\n", ctx.Relationship))
		sb.WriteString(fmt.Sprintf("場面: %s\n", ctx.Situation))
		if ctx.Urgency == models.UrgencyUrgent {
			sb.WriteString("緊急の用件です。急かす印象を与えない範囲で迅速さを伝えてください。\n")
		}
	}
	return sb.String()
}

// sanitizeRefined 清理LLM输出：去除引号/空白包装，空结果退回草稿
func sanitizeRefined(content, fallback string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.Trim(cleaned, "「」\"'`")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return fallback
	}
	return cleaned
}
