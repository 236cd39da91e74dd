package engines

import (
	"strings"

	"github.com/keigobridge/service/internal/models"
)

// =============================================================================
// 词汇转换引擎
// 三道有序处理：单词替换 → 上下文叠加的短语替换 → 构文パターン書き換え
// 每道处理都在前一道的输出上进行；所有替换必须写入转换日志
// =============================================================================

// LexicalConverter 词汇/短语转换器
type LexicalConverter struct{}

// NewLexicalConverter 创建词汇转换器
func NewLexicalConverter() *LexicalConverter {
	return &LexicalConverter{}
}

// Convert 执行三道转换，返回转换后文本和完整替换日志
func (lc *LexicalConverter) Convert(text string, context *models.ContextDescriptor) *models.LexicalResult {
	result := &models.LexicalResult{
		Text:        text,
		Conversions: []models.ConversionLogEntry{},
	}
	if text == "" {
		return result
	}

	// 第一道：单词级替换（完全子串一致、全局置换）
	result.Text = lc.applyDictionary(result.Text, wordDictionary, "word", &result.Conversions)

	// 第二道：短语级替换（按上下文叠加词典）
	phrases := lc.buildPhraseDictionary(context)
	result.Text = lc.applyDictionary(result.Text, phrases, "phrase", &result.Conversions)

	// 第三道：构文パターン書き換え（有序规则鏈 + catch-all）
	result.Text = lc.applyStructuralPatterns(result.Text, &result.Conversions)

	return result
}

// applyDictionary 顺序应用有序词典，记录每次替换
func (lc *LexicalConverter) applyDictionary(text string, dict []dictEntry, entryType string, logOut *[]models.ConversionLogEntry) string {
	for _, entry := range dict {
		count := strings.Count(text, entry.casual)
		if count == 0 {
			continue
		}
		text = strings.ReplaceAll(text, entry.casual, entry.polite)
		*logOut = append(*logOut, models.ConversionLogEntry{
			Type:      entryType,
			Original:  entry.casual,
			Converted: entry.polite,
			Count:     count,
			Reason:    entry.reason,
		})
	}
	return text
}

// buildPhraseDictionary 构建上下文相关的短语词典
// 叠加顺序固定：base → business → urgent → superior，后者覆盖同键
func (lc *LexicalConverter) buildPhraseDictionary(context *models.ContextDescriptor) []dictEntry {
	merged := map[string]dictEntry{}
	order := []string{}

	overlay := func(dict []dictEntry) {
		for _, e := range dict {
			if _, exists := merged[e.casual]; !exists {
				order = append(order, e.casual)
			}
			merged[e.casual] = e
		}
	}

	overlay(basePhraseDictionary)
	if context != nil {
		if context.Situation == models.SituationBusiness {
			overlay(businessPhraseOverlay)
		}
		if context.Urgency == models.UrgencyUrgent {
			overlay(urgentPhraseOverlay)
		}
		if context.Relationship == models.RelationshipSuperior {
			overlay(superiorPhraseOverlay)
		}
	}

	result := make([]dictEntry, 0, len(order))
	for _, key := range order {
		result = append(result, merged[key])
	}
	return result
}

// applyStructuralPatterns 应用构文书き換え规则鏈
func (lc *LexicalConverter) applyStructuralPatterns(text string, logOut *[]models.ConversionLogEntry) string {
	for _, rule := range structuralPatterns {
		matches := rule.pattern.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		converted := rule.pattern.ReplaceAllString(text, rule.replace)
		if converted == text {
			continue
		}
		*logOut = append(*logOut, models.ConversionLogEntry{
			Type:      "pattern",
			Original:  matches[0],
			Converted: rule.pattern.ReplaceAllString(matches[0], rule.replace),
			Count:     len(matches),
			Reason:    rule.reason,
		})
		text = converted
	}

	// catch-all：丁寧さマーカーを一つも含まない単文には「をお願いします」を補う
	if isSingleClause(text) && !hasPoliteEnding(text) {
		original := text
		text = strings.TrimRight(text, "。") + "をお願いします"
		*logOut = append(*logOut, models.ConversionLogEntry{
			Type:      "pattern",
			Original:  original,
			Converted: text,
			Count:     1,
			Reason:    "丁寧な依頼形の補完",
		})
	}

	return text
}

// isSingleClause 判定是否为无分隔符的单一短句
func isSingleClause(text string) bool {
	if text == "" {
		return false
	}
	trimmed := strings.TrimRight(text, "。")
	for _, sep := range clauseSeparators {
		if strings.Contains(trimmed, sep) {
			return false
		}
	}
	return true
}

// hasPoliteEnding 判定是否已含丁寧さマーカー
func hasPoliteEnding(text string) bool {
	for _, m := range politeEndingMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// RemainingCasualWords 转换后仍残留的随意词（用于建议生成）
func (lc *LexicalConverter) RemainingCasualWords(text string) []string {
	remaining := []string{}
	for _, w := range casualWordChecklist {
		if strings.Contains(text, w) {
			remaining = append(remaining, w)
		}
	}
	return remaining
}
