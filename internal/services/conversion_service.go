package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/keigobridge/service/internal/config"
	"github.com/keigobridge/service/internal/engines"
	"github.com/keigobridge/service/internal/llm"
	"github.com/keigobridge/service/internal/models"
	"github.com/keigobridge/service/internal/utils"
)

// =============================================================================
// 转换编排服务
// 流程：上下文分析 → 等级解决 → 多策略候选生成 → 评分选择 → （可选）LLM润色
// 任何内部异常都降级为兜底结果，绝不向调用方抛出
// =============================================================================

// 转换进度阶段
const (
	StageAnalyzing  = "analyzing"
	StageGenerating = "generating"
	StageScoring    = "scoring"
	StageRefining   = "refining"
	StageDone       = "done"
)

// ProgressEvent 转换进度事件（WebSocket推送用）
type ProgressEvent struct {
	ConversionID string    `json:"conversionId"`
	Stage        string    `json:"stage"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

// ProgressPublisher 进度事件发布接口（尽力而为，不影响转换本身）
type ProgressPublisher interface {
	Publish(event ProgressEvent)
}

// PreferenceProvider 学习到的用户偏好的只读视图
type PreferenceProvider interface {
	PreferredLevel() int
}

// sessionPreferences 会话内的滚动偏好统计
type sessionPreferences struct {
	recentLevels     []int    // 最近5次的敬语等级
	recentApproaches []string // 最近10次的转换策略
}

// ConversionService 转换编排服务
type ConversionService struct {
	cfg       *config.Config
	analyzer  *engines.ContextAnalyzer
	lexical   *engines.LexicalConverter
	assembler *engines.SentenceAssembler
	scorer    *engines.QualityScorer

	refiner   *llm.Refiner       // nilなら润色スキップ
	prefs     PreferenceProvider // nilなら学習偏好なし
	publisher ProgressPublisher  // nilなら進捗通知なし

	history []models.HistoryEntry
	session sessionPreferences
	mutex   sync.Mutex
}

// NewConversionService 创建转换编排服务
func NewConversionService(cfg *config.Config, random utils.RandomSource) *ConversionService {
	assembler := engines.NewSentenceAssembler(random)
	assembler.SetEmojiEnabled(cfg.EnableEmoji)
	return &ConversionService{
		cfg:       cfg,
		analyzer:  engines.NewContextAnalyzer(),
		lexical:   engines.NewLexicalConverter(),
		assembler: assembler,
		scorer:    engines.NewQualityScorer(),
		history:   []models.HistoryEntry{},
	}
}

// SetRefiner 注入LLM润色器
func (cs *ConversionService) SetRefiner(refiner *llm.Refiner) {
	cs.refiner = refiner
}

// SetPreferenceProvider 注入学习偏好来源
func (cs *ConversionService) SetPreferenceProvider(prefs PreferenceProvider) {
	cs.prefs = prefs
}

// SetPublisher 注入进度事件发布器
func (cs *ConversionService) SetPublisher(publisher ProgressPublisher) {
	cs.publisher = publisher
}

// Convert 执行一次完整转换
// 任何panic都会被捕获并降级为兜底结果
func (cs *ConversionService) Convert(ctx context.Context, text string, opts *models.ConvertOptions) (result *models.ConversionResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ 转换流程panic，降级为兜底结果: %v", r)
			result = cs.fallbackResult(text, fmt.Sprintf("internal error: %v", r))
			result.Analysis.ProcessingTimeMs = time.Since(start).Milliseconds()
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &models.ConvertOptions{}
	}

	if strings.TrimSpace(text) == "" {
		result = cs.fallbackResult(text, "empty input")
		result.Analysis.ProcessingTimeMs = time.Since(start).Milliseconds()
		return result
	}

	result = models.NewConversionResult(text)

	// 阶段1：上下文分析 + 选项覆盖
	cs.publish(result.ID, StageAnalyzing, "文脈を解析しています")
	descriptor := cs.analyzer.Analyze(text)
	descriptor = applyOverrides(descriptor, opts)
	result.Context = descriptor

	// 阶段2：敬语等级解决
	level := cs.resolveLevel(descriptor, opts)
	result.Level = level

	// 阶段3：候选生成
	cs.publish(result.ID, StageGenerating, "変換候補を生成しています")
	lexResult := cs.lexical.Convert(text, descriptor)
	candidates := cs.generateCandidates(text, lexResult, descriptor, level)

	// 阶段4：评分选择
	cs.publish(result.ID, StageScoring, "候補を採点しています")
	winner := cs.selectCandidate(candidates, descriptor, level, opts.PreferredApproach)
	result.Converted = winner.Text
	result.Level = winner.Level
	result.Analysis.Confidence = winner.Confidence
	result.Analysis.Improvements = lexResult.Conversions
	result.Metadata["approach"] = winner.Approach
	result.Metadata["candidateCount"] = len(candidates)

	approach := winner.Approach

	// 阶段5：LLM润色（可选、失败时保持确定性结果）
	if opts.UseLLM && cs.refiner != nil {
		cs.publish(result.ID, StageRefining, "LLMで最終調整しています")
		refined, err := cs.refiner.Refine(ctx, text, winner.Text, descriptor, winner.Level)
		if err != nil {
			result.Metadata["error"] = err.Error()
		} else if refined != winner.Text {
			result.Converted = refined
			approach = models.ApproachLLMRefined
			result.Metadata["approach"] = approach
		}
	}

	// 质量评分と建议生成
	report := cs.scorer.Score(text, result.Converted, engines.ScoreOptions{
		RequestedLevel: result.Level,
		Context:        descriptor,
	})
	result.Metadata["quality"] = report
	result.Suggestions = cs.buildSuggestions(descriptor, result.Converted, result.Level, report)

	result.Analysis.ProcessingTimeMs = time.Since(start).Milliseconds()

	// 历史记录と会话偏好更新（互斥保护）
	cs.recordConversion(result, approach)
	cs.publish(result.ID, StageDone, "変換が完了しました")

	log.Printf("转换完成: id=%s, approach=%s, level=%d, 耗时=%dms",
		result.ID, approach, result.Level, result.Analysis.ProcessingTimeMs)
	return result
}

// Score 对外暴露的质量评分入口
func (cs *ConversionService) Score(original, converted string, level int) *models.QualityReport {
	return cs.scorer.Score(original, converted, engines.ScoreOptions{RequestedLevel: level})
}

// GetHistory 返回转换历史副本（新しい順ではなく到着順）
func (cs *ConversionService) GetHistory() []models.HistoryEntry {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	copied := make([]models.HistoryEntry, len(cs.history))
	copy(copied, cs.history)
	return copied
}

// SessionPreferredLevel 会话内最近5次等级的四舍五入平均（未満5次返回0）
func (cs *ConversionService) SessionPreferredLevel() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return averageLevel(cs.session.recentLevels)
}

// SessionPreferredApproach 会话内最近10次中最频繁的策略（空历史返回""）
func (cs *ConversionService) SessionPreferredApproach() string {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return mostFrequent(cs.session.recentApproaches)
}

// resolveLevel 敬语等级解决
// 显式指定时直接采用；否则从默认等级出发按raise-only规则提升
func (cs *ConversionService) resolveLevel(descriptor *models.ContextDescriptor, opts *models.ConvertOptions) int {
	if opts.Level > 0 {
		return models.ClampLevel(opts.Level)
	}

	level := cs.cfg.DefaultLevel
	if level <= 0 {
		level = models.LevelHighlyPolite
	}

	raise := func(floor int) {
		if floor > level {
			level = floor
		}
	}

	switch descriptor.Relationship {
	case models.RelationshipSuperior:
		raise(models.LevelWithEmoji)
	case models.RelationshipSubordinate:
		raise(models.LevelBusiness)
	}
	if descriptor.Urgency == models.UrgencyUrgent {
		raise(models.LevelHighlyPolite)
	}
	if descriptor.Situation == models.SituationBusiness {
		raise(models.LevelHighlyPolite)
	}
	if descriptor.FormalityLevel == models.FormalityVeryCasual {
		raise(models.LevelWithEmoji)
	}
	if cs.prefs != nil {
		raise(cs.prefs.PreferredLevel())
	}

	return models.ClampLevel(level)
}

// generateCandidates 多策略候选生成
func (cs *ConversionService) generateCandidates(text string, lexResult *models.LexicalResult, descriptor *models.ContextDescriptor, level int) []models.ConversionCandidate {
	candidates := []models.ConversionCandidate{
		{
			Approach:    models.ApproachLexicalOnly,
			Text:        lexResult.Text,
			Level:       level,
			Confidence:  0.75,
			Description: "語彙置換のみ",
		},
		{
			Approach:    models.ApproachSentenceGeneration,
			Text:        cs.assembler.Generate(text, descriptor, level),
			Level:       level,
			Confidence:  0.90,
			Description: "整った文章として再構成",
		},
	}

	candidates = append(candidates, cs.assembler.GenerateVariations(text, descriptor, level)...)

	// 場面がgeneral以外の時だけ、上下文最適化候補を追加する
	if descriptor.Situation != models.SituationGeneral {
		candidates = append(candidates, models.ConversionCandidate{
			Approach:    models.ApproachContextOptimized,
			Text:        cs.assembler.Generate(text, descriptor, level),
			Level:       level,
			Confidence:  0.85,
			Description: "場面に最適化した変換",
		})
	}

	return candidates
}

// selectCandidate 评分选择
// preferredApproachが指定されていれば該当策略の中から選ぶ；
// 同点は生成順が先の候補が勝つ（安定タイブレーク）
func (cs *ConversionService) selectCandidate(candidates []models.ConversionCandidate, descriptor *models.ContextDescriptor, targetLevel int, preferredApproach string) models.ConversionCandidate {
	pool := candidates
	if preferredApproach != "" {
		filtered := []models.ConversionCandidate{}
		for _, c := range candidates {
			if c.Approach == preferredApproach {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
	}

	best := pool[0]
	bestScore := cs.scoreCandidate(pool[0], descriptor, targetLevel)
	for _, c := range pool[1:] {
		if s := cs.scoreCandidate(c, descriptor, targetLevel); s > bestScore {
			best = c
			bestScore = s
		}
	}
	return best
}

// scoreCandidate 候选打分公式
// 置信度×100 + 策略ボーナス − 等級乖離ペナルティ + 長さボーナス
func (cs *ConversionService) scoreCandidate(c models.ConversionCandidate, descriptor *models.ContextDescriptor, targetLevel int) float64 {
	score := c.Confidence * 100

	switch c.Approach {
	case models.ApproachSentenceGeneration:
		score += 10
	case models.ApproachContextOptimized:
		score += 15
	}

	diff := c.Level - targetLevel
	if diff < 0 {
		diff = -diff
	}
	score -= float64(diff * 5)

	// 指摘された問題の数に応じた最低長を上回れば加点
	minLength := len(descriptor.Improvement.Issues) * 20
	if utf8.RuneCountInString(c.Text) > minLength {
		score += 20
	}

	return score
}

// buildSuggestions 建议合并：分析器 → 残存口語 → 品質 → 等級ヒント
func (cs *ConversionService) buildSuggestions(descriptor *models.ContextDescriptor, converted string, level int, report *models.QualityReport) []models.Suggestion {
	suggestions := cs.analyzer.Suggest(descriptor)

	for _, word := range cs.lexical.RemainingCasualWords(converted) {
		suggestions = append(suggestions, models.Suggestion{
			Type:    "lexical",
			Message: fmt.Sprintf("「%s」はカジュアルな表現のままです。別の言い回しをご検討ください。", word),
		})
	}

	if report.Overall < 0.7 {
		suggestions = append(suggestions, models.Suggestion{
			Type:    "quality",
			Message: fmt.Sprintf("変換品質が十分でない可能性があります（評価: %s）。表現の見直しをおすすめします。", report.Grade),
		})
	}

	if descriptor.Relationship == models.RelationshipSuperior && level < models.LevelWithEmoji {
		suggestions = append(suggestions, models.Suggestion{
			Type:    "level",
			Message: "目上の方への連絡のため、より丁寧な敬語レベル（4以上）をご検討ください。",
		})
	}

	return suggestions
}

// recordConversion 历史追加（上限FIFO淘汰）と会话偏好更新
func (cs *ConversionService) recordConversion(result *models.ConversionResult, approach string) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	capacity := cs.cfg.HistoryCapacity
	if capacity <= 0 {
		capacity = 100
	}

	cs.history = append(cs.history, models.HistoryEntry{
		ID:        result.ID,
		Original:  result.Original,
		Converted: result.Converted,
		Approach:  approach,
		Level:     result.Level,
		Timestamp: time.Now(),
	})
	if len(cs.history) > capacity {
		cs.history = cs.history[len(cs.history)-capacity:]
	}

	cs.session.recentLevels = append(cs.session.recentLevels, result.Level)
	if len(cs.session.recentLevels) > 5 {
		cs.session.recentLevels = cs.session.recentLevels[len(cs.session.recentLevels)-5:]
	}
	cs.session.recentApproaches = append(cs.session.recentApproaches, approach)
	if len(cs.session.recentApproaches) > 10 {
		cs.session.recentApproaches = cs.session.recentApproaches[len(cs.session.recentApproaches)-10:]
	}
}

// fallbackResult 兜底结果：原文に依頼形を補い、低置信度で返す
func (cs *ConversionService) fallbackResult(text, reason string) *models.ConversionResult {
	result := models.NewConversionResult(text)
	result.Converted = text + "をお願いします。"
	result.Level = models.LevelBusiness
	result.Analysis.Confidence = 0.3
	result.Metadata["approach"] = models.ApproachFallback
	result.Metadata["error"] = reason
	result.Suggestions = append(result.Suggestions, models.Suggestion{
		Type:    "error",
		Message: "変換処理で問題が発生したため、簡易的な変換結果を返しています。",
	})
	return result
}

// publish 进度事件的尽力发布
func (cs *ConversionService) publish(conversionID, stage, message string) {
	if cs.publisher == nil {
		return
	}
	cs.publisher.Publish(ProgressEvent{
		ConversionID: conversionID,
		Stage:        stage,
		Message:      message,
		Timestamp:    time.Now(),
	})
}

// applyOverrides 选项对上下文分析结果的覆盖（描述符不可变，复制后修改）
func applyOverrides(descriptor *models.ContextDescriptor, opts *models.ConvertOptions) *models.ContextDescriptor {
	if opts.Relationship == "" && opts.Urgency == "" && opts.Situation == "" {
		return descriptor
	}
	clone := *descriptor
	clone.Improvement.Issues = append([]string{}, descriptor.Improvement.Issues...)
	if opts.Relationship != "" {
		clone.Relationship = models.Relationship(opts.Relationship)
	}
	if opts.Urgency != "" {
		clone.Urgency = models.Urgency(opts.Urgency)
	}
	if opts.Situation != "" {
		clone.Situation = models.Situation(opts.Situation)
	}
	return &clone
}

// averageLevel 等級履歴の四捨五入平均
func averageLevel(levels []int) int {
	if len(levels) == 0 {
		return 0
	}
	sum := 0
	for _, l := range levels {
		sum += l
	}
	return models.ClampLevel(int(float64(sum)/float64(len(levels)) + 0.5))
}

// mostFrequent 最頻出要素（同数は先に現れた方）
func mostFrequent(items []string) string {
	if len(items) == 0 {
		return ""
	}
	counts := map[string]int{}
	order := []string{}
	for _, item := range items {
		if _, seen := counts[item]; !seen {
			order = append(order, item)
		}
		counts[item]++
	}
	best := order[0]
	for _, item := range order[1:] {
		if counts[item] > counts[best] {
			best = item
		}
	}
	return best
}
