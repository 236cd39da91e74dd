package models

import (
	"time"

	"github.com/google/uuid"
)

// 上下文分类模型 ---------------------------------

// Intent 意图分类
type Intent string

const (
	IntentRequest      Intent = "request"      // 依頼
	IntentQuestion     Intent = "question"     // 質問
	IntentReport       Intent = "report"       // 報告
	IntentApology      Intent = "apology"      // 謝罪
	IntentGreeting     Intent = "greeting"     // 挨拶
	IntentComplaint    Intent = "complaint"    // 苦情
	IntentAppreciation Intent = "appreciation" // 感謝
	IntentGeneral      Intent = "general"      // 一般
)

// Urgency 紧急程度
type Urgency string

const (
	UrgencyUrgent  Urgency = "urgent"
	UrgencyNormal  Urgency = "normal"
	UrgencyRelaxed Urgency = "relaxed"
)

// Relationship 对话关系
type Relationship string

const (
	RelationshipSuperior    Relationship = "superior"    // 上司・目上
	RelationshipColleague   Relationship = "colleague"   // 同僚
	RelationshipSubordinate Relationship = "subordinate" // 部下
	RelationshipCustomer    Relationship = "customer"    // 顧客
	RelationshipUnknown     Relationship = "unknown"
)

// Situation 场景分类
type Situation string

const (
	SituationBusiness  Situation = "business"
	SituationTechnical Situation = "technical"
	SituationCasual    Situation = "casual"
	SituationGeneral   Situation = "general"
)

// Formality 敬语程度分级
type Formality string

const (
	FormalityVeryFormal Formality = "very-formal"
	FormalityFormal     Formality = "formal"
	FormalityNeutral    Formality = "neutral"
	FormalityCasual     Formality = "casual"
	FormalityVeryCasual Formality = "very-casual"
)

// 改善判定的问题类型常量
const (
	IssueCasualLanguage         = "casual_language"
	IssueLacksPolitenessMarkers = "lacks_politeness_markers"
	IssueTooBrief               = "too_brief"
	IssueTooDirect              = "too_direct"
)

// 严重程度常量
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// ImprovementReport 改善必要性判定结果
type ImprovementReport struct {
	NeedsImprovement bool     `json:"needsImprovement"`
	Issues           []string `json:"issues"`
	Severity         string   `json:"severity"`
}

// ContextDescriptor 输入文本的上下文描述符
// 创建后不可变，下游组件只读使用
type ContextDescriptor struct {
	Intent         Intent            `json:"intent"`
	Urgency        Urgency           `json:"urgency"`
	Relationship   Relationship      `json:"relationship"`
	Situation      Situation         `json:"situation"`
	FormalityLevel Formality         `json:"formalityLevel"`
	Improvement    ImprovementReport `json:"improvement"`
}

// 转换策略常量 -----------------------------------

const (
	ApproachLexicalOnly        = "lexical_only"       // 仅词汇替换
	ApproachSentenceGeneration = "sentence_generation" // 整句生成
	ApproachLevelVariation     = "level_variation"     // 敬语等级变体
	ApproachContextOptimized   = "context_optimized"   // 上下文优化
	ApproachLLMRefined         = "llm_refined"         // LLM润色
	ApproachFallback           = "fallback"            // 降级兜底
)

// 敬语等级常量（外部契约，语义固定）
const (
	LevelBasicPolite   = 1 // 基本丁寧語
	LevelBusiness      = 2 // ビジネス適合
	LevelHighlyPolite  = 3 // 挨拶・クッション・結び付き
	LevelWithEmoji     = 4 // レベル3 + 絵文字
	LevelMaximalKeigo  = 5 // 最上級敬語 + 豊富な絵文字
	MinPolitenessLevel = 1
	MaxPolitenessLevel = 5
)

// ClampLevel 将敬语等级收敛到[1,5]
func ClampLevel(level int) int {
	if level < MinPolitenessLevel {
		return MinPolitenessLevel
	}
	if level > MaxPolitenessLevel {
		return MaxPolitenessLevel
	}
	return level
}

// ConversionCandidate 转换候选
// 每次转换尝试时临时生成，不持久化
type ConversionCandidate struct {
	Approach    string  `json:"approach"`
	Text        string  `json:"text"`
	Level       int     `json:"level"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description,omitempty"`
}

// ConversionLogEntry 替换日志条目
// 任何替换都必须留痕，不允许静默丢弃
type ConversionLogEntry struct {
	Type      string `json:"type"` // word, phrase, pattern
	Original  string `json:"original"`
	Converted string `json:"converted"`
	Count     int    `json:"count"`
	Reason    string `json:"reason,omitempty"`
}

// LexicalResult 词汇转换结果
type LexicalResult struct {
	Text        string               `json:"text"`
	Conversions []ConversionLogEntry `json:"conversions"`
}

// Suggestion 改善建议
type Suggestion struct {
	Type    string `json:"type"` // context, lexical, quality, level, error
	Message string `json:"message"`
}

// ConversionAnalysis 转换过程的分析信息
type ConversionAnalysis struct {
	Confidence       float64              `json:"confidence"`
	Improvements     []ConversionLogEntry `json:"improvements"`
	ProcessingTimeMs int64                `json:"processingTimeMs"`
}

// ConversionResult 转换结果（对外契约）
type ConversionResult struct {
	ID          string                 `json:"id"`
	Original    string                 `json:"original"`
	Converted   string                 `json:"converted"`
	Context     *ContextDescriptor     `json:"context"`
	Level       int                    `json:"level"`
	Suggestions []Suggestion           `json:"suggestions"`
	Analysis    ConversionAnalysis     `json:"analysis"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewConversionResult 创建带ID的转换结果
func NewConversionResult(original string) *ConversionResult {
	return &ConversionResult{
		ID:          uuid.New().String(),
		Original:    original,
		Suggestions: []Suggestion{},
		Metadata:    map[string]interface{}{},
	}
}

// ConvertOptions 转换选项
// Level为0表示自动推断；Relationship等字段非空时覆盖上下文分析结果
type ConvertOptions struct {
	Level             int    `json:"level,omitempty"`
	PreferredApproach string `json:"preferredApproach,omitempty"`
	Relationship      string `json:"relationship,omitempty"`
	Urgency           string `json:"urgency,omitempty"`
	Situation         string `json:"situation,omitempty"`
	UseLLM            bool   `json:"useLLM,omitempty"` // 是否启用LLM润色候选
}

// 质量评分模型 -----------------------------------

// AxisScores 四个独立评分维度
type AxisScores struct {
	Naturalness        float64 `json:"naturalness"`
	IntentPreservation float64 `json:"intentPreservation"`
	Appropriateness    float64 `json:"appropriateness"`
	Completeness       float64 `json:"completeness"`
}

// QualityReport 质量评分报告
type QualityReport struct {
	Overall    float64    `json:"overall"`
	Grade      string     `json:"grade"`
	AxisScores AxisScores `json:"axisScores"`
	Details    []string   `json:"details,omitempty"`
}

// HistoryEntry 转换历史条目（有界FIFO，上限100条）
type HistoryEntry struct {
	ID        string    `json:"id"`
	Original  string    `json:"original"`
	Converted string    `json:"converted"`
	Approach  string    `json:"approach"`
	Level     int       `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}
