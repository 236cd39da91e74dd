package models

import (
	"time"
)

// 反馈学习模型 -----------------------------------

// PatternKind 学习模式类型
type PatternKind string

const (
	PatternPositive   PatternKind = "positive"
	PatternNegative   PatternKind = "negative"
	PatternCorrection PatternKind = "correction"
)

// LearningPattern 学习到的表层模式
// 置信度随出现次数单调增长（饱和），只有显式重置才会下降
type LearningPattern struct {
	Kind        PatternKind `json:"kind"`
	Signature   string      `json:"signature"`
	Occurrences int         `json:"occurrences"`
	Contexts    []string    `json:"contexts,omitempty"`
	Confidence  float64     `json:"confidence"`
	FirstSeen   time.Time   `json:"firstSeen"`
	LastSeen    time.Time   `json:"lastSeen"`
}

// ContextPreference 按场景统计的成功/问题计数
type ContextPreference struct {
	SuccessCount int `json:"successCount"`
	ProblemCount int `json:"problemCount"`
}

// UserPreferenceModel 用户偏好模型
// 只由FeedbackLearner修改，其它组件只读
type UserPreferenceModel struct {
	PreferredLevel     int                           `json:"preferredLevel"`
	ContextPreferences map[string]*ContextPreference `json:"contextPreferences"`
}

// NewUserPreferenceModel 创建默认偏好模型
func NewUserPreferenceModel() *UserPreferenceModel {
	return &UserPreferenceModel{
		PreferredLevel:     0, // 0表示尚未学习到偏好
		ContextPreferences: make(map[string]*ContextPreference),
	}
}

// FeedbackPayload 用户反馈载荷
type FeedbackPayload struct {
	OriginalText   string             `json:"originalText"`
	ConvertedText  string             `json:"convertedText"`
	UserRating     int                `json:"userRating"` // 1-5
	UserCorrection string             `json:"userCorrection,omitempty"`
	Context        *ContextDescriptor `json:"context,omitempty"`
	Options        *ConvertOptions    `json:"options,omitempty"`
}

// FeedbackRecord 已受理的反馈记录
type FeedbackRecord struct {
	ID        string          `json:"id"`
	Payload   FeedbackPayload `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// LearnerState 学习器的可序列化状态
// 作为不透明blob交给持久化协作方存取
type LearnerState struct {
	Patterns    map[string]*LearningPattern `json:"patterns"`
	Preferences *UserPreferenceModel        `json:"preferences"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// NewLearnerState 创建空状态
func NewLearnerState() *LearnerState {
	return &LearnerState{
		Patterns:    make(map[string]*LearningPattern),
		Preferences: NewUserPreferenceModel(),
	}
}
