package models

// API请求/响应模型 ---------------------------------

// ConvertRequest 文本转换请求
type ConvertRequest struct {
	Text              string `json:"text"`
	Level             int    `json:"level,omitempty"`             // 1-5，0表示自动
	PreferredApproach string `json:"preferredApproach,omitempty"` // 指定策略时跳过评分选择
	Relationship      string `json:"relationship,omitempty"`
	Urgency           string `json:"urgency,omitempty"`
	Situation         string `json:"situation,omitempty"`
	UseLLM            bool   `json:"useLLM,omitempty"`
}

// ToOptions 转换为内部选项
func (r *ConvertRequest) ToOptions() *ConvertOptions {
	return &ConvertOptions{
		Level:             r.Level,
		PreferredApproach: r.PreferredApproach,
		Relationship:      r.Relationship,
		Urgency:           r.Urgency,
		Situation:         r.Situation,
		UseLLM:            r.UseLLM,
	}
}

// FeedbackRequest 反馈提交请求
type FeedbackRequest struct {
	OriginalText   string `json:"originalText"`
	ConvertedText  string `json:"convertedText"`
	UserRating     int    `json:"userRating"`
	UserCorrection string `json:"userCorrection,omitempty"`
	Relationship   string `json:"relationship,omitempty"`
	Urgency        string `json:"urgency,omitempty"`
	Situation      string `json:"situation,omitempty"`
	Level          int    `json:"level,omitempty"`
}

// FeedbackResponse 反馈提交响应
type FeedbackResponse struct {
	FeedbackID string `json:"feedbackId"`
	Status     string `json:"status"`
}

// ScoreRequest 质量评分请求
type ScoreRequest struct {
	Original  string `json:"original"`
	Converted string `json:"converted"`
	Level     int    `json:"level,omitempty"`
}

// HistoryResponse 转换历史响应
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
	Total   int            `json:"total"`
}

// 响应状态常量
const (
	StatusOK    = "ok"
	StatusError = "error"
)
