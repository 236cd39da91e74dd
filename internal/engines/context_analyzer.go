package engines

import (
	"strings"
	"unicode/utf8"

	"github.com/keigobridge/service/internal/models"
)

// =============================================================================
// 上下文分析引擎
// 负责把原始输入文本分类为上下文描述符：意图/紧急度/关系/场景/敬语程度/改善判定
// 纯函数，无副作用，无I/O，对任意输入都不报错
// =============================================================================

// ContextAnalyzer 上下文分析器
type ContextAnalyzer struct{}

// NewContextAnalyzer 创建上下文分析器
func NewContextAnalyzer() *ContextAnalyzer {
	return &ContextAnalyzer{}
}

// axisPattern 单轴分类的(类别, 关键词集)对
// 使用有序列表而不是map，保证平局时按枚举顺序决出
type axisPattern struct {
	category string
	keywords []string
}

// 意图分类关键词表（顺序即平局裁决顺序）
var intentPatterns = []axisPattern{
	{string(models.IntentRequest), []string{"お願い", "ください", "してほしい", "して欲しい", "くれる", "くれない", "もらえる", "もらえない", "頼む", "頼みたい", "いただけ", "しといて", "やって"}},
	{string(models.IntentQuestion), []string{"？", "?", "ですか", "かな", "だっけ", "どう", "なぜ", "なんで", "いつ", "どこ", "何", "どれ", "どっち"}},
	{string(models.IntentReport), []string{"報告", "完了", "しました", "終わった", "終わりました", "できた", "済み", "結果", "対応した"}},
	{string(models.IntentApology), []string{"ごめん", "すみません", "すいません", "申し訳", "謝", "失礼しました", "悪かった"}},
	{string(models.IntentGreeting), []string{"おはよう", "こんにちは", "こんばんは", "お疲れ", "おつかれ", "よろしく", "はじめまして", "お世話になって"}},
	{string(models.IntentComplaint), []string{"困る", "困った", "最悪", "ひどい", "勘弁", "おかしい", "不満", "納得いかない", "うんざり"}},
	{string(models.IntentAppreciation), []string{"ありがとう", "ありがと", "感謝", "助かる", "助かった", "おかげ", "サンキュー"}},
}

// 紧急度判定表（固定优先顺序：urgent先于relaxed）
var urgencyPatterns = []axisPattern{
	{string(models.UrgencyUrgent), []string{"至急", "急ぎ", "大至急", "今すぐ", "早く", "緊急", "すぐに", "ASAP", "間に合わ", "急いで", "やばい、早"}},
	{string(models.UrgencyRelaxed), []string{"いつでも", "暇な時", "暇なとき", "時間ある時", "時間あるとき", "ゆっくり", "急がない", "そのうち", "手すきの"}},
}

// 关系分类关键词表
var relationshipPatterns = []axisPattern{
	{string(models.RelationshipSuperior), []string{"部長", "課長", "社長", "先輩", "先生", "上司", "役員", "専務", "常務"}},
	{string(models.RelationshipColleague), []string{"同期", "みんな", "一緒に", "チームの", "同僚"}},
	{string(models.RelationshipSubordinate), []string{"後輩", "新人", "君に", "メンバーに"}},
	{string(models.RelationshipCustomer), []string{"お客", "顧客", "取引先", "御社", "貴社", "クライアント", "様"}},
}

// 场景分类关键词表（固定优先顺序：先命中先赢）
var situationPatterns = []axisPattern{
	{string(models.SituationBusiness), []string{"会議", "資料", "納期", "見積", "契約", "売上", "商談", "打ち合わせ", "プレゼン", "承認", "稟議", "請求書"}},
	{string(models.SituationTechnical), []string{"バグ", "エラー", "サーバ", "デプロイ", "コード", "実装", "アプデ", "アップデート", "システム", "ログ", "DB", "リリース", "ビルド", "テスト環境"}},
	{string(models.SituationCasual), []string{"飲み", "ランチ", "遊び", "週末", "ゲーム", "映画", "休みの日", "カラオケ"}},
}

// 敬语程度打分用标记（正式+2 / 随意−3）
var formalMarkers = []string{
	"です", "ます", "ございます", "いたします", "申し訳", "恐れ入り", "恐縮",
	"お願い申し上げ", "でしょうか", "承知", "拝見", "いただ", "くださいませ",
}

var casualMarkers = []string{
	"じゃん", "だよね", "だよな", "っす", "だぜ", "だぞ", "やん", "ねん",
	"だっけ", "しといて", "くれる？", "ちゃう", "どない", "あかん", "まじ",
	"マジ", "やばい", "ヤバい", "うぜ", "きつい", "めんどい", "り。", "りょ",
}

// 丁寧さマーカー（改善判定・変換の両方で参照）
var politenessMarkers = []string{
	"です", "ます", "ございます", "ください", "いたします", "でしょうか",
	"お願い", "いただけ", "恐れ入り",
}

// 随意词词典命中判定用（改善判定のcasual_language检查）
var casualWordChecklist = []string{
	"アプデ", "バグった", "まじ", "マジ", "やばい", "ヤバい", "めっちゃ",
	"ちょい", "どない", "あかん", "ほんま", "じゃん", "だよね", "っす",
	"しといて", "くれる？", "りょ", "おっけー", "OK", "NG",
}

// 先頭の随意动词词干（〜しといた/やっといた等）
var leadingCasualVerbStems = []string{
	"やっと", "しとい", "やっとい", "きめと", "決めと",
}

// Analyze 分析输入文本，返回上下文描述符
// 对任意输入（空串、绝文字、非日语）都返回合法的描述符，绝不报错
func (a *ContextAnalyzer) Analyze(text string) *models.ContextDescriptor {
	return &models.ContextDescriptor{
		Intent:         models.Intent(classifyArgmax(text, intentPatterns, string(models.IntentGeneral))),
		Urgency:        models.Urgency(classifyFirstMatch(text, urgencyPatterns, string(models.UrgencyNormal))),
		Relationship:   models.Relationship(classifyArgmax(text, relationshipPatterns, string(models.RelationshipUnknown))),
		Situation:      models.Situation(classifyFirstMatch(text, situationPatterns, string(models.SituationGeneral))),
		FormalityLevel: classifyFormality(text),
		Improvement:    a.assessImprovement(text),
	}
}

// classifyArgmax 按命中总数取最大的类别，全零或并列时返回默认值
// 平局按表的枚举顺序裁决（先出现者保留）
func classifyArgmax(text string, patterns []axisPattern, defaultCategory string) string {
	best := defaultCategory
	bestScore := 0
	for _, p := range patterns {
		score := 0
		for _, kw := range p.keywords {
			score += strings.Count(text, kw)
		}
		if score > bestScore {
			bestScore = score
			best = p.category
		}
	}
	return best
}

// classifyFirstMatch 按固定优先顺序，第一个有命中的类别获胜
func classifyFirstMatch(text string, patterns []axisPattern, defaultCategory string) string {
	for _, p := range patterns {
		for _, kw := range p.keywords {
			if strings.Contains(text, kw) {
				return p.category
			}
		}
	}
	return defaultCategory
}

// classifyFormality 敬语程度打分：正式标记+2、随意标记−3，按阈值分为五档
func classifyFormality(text string) models.Formality {
	score := 0
	for _, m := range formalMarkers {
		score += 2 * strings.Count(text, m)
	}
	for _, m := range casualMarkers {
		score -= 3 * strings.Count(text, m)
	}

	switch {
	case score >= 8:
		return models.FormalityVeryFormal
	case score >= 3:
		return models.FormalityFormal
	case score >= -2:
		return models.FormalityNeutral
	case score >= -6:
		return models.FormalityCasual
	default:
		return models.FormalityVeryCasual
	}
}

// assessImprovement 改善必要性判定
// 各检查项彼此独立：随意词命中/丁寧さマーカー欠落/过短/随意动词词干开头
func (a *ContextAnalyzer) assessImprovement(text string) models.ImprovementReport {
	issues := []string{}

	for _, w := range casualWordChecklist {
		if strings.Contains(text, w) {
			issues = append(issues, models.IssueCasualLanguage)
			break
		}
	}

	hasMarker := false
	for _, m := range politenessMarkers {
		if strings.Contains(text, m) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		issues = append(issues, models.IssueLacksPolitenessMarkers)
	}

	if utf8.RuneCountInString(text) < 10 {
		issues = append(issues, models.IssueTooBrief)
	}

	for _, stem := range leadingCasualVerbStems {
		if strings.HasPrefix(text, stem) {
			issues = append(issues, models.IssueTooDirect)
			break
		}
	}

	report := models.ImprovementReport{Issues: issues}
	switch {
	case len(issues) == 0:
		report.NeedsImprovement = false
		report.Severity = models.SeverityLow
	case len(issues) <= 2:
		report.NeedsImprovement = true
		report.Severity = models.SeverityMedium
	default:
		report.NeedsImprovement = true
		report.Severity = models.SeverityHigh
	}
	return report
}

// Suggest 基于描述符生成上下文层面的改善建议
func (a *ContextAnalyzer) Suggest(desc *models.ContextDescriptor) []models.Suggestion {
	suggestions := []models.Suggestion{}
	if desc == nil {
		return suggestions
	}

	for _, issue := range desc.Improvement.Issues {
		switch issue {
		case models.IssueCasualLanguage:
			suggestions = append(suggestions, models.Suggestion{
				Type: "context", Message: "カジュアルな表現が含まれています。ビジネス向けの言い換えをおすすめします。",
			})
		case models.IssueLacksPolitenessMarkers:
			suggestions = append(suggestions, models.Suggestion{
				Type: "context", Message: "丁寧語のマーカーが見当たりません。です・ます調への変換をおすすめします。",
			})
		case models.IssueTooBrief:
			suggestions = append(suggestions, models.Suggestion{
				Type: "context", Message: "文章が短すぎます。背景や目的を補うとより丁寧になります。",
			})
		case models.IssueTooDirect:
			suggestions = append(suggestions, models.Suggestion{
				Type: "context", Message: "直接的な言い回しです。クッション言葉の追加をおすすめします。",
			})
		}
	}

	if desc.Urgency == models.UrgencyUrgent {
		suggestions = append(suggestions, models.Suggestion{
			Type: "context", Message: "急ぎの依頼です。恐縮の意を添えると印象が柔らかくなります。",
		})
	}

	return suggestions
}
