package engines

import (
	"strings"
	"time"

	"github.com/keigobridge/service/internal/models"
	"github.com/keigobridge/service/internal/utils"
)

// =============================================================================
// 整句组装引擎
// 按敬语等级(1-5)把输入重组为完整的丁寧文：
// 挨拶 + クッション言葉 + 変換後本文 + 結び + （等级4以上）気遣い文・絵文字
// 问候/クッション/結び等在固定候选集内均匀随机选择——这是有意的
// 文体多样性设计，不是bug；随机源可注入以便测试复现
// =============================================================================

// 依頼種別
const (
	requestVerification = "verification" // 確認依頼
	requestInformation  = "information"  // 情報提供依頼
	requestAction       = "action"       // 作業依頼
	requestSharing      = "sharing"      // 共有依頼
	requestMeeting      = "meeting"      // 打ち合わせ依頼
	requestNotification = "notification" // 連絡依頼
	requestGeneral      = "general"
)

// 感情トーン（优先顺序固定：先命中先赢）
const (
	toneUrgent     = "urgent"
	toneGrateful   = "grateful"
	toneApologetic = "apologetic"
	toneTroubled   = "troubled"
	toneRequesting = "requesting"
	toneNeutral    = "neutral"
)

// sentenceComponents 输入文本的抽取结果
type sentenceComponents struct {
	body        string
	isQuestion  bool
	isRequest   bool
	requestType string
	tone        string
}

// SentenceAssembler 整句组装器
type SentenceAssembler struct {
	lexical      *LexicalConverter
	random       utils.RandomSource
	now          func() time.Time // テスト用に差し替え可能
	emojiEnabled bool
}

// NewSentenceAssembler 创建整句组装器（绝文字付加はデフォルト有効）
func NewSentenceAssembler(random utils.RandomSource) *SentenceAssembler {
	if random == nil {
		random = utils.NewTimeRandomSource()
	}
	return &SentenceAssembler{
		lexical:      NewLexicalConverter(),
		random:       random,
		now:          time.Now,
		emojiEnabled: true,
	}
}

// SetEmojiEnabled 切换等级4以上的绝文字付加
func (sa *SentenceAssembler) SetEmojiEnabled(enabled bool) {
	sa.emojiEnabled = enabled
}

// 時間帯別の挨拶候補
var morningGreetings = []string{"おはようございます。", "おはようございます。朝早くに失礼いたします。"}
var daytimeGreetings = []string{"お疲れ様です。", "いつもお世話になっております。", "お世話になっております。"}
var eveningGreetings = []string{"お疲れ様です。夜分に失礼いたします。", "遅い時間に失礼いたします。"}

// クッション言葉候補（依頼種別・緊急度・関係で選択）
var cushionUrgent = []string{
	"お忙しいところ大変恐縮ですが、",
	"急なお願いで申し訳ありませんが、",
	"お急ぎのところ恐れ入りますが、",
}
var cushionSuperior = []string{
	"お忙しいところ恐れ入りますが、",
	"大変恐縮ですが、",
	"ご多忙のところ恐縮ですが、",
}
var cushionVerification = []string{
	"お手数をおかけしますが、",
	"恐れ入りますが、",
}
var cushionGeneral = []string{
	"お手数ですが、",
	"恐れ入りますが、",
	"差し支えなければ、",
}

// 結びの候補（質問・緊急・感謝で選択）
var closingQuestion = []string{
	"ご回答いただけますと幸いです。",
	"ご教示のほどよろしくお願いいたします。",
}
var closingUrgent = []string{
	"お手数ですが、早めにご対応いただけますと幸いです。",
	"至急のお願いとなり恐縮ですが、何卒よろしくお願いいたします。",
}
var closingGrateful = []string{
	"いつもありがとうございます。引き続きよろしくお願いいたします。",
	"心より感謝申し上げます。",
}
var closingGeneral = []string{
	"よろしくお願いいたします。",
	"何卒よろしくお願いいたします。",
	"ご確認のほどよろしくお願いいたします。",
}

// 気遣い文の候補（重み付き随机、等级4以上で付加）
var courtesySentences = []string{
	"お手数をおかけして恐縮です。",
	"引き続きよろしくお願いいたします。",
	"ご不明な点がございましたらお知らせください。",
	"お時間のある時で構いません。",
}
var courtesyWeights = []float64{0.35, 0.30, 0.20, 0.15}

// カテゴリ別絵文字セット（等级4でひとつ、等级5は候補が広い）
var emojiSets = map[string][]string{
	"request":  {"🙏", "😊"},
	"question": {"🤔", "❓"},
	"urgent":   {"⚡", "💦", "🙏"},
	"grateful": {"✨", "😊", "🙇"},
	"general":  {"😊", "🌸"},
}

// 除去対象の口語フィラー
var fillerParticles = []string{"えっと、", "えーと、", "あのさ、", "あのー、", "なんか、", "てか、", "まあ、"}

// 依頼動詞パターン
var requestVerbPatterns = []string{
	"して", "ください", "お願い", "くれる", "もらえる", "ほしい", "欲しい", "頼む", "いただけ",
}

// 依頼種別キーワード
var requestTypeKeywords = []axisPattern{
	{requestVerification, []string{"確認", "チェック", "見て", "レビュー", "目を通"}},
	{requestInformation, []string{"教えて", "知りたい", "聞きたい", "情報", "詳細"}},
	{requestAction, []string{"対応", "修正", "作成", "やって", "実施", "アップデート", "更新"}},
	{requestSharing, []string{"共有", "送って", "展開", "連携"}},
	{requestMeeting, []string{"打ち合わせ", "会議", "ミーティング", "相談", "時間をもら"}},
	{requestNotification, []string{"伝えて", "連絡", "知らせ", "報告して"}},
}

// 感情トーンキーワード（优先顺序）
var tonePatterns = []axisPattern{
	{toneUrgent, []string{"至急", "急ぎ", "すぐ", "早く", "緊急", "間に合わ"}},
	{toneGrateful, []string{"ありがとう", "感謝", "助かり", "おかげ"}},
	{toneApologetic, []string{"ごめん", "すみません", "申し訳", "失礼"}},
	{toneTroubled, []string{"困っ", "どうしよう", "どないしよ", "まずい", "大変"}},
	{toneRequesting, []string{"お願い", "してほしい", "して欲しい", "頼み", "ください", "くれる"}},
}

// Generate 按指定敬语等级生成完整丁寧文
func (sa *SentenceAssembler) Generate(text string, context *models.ContextDescriptor, level int) string {
	level = models.ClampLevel(level)
	comp := sa.extractComponents(text)

	parts := []string{}

	// 挨拶（等级3未満では省略）
	if level >= models.LevelHighlyPolite {
		parts = append(parts, sa.pickGreeting())
	}

	// クッション言葉（等级2以下では省略）
	if level > models.LevelBusiness {
		if cushion := sa.pickCushion(comp, context); cushion != "" {
			parts = append(parts, cushion)
		}
	}

	// 本文変換
	body := sa.transformBody(comp, context, level)
	parts = append(parts, body)

	// 結び（等级3未満では省略）
	if level >= models.LevelHighlyPolite {
		parts = append(parts, sa.pickClosing(comp))
	}

	// 気遣い文（等级4以上、重み付き随机）
	if level >= models.LevelWithEmoji {
		parts = append(parts, utils.PickWeighted(sa.random, courtesySentences, courtesyWeights))
		if level >= models.LevelMaximalKeigo && sa.random.Float64() < 0.5 {
			parts = append(parts, utils.PickWeighted(sa.random, courtesySentences, courtesyWeights))
		}
	}

	assembled := joinParts(parts)

	// 絵文字（等级4以上でちょうど一つ、組み上がった文の再分類で選ぶ）
	if level >= models.LevelWithEmoji && sa.emojiEnabled {
		assembled += sa.pickEmoji(assembled, level)
	}

	return assembled
}

// GenerateVariations 生成7个等级/文体变体候选
// 等级2..5各一个 + 基准等级标准形 + 商务/目上风格 + 休闲/同事风格
func (sa *SentenceAssembler) GenerateVariations(text string, context *models.ContextDescriptor, baseLevel int) []models.ConversionCandidate {
	baseLevel = models.ClampLevel(baseLevel)
	candidates := []models.ConversionCandidate{}

	for level := models.LevelBusiness; level <= models.LevelMaximalKeigo; level++ {
		candidates = append(candidates, models.ConversionCandidate{
			Approach:    models.ApproachLevelVariation,
			Text:        sa.Generate(text, context, level),
			Level:       level,
			Confidence:  0.80,
			Description: "敬語レベル変体",
		})
	}

	candidates = append(candidates, models.ConversionCandidate{
		Approach:    models.ApproachLevelVariation,
		Text:        sa.Generate(text, context, baseLevel),
		Level:       baseLevel,
		Confidence:  0.80,
		Description: "基準レベル標準形",
	})

	// 商务/目上风格固定
	businessCtx := cloneContext(context)
	businessCtx.Situation = models.SituationBusiness
	businessCtx.Relationship = models.RelationshipSuperior
	candidates = append(candidates, models.ConversionCandidate{
		Approach:    models.ApproachLevelVariation,
		Text:        sa.Generate(text, businessCtx, baseLevel),
		Level:       baseLevel,
		Confidence:  0.80,
		Description: "ビジネス・目上向け文体",
	})

	// 休闲/同事风格固定
	casualCtx := cloneContext(context)
	casualCtx.Situation = models.SituationCasual
	casualCtx.Relationship = models.RelationshipColleague
	candidates = append(candidates, models.ConversionCandidate{
		Approach:    models.ApproachLevelVariation,
		Text:        sa.Generate(text, casualCtx, baseLevel),
		Level:       baseLevel,
		Confidence:  0.80,
		Description: "カジュアル・同僚向け文体",
	})

	return candidates
}

// extractComponents 输入文本的成分抽取
func (sa *SentenceAssembler) extractComponents(text string) sentenceComponents {
	body := text
	for _, filler := range fillerParticles {
		body = strings.ReplaceAll(body, filler, "")
	}
	body = strings.TrimSpace(body)

	comp := sentenceComponents{
		body:       body,
		isQuestion: strings.Contains(body, "？") || strings.Contains(body, "?"),
	}

	for _, p := range requestVerbPatterns {
		if strings.Contains(body, p) {
			comp.isRequest = true
			break
		}
	}

	comp.requestType = classifyFirstMatch(body, requestTypeKeywords, requestGeneral)
	comp.tone = classifyFirstMatch(body, tonePatterns, toneNeutral)
	return comp
}

// pickGreeting 時間帯に応じた挨拶の随机選択
func (sa *SentenceAssembler) pickGreeting() string {
	hour := sa.now().Hour()
	switch {
	case hour >= 5 && hour < 10:
		return utils.Pick(sa.random, morningGreetings)
	case hour >= 10 && hour < 18:
		return utils.Pick(sa.random, daytimeGreetings)
	default:
		return utils.Pick(sa.random, eveningGreetings)
	}
}

// pickCushion クッション言葉の選択（緊急度→関係→依頼種別の順）
func (sa *SentenceAssembler) pickCushion(comp sentenceComponents, context *models.ContextDescriptor) string {
	if context != nil && context.Urgency == models.UrgencyUrgent {
		return utils.Pick(sa.random, cushionUrgent)
	}
	if context != nil && context.Relationship == models.RelationshipSuperior {
		return utils.Pick(sa.random, cushionSuperior)
	}
	if comp.requestType == requestVerification {
		return utils.Pick(sa.random, cushionVerification)
	}
	if comp.isRequest || comp.isQuestion {
		return utils.Pick(sa.random, cushionGeneral)
	}
	return ""
}

// transformBody 本文変換：単語マップ → 等級条件付き短语マップ → 終端の整形
func (sa *SentenceAssembler) transformBody(comp sentenceComponents, context *models.ContextDescriptor, level int) string {
	result := sa.lexical.Convert(comp.body, context)
	body := result.Text

	// 終端の丁寧形を保証する
	body = strings.TrimSpace(body)
	if body == "" {
		return body
	}
	if !hasTerminalPunctuation(body) {
		if comp.isQuestion && !strings.HasSuffix(body, "？") && !strings.HasSuffix(body, "?") {
			if hasPoliteEnding(body) {
				body += "でしょうか？"
			} else {
				body += "ですか？"
			}
		} else if hasPoliteEnding(body) {
			body += "。"
		} else if level >= models.LevelHighlyPolite {
			body += "でございます。"
		} else {
			body += "です。"
		}
	}
	return body
}

// pickClosing 結びの選択（質問→緊急→感謝→一般の順）
func (sa *SentenceAssembler) pickClosing(comp sentenceComponents) string {
	switch {
	case comp.isQuestion:
		return utils.Pick(sa.random, closingQuestion)
	case comp.tone == toneUrgent:
		return utils.Pick(sa.random, closingUrgent)
	case comp.tone == toneGrateful:
		return utils.Pick(sa.random, closingGrateful)
	default:
		return utils.Pick(sa.random, closingGeneral)
	}
}

// pickEmoji 組み上がった文を再分類して絵文字をひとつ選ぶ
// 再分類の優先順位：request → question → urgent → grateful → general
func (sa *SentenceAssembler) pickEmoji(assembled string, level int) string {
	category := "general"
	switch {
	case strings.Contains(assembled, "お願い") || strings.Contains(assembled, "いただけ"):
		category = "request"
	case strings.Contains(assembled, "？") || strings.Contains(assembled, "でしょうか"):
		category = "question"
	case strings.Contains(assembled, "至急") || strings.Contains(assembled, "早め") || strings.Contains(assembled, "急ぎ"):
		category = "urgent"
	case strings.Contains(assembled, "ありがとう") || strings.Contains(assembled, "感謝"):
		category = "grateful"
	}

	set := emojiSets[category]
	if level < models.LevelMaximalKeigo && len(set) > 2 {
		set = set[:2]
	}
	return utils.Pick(sa.random, set)
}

// joinParts 非空パーツの連結と空白の正規化
func joinParts(parts []string) string {
	nonEmpty := []string{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	joined := strings.Join(nonEmpty, "")
	// 連続空白の圧縮
	for strings.Contains(joined, "  ") {
		joined = strings.ReplaceAll(joined, "  ", " ")
	}
	for strings.Contains(joined, "\n\n") {
		joined = strings.ReplaceAll(joined, "\n\n", "\n")
	}
	return joined
}

// hasTerminalPunctuation 終端句読点の有無
func hasTerminalPunctuation(text string) bool {
	for _, suffix := range []string{"。", "！", "？", "!", "?"} {
		if strings.HasSuffix(text, suffix) {
			return true
		}
	}
	return false
}

// cloneContext 描述符复制（描述符本身不可变，风格固定要在副本上进行）
func cloneContext(context *models.ContextDescriptor) *models.ContextDescriptor {
	if context == nil {
		return &models.ContextDescriptor{
			Intent:         models.IntentGeneral,
			Urgency:        models.UrgencyNormal,
			Relationship:   models.RelationshipUnknown,
			Situation:      models.SituationGeneral,
			FormalityLevel: models.FormalityNeutral,
		}
	}
	clone := *context
	clone.Improvement.Issues = append([]string{}, context.Improvement.Issues...)
	return &clone
}
