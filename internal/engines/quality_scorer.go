package engines

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/keigobridge/service/internal/models"
)

// =============================================================================
// 质量评分引擎
// 对(原文, 変換文)沿四个独立维度打分：自然さ/意図保持/適切さ/完全性
// 各维度评估器都是纯函数；总分按固定权重加权
// =============================================================================

// 评分权重（固定）
const (
	weightNaturalness     = 0.30
	weightIntent          = 0.30
	weightAppropriateness = 0.25
	weightCompleteness    = 0.15
)

// QualityScorer 质量评分器
type QualityScorer struct{}

// NewQualityScorer 创建质量评分器
func NewQualityScorer() *QualityScorer {
	return &QualityScorer{}
}

// ScoreOptions 评分选项
type ScoreOptions struct {
	RequestedLevel int                       // 要求的敬语等级（0表示未指定）
	Context        *models.ContextDescriptor // 可选的上下文
}

// 不自然パターン（各命中で−0.2）
var unnaturalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`。。|、、|！！|？？`),                 // 句読点の重複
	regexp.MustCompile(`です。[^。]*(じゃん|だよね|だぜ)`),       // 丁寧体と常体の混在
	regexp.MustCompile(`(お願いします。?){2,}`),              // 依頼の連鎖
	regexp.MustCompile(`(申し訳ございません。?){2,}`),           // 過剰な謝罪の連鎖
	regexp.MustCompile(`(いたします){2,}`),                 // 敬語の重複
}

// 自然さマーカー（各命中で+0.05）
var naturalMarkers = []string{
	"お世話になっております", "よろしくお願いいたします", "恐れ入りますが",
	"お手数をおかけしますが", "ご確認のほど", "いただけますと幸いです",
}

// 接続詞（文間フロー評価用）
var connectiveWords = []string{
	"また", "さらに", "そのため", "つきましては", "なお", "ただし",
	"それでは", "まずは", "ですので", "したがって",
}

// 助詞（密度評価用）
var particleRunes = []rune{'は', 'が', 'を', 'に', 'で', 'と', 'へ', 'も', 'の'}

// 同義語テーブル（意図保持のキーワード重複評価で使用）
var synonymTable = map[string][]string{
	"アプデ":  {"アップデート", "更新"},
	"バグ":   {"不具合", "エラー"},
	"確認":   {"チェック", "査収", "高覧"},
	"教えて":  {"教示", "回答"},
	"ありがとう": {"感謝", "ありがとうございます"},
	"急ぎ":   {"至急", "早急", "早め"},
}

// 感情トーンの互換ペア（完全一致=1.0、互換=0.8、その他=0.5）
var compatibleTones = map[string][]string{
	toneRequesting: {toneUrgent, toneNeutral},
	toneUrgent:     {toneRequesting, toneTroubled},
	toneGrateful:   {toneNeutral},
	toneApologetic: {toneTroubled, toneNeutral},
	toneTroubled:   {toneApologetic, toneUrgent},
	toneNeutral:    {toneRequesting, toneGrateful},
}

// Score 对(原文, 変換文)打分
func (qs *QualityScorer) Score(original, converted string, opts ScoreOptions) *models.QualityReport {
	axes := models.AxisScores{
		Naturalness:        qs.scoreNaturalness(converted),
		IntentPreservation: qs.scoreIntentPreservation(original, converted),
		Appropriateness:    qs.scoreAppropriateness(original, converted, opts),
		Completeness:       qs.scoreCompleteness(original, converted),
	}

	totalWeight := weightNaturalness + weightIntent + weightAppropriateness + weightCompleteness
	overall := (axes.Naturalness*weightNaturalness +
		axes.IntentPreservation*weightIntent +
		axes.Appropriateness*weightAppropriateness +
		axes.Completeness*weightCompleteness) / totalWeight

	return &models.QualityReport{
		Overall:    clamp01(overall),
		Grade:      gradeFor(overall),
		AxisScores: axes,
		Details:    qs.buildDetails(axes),
	}
}

// scoreNaturalness 自然さ評価
// 基準0.8から不自然パターン毎に−0.2、自然さマーカー毎に+0.05、
// さらに文間フローと助詞密度のサブスコアを合成する
func (qs *QualityScorer) scoreNaturalness(converted string) float64 {
	score := 0.8

	for _, p := range unnaturalPatterns {
		score -= 0.2 * float64(len(p.FindAllString(converted, -1)))
	}
	for _, m := range naturalMarkers {
		score += 0.05 * float64(strings.Count(converted, m))
	}

	flow := qs.sentenceFlowScore(converted)
	density := qs.particleDensityScore(converted)

	// 本体スコアとサブスコアの合成（本体を重視）
	blended := score*0.6 + flow*0.2 + density*0.2
	return clamp01(blended)
}

// sentenceFlowScore 文間遷移の評価：接続詞を欠く遷移毎に−0.1
func (qs *QualityScorer) sentenceFlowScore(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return 1.0
	}
	score := 1.0
	for i := 1; i < len(sentences); i++ {
		hasConnective := false
		for _, c := range connectiveWords {
			if strings.HasPrefix(sentences[i], c) {
				hasConnective = true
				break
			}
		}
		if !hasConnective {
			score -= 0.1
		}
	}
	return clamp01(score)
}

// particleDensityScore 助詞密度の評価（理想帯5〜15%）
func (qs *QualityScorer) particleDensityScore(text string) float64 {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0.5
	}
	count := 0
	for _, r := range text {
		for _, p := range particleRunes {
			if r == p {
				count++
				break
			}
		}
	}
	density := float64(count) / float64(total)
	switch {
	case density >= 0.05 && density <= 0.15:
		return 1.0
	case density < 0.05:
		return 0.6 + density*8 // 0密度で0.6、帯に近づくほど1.0へ
	default:
		over := density - 0.15
		return clamp01(1.0 - over*3)
	}
}

// scoreIntentPreservation 意図保持評価
func (qs *QualityScorer) scoreIntentPreservation(original, converted string) float64 {
	score := 0.8

	origIntent := classifyArgmax(original, intentPatterns, string(models.IntentGeneral))
	convIntent := classifyArgmax(converted, intentPatterns, string(models.IntentGeneral))
	if origIntent == convIntent {
		score += 0.1
	} else {
		score -= 0.3
	}

	overlap := qs.keywordOverlap(original, converted)
	toneCompat := qs.toneCompatibility(original, converted)

	blended := score*0.5 + overlap*0.3 + toneCompat*0.2
	return clamp01(blended)
}

// keywordOverlap 内容語の保持率（同義語テーブルを考慮）
func (qs *QualityScorer) keywordOverlap(original, converted string) float64 {
	words := extractContentWords(original)
	if len(words) == 0 {
		return 1.0
	}
	preserved := 0
	for _, w := range words {
		if strings.Contains(converted, w) {
			preserved++
			continue
		}
		for _, syn := range synonymTable[w] {
			if strings.Contains(converted, syn) {
				preserved++
				break
			}
		}
	}
	return float64(preserved) / float64(len(words))
}

// toneCompatibility 感情トーンの互換性評価
func (qs *QualityScorer) toneCompatibility(original, converted string) float64 {
	origTone := classifyFirstMatch(original, tonePatterns, toneNeutral)
	convTone := classifyFirstMatch(converted, tonePatterns, toneNeutral)
	if origTone == convTone {
		return 1.0
	}
	for _, compat := range compatibleTones[origTone] {
		if compat == convTone {
			return 0.8
		}
	}
	return 0.5
}

// scoreAppropriateness 適切さ評価
// 敬語レベル一致・場面キーワード・関係キーワードの合成
func (qs *QualityScorer) scoreAppropriateness(original, converted string, opts ScoreOptions) float64 {
	levelScore := 1.0
	if opts.RequestedLevel > 0 {
		detected := DetectPolitenessLevel(converted)
		diff := abs(detected - opts.RequestedLevel)
		levelScore = 1.0 - 0.2*float64(diff)
		if levelScore < 0.4 {
			levelScore = 0.4
		}
	}

	contextScore := 0.7
	relationScore := 0.7
	if opts.Context != nil {
		if keywordsFor(situationPatterns, string(opts.Context.Situation)) != nil {
			if countAny(converted, keywordsFor(situationPatterns, string(opts.Context.Situation))) > 0 ||
				countAny(original, keywordsFor(situationPatterns, string(opts.Context.Situation))) == 0 {
				contextScore = 1.0
			}
		} else {
			contextScore = 1.0
		}
		if opts.Context.Relationship == models.RelationshipSuperior {
			// 目上向けには謙譲・丁重表現が欲しい
			if countAny(converted, []string{"いただけ", "恐れ入り", "恐縮", "申し上げ"}) > 0 {
				relationScore = 1.0
			} else {
				relationScore = 0.6
			}
		} else {
			relationScore = 0.9
		}
	}

	return clamp01(levelScore*0.5 + contextScore*0.25 + relationScore*0.25)
}

// scoreCompleteness 完全性評価
// 長さ比が[1.2, 3.0]で加点、0.8未満・4.0超で減点；
// 情報要素（数値・2文字以上の名詞的語）の保持と文数比を合成する
func (qs *QualityScorer) scoreCompleteness(original, converted string) float64 {
	origLen := float64(utf8.RuneCountInString(original))
	convLen := float64(utf8.RuneCountInString(converted))
	if origLen == 0 {
		return 0.5
	}

	ratio := convLen / origLen
	lengthScore := 0.7
	switch {
	case ratio >= 1.2 && ratio <= 3.0:
		lengthScore = 1.0
	case ratio < 0.8:
		lengthScore = 0.4
	case ratio > 4.0:
		lengthScore = 0.5
	}

	infoScore := qs.informationPreservation(original, converted)
	sentenceScore := qs.sentenceCountScore(original, converted)

	return clamp01(lengthScore*0.5 + infoScore*0.3 + sentenceScore*0.2)
}

// informationPreservation 数値と内容語の保持評価（ゆるい部分一致）
func (qs *QualityScorer) informationPreservation(original, converted string) float64 {
	elements := numberPattern.FindAllString(original, -1)
	elements = append(elements, extractContentWords(original)...)
	if len(elements) == 0 {
		return 1.0
	}
	preserved := 0
	for _, e := range elements {
		if strings.Contains(converted, e) {
			preserved++
			continue
		}
		for _, syn := range synonymTable[e] {
			if strings.Contains(converted, syn) {
				preserved++
				break
			}
		}
	}
	return float64(preserved) / float64(len(elements))
}

// sentenceCountScore 文数比の保持評価
func (qs *QualityScorer) sentenceCountScore(original, converted string) float64 {
	origCount := len(splitSentences(original))
	convCount := len(splitSentences(converted))
	if origCount == 0 {
		return 1.0
	}
	ratio := float64(convCount) / float64(origCount)
	if ratio >= 0.8 && ratio <= 3.0 {
		return 1.0
	}
	return 0.6
}

// buildDetails 低スコア軸の説明文を生成
func (qs *QualityScorer) buildDetails(axes models.AxisScores) []string {
	details := []string{}
	if axes.Naturalness < 0.6 {
		details = append(details, fmt.Sprintf("自然さが低めです (%.2f)：不自然な繰り返しや文体の混在がないか確認してください", axes.Naturalness))
	}
	if axes.IntentPreservation < 0.6 {
		details = append(details, fmt.Sprintf("意図の保持が不十分です (%.2f)：元の内容語が失われている可能性があります", axes.IntentPreservation))
	}
	if axes.Appropriateness < 0.6 {
		details = append(details, fmt.Sprintf("場面適合度が低めです (%.2f)：敬語レベルや相手との関係を見直してください", axes.Appropriateness))
	}
	if axes.Completeness < 0.6 {
		details = append(details, fmt.Sprintf("完全性が低めです (%.2f)：情報の欠落や過剰な膨張がないか確認してください", axes.Completeness))
	}
	return details
}

// DetectPolitenessLevel 変換文から敬語レベル(1-5)を推定する
func DetectPolitenessLevel(text string) int {
	level := 1
	if countAny(text, []string{"です", "ます"}) > 0 {
		level = 2
	}
	if countAny(text, []string{"お世話になっております", "お疲れ様です", "恐れ入りますが", "お手数"}) > 0 &&
		countAny(text, []string{"よろしくお願い"}) > 0 {
		level = 3
	}
	if containsEmoji(text) {
		level = 4
	}
	if countAny(text, []string{"申し上げ", "恐縮", "かしこまりました", "ございます"}) >= 2 && containsEmoji(text) {
		level = 5
	}
	return level
}

// =============================================================================
// 共通小工具
// =============================================================================

var numberPattern = regexp.MustCompile(`[0-9０-９]+`)

// contentWordPattern 2文字以上の漢字・カタカナ連続を内容語とみなす
var contentWordPattern = regexp.MustCompile(`[\x{4E00}-\x{9FFF}]{2,}|[\x{30A0}-\x{30FF}ー]{2,}`)

func extractContentWords(text string) []string {
	seen := map[string]bool{}
	words := []string{}
	for _, w := range contentWordPattern.FindAllString(text, -1) {
		if !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}
	return words
}

func splitSentences(text string) []string {
	parts := regexp.MustCompile(`[。！？!?\n]+`).Split(text, -1)
	sentences := []string{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

func keywordsFor(patterns []axisPattern, category string) []string {
	for _, p := range patterns {
		if p.category == category {
			return p.keywords
		}
	}
	return nil
}

func countAny(text string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += strings.Count(text, kw)
	}
	return total
}

func containsEmoji(text string) bool {
	for _, r := range text {
		if r >= 0x1F300 && r <= 0x1FAFF {
			return true
		}
		if r == 0x2728 || r == 0x26A1 || r == 0x2753 {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// gradeFor 総合スコアの等級化
func gradeFor(overall float64) string {
	switch {
	case overall >= 0.9:
		return "A+"
	case overall >= 0.8:
		return "A"
	case overall >= 0.7:
		return "B+"
	case overall >= 0.6:
		return "B"
	case overall >= 0.5:
		return "C+"
	case overall >= 0.4:
		return "C"
	case overall >= 0.3:
		return "D"
	default:
		return "F"
	}
}
