package services

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/keigobridge/service/internal/config"
	"github.com/keigobridge/service/internal/models"
	"github.com/keigobridge/service/internal/store"
)

// =============================================================================
// 反馈学习服务
// 低评价から問題パターン、高評価から成功パターン、修正文から対応関係を抽出し、
// 署名单位で冪等に蓄積する。置信度は出現回数に対して単調増加（飽和あり）
// =============================================================================

// 負面パターン署名
const (
	sigPolitenessChain = "negative:politeness_chain" // 依頼・敬語表現の連鎖
	sigCharRepetition  = "negative:char_repetition"  // 同一文字の過剰反復
	sigRegisterMixing  = "negative:register_mixing"  // 丁寧体と常体の混在
	sigOverExpansion   = "negative:over_expansion"   // 原文の4倍超への膨張
)

// 正面パターン署名
const (
	sigDialectNormalized = "positive:dialect_normalized" // 方言の標準語化
	sigCleanKeigo        = "positive:clean_keigo"        // 過剰のない敬語
	sigCleanPunctuation  = "positive:clean_punctuation"  // 句読点の乱れなし
)

// 負面パターン検出用正規表現（文字反復はRE2に後方参照がないため走査で判定）
var (
	politenessChainPattern = regexp.MustCompile(`(お願いします。?){2,}|(いたします){2,}|(ございます){2,}`)
	registerMixingPattern  = regexp.MustCompile(`です。?[^。]*(じゃん|だよね|だぜ|っしょ)`)
	doubledPunctPattern    = regexp.MustCompile(`。。|、、|！！|？？`)
)

// 方言語彙（標準語化の検出用）
var dialectWords = []string{"どない", "あかん", "ほんま", "なんぼ", "おおきに", "せやから"}

// 修正文からの定型対応表：converted側に残りがちな表現 → correction側の好ましい表現
var correctionPhrasePairs = [][2]string{
	{"していただけますか", "していただけますでしょうか"},
	{"お願いします", "お願いいたします"},
	{"わかりました", "承知いたしました"},
	{"すみません", "申し訳ございません"},
	{"ありがとうございます", "誠にありがとうございます"},
}

// FeedbackLearner 反馈学习器
type FeedbackLearner struct {
	stateStore store.StateStore
	stateKey   string
	maxRecords int

	state    *models.LearnerState
	feedback []models.FeedbackRecord
	mutex    sync.Mutex
}

// NewFeedbackLearner 创建反馈学习器并加载持久化状态
// 状態が壊れていても起動は続行し、空のモデルから再学習する
func NewFeedbackLearner(cfg *config.Config, stateStore store.StateStore) *FeedbackLearner {
	fl := &FeedbackLearner{
		stateStore: stateStore,
		stateKey:   cfg.LearnerStateKey,
		maxRecords: cfg.FeedbackMaxCount,
		state:      models.NewLearnerState(),
		feedback:   []models.FeedbackRecord{},
	}
	if fl.maxRecords <= 0 {
		fl.maxRecords = 500
	}
	fl.loadState()
	return fl
}

// loadState 从存储加载学习状态
func (fl *FeedbackLearner) loadState() {
	if fl.stateStore == nil {
		return
	}
	blob, err := fl.stateStore.LoadState(fl.stateKey)
	if err != nil {
		log.Printf("⚠️ 学习状态读取失败，使用空模型: %v", err)
		return
	}
	if blob == nil {
		log.Printf("学习状态不存在，从空模型开始")
		return
	}
	state := models.NewLearnerState()
	if err := json.Unmarshal(blob, state); err != nil {
		log.Printf("⚠️ 学习状态解析失败，使用空模型: %v", err)
		return
	}
	if state.Patterns == nil {
		state.Patterns = make(map[string]*models.LearningPattern)
	}
	if state.Preferences == nil {
		state.Preferences = models.NewUserPreferenceModel()
	}
	fl.state = state
	log.Printf("学习状态已加载: patterns=%d, preferredLevel=%d",
		len(state.Patterns), state.Preferences.PreferredLevel)
}

// saveState 持久化当前状态（失败只警告，不中断）
func (fl *FeedbackLearner) saveState() {
	if fl.stateStore == nil {
		return
	}
	fl.state.UpdatedAt = time.Now()
	blob, err := json.Marshal(fl.state)
	if err != nil {
		log.Printf("⚠️ 学习状态序列化失败: %v", err)
		return
	}
	if err := fl.stateStore.SaveState(fl.stateKey, blob); err != nil {
		log.Printf("⚠️ 学习状态保存失败: %v", err)
	}
}

// RecordFeedback 受理一条用户反馈并更新学习状态
func (fl *FeedbackLearner) RecordFeedback(payload models.FeedbackPayload) (string, error) {
	if payload.UserRating < 1 || payload.UserRating > 5 {
		return "", fmt.Errorf("评分必须在1-5之间: %d", payload.UserRating)
	}

	fl.mutex.Lock()
	defer fl.mutex.Unlock()

	record := models.FeedbackRecord{
		ID:        uuid.New().String(),
		Payload:   payload,
		Timestamp: time.Now(),
	}
	fl.feedback = append(fl.feedback, record)
	if len(fl.feedback) > fl.maxRecords {
		fl.feedback = fl.feedback[len(fl.feedback)-fl.maxRecords:]
	}

	contextKey := situationKey(payload.Context)

	if payload.UserRating <= 2 {
		fl.learnNegative(payload, contextKey)
	}
	if payload.UserRating >= 4 {
		fl.learnPositive(payload, contextKey)
		fl.updatePreferredLevel(payload)
	}
	if payload.UserCorrection != "" && payload.UserCorrection != payload.ConvertedText {
		fl.learnCorrection(payload, contextKey)
	}
	fl.updateContextPreference(contextKey, payload.UserRating)

	fl.saveState()

	log.Printf("反馈已受理: id=%s, rating=%d, patterns=%d",
		record.ID, payload.UserRating, len(fl.state.Patterns))
	return record.ID, nil
}

// learnNegative 低评价からの問題パターン抽出（各命中で conf=min(0.95, n*0.10)）
func (fl *FeedbackLearner) learnNegative(payload models.FeedbackPayload, contextKey string) {
	text := payload.ConvertedText

	if politenessChainPattern.MatchString(text) {
		fl.upsertPattern(models.PatternNegative, sigPolitenessChain, contextKey, 0.10, 0.95)
	}
	if hasCharRepetition(text) {
		fl.upsertPattern(models.PatternNegative, sigCharRepetition, contextKey, 0.10, 0.95)
	}
	if registerMixingPattern.MatchString(text) {
		fl.upsertPattern(models.PatternNegative, sigRegisterMixing, contextKey, 0.10, 0.95)
	}
	if isOverExpanded(payload.OriginalText, text) {
		fl.upsertPattern(models.PatternNegative, sigOverExpansion, contextKey, 0.10, 0.95)
	}
}

// learnPositive 高評価からの成功パターン抽出（conf=min(0.95, n*0.15)）
func (fl *FeedbackLearner) learnPositive(payload models.FeedbackPayload, contextKey string) {
	original := payload.OriginalText
	converted := payload.ConvertedText

	for _, w := range dialectWords {
		if strings.Contains(original, w) && !strings.Contains(converted, w) {
			fl.upsertPattern(models.PatternPositive, sigDialectNormalized, contextKey, 0.15, 0.95)
			break
		}
	}
	if strings.Contains(converted, "ます") && !politenessChainPattern.MatchString(converted) {
		fl.upsertPattern(models.PatternPositive, sigCleanKeigo, contextKey, 0.15, 0.95)
	}
	if !doubledPunctPattern.MatchString(converted) {
		fl.upsertPattern(models.PatternPositive, sigCleanPunctuation, contextKey, 0.15, 0.95)
	}
}

// learnCorrection 修正文からの対応関係抽出（conf=min(0.90, n*0.20)）
func (fl *FeedbackLearner) learnCorrection(payload models.FeedbackPayload, contextKey string) {
	converted := payload.ConvertedText
	correction := payload.UserCorrection

	// 定型対応表の照合
	matched := false
	for _, pair := range correctionPhrasePairs {
		if strings.Contains(converted, pair[0]) && strings.Contains(correction, pair[1]) &&
			!strings.Contains(converted, pair[1]) {
			sig := fmt.Sprintf("correction:%s->%s", pair[0], pair[1])
			fl.upsertPattern(models.PatternCorrection, sig, contextKey, 0.20, 0.90)
			matched = true
		}
	}

	// 定型表に乗らない修正は差分片から署名を作る
	if !matched {
		from, to := diffSegments(converted, correction)
		if from != "" || to != "" {
			sig := fmt.Sprintf("correction:%s->%s", truncateRunes(from, 20), truncateRunes(to, 20))
			fl.upsertPattern(models.PatternCorrection, sig, contextKey, 0.20, 0.90)
		}
	}
}

// upsertPattern 署名单位の冪等な蓄積：出現回数と置信度を単調更新
func (fl *FeedbackLearner) upsertPattern(kind models.PatternKind, signature, contextKey string, step, ceiling float64) {
	now := time.Now()
	pattern, exists := fl.state.Patterns[signature]
	if !exists {
		pattern = &models.LearningPattern{
			Kind:      kind,
			Signature: signature,
			FirstSeen: now,
		}
		fl.state.Patterns[signature] = pattern
	}
	pattern.Occurrences++
	pattern.LastSeen = now

	confidence := float64(pattern.Occurrences) * step
	if confidence > ceiling {
		confidence = ceiling
	}
	// 置信度只升不降
	if confidence > pattern.Confidence {
		pattern.Confidence = confidence
	}

	if contextKey != "" && !containsString(pattern.Contexts, contextKey) {
		pattern.Contexts = append(pattern.Contexts, contextKey)
	}
}

// updatePreferredLevel 高評価時、使用等級と現在偏好の四捨五入平均へ更新
func (fl *FeedbackLearner) updatePreferredLevel(payload models.FeedbackPayload) {
	used := 0
	if payload.Options != nil {
		used = payload.Options.Level
	}
	if used < models.MinPolitenessLevel || used > models.MaxPolitenessLevel {
		return
	}

	current := fl.state.Preferences.PreferredLevel
	if current == 0 {
		fl.state.Preferences.PreferredLevel = used
		return
	}
	fl.state.Preferences.PreferredLevel = models.ClampLevel(
		int(float64(current+used)/2.0 + 0.5))
}

// updateContextPreference 场景别成功/问题计数
func (fl *FeedbackLearner) updateContextPreference(contextKey string, rating int) {
	if contextKey == "" {
		return
	}
	pref, ok := fl.state.Preferences.ContextPreferences[contextKey]
	if !ok {
		pref = &models.ContextPreference{}
		fl.state.Preferences.ContextPreferences[contextKey] = pref
	}
	if rating >= 4 {
		pref.SuccessCount++
	}
	if rating <= 2 {
		pref.ProblemCount++
	}
}

// PreferredLevel 学習した敬語等級偏好（未学習は0）
func (fl *FeedbackLearner) PreferredLevel() int {
	fl.mutex.Lock()
	defer fl.mutex.Unlock()
	return fl.state.Preferences.PreferredLevel
}

// GetPattern 署名指定でパターンを取得（テスト・診断用）
func (fl *FeedbackLearner) GetPattern(signature string) (models.LearningPattern, bool) {
	fl.mutex.Lock()
	defer fl.mutex.Unlock()
	pattern, ok := fl.state.Patterns[signature]
	if !ok {
		return models.LearningPattern{}, false
	}
	return *pattern, true
}

// PatternCount 蓄積済みパターン数
func (fl *FeedbackLearner) PatternCount() int {
	fl.mutex.Lock()
	defer fl.mutex.Unlock()
	return len(fl.state.Patterns)
}

// RecentFeedback 受理済み反馈の副本
func (fl *FeedbackLearner) RecentFeedback() []models.FeedbackRecord {
	fl.mutex.Lock()
	defer fl.mutex.Unlock()
	copied := make([]models.FeedbackRecord, len(fl.feedback))
	copy(copied, fl.feedback)
	return copied
}

// situationKey 上下文から场景キーを取り出す
func situationKey(descriptor *models.ContextDescriptor) string {
	if descriptor == nil {
		return ""
	}
	return string(descriptor.Situation)
}

// hasCharRepetition 同一ルーンの3連続以上を検出
func hasCharRepetition(text string) bool {
	var prev rune
	count := 0
	for _, r := range text {
		if count > 0 && r == prev {
			count++
			if count >= 3 {
				return true
			}
			continue
		}
		prev = r
		count = 1
	}
	return false
}

// isOverExpanded 原文の4倍超への膨張判定
func isOverExpanded(original, converted string) bool {
	origLen := utf8.RuneCountInString(original)
	if origLen == 0 {
		return false
	}
	return float64(utf8.RuneCountInString(converted))/float64(origLen) > 4.0
}

// diffSegments 共通の前後缀を除いた変化部分の抽出
func diffSegments(before, after string) (string, string) {
	b := []rune(before)
	a := []rune(after)

	prefix := 0
	for prefix < len(b) && prefix < len(a) && b[prefix] == a[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(b)-prefix && suffix < len(a)-prefix &&
		b[len(b)-1-suffix] == a[len(a)-1-suffix] {
		suffix++
	}

	return string(b[prefix : len(b)-suffix]), string(a[prefix : len(a)-suffix])
}

// truncateRunes 文字数上限での切り詰め
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// containsString 線形探索
func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
