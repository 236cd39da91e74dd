package services

import (
	"math"
	"testing"

	"github.com/keigobridge/service/internal/config"
	"github.com/keigobridge/service/internal/models"
	"github.com/keigobridge/service/internal/store"
)

// =============================================================================
// 测试用例
// =============================================================================

// newTestLearner 内存存储的测试用学习器
func newTestLearner() *FeedbackLearner {
	cfg := &config.Config{
		LearnerStateKey:  "learner_state_test",
		FeedbackMaxCount: 100,
	}
	return NewFeedbackLearner(cfg, store.NewMemoryStateStore())
}

// TestRecordFeedbackReturnsID 测试反馈受理返回ID
func TestRecordFeedbackReturnsID(t *testing.T) {
	learner := newTestLearner()

	id, err := learner.RecordFeedback(models.FeedbackPayload{
		OriginalText:  "アプデして",
		ConvertedText: "アップデートをお願いします。",
		UserRating:    4,
	})
	if err != nil {
		t.Fatalf("RecordFeedback failed: %v", err)
	}
	if id == "" {
		t.Error("Feedback ID should not be empty")
	}
}

// TestRecordFeedbackInvalidRating 测试评分范围校验
func TestRecordFeedbackInvalidRating(t *testing.T) {
	learner := newTestLearner()

	for _, rating := range []int{0, 6, -1} {
		if _, err := learner.RecordFeedback(models.FeedbackPayload{
			OriginalText:  "a",
			ConvertedText: "b",
			UserRating:    rating,
		}); err == nil {
			t.Errorf("Rating %d should be rejected", rating)
		}
	}
}

// TestNegativePatternConfidence 测试负面模式的置信度公式（n*0.10）
func TestNegativePatternConfidence(t *testing.T) {
	learner := newTestLearner()

	payload := models.FeedbackPayload{
		OriginalText:  "確認して",
		ConvertedText: "お願いします。お願いします。",
		UserRating:    1,
	}

	// 同一内容の反馈を2回：occurrences=2, confidence=0.20
	learner.RecordFeedback(payload)
	learner.RecordFeedback(payload)

	pattern, ok := learner.GetPattern(sigPolitenessChain)
	if !ok {
		t.Fatal("Expected politeness_chain pattern")
	}
	if pattern.Occurrences != 2 {
		t.Errorf("Expected occurrences 2, got %d", pattern.Occurrences)
	}
	if math.Abs(pattern.Confidence-0.20) > 1e-9 {
		t.Errorf("Expected confidence 0.20, got %f", pattern.Confidence)
	}
	if pattern.Kind != models.PatternNegative {
		t.Errorf("Expected negative kind, got %s", pattern.Kind)
	}
}

// TestConfidenceMonotonicAndSaturating 测试置信度单调增长并饱和于0.95
func TestConfidenceMonotonicAndSaturating(t *testing.T) {
	learner := newTestLearner()

	payload := models.FeedbackPayload{
		OriginalText:  "確認して",
		ConvertedText: "ですですじゃん、、、",
		UserRating:    1,
	}

	last := 0.0
	for i := 0; i < 12; i++ {
		learner.RecordFeedback(payload)
		pattern, ok := learner.GetPattern(sigCharRepetition)
		if !ok {
			t.Fatal("Expected char_repetition pattern")
		}
		if pattern.Confidence < last {
			t.Errorf("Confidence decreased: %f -> %f", last, pattern.Confidence)
		}
		last = pattern.Confidence
	}
	if last != 0.95 {
		t.Errorf("Confidence should saturate at 0.95, got %f", last)
	}
}

// TestCharRepetitionDetection 测试同一文字3連続の検出（2連続では発火しない）
func TestCharRepetitionDetection(t *testing.T) {
	learner := newTestLearner()

	learner.RecordFeedback(models.FeedbackPayload{
		OriginalText:  "確認して",
		ConvertedText: "あーーー、確認します",
		UserRating:    1,
	})
	if _, ok := learner.GetPattern(sigCharRepetition); !ok {
		t.Fatal("Expected char_repetition pattern for 3 repeated runes")
	}

	fresh := newTestLearner()
	fresh.RecordFeedback(models.FeedbackPayload{
		OriginalText:  "確認して",
		ConvertedText: "ですです、確認します",
		UserRating:    1,
	})
	if _, ok := fresh.GetPattern(sigCharRepetition); ok {
		t.Error("Two repeated runes should not trigger char_repetition")
	}
}

// TestPositivePatternExtraction 测试正面模式抽取（方言標準語化）
func TestPositivePatternExtraction(t *testing.T) {
	learner := newTestLearner()

	learner.RecordFeedback(models.FeedbackPayload{
		OriginalText:  "どないしよ、あかんわ",
		ConvertedText: "どうしましょうか。良くない状況です。",
		UserRating:    5,
	})

	pattern, ok := learner.GetPattern(sigDialectNormalized)
	if !ok {
		t.Fatal("Expected dialect_normalized pattern")
	}
	if math.Abs(pattern.Confidence-0.15) > 1e-9 {
		t.Errorf("Expected confidence 0.15, got %f", pattern.Confidence)
	}
}

// TestCorrectionPattern 测试修正文からの学習（n*0.20）
func TestCorrectionPattern(t *testing.T) {
	learner := newTestLearner()

	payload := models.FeedbackPayload{
		OriginalText:   "了解",
		ConvertedText:  "わかりました。",
		UserRating:     3,
		UserCorrection: "承知いたしました。",
	}
	learner.RecordFeedback(payload)

	pattern, ok := learner.GetPattern("correction:わかりました->承知いたしました")
	if !ok {
		t.Fatal("Expected correction pattern from phrase table")
	}
	if pattern.Kind != models.PatternCorrection {
		t.Errorf("Expected correction kind, got %s", pattern.Kind)
	}
	if math.Abs(pattern.Confidence-0.20) > 1e-9 {
		t.Errorf("Expected confidence 0.20, got %f", pattern.Confidence)
	}
}

// TestPreferredLevelLearning 测试高評価時の偏好等級学習
func TestPreferredLevelLearning(t *testing.T) {
	learner := newTestLearner()

	// 初回：使用等級をそのまま採用
	learner.RecordFeedback(models.FeedbackPayload{
		OriginalText:  "確認して",
		ConvertedText: "ご確認をお願いいたします。",
		UserRating:    5,
		Options:       &models.ConvertOptions{Level: 4},
	})
	if got := learner.PreferredLevel(); got != 4 {
		t.Errorf("First positive feedback should set preferred level 4, got %d", got)
	}

	// 2回目：round(avg(4, 2)) = 3
	learner.RecordFeedback(models.FeedbackPayload{
		OriginalText:  "確認して",
		ConvertedText: "ご確認をお願いいたします。",
		UserRating:    5,
		Options:       &models.ConvertOptions{Level: 2},
	})
	if got := learner.PreferredLevel(); got != 3 {
		t.Errorf("Preferred level should average to 3, got %d", got)
	}

	// 低評価では更新されない
	learner.RecordFeedback(models.FeedbackPayload{
		OriginalText:  "確認して",
		ConvertedText: "ご確認をお願いいたします。",
		UserRating:    1,
		Options:       &models.ConvertOptions{Level: 1},
	})
	if got := learner.PreferredLevel(); got != 3 {
		t.Errorf("Negative feedback should not change preferred level, got %d", got)
	}
}

// TestStatePersistedAcrossRestarts 测试状态的持久化与再加载
func TestStatePersistedAcrossRestarts(t *testing.T) {
	cfg := &config.Config{LearnerStateKey: "learner_state_test", FeedbackMaxCount: 100}
	stateStore := store.NewMemoryStateStore()

	learner := NewFeedbackLearner(cfg, stateStore)
	learner.RecordFeedback(models.FeedbackPayload{
		OriginalText:  "確認して",
		ConvertedText: "ご確認をお願いいたします。",
		UserRating:    5,
		Options:       &models.ConvertOptions{Level: 4},
	})

	// 再起動をシミュレート
	reloaded := NewFeedbackLearner(cfg, stateStore)
	if got := reloaded.PreferredLevel(); got != 4 {
		t.Errorf("Reloaded learner should keep preferred level 4, got %d", got)
	}
	if reloaded.PatternCount() == 0 {
		t.Error("Reloaded learner should keep patterns")
	}
}

// TestCorruptStateFallsBackToEmpty 测试壊れた状態からの安全な起動
func TestCorruptStateFallsBackToEmpty(t *testing.T) {
	cfg := &config.Config{LearnerStateKey: "learner_state_test", FeedbackMaxCount: 100}
	stateStore := store.NewMemoryStateStore()
	stateStore.SaveState("learner_state_test", []byte("not json at all"))

	learner := NewFeedbackLearner(cfg, stateStore)
	if learner.PatternCount() != 0 {
		t.Error("Corrupt state should yield an empty model")
	}
	if learner.PreferredLevel() != 0 {
		t.Error("Corrupt state should yield unlearned preference")
	}

	// 起動後は普通に学習できる
	if _, err := learner.RecordFeedback(models.FeedbackPayload{
		OriginalText:  "a",
		ConvertedText: "b",
		UserRating:    3,
	}); err != nil {
		t.Errorf("Learner should work after corrupt state: %v", err)
	}
}
