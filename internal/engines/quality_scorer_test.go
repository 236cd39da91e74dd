package engines

import (
	"testing"

	"github.com/keigobridge/service/internal/models"
)

// =============================================================================
// 测试用例
// =============================================================================

// TestScoreGoodConversion 测试良好转换得分高于劣质转换
func TestScoreGoodConversion(t *testing.T) {
	scorer := NewQualityScorer()

	original := "アプデしといてくれる？"
	good := "お疲れ様です。お手数ですが、アップデートをしておいていただけますか。よろしくお願いいたします。"
	bad := "お願いします。お願いします。お願いします。"

	goodReport := scorer.Score(original, good, ScoreOptions{})
	badReport := scorer.Score(original, bad, ScoreOptions{})

	if goodReport.Overall <= badReport.Overall {
		t.Errorf("Good conversion (%.2f) should outscore bad conversion (%.2f)",
			goodReport.Overall, badReport.Overall)
	}
	if goodReport.Grade == "" || badReport.Grade == "" {
		t.Error("Reports should carry a grade")
	}
}

// TestScoreAxesInRange 测试四轴得分都在[0,1]区间
func TestScoreAxesInRange(t *testing.T) {
	scorer := NewQualityScorer()

	pairs := [][2]string{
		{"バグった、どないしよ", "不具合が発生しました。どうしましょうか。"},
		{"", ""},
		{"🙏", "🙏をお願いします。"},
		{"了解", "承知いたしました。"},
	}

	for _, pair := range pairs {
		report := scorer.Score(pair[0], pair[1], ScoreOptions{})
		axes := []float64{
			report.AxisScores.Naturalness,
			report.AxisScores.IntentPreservation,
			report.AxisScores.Appropriateness,
			report.AxisScores.Completeness,
			report.Overall,
		}
		for _, v := range axes {
			if v < 0 || v > 1 {
				t.Errorf("Score out of range for pair %v: %f", pair, v)
			}
		}
	}
}

// TestScoreUnnaturalPenalty 测试不自然パターン减分
func TestScoreUnnaturalPenalty(t *testing.T) {
	scorer := NewQualityScorer()

	clean := "お手数ですが、ご確認をお願いいたします。"
	doubled := "お手数ですが、、ご確認をお願いいたします。。"

	cleanScore := scorer.Score("確認して", clean, ScoreOptions{})
	doubledScore := scorer.Score("確認して", doubled, ScoreOptions{})

	if doubledScore.AxisScores.Naturalness >= cleanScore.AxisScores.Naturalness {
		t.Errorf("Doubled punctuation (%.2f) should lower naturalness below clean (%.2f)",
			doubledScore.AxisScores.Naturalness, cleanScore.AxisScores.Naturalness)
	}
}

// TestScoreIntentPreservation 测试内容語保持（同義語テーブル考慮）
func TestScoreIntentPreservation(t *testing.T) {
	scorer := NewQualityScorer()

	// アプデ→アップデートは同義語として保持扱い
	preserved := scorer.Score("アプデの件、確認して", "アップデートの件、ご確認をお願いいたします。", ScoreOptions{})
	dropped := scorer.Score("アプデの件、確認して", "よろしくお願いいたします。", ScoreOptions{})

	if preserved.AxisScores.IntentPreservation <= dropped.AxisScores.IntentPreservation {
		t.Errorf("Synonym-preserving conversion (%.2f) should outscore content-dropping one (%.2f)",
			preserved.AxisScores.IntentPreservation, dropped.AxisScores.IntentPreservation)
	}
}

// TestScoreLevelMismatchPenalty 测试敬語レベル乖離のペナルティ
func TestScoreLevelMismatchPenalty(t *testing.T) {
	scorer := NewQualityScorer()

	text := "資料です。"

	matched := scorer.Score("資料", text, ScoreOptions{RequestedLevel: 2})
	mismatched := scorer.Score("資料", text, ScoreOptions{RequestedLevel: 5})

	if mismatched.AxisScores.Appropriateness >= matched.AxisScores.Appropriateness {
		t.Errorf("Level mismatch (%.2f) should lower appropriateness below match (%.2f)",
			mismatched.AxisScores.Appropriateness, matched.AxisScores.Appropriateness)
	}
}

// TestScoreCompletenessExpansion 测试过剰膨張の減点
func TestScoreCompletenessExpansion(t *testing.T) {
	scorer := NewQualityScorer()

	original := "確認して"
	reasonable := "ご確認をお願いいたします。"
	truncated := "確認"

	reasonableReport := scorer.Score(original, reasonable, ScoreOptions{})
	truncatedReport := scorer.Score(original, truncated, ScoreOptions{})

	if truncatedReport.AxisScores.Completeness >= reasonableReport.AxisScores.Completeness {
		t.Errorf("Truncated output (%.2f) should score below reasonable expansion (%.2f)",
			truncatedReport.AxisScores.Completeness, reasonableReport.AxisScores.Completeness)
	}
}

// TestDetectPolitenessLevel 测试敬語レベル推定
func TestDetectPolitenessLevel(t *testing.T) {
	cases := []struct {
		text     string
		expected int
	}{
		{"資料送って", 1},
		{"資料を送ります", 2},
		{"お疲れ様です。資料を送ります。よろしくお願いいたします。", 3},
		{"お疲れ様です。資料を送ります。よろしくお願いいたします。🙏", 4},
	}

	for _, c := range cases {
		if got := DetectPolitenessLevel(c.text); got != c.expected {
			t.Errorf("DetectPolitenessLevel(%q) = %d, expected %d", c.text, got, c.expected)
		}
	}
}

// TestGradeBands 测试等級帯
func TestGradeBands(t *testing.T) {
	cases := []struct {
		score float64
		grade string
	}{
		{0.95, "A+"},
		{0.85, "A"},
		{0.75, "B+"},
		{0.65, "B"},
		{0.55, "C+"},
	}
	for _, c := range cases {
		if got := gradeFor(c.score); got != c.grade {
			t.Errorf("gradeFor(%.2f) = %s, expected %s", c.score, got, c.grade)
		}
	}
}

// TestScoreWithContext 测试上下文感知的適切さ評価
func TestScoreWithContext(t *testing.T) {
	scorer := NewQualityScorer()

	superiorCtx := &models.ContextDescriptor{
		Relationship: models.RelationshipSuperior,
		Situation:    models.SituationGeneral,
	}

	humble := scorer.Score("確認して", "恐れ入りますが、ご確認いただけますでしょうか。", ScoreOptions{Context: superiorCtx})
	plain := scorer.Score("確認して", "確認してください。", ScoreOptions{Context: superiorCtx})

	if humble.AxisScores.Appropriateness <= plain.AxisScores.Appropriateness {
		t.Errorf("Humble phrasing (%.2f) should outscore plain phrasing (%.2f) toward a superior",
			humble.AxisScores.Appropriateness, plain.AxisScores.Appropriateness)
	}
}
