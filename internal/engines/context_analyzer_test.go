package engines

import (
	"testing"

	"github.com/keigobridge/service/internal/models"
)

// =============================================================================
// 测试用例
// =============================================================================

// TestAnalyzeIntent 测试意图分类
func TestAnalyzeIntent(t *testing.T) {
	analyzer := NewContextAnalyzer()

	cases := []struct {
		text     string
		expected models.Intent
	}{
		{"資料を送ってくれる？", models.IntentRequest},
		{"明日の会議って何時だっけ？", models.IntentQuestion},
		{"対応完了しました", models.IntentReport},
		{"ごめん、遅れる", models.IntentApology},
		{"ありがとう、助かった", models.IntentAppreciation},
		{"", models.IntentGeneral},
	}

	for _, c := range cases {
		desc := analyzer.Analyze(c.text)
		if desc.Intent != c.expected {
			t.Errorf("Analyze(%q).Intent = %s, expected %s", c.text, desc.Intent, c.expected)
		}
	}
}

// TestAnalyzeUrgency 测试紧急度判定（urgent优先于relaxed）
func TestAnalyzeUrgency(t *testing.T) {
	analyzer := NewContextAnalyzer()

	if desc := analyzer.Analyze("至急対応お願い"); desc.Urgency != models.UrgencyUrgent {
		t.Errorf("Expected urgent, got %s", desc.Urgency)
	}
	if desc := analyzer.Analyze("暇な時でいいよ"); desc.Urgency != models.UrgencyRelaxed {
		t.Errorf("Expected relaxed, got %s", desc.Urgency)
	}
	// urgent和relaxed都命中时，urgent获胜
	if desc := analyzer.Analyze("至急！でも暇な時でいい"); desc.Urgency != models.UrgencyUrgent {
		t.Errorf("Expected urgent on mixed signals, got %s", desc.Urgency)
	}
	if desc := analyzer.Analyze("これお願いします"); desc.Urgency != models.UrgencyNormal {
		t.Errorf("Expected normal, got %s", desc.Urgency)
	}
}

// TestAnalyzeSituation 测试场景分类（固定优先顺序）
func TestAnalyzeSituation(t *testing.T) {
	analyzer := NewContextAnalyzer()

	if desc := analyzer.Analyze("会議の資料見といて"); desc.Situation != models.SituationBusiness {
		t.Errorf("Expected business, got %s", desc.Situation)
	}
	if desc := analyzer.Analyze("アプデしといてくれる？"); desc.Situation != models.SituationTechnical {
		t.Errorf("Expected technical, got %s", desc.Situation)
	}
	// business先于technical
	if desc := analyzer.Analyze("会議でバグの話をする"); desc.Situation != models.SituationBusiness {
		t.Errorf("Expected business priority over technical, got %s", desc.Situation)
	}
}

// TestAnalyzeFormality 测试敬语程度打分分档
func TestAnalyzeFormality(t *testing.T) {
	analyzer := NewContextAnalyzer()

	cases := []struct {
		text     string
		expected models.Formality
	}{
		{"お世話になっております。恐れ入りますが、ご確認のほどお願いいたします。", models.FormalityVeryFormal},
		{"資料です", models.FormalityNeutral},
		{"まじやばい、どないしよ", models.FormalityVeryCasual},
	}

	for _, c := range cases {
		desc := analyzer.Analyze(c.text)
		if desc.FormalityLevel != c.expected {
			t.Errorf("Analyze(%q).FormalityLevel = %s, expected %s", c.text, desc.FormalityLevel, c.expected)
		}
	}
}

// TestAssessImprovement 测试改善判定与严重程度
func TestAssessImprovement(t *testing.T) {
	analyzer := NewContextAnalyzer()

	// 丁寧な文：改善不要
	desc := analyzer.Analyze("お手数ですが、資料のご確認をお願いいたします。")
	if desc.Improvement.NeedsImprovement {
		t.Errorf("Polite text should not need improvement: %+v", desc.Improvement)
	}
	if desc.Improvement.Severity != models.SeverityLow {
		t.Errorf("Expected low severity, got %s", desc.Improvement.Severity)
	}

	// 短くて随意：複数の問題
	desc = analyzer.Analyze("りょ")
	if !desc.Improvement.NeedsImprovement {
		t.Error("Casual short text should need improvement")
	}
	if len(desc.Improvement.Issues) < 3 {
		t.Errorf("Expected at least 3 issues, got %v", desc.Improvement.Issues)
	}
	if desc.Improvement.Severity != models.SeverityHigh {
		t.Errorf("Expected high severity, got %s", desc.Improvement.Severity)
	}

	// 先頭の随意动词词干
	desc = analyzer.Analyze("やっといたほうがいいやつ教えて")
	found := false
	for _, issue := range desc.Improvement.Issues {
		if issue == models.IssueTooDirect {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected too_direct issue, got %v", desc.Improvement.Issues)
	}
}

// TestAnalyzeNeverPanics 测试任意输入都不报错
func TestAnalyzeNeverPanics(t *testing.T) {
	analyzer := NewContextAnalyzer()

	inputs := []string{"", "🙏🙏🙏", "hello world", "12345", "\n\t", "ｱｲｳｴｵ"}
	for _, input := range inputs {
		desc := analyzer.Analyze(input)
		if desc == nil {
			t.Fatalf("Analyze(%q) returned nil", input)
		}
		if desc.Intent == "" || desc.Urgency == "" || desc.Situation == "" {
			t.Errorf("Analyze(%q) returned incomplete descriptor: %+v", input, desc)
		}
	}
}

// TestSuggest 测试建议生成
func TestSuggest(t *testing.T) {
	analyzer := NewContextAnalyzer()

	desc := analyzer.Analyze("至急アプデしといて")
	suggestions := analyzer.Suggest(desc)
	if len(suggestions) == 0 {
		t.Fatal("Expected suggestions for casual urgent text")
	}

	// 緊急時の建议が含まれる
	hasUrgent := false
	for _, s := range suggestions {
		if s.Type != "context" {
			t.Errorf("Analyzer suggestion type should be context, got %s", s.Type)
		}
		if s.Message == "急ぎの依頼です。恐縮の意を添えると印象が柔らかくなります。" {
			hasUrgent = true
		}
	}
	if !hasUrgent {
		t.Error("Expected urgency suggestion")
	}

	if got := analyzer.Suggest(nil); len(got) != 0 {
		t.Errorf("Suggest(nil) should return empty, got %v", got)
	}
}
