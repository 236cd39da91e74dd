package engines

import (
	"strings"
	"testing"
	"time"

	"github.com/keigobridge/service/internal/models"
	"github.com/keigobridge/service/internal/utils"
)

// =============================================================================
// 测试用例
// 挨拶・結び等は候补集合内の随机选择なので、完全一致ではなく
// 集合所属と统计性质（平均长度的单调性）を検証する
// =============================================================================

// fixedAssembler 固定時刻・固定种子的组装器
func fixedAssembler(seed int64, hour int) *SentenceAssembler {
	sa := NewSentenceAssembler(utils.NewRandomSource(seed))
	sa.now = func() time.Time {
		return time.Date(2025, 6, 2, hour, 0, 0, 0, time.Local)
	}
	return sa
}

// TestGenerateGreetingMembership 测试挨拶从时间帯候选集中选出
func TestGenerateGreetingMembership(t *testing.T) {
	cases := []struct {
		hour string
		h    int
		bank []string
	}{
		{"morning", 8, morningGreetings},
		{"daytime", 14, daytimeGreetings},
		{"evening", 21, eveningGreetings},
	}

	for _, c := range cases {
		sa := fixedAssembler(1, c.h)
		text := sa.Generate("資料を確認して", nil, models.LevelHighlyPolite)

		matched := false
		for _, g := range c.bank {
			if strings.HasPrefix(text, g) {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("[%s] Generated text should start with a greeting from the bank, got %q", c.hour, text)
		}
	}
}

// TestGenerateClosingMembership 测试結び从候选集中选出
func TestGenerateClosingMembership(t *testing.T) {
	sa := fixedAssembler(2, 14)
	text := sa.Generate("手順を教えてほしいです？", nil, models.LevelHighlyPolite)

	matched := false
	for _, closing := range closingQuestion {
		if strings.Contains(text, closing) {
			matched = true
			break
		}
	}
	if !matched {
		t.Errorf("Question text should carry a question closing, got %q", text)
	}
}

// TestGenerateLevelStructure 测试等级对文章構造的影响
func TestGenerateLevelStructure(t *testing.T) {
	// 等级1：挨拶も結びもなし
	sa := fixedAssembler(3, 14)
	low := sa.Generate("資料を送って", nil, models.LevelBasicPolite)
	for _, g := range daytimeGreetings {
		if strings.Contains(low, g) {
			t.Errorf("Level 1 should not contain greeting, got %q", low)
		}
	}

	// 等级4以上：絵文字がちょうど一つ付く
	sa = fixedAssembler(3, 14)
	high := sa.Generate("資料を送って", nil, models.LevelWithEmoji)
	if !hasAnyEmoji(high) {
		t.Errorf("Level 4 should contain an emoji, got %q", high)
	}
	if hasAnyEmoji(low) {
		t.Errorf("Level 1 should not contain emoji, got %q", low)
	}
}

// TestEmojiToggle 测试绝文字付加的开关
func TestEmojiToggle(t *testing.T) {
	sa := fixedAssembler(3, 14)
	sa.SetEmojiEnabled(false)
	out := sa.Generate("資料を送って", nil, models.LevelWithEmoji)
	if hasAnyEmoji(out) {
		t.Errorf("Disabled emoji should not appear at level 4, got %q", out)
	}

	sa = fixedAssembler(3, 14)
	sa.SetEmojiEnabled(true)
	out = sa.Generate("資料を送って", nil, models.LevelWithEmoji)
	if !hasAnyEmoji(out) {
		t.Errorf("Enabled emoji should appear at level 4, got %q", out)
	}
}

// TestGenerateLengthMonotonicity 测试高等级平均长度不低于低等级（N=30抽样）
func TestGenerateLengthMonotonicity(t *testing.T) {
	const samples = 30
	input := "アプデしといてくれる？"

	total1, total5 := 0, 0
	for i := 0; i < samples; i++ {
		sa1 := fixedAssembler(int64(i), 14)
		total1 += len([]rune(sa1.Generate(input, nil, models.LevelBasicPolite)))

		sa5 := fixedAssembler(int64(i), 14)
		total5 += len([]rune(sa5.Generate(input, nil, models.LevelMaximalKeigo)))
	}

	avg1 := float64(total1) / samples
	avg5 := float64(total5) / samples
	if avg5 < avg1 {
		t.Errorf("Average length at level 5 (%.1f) should be >= level 1 (%.1f)", avg5, avg1)
	}
}

// TestGenerateDeterministicWithSeed 测试同种子同時刻下输出可复现
func TestGenerateDeterministicWithSeed(t *testing.T) {
	a := fixedAssembler(7, 14).Generate("至急確認お願い", nil, models.LevelMaximalKeigo)
	b := fixedAssembler(7, 14).Generate("至急確認お願い", nil, models.LevelMaximalKeigo)
	if a != b {
		t.Errorf("Same seed should reproduce output: %q vs %q", a, b)
	}
}

// TestGenerateVariations 测试7个变体候选
func TestGenerateVariations(t *testing.T) {
	sa := fixedAssembler(5, 14)
	candidates := sa.GenerateVariations("資料を見といて", nil, models.LevelHighlyPolite)

	if len(candidates) != 7 {
		t.Fatalf("Expected 7 variation candidates, got %d", len(candidates))
	}

	levels := map[int]bool{}
	for _, c := range candidates {
		if c.Approach != models.ApproachLevelVariation {
			t.Errorf("Variation approach should be %s, got %s", models.ApproachLevelVariation, c.Approach)
		}
		if c.Confidence != 0.80 {
			t.Errorf("Variation confidence should be 0.80, got %f", c.Confidence)
		}
		if c.Text == "" {
			t.Error("Variation text should not be empty")
		}
		levels[c.Level] = true
	}

	// 等级2..5が網羅されている
	for level := models.LevelBusiness; level <= models.LevelMaximalKeigo; level++ {
		if !levels[level] {
			t.Errorf("Expected a candidate at level %d", level)
		}
	}
}

// TestExtractComponents 测试成分抽取
func TestExtractComponents(t *testing.T) {
	sa := fixedAssembler(1, 14)

	comp := sa.extractComponents("えっと、資料を確認してくれる？")
	if strings.Contains(comp.body, "えっと") {
		t.Errorf("Filler should be stripped, got %q", comp.body)
	}
	if !comp.isQuestion {
		t.Error("Text with ？ should be a question")
	}
	if !comp.isRequest {
		t.Error("Text with くれる should be a request")
	}
	if comp.requestType != requestVerification {
		t.Errorf("Expected verification request, got %s", comp.requestType)
	}

	comp = sa.extractComponents("至急対応してほしい")
	if comp.tone != toneUrgent {
		t.Errorf("Expected urgent tone, got %s", comp.tone)
	}
}

// hasAnyEmoji 絵文字セットのいずれかを含むか
func hasAnyEmoji(text string) bool {
	for _, set := range emojiSets {
		for _, e := range set {
			if strings.Contains(text, e) {
				return true
			}
		}
	}
	return false
}
