package utils

import (
	"strings"
	"testing"
)

// =============================================================================
// 测试用例
// =============================================================================

// TestRandomSourceDeterminism 测试同种子随机源产生相同序列
func TestRandomSourceDeterminism(t *testing.T) {
	a := NewRandomSource(42)
	b := NewRandomSource(42)

	for i := 0; i < 20; i++ {
		if a.Intn(100) != b.Intn(100) {
			t.Fatal("Same seed should produce the same sequence")
		}
	}

	if a.Intn(0) != 0 || a.Intn(-1) != 0 {
		t.Error("Intn with n<=0 should return 0")
	}
}

// TestPick 测试候选集选择
func TestPick(t *testing.T) {
	src := NewRandomSource(1)

	if got := Pick(src, nil); got != "" {
		t.Errorf("Empty candidates should yield empty string, got %q", got)
	}

	candidates := []string{"a", "b", "c"}
	for i := 0; i < 30; i++ {
		picked := Pick(src, candidates)
		if picked != "a" && picked != "b" && picked != "c" {
			t.Fatalf("Picked value %q outside candidate set", picked)
		}
	}
}

// TestPickWeighted 测试权重选择的退化情形
func TestPickWeighted(t *testing.T) {
	src := NewRandomSource(1)
	candidates := []string{"x", "y"}

	// 权重长度不一致时退化为均匀选择
	if got := PickWeighted(src, candidates, []float64{1.0}); got != "x" && got != "y" {
		t.Errorf("Mismatched weights should fall back to uniform pick, got %q", got)
	}

	// 权重和为0时返回第一个候选
	if got := PickWeighted(src, candidates, []float64{0, 0}); got != "x" {
		t.Errorf("Zero total weight should return first candidate, got %q", got)
	}

	if got := PickWeighted(src, nil, nil); got != "" {
		t.Errorf("Empty candidates should yield empty string, got %q", got)
	}
}

// TestGenerateRandomString 测试随机字符串的长度与字符集
func TestGenerateRandomString(t *testing.T) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	s := GenerateRandomString(8)
	if len(s) != 8 {
		t.Errorf("Expected length 8, got %d", len(s))
	}
	for _, r := range s {
		if !strings.ContainsRune(charset, r) {
			t.Errorf("Character %q outside charset", r)
		}
	}

	if got := GenerateRandomString(0); got != "" {
		t.Errorf("Zero length should yield empty string, got %q", got)
	}
}
