package utils

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource 可注入的随机源
// 句子组装中的问候语/クッション言葉/結び/绝文字选择都经过它，
// 测试时注入固定种子即可复现
type RandomSource interface {
	// Intn 返回[0,n)的随机整数，n<=0时返回0
	Intn(n int) int
	// Float64 返回[0,1)的随机浮点数
	Float64() float64
}

// seededSource 基于math/rand的默认实现，带锁保证并发安全
type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource 创建指定种子的随机源
func NewRandomSource(seed int64) RandomSource {
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeRandomSource 创建以当前时间为种子的随机源
func NewTimeRandomSource() RandomSource {
	return NewRandomSource(time.Now().UnixNano())
}

func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Pick 从候选列表中均匀随机选择一个，空列表返回空串
func Pick(src RandomSource, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return candidates[src.Intn(len(candidates))]
}

// PickWeighted 按权重随机选择，权重和为0时退化为第一个候选
func PickWeighted(src RandomSource, candidates []string, weights []float64) string {
	if len(candidates) == 0 {
		return ""
	}
	if len(weights) != len(candidates) {
		return Pick(src, candidates)
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return candidates[0]
	}
	r := src.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// GenerateRandomString 生成指定长度的随机字符串
func GenerateRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}
