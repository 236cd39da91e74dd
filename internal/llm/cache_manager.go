package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"
)

// =============================================================================
// 响应缓存管理器 - TTL + 容量上限的内存缓存
// 同一文本/参数组合的润色结果直接复用，避免重复调用
// =============================================================================

// cacheEntry 缓存条目
type cacheEntry struct {
	response  *LLMResponse
	expiresAt time.Time
}

// CacheManager LLM响应缓存管理器
type CacheManager struct {
	entries    map[string]*cacheEntry
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64
	mutex      sync.RWMutex
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(ttl time.Duration, maxEntries int) *CacheManager {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &CacheManager{
		entries:    make(map[string]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// CacheKey 计算缓存键：sha256(prompt + model + 参数)
func CacheKey(req *LLMRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Prompt))
	h.Write([]byte{0})
	h.Write([]byte(req.SystemPrompt))
	h.Write([]byte{0})
	h.Write([]byte(req.Model))
	h.Write([]byte{0})
	h.Write([]byte(fmt.Sprintf("%d|%.3f", req.MaxTokens, req.Temperature)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get 查找缓存，过期条目视为未命中并删除
func (cm *CacheManager) Get(key string) (*LLMResponse, bool) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entry, ok := cm.entries[key]
	if !ok {
		cm.misses++
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(cm.entries, key)
		cm.misses++
		return nil, false
	}
	cm.hits++
	return entry.response, true
}

// Set 写入缓存，超容量时先清理过期条目，仍超则整体重置
func (cm *CacheManager) Set(key string, response *LLMResponse) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if len(cm.entries) >= cm.maxEntries {
		now := time.Now()
		for k, e := range cm.entries {
			if now.After(e.expiresAt) {
				delete(cm.entries, k)
			}
		}
		if len(cm.entries) >= cm.maxEntries {
			log.Printf("⚠️ LLM缓存达到容量上限(%d)，执行整体重置", cm.maxEntries)
			cm.entries = make(map[string]*cacheEntry)
		}
	}

	cm.entries[key] = &cacheEntry{
		response:  response,
		expiresAt: time.Now().Add(cm.ttl),
	}
}

// Stats 返回命中/未命中统计
func (cm *CacheManager) Stats() (hits, misses int64, size int) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.hits, cm.misses, len(cm.entries)
}

// Clear 清空缓存
func (cm *CacheManager) Clear() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.entries = make(map[string]*cacheEntry)
}
