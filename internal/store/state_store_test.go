package store

import (
	"bytes"
	"path/filepath"
	"testing"
)

// =============================================================================
// 测试用例
// =============================================================================

// TestFileStateStoreRoundTrip 测试文件存储的保存与读取
func TestFileStateStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStateStore(dir)
	if err != nil {
		t.Fatalf("NewFileStateStore failed: %v", err)
	}

	blob := []byte(`{"patterns":{},"updatedAt":"2025-06-02T00:00:00Z"}`)
	if err := fs.SaveState("learner_state", blob); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	loaded, err := fs.LoadState("learner_state")
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if !bytes.Equal(loaded, blob) {
		t.Errorf("Loaded blob differs: %s", loaded)
	}
}

// TestFileStateStoreMissingKey 测试不存在的键返回(nil, nil)
func TestFileStateStoreMissingKey(t *testing.T) {
	fs, err := NewFileStateStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStateStore failed: %v", err)
	}

	blob, err := fs.LoadState("no_such_key")
	if err != nil {
		t.Errorf("Missing key should not error, got %v", err)
	}
	if blob != nil {
		t.Errorf("Missing key should return nil, got %s", blob)
	}
}

// TestFileStateStoreKeySanitization 测试键中路径分隔符的过滤
func TestFileStateStoreKeySanitization(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStateStore(dir)
	if err != nil {
		t.Fatalf("NewFileStateStore failed: %v", err)
	}

	if err := fs.SaveState("../escape/attempt", []byte("data")); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	// 保存先はbasePath配下に収まる
	path := fs.pathFor("../escape/attempt")
	rel, err := filepath.Rel(dir, path)
	if err != nil || len(rel) >= 2 && rel[:2] == ".." {
		t.Errorf("Sanitized path should stay under base dir, got %s", path)
	}

	loaded, err := fs.LoadState("../escape/attempt")
	if err != nil || string(loaded) != "data" {
		t.Errorf("Sanitized key should round-trip, got %s, %v", loaded, err)
	}
}

// TestMemoryStateStore 测试内存存储
func TestMemoryStateStore(t *testing.T) {
	ms := NewMemoryStateStore()

	if blob, err := ms.LoadState("missing"); err != nil || blob != nil {
		t.Errorf("Missing key should return (nil, nil), got %s, %v", blob, err)
	}

	original := []byte("state-v1")
	if err := ms.SaveState("key", original); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	loaded, err := ms.LoadState("key")
	if err != nil || string(loaded) != "state-v1" {
		t.Fatalf("LoadState failed: %s, %v", loaded, err)
	}

	// 返却値は副本：書き換えても内部状態に影響しない
	loaded[0] = 'X'
	again, _ := ms.LoadState("key")
	if string(again) != "state-v1" {
		t.Errorf("Store should return copies, got %s", again)
	}
}
