package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// =============================================================================
// 状态存储 - 学习器状态等序列化数据的持久化抽象
// =============================================================================

// StateStore 状态存储接口
// LoadState在键不存在时返回(nil, nil)，调用方据此初始化空状态
type StateStore interface {
	LoadState(key string) ([]byte, error)
	SaveState(key string, blob []byte) error
}

// FileStateStore 基于文件系统的状态存储
// 每个键对应存储目录下的一个JSON文件
type FileStateStore struct {
	basePath string
	mutex    sync.Mutex
}

// NewFileStateStore 创建文件状态存储
func NewFileStateStore(basePath string) (*FileStateStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &FileStateStore{basePath: basePath}, nil
}

// LoadState 读取指定键的状态，不存在时返回(nil, nil)
func (fs *FileStateStore) LoadState(key string) ([]byte, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	path := fs.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取状态文件失败: %w", err)
	}
	return data, nil
}

// SaveState 原子写入状态：先写临时文件再改名
func (fs *FileStateStore) SaveState(key string, blob []byte) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	path := fs.pathFor(key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, blob, 0644); err != nil {
		return fmt.Errorf("写入临时状态文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("替换状态文件失败: %w", err)
	}
	log.Printf("状态已保存: key=%s, size=%d字节", key, len(blob))
	return nil
}

// pathFor 键到文件路径的映射，过滤路径分隔符防止目录穿越
func (fs *FileStateStore) pathFor(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(fs.basePath, safe+".json")
}

// MemoryStateStore 内存状态存储（测试和无持久化场景用）
type MemoryStateStore struct {
	states map[string][]byte
	mutex  sync.RWMutex
}

// NewMemoryStateStore 创建内存状态存储
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string][]byte)}
}

// LoadState 读取状态，不存在时返回(nil, nil)
func (ms *MemoryStateStore) LoadState(key string) ([]byte, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()
	blob, ok := ms.states[key]
	if !ok {
		return nil, nil
	}
	copied := make([]byte, len(blob))
	copy(copied, blob)
	return copied, nil
}

// SaveState 保存状态副本
func (ms *MemoryStateStore) SaveState(key string, blob []byte) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	copied := make([]byte, len(blob))
	copy(copied, blob)
	ms.states[key] = copied
	return nil
}
