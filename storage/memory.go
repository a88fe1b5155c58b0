package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryStorage 内存存储，用于测试与临时部署
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[string][]byte

	// FailSave 返回非 nil 时 SaveWithContext 直接失败（测试注入）
	FailSave func(key string) error
}

// NewMemoryStorage 创建内存存储
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[string][]byte)}
}

func (s *MemoryStorage) SaveWithContext(ctx context.Context, key string, file io.Reader) error {
	if !IsValidStoragePath(key) {
		return fmt.Errorf("invalid storage path: %s", key)
	}
	if s.FailSave != nil {
		if err := s.FailSave(key); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read content for '%s': %w", key, err)
	}

	s.mu.Lock()
	s.files[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.files[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStorage) DeleteWithContext(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(s.files, key)
	return nil
}

func (s *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	_, ok := s.files[key]
	s.mu.RUnlock()
	return ok, nil
}

func (s *MemoryStorage) Health(ctx context.Context) error { return nil }

func (s *MemoryStorage) Name() string { return "memory" }

// Keys 返回指定前缀下的所有 key（已排序）
func (s *MemoryStorage) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.files))
	for k := range s.files {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Bytes 返回文件内容的副本
func (s *MemoryStorage) Bytes(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}
