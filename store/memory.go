package store

import (
	"sort"
	"strings"
	"sync"
)

// Memory 是进程内的 KV 实现，主要用于测试与快速模式。
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory 创建空的内存仓库。
func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MemoryBlobs 是进程内的 BlobStore 实现。
type MemoryBlobs struct {
	kv *Memory
}

// NewMemoryBlobs 创建空的内存输出存储。
func NewMemoryBlobs() *MemoryBlobs { return &MemoryBlobs{kv: NewMemory()} }

func (b *MemoryBlobs) Save(path string, data []byte) error { return b.kv.Set(path, data) }
func (b *MemoryBlobs) Get(path string) ([]byte, error)     { return b.kv.Get(path) }

func (b *MemoryBlobs) List() ([]string, error) {
	b.kv.mu.RLock()
	defer b.kv.mu.RUnlock()
	out := make([]string, 0, len(b.kv.data))
	for k := range b.kv.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (b *MemoryBlobs) DeleteAll() error {
	b.kv.mu.Lock()
	defer b.kv.mu.Unlock()
	b.kv.data = map[string][]byte{}
	return nil
}

// MemorySpace 是进程内的 Space 实现。
type MemorySpace struct {
	mu     sync.Mutex
	spaces map[string]*MemoryBlobs
}

// NewMemorySpace 创建空的内存命名空间集合。
func NewMemorySpace() *MemorySpace {
	return &MemorySpace{spaces: map[string]*MemoryBlobs{}}
}

func (s *MemorySpace) Blobs(namespace string) BlobStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.spaces[namespace]
	if !ok {
		b = NewMemoryBlobs()
		s.spaces[namespace] = b
	}
	return b
}

func (s *MemorySpace) Prune(keep string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ns := range s.spaces {
		if ns != keep && strings.HasPrefix(ns, NamespacePrefix) {
			delete(s.spaces, ns)
		}
	}
	return nil
}
