package glyph

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/ByLCY/txt2pdf/store"
)

// MissingLog 是渲染过程中观察到的缺失字符集合，按码点去重并保持记录顺序。
// 可被扫描器与渲染器并发写入。
type MissingLog struct {
	kv store.KV
	mu sync.Mutex
}

// NewMissingLog 创建基于键值仓库的缺失字符日志。
func NewMissingLog(kv store.KV) *MissingLog {
	return &MissingLog{kv: kv}
}

func (m *MissingLog) read() ([]string, error) {
	data, err := m.kv.Get(MissingKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取缺失字符日志失败: %w", err)
	}
	var codes []string
	if err := json.Unmarshal(data, &codes); err != nil {
		return nil, nil
	}
	return codes, nil
}

func (m *MissingLog) write(codes []string) error {
	if codes == nil {
		codes = []string{}
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	if err := m.kv.Set(MissingKey, data); err != nil {
		return fmt.Errorf("保存缺失字符日志失败: %w", err)
	}
	return nil
}

// Log 记录一个缺失字符，返回是否为新记录。
func (m *MissingLog) Log(ch rune) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes, err := m.read()
	if err != nil {
		return false, err
	}
	code := CodeKey(ch)
	if lo.Contains(codes, code) {
		return false, nil
	}
	return true, m.write(append(codes, code))
}

// List 返回记录的码点键，例如 0x1F600。
func (m *MissingLog) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read()
}

// Remove 移除指定码点。
func (m *MissingLog) Remove(codes ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, err := m.read()
	if err != nil {
		return err
	}
	return m.write(lo.Without(existing, codes...))
}

// Clear 清空日志。
func (m *MissingLog) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(nil)
}
