// Package glyph 检测字体无法绘制的字符，并维护替代字形注册表与缺失字符日志。
package glyph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ByLCY/txt2pdf/store"
)

// 仓库中的键名。
const (
	RegistryKey = "txt2pdf_glyph_registry"
	MissingKey  = "txt2pdf_missing_characters"
)

// CodeKey 返回码点的注册表键，例如 0x1F600。
func CodeKey(r rune) string { return fmt.Sprintf("0x%X", r) }

// ParseCode 解析 0x1F600、U+1F600 或单个字符。
func ParseCode(s string) (rune, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	for _, prefix := range []string{"0X", "U+"} {
		if strings.HasPrefix(upper, prefix) {
			v, err := strconv.ParseUint(upper[len(prefix):], 16, 32)
			if err != nil {
				return 0, fmt.Errorf("无效的码点 %s: %w", s, err)
			}
			return rune(v), nil
		}
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("无效的码点 %s", s)
	}
	return runes[0], nil
}

// Entry 是一个替代字形：PNG 图像及其登记时间。
type Entry struct {
	Code      string    `json:"code"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Rune 返回条目对应的字符。
func (e Entry) Rune() rune {
	r, _ := ParseCode(e.Code)
	return r
}

// Registry 保存由外部学习流程生成的替代字形，只在显式删除时移除。
type Registry struct {
	kv store.KV

	mu      sync.RWMutex
	entries map[string]Entry
	images  map[string]image.Image
	loaded  bool
}

// NewRegistry 创建基于键值仓库的注册表。
func NewRegistry(kv store.KV) *Registry {
	return &Registry{kv: kv, images: map[string]image.Image{}}
}

func (r *Registry) load() error {
	if r.loaded {
		return nil
	}
	entries := map[string]Entry{}
	data, err := r.kv.Get(RegistryKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("读取字形注册表失败: %w", err)
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			// 损坏的注册表按空表处理
			entries = map[string]Entry{}
		}
	}
	r.entries = entries
	r.loaded = true
	return nil
}

func (r *Registry) persist() error {
	data, err := json.Marshal(r.entries)
	if err != nil {
		return err
	}
	if err := r.kv.Set(RegistryKey, data); err != nil {
		return fmt.Errorf("保存字形注册表失败: %w", err)
	}
	return nil
}

// Save 登记字符的替代字形，data 必须是 PNG。
func (r *Registry) Save(ch rune, data []byte) error {
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("字形图像不是有效的 PNG: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}
	code := CodeKey(ch)
	r.entries[code] = Entry{Code: code, Data: data, Timestamp: time.Now()}
	delete(r.images, code)
	return r.persist()
}

// Get 返回字符的替代字形。
func (r *Registry) Get(ch rune) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return Entry{}, false
	}
	e, ok := r.entries[CodeKey(ch)]
	return e, ok
}

// Image 返回解码后的替代字形，解码结果会被缓存。
func (r *Registry) Image(ch rune) (image.Image, bool) {
	code := CodeKey(ch)
	r.mu.RLock()
	img, ok := r.images[code]
	r.mu.RUnlock()
	if ok {
		return img, true
	}
	e, ok := r.Get(ch)
	if !ok {
		return nil, false
	}
	img, err := png.Decode(bytes.NewReader(e.Data))
	if err != nil {
		return nil, false
	}
	r.mu.Lock()
	r.images[code] = img
	r.mu.Unlock()
	return img, true
}

// Delete 删除一个条目，code 形如 0x1F600。
func (r *Registry) Delete(code string) error {
	ch, err := ParseCode(code)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}
	key := CodeKey(ch)
	if _, ok := r.entries[key]; !ok {
		return fmt.Errorf("字形 %s: %w", key, store.ErrNotFound)
	}
	delete(r.entries, key)
	delete(r.images, key)
	return r.persist()
}

// List 按码点顺序返回所有条目。
func (r *Registry) List() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rune() < out[j].Rune() })
	return out, nil
}
