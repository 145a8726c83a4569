package renderer

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry 按名称登记渲染引擎。
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Renderer
	latest  string
}

// NewRegistry 创建空的引擎登记表。
func NewRegistry() *Registry {
	return &Registry{engines: map[string]Renderer{}}
}

// Register 登记引擎，latest 为 true 时作为默认引擎。
func (r *Registry) Register(name string, engine Renderer, latest bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name = strings.ToLower(name)
	r.engines[name] = engine
	if latest || r.latest == "" {
		r.latest = name
	}
}

// Get 返回指定引擎，name 为空时返回默认引擎。
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.latest
	}
	engine, ok := r.engines[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("未知的渲染引擎 %q，可选：%s", name, strings.Join(r.namesLocked(), ", "))
	}
	return engine, nil
}

// Latest 返回默认引擎名称。
func (r *Registry) Latest() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Names 返回所有引擎名称。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	out := make([]string, 0, len(r.engines))
	for name := range r.engines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
