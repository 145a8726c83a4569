package batch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// OutputMode 决定普通文件的输出位置。
type OutputMode string

const (
	// OutputMixed 把所有输出平铺在归档根目录。
	OutputMixed OutputMode = "MIXED"
	// OutputMirror 按任务的逻辑目录镜像输入结构。
	OutputMirror OutputMode = "MIRROR"
)

// OutputPath 返回普通文件的期望输出路径。
func OutputPath(t Task, mode OutputMode) string {
	out := t.FileName + ".pdf"
	if mode == OutputMirror {
		out = strings.TrimSuffix(t.Path, "/") + "/" + out
	}
	return CleanOutputPath(out)
}

// DumpOutputPath 返回转储分段的期望输出路径。
func DumpOutputPath(declared string) string {
	return CleanOutputPath(declared + ".pdf")
}

// CleanOutputPath 去掉空段、"." 与 ".."，结果总是归档内的相对路径。
func CleanOutputPath(p string) string {
	segs := lo.Filter(strings.Split(p, "/"), func(s string, _ int) bool {
		return s != "" && s != "." && s != ".."
	})
	return strings.Join(segs, "/")
}

// pathAllocator 在一个批次内分配互不相同的输出路径。
type pathAllocator struct {
	mu   sync.Mutex
	used map[string]struct{}
}

func newPathAllocator(existing ...string) *pathAllocator {
	a := &pathAllocator{used: make(map[string]struct{}, len(existing))}
	for _, p := range existing {
		a.used[p] = struct{}{}
	}
	return a
}

// Unique 返回未被占用的路径并将其标记为已用。
// 冲突时在最后一个扩展名前插入 " (n)"。
func (a *pathAllocator) Unique(desired string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	final := desired
	for n := 1; ; n++ {
		if _, taken := a.used[final]; !taken {
			break
		}
		final = withCounter(desired, n)
	}
	a.used[final] = struct{}{}
	return final
}

func withCounter(p string, n int) string {
	dot := strings.LastIndexByte(p, '.')
	if dot <= strings.LastIndexByte(p, '/') {
		return fmt.Sprintf("%s (%d)", p, n)
	}
	return fmt.Sprintf("%s (%d)%s", p[:dot], n, p[dot:])
}
