// Package archive 把批次输出打包为 zip。
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ReportEvery 是序列化时报告进度并让出执行权的间隔条目数。
const ReportEvery = 5

type entry struct {
	path string
	data []byte
}

// Builder 累积条目并在最后一次性写出 zip，条目不压缩。
type Builder struct {
	entries  []entry
	modified time.Time
}

// NewBuilder 创建空的打包器。
func NewBuilder() *Builder {
	return &Builder{modified: time.Now()}
}

// AddEntry 追加一个条目。路径前导的 / 会被去掉。
func (b *Builder) AddEntry(path string, data []byte) error {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return fmt.Errorf("条目路径不能为空")
	}
	b.entries = append(b.entries, entry{path: path, data: data})
	return nil
}

// Len 返回条目数。
func (b *Builder) Len() int { return len(b.entries) }

// Paths 返回已加入的条目路径。
func (b *Builder) Paths() []string {
	out := make([]string, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.path
	}
	return out
}

// Serialize 写出 zip，每 ReportEvery 个条目以 0-100 报告一次进度并检查取消。
func (b *Builder) Serialize(ctx context.Context, progress func(percent float64)) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	total := len(b.entries)
	for i, e := range b.entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.path,
			Method:   zip.Store,
			Modified: b.modified,
		})
		if err != nil {
			return nil, fmt.Errorf("写入条目 %s 失败: %w", e.path, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("写入条目 %s 失败: %w", e.path, err)
		}
		if (i+1)%ReportEvery == 0 {
			if progress != nil {
				progress(float64(i+1) / float64(total) * 100)
			}
			runtime.Gosched()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("写入 zip 失败: %w", err)
	}
	if progress != nil {
		progress(100)
	}
	return buf.Bytes(), nil
}
