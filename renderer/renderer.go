package renderer

import (
	"context"
	"errors"

	"github.com/ByLCY/txt2pdf/fonts"
	"github.com/ByLCY/txt2pdf/layout"
)

// ErrEmptyDocument 表示排版后没有可渲染的页面。
var ErrEmptyDocument = errors.New("缺少可渲染的页面")

// Job 是一次文档渲染的输入。页面尺寸单位为 mm。
type Job struct {
	Text       string
	PageWidth  float64
	PageHeight float64
	// Progress 以 0-100 报告当前文档的绘制进度，可为空。
	Progress func(percent float64)
	// Fonts 为本次渲染追加的字体，排在默认字体栈之前。
	Fonts   []fonts.Source
	Options layout.RenderOptions
}

// Report 调用进度回调。
func (j Job) Report(percent float64) {
	if j.Progress != nil {
		j.Progress(percent)
	}
}

// Document 是渲染结果，Bytes 返回序列化后的 PDF。
type Document interface {
	Bytes() ([]byte, error)
	PageCount() int
}

// Renderer 将文本渲染为分页文档。
type Renderer interface {
	Render(ctx context.Context, job Job) (Document, error)
}

// PDF 是已序列化的 Document。
type PDF struct {
	Data  []byte
	Pages int
}

func (p *PDF) Bytes() ([]byte, error) { return p.Data, nil }
func (p *PDF) PageCount() int          { return p.Pages }
