package syntax

import (
	"github.com/samber/lo"

	"github.com/ByLCY/txt2pdf/layout"
)

// Highlighter 根据预检配置决定是否为某个文件着色。
// 未提供预检配置时对代码文件启用高亮、关闭 Markdown 结构渲染。
type Highlighter struct {
	PreFlight *layout.PreFlightConfig
	Palette   Palette
}

// NewHighlighter 创建使用默认配色的高亮器。
func NewHighlighter(pf *layout.PreFlightConfig) *Highlighter {
	return &Highlighter{PreFlight: pf, Palette: DefaultPalette}
}

// Markdown 报告文件是否按 Markdown 结构渲染。
func (h *Highlighter) Markdown(fileName string) bool {
	return h.PreFlight != nil && h.PreFlight.RenderMarkdown && layout.IsMarkdownFile(fileName)
}

// Enabled 报告文件是否进行语法高亮。EnabledExtensions 为空表示不限扩展名。
func (h *Highlighter) Enabled(fileName string) bool {
	if h.Markdown(fileName) {
		return true
	}
	if Detect(fileName) == Plain {
		return false
	}
	if h.PreFlight == nil {
		return true
	}
	if !h.PreFlight.HighlightEnabled {
		return false
	}
	if len(h.PreFlight.EnabledExtensions) == 0 {
		return true
	}
	return lo.Contains(h.PreFlight.EnabledExtensions, layout.Extension(fileName))
}

// StyleLine 将一行的片段替换为带样式的 Token；未启用时原样返回。
func (h *Highlighter) StyleLine(line layout.RenderLine, fileName string) layout.RenderLine {
	if !h.Enabled(fileName) || len(line.Runs) == 0 {
		return line
	}
	palette := h.Palette
	if palette == nil {
		palette = DefaultPalette
	}
	tokens := palette.Tokenize(line.Text(), fileName, h.Markdown(fileName))
	return layout.RenderLine{Runs: Runs(tokens), Width: line.Width}
}

// StylePages 对每页的每一行应用 StyleLine。
func (h *Highlighter) StylePages(pages []layout.RenderPage, fileName string) []layout.RenderPage {
	if !h.Enabled(fileName) {
		return pages
	}
	out := make([]layout.RenderPage, len(pages))
	for i, p := range pages {
		lines := make([]layout.RenderLine, len(p.Lines))
		for j, l := range p.Lines {
			lines[j] = h.StyleLine(l, fileName)
		}
		out[i] = layout.RenderPage{Number: p.Number, Lines: lines}
	}
	return out
}
