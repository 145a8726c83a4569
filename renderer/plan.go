// Package renderer 定义渲染引擎的契约，并提供各引擎共用的排版准备步骤。
package renderer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/ByLCY/txt2pdf/fonts"
	"github.com/ByLCY/txt2pdf/layout"
	"github.com/ByLCY/txt2pdf/syntax"
)

// Plan 是一个文档排版后的结果，引擎据此逐页绘制。几何数值单位为 pt。
type Plan struct {
	Geometry   layout.Geometry
	Typography layout.Typography
	IsCode     bool
	Stack      fonts.Stack
	Pages      []layout.RenderPage
}

// Baseline 返回第 i 行的基线纵坐标（pt，自页面顶部起算）。
func (p *Plan) Baseline(i int) float64 {
	return p.Geometry.Margin + p.Typography.FontSize + float64(i)*p.Typography.LineHeight
}

// Prepare 注册任务字体、计算页面几何、排版并为代码着色。
// debug.Dir 非空时把排版结果写为 JSON。
func Prepare(job Job, book *fonts.Book, palette syntax.Palette, debug layout.DebugOptions) (*Plan, error) {
	for _, src := range job.Fonts {
		if err := book.RegisterSource(src); err != nil {
			return nil, err
		}
	}
	g, err := layout.NewGeometry(job.PageWidth, job.PageHeight, job.Options.Border)
	if err != nil {
		return nil, err
	}
	fileName := job.Options.FileName
	isCode := layout.IsCodeFile(fileName)
	t := layout.TypographyFor(isCode)
	extra := lo.Map(job.Fonts, func(s fonts.Source, _ int) string { return s.Name })
	stack := fonts.StackFor(isCode, extra...)

	pages := layout.Compose(job.Text, g, isCode, book.Measurer(stack, t.FontSize))
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}
	hl := syntax.NewHighlighter(job.Options.PreFlight)
	if palette != nil {
		hl.Palette = palette
	}
	pages = hl.StylePages(pages, fileName)

	plan := &Plan{Geometry: g, Typography: t, IsCode: isCode, Stack: stack, Pages: pages}
	if debug.Dir != "" {
		name := strings.ReplaceAll(filepath.Base(fileName), string(filepath.Separator), "_") + ".layout.json"
		if err := layout.WriteDebugJSON(g, pages, filepath.Join(debug.Dir, name)); err != nil {
			return nil, fmt.Errorf("写入排版调试信息失败: %w", err)
		}
	}
	return plan, nil
}
