package layout

import (
	"github.com/mattn/go-runewidth"
)

// CellMeasure 按终端单元格宽度测量文本：半角为 1 格，全角为 2 格，乘以 cellWidth。
// 用于不加载字体时的页数估算以及等宽排版。
func CellMeasure(cellWidth float64) MeasureFunc {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	return func(s string) float64 {
		return float64(cond.StringWidth(s)) * cellWidth
	}
}

// Compose 按文件类型选择排版策略并以固定行数分页：
// 代码按字素簇折行，正文按词边界贪心换行。
func Compose(text string, g Geometry, isCode bool, measure MeasureFunc) []RenderPage {
	t := TypographyFor(isCode)
	var lines []RenderLine
	if isCode {
		lines = CodeLines(text, g.ContentWidth, measure)
	} else {
		lines = Flatten(Layout(text, g.ContentWidth, g.ContentHeight, t.LineHeight, measure))
	}
	return Paginate(lines, g.ContentHeight, t.LineHeight)
}

// EstimatePages 估算文档页数，不做实际渲染。
func EstimatePages(text string, g Geometry, isCode bool, measure MeasureFunc) int {
	return len(Compose(text, g, isCode, measure))
}
