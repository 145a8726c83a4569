package layout

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Geometry 是一页的几何信息，所有数值单位为 pt。
type Geometry struct {
	WidthMM  float64
	HeightMM float64

	Width         float64
	Height        float64
	Margin        float64
	ContentWidth  float64
	ContentHeight float64
}

// NewGeometry 根据纸张毫米尺寸与边框配置计算页面几何。
func NewGeometry(widthMM, heightMM float64, border BorderConfig) (Geometry, error) {
	if widthMM <= 0 || heightMM <= 0 {
		return Geometry{}, fmt.Errorf("纸张尺寸无效：%gx%gmm", widthMM, heightMM)
	}
	widthMils := MMToMils(widthMM)
	heightMils := MMToMils(heightMM)

	var marginMils float64
	value := border.Value
	if value <= 0 {
		value = DefaultBorder
	}
	switch border.Mode {
	case BorderPercent:
		marginMils = math.Min(widthMils, heightMils) * (value / 100)
	default:
		marginMils = MMToMils(value)
	}

	g := Geometry{
		WidthMM:  widthMM,
		HeightMM: heightMM,
		Width:    MilsToPt(widthMils),
		Height:   MilsToPt(heightMils),
		Margin:   MilsToPt(marginMils),
	}
	g.ContentWidth = g.Width - g.Margin*2
	g.ContentHeight = g.Height - g.Margin*2
	if g.ContentWidth <= 0 || g.ContentHeight <= 0 {
		return Geometry{}, fmt.Errorf("边距过大，%gx%gmm 的页面没有可用内容区域", widthMM, heightMM)
	}
	return g, nil
}

// LinesPerPage 返回固定行数分页时每页可容纳的行数，至少为 1。
func (g Geometry) LinesPerPage(lineHeight float64) int {
	return linesPerPage(g.ContentHeight, lineHeight)
}

// Typography 给出正文字号与行高（pt）。
type Typography struct {
	FontSize   float64
	LineHeight float64
}

// TypographyFor 代码文件使用 9pt/1.25，其余使用 10.5pt/1.35。
func TypographyFor(isCode bool) Typography {
	if isCode {
		return Typography{FontSize: 9, LineHeight: 9 * 1.25}
	}
	return Typography{FontSize: 10.5, LineHeight: 10.5 * 1.35}
}

// PaperSize 是一个纸张预设（毫米）。
type PaperSize struct {
	Name   string
	Width  float64
	Height float64
}

var paperPresets = buildPaperPresets()

func buildPaperPresets() map[string]PaperSize {
	out := map[string]PaperSize{}
	series := func(prefix string, w, h float64) {
		for i := 0; i <= 10; i++ {
			name := fmt.Sprintf("%s%d", prefix, i)
			scale := math.Pow(math.Sqrt2, float64(i))
			out[name] = PaperSize{Name: name, Width: math.Floor(w / scale), Height: math.Floor(h / scale)}
		}
	}
	series("A", 841, 1189)
	series("B", 1000, 1414)
	series("C", 917, 1297)
	series("JIS-B", 1030, 1456)
	for _, p := range []PaperSize{
		{Name: "LETTER", Width: 215.9, Height: 279.4},
		{Name: "LEGAL", Width: 215.9, Height: 355.6},
		{Name: "TABLOID", Width: 279.4, Height: 431.8},
		{Name: "EXECUTIVE", Width: 184.1, Height: 266.7},
		{Name: "HALF-LETTER", Width: 139.7, Height: 215.9},
	} {
		out[p.Name] = p
	}
	return out
}

// ResolvePaper 查找纸张预设，支持 "A4"、"a4 landscape" 这类写法。
func ResolvePaper(name string) (PaperSize, error) {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(name)))
	if len(fields) == 0 {
		return paperPresets["A4"], nil
	}
	p, ok := paperPresets[fields[0]]
	if !ok {
		return PaperSize{}, fmt.Errorf("暂不支持的纸张尺寸：%s（可选 %s）", name, strings.Join(PaperNames(), "、"))
	}
	for _, f := range fields[1:] {
		if f == "LANDSCAPE" {
			p.Width, p.Height = p.Height, p.Width
		}
	}
	return p, nil
}

// PaperNames 返回所有预设名称（已排序）。
func PaperNames() []string {
	names := make([]string, 0, len(paperPresets))
	for name := range paperPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
