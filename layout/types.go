package layout

// Color 采用 0-255 的 RGB 表示。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// RunStyle 描述一个文本片段的绘制方式。Scale 为相对正文字号的倍数，0 视为 1。
type RunStyle struct {
	Color  Color   `json:"color"`
	Weight int     `json:"weight,omitempty"`
	Italic bool    `json:"italic,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

// SizeScale 返回有效的字号倍数。
func (s *RunStyle) SizeScale() float64 {
	if s == nil || s.Scale <= 0 {
		return 1
	}
	return s.Scale
}

// Run 是共享同一绘制方式的连续文本。Style 为空表示正文默认样式。
type Run struct {
	Text  string    `json:"text"`
	Style *RunStyle `json:"style,omitempty"`
}

// RenderLine 是一行内按顺序排列的文本片段，Width 为测量缓存。
type RenderLine struct {
	Runs  []Run   `json:"runs"`
	Width float64 `json:"width"`
}

// Text 返回整行文本。
func (l RenderLine) Text() string {
	n := 0
	for _, r := range l.Runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range l.Runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}

// RenderPage 是一页内容高度预算内的行，Number 从 1 开始。
type RenderPage struct {
	Number int          `json:"number"`
	Lines  []RenderLine `json:"lines"`
}

// BorderMode 决定边距数值的解释方式。
type BorderMode string

const (
	BorderMM      BorderMode = "MM"
	BorderPercent BorderMode = "PERCENT"
)

// DefaultBorder 是未设置或为 0 时采用的边距值（毫米或百分比）。
const DefaultBorder = 3.7

// BorderConfig 描述页面边距：较短边的百分比或绝对毫米值。
type BorderConfig struct {
	Mode  BorderMode `json:"mode" mapstructure:"mode"`
	Value float64    `json:"value" mapstructure:"value"`
}

// PreFlightConfig 是转换前确认的渲染开关。
type PreFlightConfig struct {
	RenderMarkdown    bool     `json:"renderMarkdown" mapstructure:"render_markdown"`
	HighlightEnabled  bool     `json:"highlightEnabled" mapstructure:"highlight_enabled"`
	EnabledExtensions []string `json:"enabledExtensions,omitempty" mapstructure:"enabled_extensions"`
}

// RenderOptions 是单个任务的渲染配置。
type RenderOptions struct {
	FileName  string           `json:"fileName"`
	Border    BorderConfig     `json:"border"`
	PreFlight *PreFlightConfig `json:"preFlight,omitempty"`
}
