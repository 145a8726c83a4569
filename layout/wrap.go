package layout

import (
	"math"
	"regexp"
)

// MeasureFunc 返回字符串的绘制宽度，单位由调用方决定（通常为 pt）。
type MeasureFunc func(s string) float64

// WrapEpsilon 是行宽比较时预留的余量，避免浮点误差造成裁切。
const WrapEpsilon = 1.0

var paragraphBreak = regexp.MustCompile(`\r?\n`)

// SplitParagraphs 按 \r?\n 切分文本。
func SplitParagraphs(text string) []string {
	return paragraphBreak.Split(text, -1)
}

// Wrapper 执行贪心换行与按高度分页。
type Wrapper struct {
	Segmenter Segmenter
	Measure   MeasureFunc
}

// Layout 使用默认切分器对正文排版。
func Layout(text string, maxWidth, maxHeight, lineHeight float64, measure MeasureFunc) []RenderPage {
	w := Wrapper{Segmenter: DefaultSegmenter, Measure: measure}
	return w.Layout(text, maxWidth, maxHeight, lineHeight)
}

// Layout 将文本按段落切分后贪心换行，并在内容高度用尽时开新页。
// 空段落输出一个空行；超过整行宽度的片段按字素簇强制拆分，
// 触发长度保护的段落改为按码点拆分。
func (w Wrapper) Layout(text string, maxWidth, maxHeight, lineHeight float64) []RenderPage {
	pc := newPageCollector(maxHeight, lineHeight)
	limit := maxWidth - WrapEpsilon

	for _, para := range SplitParagraphs(text) {
		if para == "" {
			pc.flush(RenderLine{})
			continue
		}
		lb := lineBuilder{limit: limit, out: pc, naive: w.Segmenter.tripped(para)}
		for _, token := range w.Segmenter.Segment(para) {
			display := ExpandTabs(token)
			lb.add(display, w.Measure(display), w.Measure)
		}
		lb.close()
	}
	return pc.pages()
}

// lineBuilder 累积当前行的片段。
type lineBuilder struct {
	limit float64
	out   *pageCollector
	// naive 为真时强制拆分按码点进行，用于超过长度保护的段落。
	naive bool

	runs  []Run
	width float64
}

func (lb *lineBuilder) add(token string, tokenW float64, measure MeasureFunc) {
	if lb.width+tokenW <= lb.limit {
		lb.push(token, tokenW)
		return
	}
	lb.close()
	if tokenW <= lb.limit {
		lb.push(token, tokenW)
		return
	}
	// 片段比整行还宽，逐个字素簇装箱
	pieces := SegmentRuns
	if lb.naive {
		pieces = splitRunes
	}
	for _, g := range pieces(token) {
		gw := measure(g)
		if lb.width+gw > lb.limit && len(lb.runs) > 0 {
			lb.close()
		}
		lb.push(g, gw)
	}
}

func (lb *lineBuilder) push(text string, w float64) {
	lb.runs = append(lb.runs, Run{Text: text})
	lb.width += w
}

func (lb *lineBuilder) close() {
	if len(lb.runs) == 0 {
		return
	}
	lb.out.flush(RenderLine{Runs: lb.runs, Width: lb.width})
	lb.runs = nil
	lb.width = 0
}

// pageCollector 负责按内容高度切页，空页永远不会被封存。
type pageCollector struct {
	maxHeight  float64
	lineHeight float64

	done    []RenderPage
	current []RenderLine
	cursorY float64
}

func newPageCollector(maxHeight, lineHeight float64) *pageCollector {
	return &pageCollector{maxHeight: maxHeight, lineHeight: lineHeight}
}

func (pc *pageCollector) flush(line RenderLine) {
	if pc.cursorY+pc.lineHeight > pc.maxHeight && len(pc.current) > 0 {
		pc.seal()
	}
	pc.current = append(pc.current, line)
	pc.cursorY += pc.lineHeight
}

func (pc *pageCollector) seal() {
	pc.done = append(pc.done, RenderPage{Number: len(pc.done) + 1, Lines: pc.current})
	pc.current = nil
	pc.cursorY = 0
}

func (pc *pageCollector) pages() []RenderPage {
	if len(pc.current) > 0 {
		pc.seal()
	}
	return pc.done
}

// CodeLines 对代码按原始行处理：展开制表符后仅按字素簇折行，不做词边界切分。
func CodeLines(text string, maxWidth float64, measure MeasureFunc) []RenderLine {
	var lines []RenderLine
	for _, raw := range SplitParagraphs(text) {
		raw = ExpandTabs(raw)
		if w := measure(raw); w <= maxWidth {
			lines = append(lines, RenderLine{Runs: runsOf(raw), Width: w})
			continue
		}
		temp := ""
		for _, g := range SegmentRuns(raw) {
			if temp != "" && measure(temp+g) > maxWidth {
				lines = append(lines, RenderLine{Runs: runsOf(temp), Width: measure(temp)})
				temp = g
				continue
			}
			temp += g
		}
		if temp != "" {
			lines = append(lines, RenderLine{Runs: runsOf(temp), Width: measure(temp)})
		}
	}
	return lines
}

func runsOf(s string) []Run {
	if s == "" {
		return nil
	}
	return []Run{{Text: s}}
}

// Paginate 以固定的 floor(contentHeight/lineHeight) 行数切页。
func Paginate(lines []RenderLine, contentHeight, lineHeight float64) []RenderPage {
	per := linesPerPage(contentHeight, lineHeight)
	var pages []RenderPage
	for start := 0; start < len(lines); start += per {
		end := start + per
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, RenderPage{Number: len(pages) + 1, Lines: lines[start:end]})
	}
	return pages
}

// Flatten 返回所有页的行。
func Flatten(pages []RenderPage) []RenderLine {
	var out []RenderLine
	for _, p := range pages {
		out = append(out, p.Lines...)
	}
	return out
}

func linesPerPage(contentHeight, lineHeight float64) int {
	if lineHeight <= 0 {
		return 1
	}
	n := int(math.Floor(contentHeight / lineHeight))
	if n < 1 {
		return 1
	}
	return n
}

func splitRunes(token string) []string {
	out := make([]string, 0, len(token))
	for _, r := range token {
		out = append(out, string(r))
	}
	return out
}
