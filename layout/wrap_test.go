package layout

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// fixedMeasure 每个码点宽度固定，便于推算期望的换行位置。
func fixedMeasure(adv float64) MeasureFunc {
	return func(s string) float64 { return float64(utf8.RuneCountInString(s)) * adv }
}

func joinRuns(lines []RenderLine) string {
	var b strings.Builder
	for _, l := range lines {
		for _, r := range l.Runs {
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

// TestLayoutReproducesText 拼接所有片段应还原去掉换行后的原文。
func TestLayoutReproducesText(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog.\n\nSecond paragraph, with punctuation; and more words to wrap around.\r\nThird."
	pages := Layout(text, 20, 1000, 10, fixedMeasure(1))
	got := joinRuns(Flatten(pages))
	want := strings.NewReplacer("\r\n", "", "\n", "").Replace(text)
	if got != want {
		t.Fatalf("拼接结果与原文不一致:\n got=%q\nwant=%q", got, want)
	}
}

// TestLayoutRunWidthBound 除单个字素簇外，任何片段宽度都不应超过行宽。
func TestLayoutRunWidthBound(t *testing.T) {
	measure := fixedMeasure(1)
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi omicron pi"
	for _, width := range []float64{6, 11, 17, 40} {
		for _, line := range Flatten(Layout(text, width, 1000, 10, measure)) {
			for _, r := range line.Runs {
				if measure(r.Text) > width && len(SegmentRuns(r.Text)) > 1 {
					t.Fatalf("width=%g 时片段 %q 超出行宽", width, r.Text)
				}
			}
			if line.Width > width && len(line.Runs) > 1 {
				t.Fatalf("width=%g 时行宽 %g 超出", width, line.Width)
			}
		}
	}
}

// TestLayoutForcedSplitLongWord 比行宽还长的单词被拆成多个片段。
func TestLayoutForcedSplitLongWord(t *testing.T) {
	word := "supercalifragilisticexpialidocious"
	measure := fixedMeasure(1)
	lines := Flatten(Layout(word, 10, 1000, 10, measure))
	if len(lines) < 2 {
		t.Fatalf("期望拆成多行，实际 %d 行", len(lines))
	}
	runs := 0
	for _, l := range lines {
		for _, r := range l.Runs {
			runs++
			if measure(r.Text) > 10 {
				t.Fatalf("片段 %q 宽度超过 10", r.Text)
			}
		}
		if l.Width > 10-WrapEpsilon {
			t.Fatalf("行宽 %g 超过有效宽度", l.Width)
		}
	}
	if runs < 2 {
		t.Fatalf("期望多个片段，实际 %d", runs)
	}
	if got := joinRuns(lines); got != word {
		t.Fatalf("拼接结果 %q 与原词不一致", got)
	}
}

// TestLayoutEmptyParagraph 空段落输出一个空行。
func TestLayoutEmptyParagraph(t *testing.T) {
	lines := Flatten(Layout("a\n\nb", 100, 1000, 10, fixedMeasure(1)))
	if len(lines) != 3 {
		t.Fatalf("期望 3 行，实际 %d", len(lines))
	}
	if len(lines[1].Runs) != 0 || lines[1].Width != 0 {
		t.Fatalf("第二行应为空行: %+v", lines[1])
	}
}

// TestLayoutExpandsTabs 制表符在测量前展开为 4 个空格。
func TestLayoutExpandsTabs(t *testing.T) {
	lines := Flatten(Layout("\tx", 100, 1000, 10, fixedMeasure(1)))
	if got := joinRuns(lines); got != "    x" {
		t.Fatalf("制表符展开错误: %q", got)
	}
	if lines[0].Width != 5 {
		t.Fatalf("行宽期望 5，实际 %g", lines[0].Width)
	}
}

// TestLayoutPaginationBound 每页行数乘以行高不超过内容高度，且不存在空页。
func TestLayoutPaginationBound(t *testing.T) {
	text := strings.Repeat("word ", 200)
	const maxHeight, lineHeight = 50.0, 12.0
	pages := Layout(text, 30, maxHeight, lineHeight, fixedMeasure(1))
	if len(pages) < 2 {
		t.Fatalf("期望多页，实际 %d", len(pages))
	}
	for i, p := range pages {
		if len(p.Lines) == 0 {
			t.Fatalf("第 %d 页为空", i+1)
		}
		if float64(len(p.Lines))*lineHeight > maxHeight {
			t.Fatalf("第 %d 页 %d 行超出高度", i+1, len(p.Lines))
		}
		if p.Number != i+1 {
			t.Fatalf("页码错误: got=%d want=%d", p.Number, i+1)
		}
	}
}

// TestLayoutOversizedLineGetsOwnPage 行高超过页高时每行独占一页，不会产生空页。
func TestLayoutOversizedLineGetsOwnPage(t *testing.T) {
	pages := Layout("a\nb\nc", 100, 5, 10, fixedMeasure(1))
	if len(pages) != 3 {
		t.Fatalf("期望 3 页，实际 %d", len(pages))
	}
	for _, p := range pages {
		if len(p.Lines) != 1 {
			t.Fatalf("每页应只有一行: %+v", p)
		}
	}
}

// TestLayoutSizeGuardFallback 超过长度保护后仍能完整还原段落。
func TestLayoutSizeGuardFallback(t *testing.T) {
	w := Wrapper{Segmenter: Segmenter{SizeGuard: 8}, Measure: fixedMeasure(1)}
	text := "minified(code);andmore  tokens"
	pages := w.Layout(text, 12, 1000, 10)
	if got := joinRuns(Flatten(pages)); got != text {
		t.Fatalf("拼接结果不一致: %q", got)
	}
}

// TestLayoutSizeGuardSplitsRunes 触发长度保护后，超宽片段按码点拆分而不是按字素簇。
func TestLayoutSizeGuardSplitsRunes(t *testing.T) {
	text := "e\u0301e\u0301e\u0301"
	measure := fixedMeasure(10)

	guarded := Wrapper{Segmenter: Segmenter{SizeGuard: 5}, Measure: measure}
	lines := Flatten(guarded.Layout(text, 21, 1000, 10))
	if len(lines) != 3 || len(lines[0].Runs) != 2 || lines[0].Runs[0].Text != "e" || lines[0].Runs[1].Text != "\u0301" {
		t.Fatalf("期望按码点拆分，实际 %+v", lines)
	}
	if got := joinRuns(lines); got != text {
		t.Fatalf("拼接结果不一致: %q", got)
	}

	lines = Flatten(Layout(text, 21, 1000, 10, measure))
	if len(lines) != 3 || len(lines[0].Runs) != 1 || lines[0].Runs[0].Text != "e\u0301" {
		t.Fatalf("未触发保护时应按字素簇拆分，实际 %+v", lines)
	}
}

// TestCodeLinesCharWrap 代码仅按字符折行。
func TestCodeLinesCharWrap(t *testing.T) {
	lines := CodeLines("abcdefghij\n\tif x", 4, fixedMeasure(1))
	want := []string{"abcd", "efgh", "ij", "    ", "if x"}
	if len(lines) != len(want) {
		t.Fatalf("行数期望 %d，实际 %d: %+v", len(want), len(lines), lines)
	}
	for i, w := range want {
		if got := lines[i].Text(); got != w {
			t.Fatalf("第 %d 行期望 %q，实际 %q", i, w, got)
		}
	}
}

// TestCodeLinesKeepsEmptyLines 空行保留为零宽行。
func TestCodeLinesKeepsEmptyLines(t *testing.T) {
	lines := CodeLines("a\n\nb", 10, fixedMeasure(1))
	if len(lines) != 3 || lines[1].Width != 0 || len(lines[1].Runs) != 0 {
		t.Fatalf("空行处理错误: %+v", lines)
	}
}

// TestPaginateFixedLines 按 floor(contentHeight/lineHeight) 切页。
func TestPaginateFixedLines(t *testing.T) {
	lines := make([]RenderLine, 10)
	pages := Paginate(lines, 35, 10)
	if len(pages) != 4 {
		t.Fatalf("期望 4 页，实际 %d", len(pages))
	}
	for i, n := range []int{3, 3, 3, 1} {
		if len(pages[i].Lines) != n {
			t.Fatalf("第 %d 页期望 %d 行，实际 %d", i+1, n, len(pages[i].Lines))
		}
	}
	if got := Paginate(nil, 35, 10); len(got) != 0 {
		t.Fatalf("零行输入不应产生页面: %d", len(got))
	}
	if got := Paginate(make([]RenderLine, 2), 5, 10); len(got) != 2 {
		t.Fatalf("行高大于内容高度时每页至少 1 行，实际 %d 页", len(got))
	}
}

// TestComposeEstimatesPages 估算页数与实际排版一致。
func TestComposeEstimatesPages(t *testing.T) {
	g, err := NewGeometry(148, 210, BorderConfig{Mode: BorderMM, Value: 10})
	if err != nil {
		t.Fatalf("几何计算失败: %v", err)
	}
	text := strings.Repeat("lorem ipsum dolor sit amet ", 400)
	measure := CellMeasure(5)
	pages := Compose(text, g, false, measure)
	if n := EstimatePages(text, g, false, measure); n != len(pages) || n < 2 {
		t.Fatalf("估算页数 %d 与排版结果 %d 不一致", n, len(pages))
	}
	per := g.LinesPerPage(TypographyFor(false).LineHeight)
	for _, p := range pages {
		if len(p.Lines) > per {
			t.Fatalf("单页行数 %d 超过上限 %d", len(p.Lines), per)
		}
	}
}
