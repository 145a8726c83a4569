package canvasrenderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ByLCY/txt2pdf/glyph"
	"github.com/ByLCY/txt2pdf/layout"
	"github.com/ByLCY/txt2pdf/renderer"
	"github.com/ByLCY/txt2pdf/store"
)

// A6 纸张，低分辨率以缩短测试时间。
const (
	testWidth  = 105.0
	testHeight = 148.0
	testDPI    = 24
)

func longText(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&b, "line %d of the sample document\n", i)
	}
	return b.String()
}

func assertPDF(t *testing.T, data []byte, pages int) {
	t.Helper()
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("输出缺少 %%PDF 文件头")
	}
	if _, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("pdfcpu 无法解析输出: %v", err)
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("无法读取 PDF: %v", err)
	}
	if r.NumPage() != pages {
		t.Fatalf("expected %d pages, got %d", pages, r.NumPage())
	}
}

func TestRasterRenderPagesAndProgress(t *testing.T) {
	r := NewRaster(Options{DPI: testDPI})
	var progress []float64
	doc, err := r.Render(context.Background(), renderer.Job{
		Text:       longText(120),
		PageWidth:  testWidth,
		PageHeight: testHeight,
		Progress:   func(p float64) { progress = append(progress, p) },
		Options:    layout.RenderOptions{FileName: "notes.txt"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.PageCount() < 2 {
		t.Fatalf("expected multiple pages, got %d", doc.PageCount())
	}
	if len(progress) != doc.PageCount() {
		t.Fatalf("expected one progress report per page, got %d", len(progress))
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress decreased: %v", progress)
		}
	}
	if progress[len(progress)-1] != 100 {
		t.Fatalf("expected final progress 100, got %v", progress[len(progress)-1])
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPDF(t, data, doc.PageCount())
}

func TestVectorRenderCode(t *testing.T) {
	r := NewVector(Options{})
	src := "package main\n\n// main 入口\nfunc main() {\n\tfmt.Println(\"hello\", 42)\n}\n"
	doc, err := r.Render(context.Background(), renderer.Job{
		Text:       src,
		PageWidth:  testWidth,
		PageHeight: testHeight,
		Options:    layout.RenderOptions{FileName: "main.go"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.PageCount() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.PageCount())
	}
	data, _ := doc.Bytes()
	if _, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("pdfcpu 无法解析输出: %v", err)
	}
}

// 字体无法绘制的字符在绘制时写入缺失日志；注册表中有替代图的字符同样记录。
func TestMissingGlyphLoggedAtDrawTime(t *testing.T) {
	kv := store.NewMemory()
	missing := glyph.NewMissingLog(kv)
	reg := glyph.NewRegistry(kv)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := reg.Save('文', buf.Bytes()); err != nil {
		t.Fatal(err)
	}

	for _, r := range []*Renderer{
		NewRaster(Options{DPI: testDPI, Missing: missing, Glyphs: reg}),
		NewVector(Options{Missing: missing, Glyphs: reg}),
	} {
		_, err := r.Render(context.Background(), renderer.Job{
			Text:       "abc 中文\u200d def",
			PageWidth:  testWidth,
			PageHeight: testHeight,
			Options:    layout.RenderOptions{FileName: "a.txt"},
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", r.Name(), err)
		}
	}
	codes, err := missing.List()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(codes, ",") != "0x4E2D,0x6587" {
		t.Fatalf("unexpected missing log: %v", codes)
	}
}

func TestRenderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewVector(Options{YieldEvery: 1})
	_, err := r.Render(ctx, renderer.Job{
		Text:       longText(10),
		PageWidth:  testWidth,
		PageHeight: testHeight,
		Options:    layout.RenderOptions{FileName: "a.txt"},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRenderRejectsBadGeometry(t *testing.T) {
	r := NewRaster(Options{DPI: testDPI})
	_, err := r.Render(context.Background(), renderer.Job{
		Text:       "x",
		PageWidth:  10,
		PageHeight: 10,
		Options: layout.RenderOptions{
			FileName: "a.txt",
			Border:   layout.BorderConfig{Mode: layout.BorderMM, Value: 6},
		},
	})
	if err == nil {
		t.Fatalf("expected error for page without content area")
	}
}

// 当一行宽度与内容宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRaster(Options{})
	t9 := layout.TypographyFor(true)
	measure := r.Measurer(true, t9.FontSize)

	first := "SAMPLE-A"
	width := measure(first)
	lines := layout.CodeLines(first+"\nB", width, measure)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text() != first || lines[1].Text() != "B" {
		t.Fatalf("unexpected lines: %q %q", lines[0].Text(), lines[1].Text())
	}
}

func TestRegisterEngines(t *testing.T) {
	reg := renderer.NewRegistry()
	Register(reg, Options{})
	if reg.Latest() != EngineRaster {
		t.Fatalf("expected raster as latest, got %s", reg.Latest())
	}
	e, err := reg.Get("")
	if err != nil {
		t.Fatal(err)
	}
	if e.(*Renderer).Name() != EngineRaster {
		t.Fatalf("unexpected default engine %s", e.(*Renderer).Name())
	}
	if _, err := reg.Get("VECTOR"); err != nil {
		t.Fatalf("expected vector engine: %v", err)
	}
	if _, err := reg.Get("v3"); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
}
