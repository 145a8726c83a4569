package canvasrenderer

import (
	"context"
	"fmt"
	"image/color"
	"runtime"
	"sync"

	"github.com/tdewolff/canvas"
	"go.uber.org/zap"

	"github.com/ByLCY/txt2pdf/fonts"
	"github.com/ByLCY/txt2pdf/glyph"
	"github.com/ByLCY/txt2pdf/layout"
	"github.com/ByLCY/txt2pdf/renderer"
	"github.com/ByLCY/txt2pdf/syntax"
)

// 引擎名称。
const (
	EngineRaster = "raster"
	EngineVector = "vector"
)

// 默认参数。
const (
	DefaultDPI         = 300
	DefaultJPEGQuality = 95
	DefaultYieldEvery  = 5
)

// Renderer draws laid-out pages via github.com/tdewolff/canvas.
// The raster engine embeds each page as a JPEG plus an invisible text layer;
// the vector engine writes canvas output straight to PDF.
type Renderer struct {
	opts   Options
	vector bool

	fontMu       sync.Mutex
	fontFamilies map[*fonts.Font]*canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	Book *fonts.Book
	// Glyphs 提供缺失字符的替代图，可为空。
	Glyphs *glyph.Registry
	// Missing 记录绘制时发现的缺失字符，可为空。
	Missing     *glyph.MissingLog
	Palette     syntax.Palette
	DPI         float64
	JPEGQuality int
	YieldEvery  int
	Debug       layout.DebugOptions
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Book == nil {
		o.Book = fonts.NewBook()
	}
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = DefaultJPEGQuality
	}
	if o.YieldEvery <= 0 {
		o.YieldEvery = DefaultYieldEvery
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// NewRaster creates the raster engine.
func NewRaster(opts Options) *Renderer { return newRenderer(opts, false) }

// NewVector creates the vector engine.
func NewVector(opts Options) *Renderer { return newRenderer(opts, true) }

func newRenderer(opts Options, vector bool) *Renderer {
	return &Renderer{
		opts:         opts.withDefaults(),
		vector:       vector,
		fontFamilies: map[*fonts.Font]*canvas.FontFamily{},
	}
}

// Register 在登记表中登记两种引擎，光栅引擎为默认。
func Register(reg *renderer.Registry, opts Options) {
	reg.Register(EngineVector, NewVector(opts), false)
	reg.Register(EngineRaster, NewRaster(opts), true)
}

// Name 返回引擎名称。
func (r *Renderer) Name() string {
	if r.vector {
		return EngineVector
	}
	return EngineRaster
}

// Render lays out the job and draws every page.
func (r *Renderer) Render(ctx context.Context, job renderer.Job) (renderer.Document, error) {
	plan, err := renderer.Prepare(job, r.opts.Book, r.opts.Palette, r.opts.Debug)
	if err != nil {
		return nil, err
	}
	r.opts.Logger.Debug("开始渲染",
		zap.String("engine", r.Name()),
		zap.String("file", job.Options.FileName),
		zap.Int("pages", len(plan.Pages)),
	)
	var data []byte
	if r.vector {
		data, err = r.renderVector(ctx, job, plan)
	} else {
		data, err = r.renderRaster(ctx, job, plan)
	}
	if err != nil {
		return nil, err
	}
	return &renderer.PDF{Data: data, Pages: len(plan.Pages)}, nil
}

// Measurer 实现 layout.Typesetter 接口，使用默认字体栈测量。
func (r *Renderer) Measurer(isCode bool, fontSize float64) layout.MeasureFunc {
	return r.opts.Book.Measurer(fonts.StackFor(isCode), fontSize)
}

// afterPage 报告进度，并每 YieldEvery 页让出一次执行权、检查取消。
func (r *Renderer) afterPage(ctx context.Context, job renderer.Job, p, n int) error {
	job.Report(float64(p+1) / float64(n) * 100)
	if (p+1)%r.opts.YieldEvery == 0 {
		runtime.Gosched()
		return ctx.Err()
	}
	return nil
}

func (r *Renderer) fontFace(f *fonts.Font, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily(f)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromLayout(col), canvas.FontRegular, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(f *fonts.Font) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.fontFamilies[f]; ok {
		return family, nil
	}
	family := canvas.NewFontFamily(f.Name)
	if err := family.LoadFont(f.Data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", f.Name, err)
	}
	r.fontFamilies[f] = family
	return family, nil
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
