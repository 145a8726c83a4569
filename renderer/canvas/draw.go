package canvasrenderer

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/tdewolff/canvas"
	"go.uber.org/zap"

	"github.com/ByLCY/txt2pdf/fonts"
	"github.com/ByLCY/txt2pdf/glyph"
	"github.com/ByLCY/txt2pdf/layout"
	"github.com/ByLCY/txt2pdf/renderer"
)

// 缺失字形的替代绘制尺寸，以字号为单位。
const (
	glyphImageSide  = 0.8
	glyphImageAdv   = fonts.PlaceholderScale
	tofuWidth       = 0.6
	tofuHeight      = 0.8
	tofuRise        = 0.7
	tofuMarkScale   = 0.6
	tofuGap         = 0.1
	tofuStrokeWidth = 1.0
)

// defaultInk 是未着色正文的颜色。
var defaultInk = layout.Color{R: 30, G: 30, B: 30}

// placement 是一段已绘制的文本，坐标单位为 pt，Y 为基线。
// 光栅引擎据此写出位置一致的不可见文本层。
type placement struct {
	X, Y float64
	Text string
	Font *fonts.Font
	Size float64
}

// drawPage 绘制一页的所有行，返回各文本段的位置。
func (r *Renderer) drawPage(ctx *canvas.Context, plan *renderer.Plan, page layout.RenderPage) ([]placement, error) {
	var out []placement
	for i, line := range page.Lines {
		baseline := plan.Baseline(i)
		x := plan.Geometry.Margin
		for _, run := range line.Runs {
			var err error
			x, out, err = r.drawRun(ctx, plan, run, x, baseline, out)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// drawRun 按字素簇把一个片段拆成同字体的连续段绘制；没有字体覆盖的字素簇
// 使用注册表中的替代图或方框占位，并记入缺失字符日志。
func (r *Renderer) drawRun(ctx *canvas.Context, plan *renderer.Plan, run layout.Run, x, y float64, out []placement) (float64, []placement, error) {
	size := plan.Typography.FontSize * run.Style.SizeScale()
	col := defaultInk
	bold, italic := false, false
	if run.Style != nil {
		col = run.Style.Color
		bold = run.Style.Weight >= 600
		italic = run.Style.Italic
	}

	var (
		seg     strings.Builder
		segFont *fonts.Font
		segX    = x
		drawErr error
	)
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		f := r.opts.Book.Variant(segFont, bold, italic)
		text := seg.String()
		seg.Reset()
		out = append(out, placement{X: segX, Y: y, Text: text, Font: f, Size: size})
		if strings.TrimSpace(text) == "" {
			return
		}
		face, err := r.fontFace(f, size, col)
		if err != nil {
			drawErr = err
			return
		}
		ctx.DrawText(toMm(segX), toMm(y), canvas.NewTextLine(face, text, canvas.Left))
	}

	state := -1
	rest := run.Text
	var g string
	for len(rest) > 0 && drawErr == nil {
		g, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		f, w := r.opts.Book.Grapheme(plan.Stack, g, size)
		switch {
		case f == nil && fonts.Invisible(g):
			continue
		case f == nil:
			flush()
			primary := r.opts.Book.Primary(plan.Stack)
			adv, err := r.drawMissing(ctx, g, x, y, size, col, primary)
			if err != nil {
				return x, out, err
			}
			out = append(out, placement{X: x, Y: y, Text: g, Font: primary, Size: size})
			x += adv
		default:
			if f != segFont {
				flush()
				segFont = f
			}
			if seg.Len() == 0 {
				segX = x
			}
			seg.WriteString(g)
			x += w
		}
	}
	flush()
	return x, out, drawErr
}

// drawMissing 绘制替代字形并返回步进宽度（pt）。
func (r *Renderer) drawMissing(ctx *canvas.Context, g string, x, y, size float64, col layout.Color, primary *fonts.Font) (float64, error) {
	ch, _ := utf8.DecodeRuneInString(g)
	r.logMissing(ch)

	if r.opts.Glyphs != nil {
		if img, ok := r.opts.Glyphs.Image(ch); ok && img.Bounds().Dx() > 0 {
			side := glyphImageSide * size
			dpmm := float64(img.Bounds().Dx()) / toMm(side)
			ctx.DrawImage(toMm(x), toMm(y-side), img, canvas.DPMM(dpmm))
			return glyphImageAdv * size, nil
		}
	}

	w, h := tofuWidth*size, tofuHeight*size
	top := y - tofuRise*size
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(colorFromLayout(col))
	ctx.SetStrokeWidth(toMm(tofuStrokeWidth))
	ctx.DrawPath(toMm(x), toMm(top), canvas.Rectangle(toMm(w), toMm(h)))

	face, err := r.fontFace(primary, tofuMarkScale*size, col)
	if err != nil {
		return 0, err
	}
	ctx.DrawText(toMm(x+0.2*w), toMm(top+0.8*h), canvas.NewTextLine(face, "?", canvas.Left))
	return w + tofuGap*size, nil
}

func (r *Renderer) logMissing(ch rune) {
	if r.opts.Missing == nil {
		return
	}
	if _, err := r.opts.Missing.Log(ch); err != nil {
		r.opts.Logger.Warn("记录缺失字符失败", zap.String("code", glyph.CodeKey(ch)), zap.Error(err))
	}
}
