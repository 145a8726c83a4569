package canvasrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"codeberg.org/go-pdf/fpdf"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/draw"

	"github.com/ByLCY/txt2pdf/renderer"
)

// renderRaster 将每页栅格化为 JPEG 嵌入 PDF，并在其上叠加位置一致的透明文本层，
// 保证复制与搜索的文本与可见内容一致。
func (r *Renderer) renderRaster(ctx context.Context, job renderer.Job, plan *renderer.Plan) ([]byte, error) {
	g := plan.Geometry
	doc := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: g.WidthMM, Ht: g.HeightMM},
	})
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(0, 0, 0)
	doc.SetCreator("txt2pdf", true)
	if job.Options.FileName != "" {
		doc.SetTitle(job.Options.FileName, true)
	}
	registered := map[string]bool{}

	for p, page := range plan.Pages {
		c := canvas.New(g.WidthMM, g.HeightMM)
		cctx := canvas.NewContext(c)
		cctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		placements, err := r.drawPage(cctx, plan, page)
		if err != nil {
			return nil, err
		}
		jpg, err := r.rasterize(c)
		if err != nil {
			return nil, fmt.Errorf("第 %d 页栅格化失败: %w", page.Number, err)
		}

		doc.AddPage()
		name := fmt.Sprintf("page-%d", page.Number)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(jpg))
		doc.ImageOptions(name, 0, 0, g.WidthMM, g.HeightMM, false, opts, 0, "")

		doc.SetAlpha(0, "Normal")
		for _, pl := range placements {
			if !registered[pl.Font.Name] {
				doc.AddUTF8FontFromBytes(pl.Font.Name, "", pl.Font.Data)
				registered[pl.Font.Name] = true
			}
			doc.SetFont(pl.Font.Name, "", pl.Size)
			doc.Text(toMm(pl.X), toMm(pl.Y), pl.Text)
		}
		doc.SetAlpha(1, "Normal")

		if err := doc.Error(); err != nil {
			return nil, fmt.Errorf("写入第 %d 页失败: %w", page.Number, err)
		}
		if err := r.afterPage(ctx, job, p, len(plan.Pages)); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// rasterize 在白色背景上栅格化画布并编码为 JPEG。
func (r *Renderer) rasterize(c *canvas.Canvas) ([]byte, error) {
	img := rasterizer.Draw(c, canvas.DPI(r.opts.DPI), canvas.DefaultColorSpace)
	page := image.NewRGBA(img.Bounds())
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(page, page.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, page, &jpeg.Options{Quality: r.opts.JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
