package canvasrenderer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/txt2pdf/renderer"
)

// renderVector 直接用 canvas 的 PDF 写入器输出，文本保持可选中。
func (r *Renderer) renderVector(ctx context.Context, job renderer.Job, plan *renderer.Plan) ([]byte, error) {
	g := plan.Geometry
	var buf bytes.Buffer
	writer := pdf.New(&buf, g.WidthMM, g.HeightMM, nil)
	writer.SetInfo(job.Options.FileName, "", "", "", "txt2pdf")
	for p, page := range plan.Pages {
		if p > 0 {
			writer.NewPage(g.WidthMM, g.HeightMM)
		}
		c := canvas.New(g.WidthMM, g.HeightMM)
		cctx := canvas.NewContext(c)
		cctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if _, err := r.drawPage(cctx, plan, page); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
		if err := r.afterPage(ctx, job, p, len(plan.Pages)); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}
