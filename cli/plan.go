package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ByLCY/txt2pdf/batch"
	"github.com/ByLCY/txt2pdf/dump"
	"github.com/ByLCY/txt2pdf/layout"
)

// planRow 是一个逻辑文档的预估结果。
type planRow struct {
	Source string
	Output string
	Pages  int
	Bytes  int
}

func newPlanCommand(opts *rootOptions) *cobra.Command {
	var (
		queue  queueFlags
		params paramFlags
		cells  bool
	)
	cmd := &cobra.Command{
		Use:   "plan [flags] path...",
		Short: "预览转换队列与预计页数，不生成文件",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load()
			if err != nil {
				return err
			}
			defer a.close()

			p, err := params.apply(cmd, a.cfg)
			if err != nil {
				return err
			}
			tasks, err := queue.tasks(args)
			if err != nil {
				return err
			}
			var ts layout.Typesetter = cellTypesetter{}
			if !cells {
				engine, err := a.renderers.Get(p.Engine)
				if err != nil {
					return err
				}
				if t, ok := engine.(layout.Typesetter); ok {
					ts = t
				}
			}
			g, err := layout.NewGeometry(p.PageWidth, p.PageHeight, p.Border)
			if err != nil {
				return err
			}
			rows, skipped := planTasks(tasks, p.OutputMode, g, ts)
			printPlan(cmd.OutOrStdout(), rows)
			for _, s := range skipped {
				warn(cmd.ErrOrStderr(), "无法读取 %s", s.Error())
			}
			return nil
		},
	}
	queue.register(cmd)
	params.register(cmd)
	cmd.Flags().BoolVar(&cells, "cells", false, "按等宽单元格快速估算，不加载字体")
	return cmd
}

// cellTypesetter 以 0.6 em 的单元格宽度估算文本宽度。
type cellTypesetter struct{}

func (cellTypesetter) Measurer(_ bool, fontSize float64) layout.MeasureFunc {
	return layout.CellMeasure(fontSize * 0.6)
}

// planTasks 按转换时的展开规则列出每个逻辑文档并估算页数。
func planTasks(tasks []batch.Task, mode batch.OutputMode, g layout.Geometry, ts layout.Typesetter) ([]planRow, []batch.ItemError) {
	var (
		rows    []planRow
		skipped []batch.ItemError
	)
	estimate := func(name, text string) int {
		isCode := layout.IsCodeFile(name)
		return layout.EstimatePages(text, g, isCode, ts.Measurer(isCode, layout.TypographyFor(isCode).FontSize))
	}
	for _, t := range tasks {
		text, err := t.Text()
		if err != nil {
			skipped = append(skipped, batch.ItemError{Path: t.FileName, Err: err})
			continue
		}
		parts, ok := dump.Parse(text)
		if !ok {
			rows = append(rows, planRow{
				Source: t.FileName,
				Output: batch.OutputPath(t, mode),
				Pages:  estimate(t.FileName, text),
				Bytes:  len(text),
			})
			continue
		}
		for _, part := range parts {
			rows = append(rows, planRow{
				Source: t.FileName,
				Output: batch.DumpOutputPath(part.Path),
				Pages:  estimate(part.Path, part.Content),
				Bytes:  len(part.Content),
			})
		}
	}
	return rows, skipped
}

func printPlan(w io.Writer, rows []planRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "来源", "输出", "字节", "预计页数"})
	var pages, bytes int
	for i, r := range rows {
		t.AppendRow(table.Row{i + 1, r.Source, r.Output, r.Bytes, r.Pages})
		pages += r.Pages
		bytes += r.Bytes
	}
	t.AppendFooter(table.Row{"", "合计", fmt.Sprintf("%d 个文档", len(rows)), bytes, pages})
	t.Render()
}
