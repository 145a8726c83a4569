package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ByLCY/txt2pdf/batch"
	"github.com/ByLCY/txt2pdf/config"
	"github.com/ByLCY/txt2pdf/layout"
)

type queueFlags struct {
	tree     bool
	split    bool
	basePath string
}

func (f *queueFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.tree, "tree", false, "保留目录结构（默认把目录中的文件平铺到槽根目录）")
	cmd.Flags().BoolVar(&f.split, "split", false, "每个参数作为独立的输入槽（A₁、A₂…）")
	cmd.Flags().StringVar(&f.basePath, "base-path", "", "输出根目录（仅单个输入槽时有效）")
}

// tasks 把命令行参数整理为输入槽并展开为任务队列。
func (f *queueFlags) tasks(args []string) ([]batch.Task, error) {
	groups := [][]string{args}
	if f.split {
		groups = lo.Map(args, func(a string, _ int) []string { return []string{a} })
	}
	if f.basePath != "" && len(groups) > 1 {
		return nil, errors.New("--base-path 只能用于单个输入槽")
	}
	expand := batch.FilesMode
	if f.tree {
		expand = batch.TreeMode
	}
	var tasks []batch.Task
	for i, paths := range groups {
		slot := batch.Slot{ID: batch.SlotID(i), CustomPath: f.basePath, Paths: paths}
		ts, err := expand(slot)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, ts...)
	}
	if len(tasks) == 0 {
		return nil, batch.ErrEmptyQueue
	}
	return tasks, nil
}

type paramFlags struct {
	mode       string
	outputMode string
	engine     string
	paper      string
	border     string
	markdown   bool
	noHL       bool
}

func (f *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "处理模式：SAFE（逐个落盘，可续跑）或 FAST（内存累积）")
	cmd.Flags().StringVar(&f.outputMode, "output-mode", "", "输出结构：MIXED（平铺）或 MIRROR（镜像输入目录）")
	cmd.Flags().StringVar(&f.engine, "engine", "", "渲染引擎：raster 或 vector")
	cmd.Flags().StringVar(&f.paper, "paper", "", `纸张，如 "A4"、"A5 landscape"、"LETTER"`)
	cmd.Flags().StringVar(&f.border, "border", "", `页边距，如 "5mm"、"0.5in"、"3%"（无单位按毫米）`)
	cmd.Flags().BoolVar(&f.markdown, "markdown", false, "渲染 Markdown 标题与列表样式")
	cmd.Flags().BoolVar(&f.noHL, "no-highlight", false, "关闭语法高亮")
}

// apply 把显式给出的标志写入配置，再转换为批次参数。
func (f *paramFlags) apply(cmd *cobra.Command, cfg *config.Config) (batch.Params, error) {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = f.mode
	}
	if flags.Changed("output-mode") {
		cfg.OutputMode = f.outputMode
	}
	if flags.Changed("engine") {
		cfg.Engine = f.engine
	}
	if flags.Changed("paper") {
		cfg.Paper = f.paper
	}
	if flags.Changed("border") {
		border, err := layout.ParseBorder(f.border)
		if err != nil {
			return batch.Params{}, err
		}
		cfg.Border = border
	}
	if flags.Changed("markdown") {
		cfg.PreFlight.RenderMarkdown = f.markdown
	}
	if flags.Changed("no-highlight") {
		cfg.PreFlight.HighlightEnabled = !f.noHL
	}
	if err := cfg.Validate(); err != nil {
		return batch.Params{}, err
	}
	return cfg.Params()
}

func newConvertCommand(opts *rootOptions) *cobra.Command {
	var (
		queue  queueFlags
		params paramFlags
		out    outputFlags
	)
	cmd := &cobra.Command{
		Use:   "convert [flags] path...",
		Short: "转换文件或目录",
		Example: `  # 转换单个文件
  txt2pdf convert notes.txt

  # 保留目录结构并镜像输出
  txt2pdf convert --tree --output-mode MIRROR ./src

  # 每个目录单独成槽，快速模式
  txt2pdf convert --split --mode FAST ./docs ./examples`,
		Args: cobra.MinimumNArgs(1),
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
			if s, err := a.journal.Get(); err == nil && p.Mode == batch.ModeSafe {
				warn(cmd.ErrOrStderr(), "存在未完成的会话 %s（%d/%d），新批次将覆盖它；可先运行 txt2pdf resume", s.ID, s.CurrentFileIndex, len(s.Queue))
			}
			return a.runBatch(cmd, out.resolve(a.cfg), out.quiet, func(ctx context.Context, pl *batch.Pipeline) (*batch.Result, error) {
				return pl.Run(ctx, tasks, p)
			})
		},
	}
	queue.register(cmd)
	params.register(cmd)
	out.register(cmd)
	return cmd
}

func newResumeCommand(opts *rootOptions) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "从上次中断的位置继续安全模式批次",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load()
			if err != nil {
				return err
			}
			defer a.close()
			return a.runBatch(cmd, out.resolve(a.cfg), out.quiet, func(ctx context.Context, pl *batch.Pipeline) (*batch.Result, error) {
				return pl.Resume(ctx)
			})
		},
	}
	out.register(cmd)
	return cmd
}

type outputFlags struct {
	dir   string
	quiet bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dir, "out", "o", "", "归档输出目录（默认取配置 output_dir）")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "不显示进度条，逐行输出事件")
}

func (f *outputFlags) resolve(cfg *config.Config) string {
	if strings.TrimSpace(f.dir) != "" {
		return f.dir
	}
	return cfg.OutputDir
}

func describeState(s batch.State) string {
	switch s {
	case batch.StateCompleted:
		return "已完成"
	case batch.StateAborted:
		return "已停止"
	case batch.StatePartial:
		return "部分失败"
	default:
		return fmt.Sprint(s)
	}
}
