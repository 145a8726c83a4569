package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ByLCY/txt2pdf/glyph"
)

func newGlyphsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glyphs",
		Short: "管理缺失字符日志与替代字形",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "missing",
			Short: "列出最近一次批次中无法绘制的字符",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
				codes, err := a.missing.List()
				if err != nil {
					return err
				}
				if len(codes) == 0 {
					_, _ = okColor.Fprintln(cmd.OutOrStdout(), "没有缺失字符")
					return nil
				}
				t := newTable(cmd)
				t.AppendHeader(table.Row{"码点", "字符"})
				for _, code := range codes {
					ch, err := glyph.ParseCode(code)
					if err != nil {
						t.AppendRow(table.Row{code, "?"})
						continue
					}
					t.AppendRow(table.Row{code, string(ch)})
				}
				t.Render()
				return nil
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "清空缺失字符日志",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(_ *cobra.Command, a *app, _ []string) error {
				return a.missing.Clear()
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "列出已登记的替代字形",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
				entries, err := a.glyphs.List()
				if err != nil {
					return err
				}
				t := newTable(cmd)
				t.AppendHeader(table.Row{"码点", "字符", "大小", "登记时间"})
				for _, e := range entries {
					t.AppendRow(table.Row{e.Code, string(e.Rune()), len(e.Data), e.Timestamp.Format("2006-01-02 15:04:05")})
				}
				t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("共 %d 个", len(entries))})
				t.Render()
				return nil
			}),
		},
		&cobra.Command{
			Use:     "add <码点|字符> <图片>",
			Short:   "用 PNG 图片登记替代字形",
			Example: "  txt2pdf glyphs add 0x1F600 smile.png\n  txt2pdf glyphs add 中 zhong.png",
			Args:    cobra.ExactArgs(2),
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
				ch, err := parseGlyphArg(args[0])
				if err != nil {
					return err
				}
				data, err := os.ReadFile(args[1])
				if err != nil {
					return err
				}
				if err := a.glyphs.Save(ch, data); err != nil {
					return err
				}
				if err := a.missing.Remove(glyph.CodeKey(ch)); err != nil {
					return err
				}
				_, _ = okColor.Fprintf(cmd.OutOrStdout(), "已登记 %s\n", glyph.CodeKey(ch))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <码点>",
			Short: "删除一个替代字形",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(opts, func(_ *cobra.Command, a *app, args []string) error {
				ch, err := parseGlyphArg(args[0])
				if err != nil {
					return err
				}
				return a.glyphs.Delete(glyph.CodeKey(ch))
			}),
		},
		&cobra.Command{
			Use:   "learn",
			Short: "调用图像生成服务为缺失字符生成替代字形",
			Long:  "读取缺失字符日志，逐个请求配置 learner 中的 OpenAI 兼容接口生成字形图片并登记；成功登记的字符从日志中移除。",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
				if a.cfg.Learner.Key == "" {
					return errors.New("未配置 learner.key（可设置环境变量 TXT2PDF_LEARNER_KEY）")
				}
				learner := glyph.NewOpenAILearner(a.cfg.Learner)
				learned, err := glyph.LearnMissing(cmd.Context(), a.missing, a.glyphs, learner, a.log)
				_, _ = okColor.Fprintf(cmd.OutOrStdout(), "已登记 %d 个字形 %v\n", len(learned), learned)
				return err
			}),
		},
	)
	return cmd
}

// parseGlyphArg 接受 0x 形式的码点或单个字符。
func parseGlyphArg(s string) (rune, error) {
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		return glyph.ParseCode(s)
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("应为码点（如 0x4E2D）或单个字符：%q", s)
	}
	return runes[0], nil
}

type appRunE func(cmd *cobra.Command, a *app, args []string) error

func withApp(opts *rootOptions, fn appRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := opts.load()
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	return t
}
