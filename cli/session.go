package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ByLCY/txt2pdf/config"
	"github.com/ByLCY/txt2pdf/journal"
	"github.com/ByLCY/txt2pdf/store"
)

func newSessionCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "查看或清除未完成的安全模式会话",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "显示当前会话",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
				s, err := a.journal.Get()
				if errors.Is(err, journal.ErrNoSession) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "没有未完成的会话")
					return nil
				}
				if err != nil {
					return err
				}
				t := newTable(cmd)
				t.AppendRows([]table.Row{
					{"会话", s.ID},
					{"归档名", s.BaseName},
					{"分卷", s.CurrentPart},
					{"进度", fmt.Sprintf("%d/%d", s.CurrentFileIndex, len(s.Queue))},
					{"转储已完成分段", s.PartsDone},
					{"开始", s.StartedAt.Local().Format("2006-01-02 15:04:05")},
					{"更新", s.UpdatedAt.Local().Format("2006-01-02 15:04:05")},
				})
				t.Render()

				rest := newTable(cmd)
				rest.AppendHeader(table.Row{"#", "待处理", "目录", "字节"})
				for i, item := range s.Remaining() {
					rest.AppendRow(table.Row{s.CurrentFileIndex + i + 1, item.FileName, item.Path, item.Size})
				}
				rest.Render()
				return nil
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "放弃当前会话并删除其已保存的输出",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
				s, err := a.journal.Get()
				if err != nil && !errors.Is(err, journal.ErrCorrupt) {
					return err
				}
				if s != nil {
					if err := a.space.Blobs(store.Namespace(s.ID)).DeleteAll(); err != nil {
						return err
					}
				}
				if err := a.journal.Clear(); err != nil {
					return err
				}
				_, _ = okColor.Fprintln(cmd.OutOrStdout(), "会话已清除")
				return nil
			}),
		},
	)
	return cmd
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "生成或查看配置",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写出默认配置文件（默认 ./.txt2pdf.yaml）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s 已存在，使用 --force 覆盖", path)
			}
			if err := config.SaveConfig(config.NewDefaultConfig(), path); err != nil {
				return err
			}
			_, _ = okColor.Fprintf(cmd.OutOrStdout(), "已写入 %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "覆盖已有文件")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "显示生效的配置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			key := "(未设置)"
			if cfg.Learner.Key != "" {
				key = "******"
			}
			t := newTable(cmd)
			t.AppendHeader(table.Row{"配置项", "值"})
			t.AppendRows([]table.Row{
				{"paper", cfg.Paper},
				{"border", fmt.Sprintf("%g %s", cfg.Border.Value, cfg.Border.Mode)},
				{"engine", cfg.Engine},
				{"mode", cfg.Mode},
				{"output_mode", cfg.OutputMode},
				{"fonts", len(cfg.Fonts)},
				{"preflight", fmt.Sprintf("markdown=%t highlight=%t", cfg.PreFlight.RenderMarkdown, cfg.PreFlight.HighlightEnabled)},
				{"storage", cfg.Storage},
				{"data_dir", cfg.DataDir},
				{"output_dir", cfg.OutputDir},
				{"archive", cfg.Archive.CompleteTemplate + " / " + cfg.Archive.PartTemplate},
				{"render", fmt.Sprintf("dpi=%g jpeg=%d yield=%d", cfg.Render.DPI, cfg.Render.JPEGQuality, cfg.Render.YieldEvery)},
				{"learner", fmt.Sprintf("%s %s key=%s", cfg.Learner.BaseURL, cfg.Learner.Model, key)},
			})
			t.Render()
			return nil
		},
	}
	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
