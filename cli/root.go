// Package cli 实现 txt2pdf 命令行。
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCommand 创建根命令。
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "txt2pdf",
		Short: "把文本与源代码文件批量转换为分页 PDF",
		Long: `txt2pdf 把纯文本、Markdown 与源代码文件排版为分页 PDF，并打包为 ZIP。

支持的功能:
  - 按字素簇换行与分页，正确处理组合字符与 emoji
  - 源代码语法高亮与 Markdown 标题、列表样式
  - 转储文件（以 "### **路径** ###" 分隔）自动展开为多个文档
  - 安全模式下断点续跑，中断后使用 resume 继续
  - 检测字体无法绘制的字符，并可通过 glyphs learn 生成替代字形`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "配置文件路径（默认查找 ./.txt2pdf.yaml 与 ~/.txt2pdf.yaml）")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "输出调试日志")

	root.AddCommand(
		newConvertCommand(opts),
		newResumeCommand(opts),
		newPlanCommand(opts),
		newGlyphsCommand(opts),
		newSessionCommand(opts),
		newConfigCommand(opts),
	)
	return root
}
