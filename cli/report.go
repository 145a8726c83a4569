package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/txt2pdf/batch"
	"github.com/ByLCY/txt2pdf/store"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	titleColor = color.New(color.FgCyan, color.Bold)
)

func warn(w io.Writer, format string, a ...any) {
	_, _ = warnColor.Fprintf(w, "⚠ "+format+"\n", a...)
}

type startFunc func(ctx context.Context, p *batch.Pipeline) (*batch.Result, error)

// runBatch 运行批次并显示进度。第一次 Ctrl-C 请求在下一个挂起点停止，
// 第二次取消正在进行的渲染。
func (a *app) runBatch(cmd *cobra.Command, outDir string, quiet bool, start startFunc) error {
	out := cmd.OutOrStdout()

	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(40)
	pw.SetMessageLength(16)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Colors = progress.StyleColorsExample
	pw.Style().Options.PercentFormat = "%3.0f%%"
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Value = false
	tracker := &progress.Tracker{Message: "转换", Total: 100, Units: progress.UnitsDefault}
	pw.AppendTracker(tracker)
	if !quiet {
		go pw.Render()
	}

	logLine := func(line string) {
		if quiet {
			_, _ = fmt.Fprintln(out, line)
		} else {
			pw.Log("%s", line)
		}
	}
	p := a.pipeline(
		func(e batch.Event) {
			if line := formatEvent(e); line != "" {
				logLine(line)
			}
		},
		func(s batch.Snapshot) {
			tracker.SetValue(int64(s.Percent))
			tracker.UpdateMessage(fmt.Sprintf("转换 %d/%d", s.ProcessedCount, s.TotalCount))
		},
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		for n := 0; ; n++ {
			select {
			case <-ctx.Done():
				return
			case <-sigs:
				if n == 0 {
					logLine(warnColor.Sprint("正在停止，当前文档完成后退出；再次按 Ctrl-C 立即取消"))
					p.Stop()
				} else {
					cancel()
				}
			}
		}
	}()

	res, err := start(ctx, p)
	if !quiet {
		if res != nil && res.State == batch.StateCompleted {
			tracker.MarkAsDone()
		} else {
			tracker.MarkAsErrored()
		}
		time.Sleep(150 * time.Millisecond)
		pw.Stop()
		for pw.IsRenderInProgress() {
			time.Sleep(20 * time.Millisecond)
		}
	}
	if res == nil {
		return err
	}

	path, werr := writeArchive(outDir, res)
	if werr != nil {
		a.log.Error("写入归档失败", zap.Error(werr))
	}
	if res.PackagingErr != nil {
		if dir, xerr := a.exportOutputs(outDir, res); xerr != nil {
			a.log.Error("导出单个输出失败", zap.Error(xerr))
		} else if dir != "" {
			warn(out, "打包失败，各输出文件已导出到 %s", dir)
		}
	}
	printSummary(out, res, path)
	if err != nil {
		return err
	}
	return werr
}

func formatEvent(e batch.Event) string {
	switch e.Kind {
	case batch.EventSaved:
		return okColor.Sprintf("✔ %s", e.Path)
	case batch.EventError:
		if e.Path == "" {
			return errColor.Sprintf("✘ %s: %v", e.Message, e.Err)
		}
		return errColor.Sprintf("✘ %s: %v", e.Path, e.Err)
	case batch.EventDump:
		return titleColor.Sprintf("▸ %s %s", e.Path, e.Message)
	case batch.EventInfo:
		return e.Message
	default:
		return ""
	}
}

// writeArchive 把归档写入 dir，返回写入的路径。
func writeArchive(dir string, res *batch.Result) (string, error) {
	if len(res.Archive) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	path := filepath.Join(dir, res.ArchiveName)
	if err := os.WriteFile(path, res.Archive, 0o644); err != nil {
		return "", fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return path, nil
}

// exportOutputs 在打包失败时把本次会话已保存的输出逐个写到 <dir>/<会话>/ 下。
func (a *app) exportOutputs(dir string, res *batch.Result) (string, error) {
	blobs := a.space.Blobs(store.Namespace(res.SessionID))
	paths, err := blobs.List()
	if err != nil || len(paths) == 0 {
		return "", err
	}
	root := filepath.Join(dir, res.SessionID)
	for _, p := range paths {
		rel := batch.CleanOutputPath(p)
		if rel == "" {
			continue
		}
		data, err := blobs.Get(p)
		if err != nil {
			return "", err
		}
		target := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return "", err
		}
	}
	return root, nil
}

func printSummary(w io.Writer, res *batch.Result, archivePath string) {
	_, _ = titleColor.Fprintln(w, "\n转换结果")
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"项目", "值"})
	t.AppendRows([]table.Row{
		{"会话", res.SessionID},
		{"状态", describeState(res.State)},
		{"已生成", len(res.Generated)},
		{"已跳过", len(res.Skipped)},
		{"剩余", res.Remaining},
		{"进度", fmt.Sprintf("%d%%", res.Progress.Percent)},
	})
	if archivePath != "" {
		t.AppendRow(table.Row{"归档", archivePath})
	}
	t.Render()

	for _, s := range res.Skipped {
		_, _ = errColor.Fprintf(w, "  跳过 %s\n", s.Error())
	}
	if len(res.Missing) > 0 {
		warn(w, "%d 个字符无法绘制：%v，可运行 txt2pdf glyphs learn 生成替代字形", len(res.Missing), res.Missing)
	}
	if res.Partial() && res.Remaining > 0 {
		warn(w, "还有 %d 项未处理，运行 txt2pdf resume 继续", res.Remaining)
	}
}
