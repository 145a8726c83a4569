package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ByLCY/txt2pdf/archive"
	"github.com/ByLCY/txt2pdf/fonts"
	"github.com/ByLCY/txt2pdf/layout"
	"github.com/ByLCY/txt2pdf/renderer"
	"github.com/ByLCY/txt2pdf/store"
)

// EventKind 区分流水线事件。
type EventKind string

const (
	EventInfo    EventKind = "INFO"
	EventItem    EventKind = "ITEM"
	EventDump    EventKind = "DUMP"
	EventSaved   EventKind = "SAVED"
	EventError   EventKind = "ERROR"
	EventArchive EventKind = "ZIP"
)

// Event 是一条逐项状态记录。
type Event struct {
	Kind    EventKind
	Path    string
	Message string
	Err     error
}

// ItemError 记录被跳过的项。
type ItemError struct {
	Path string
	Err  error
}

func (e ItemError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e ItemError) Unwrap() error { return e.Err }

// Result 是批次的结果。
type Result struct {
	SessionID string
	State     State
	// Archive 是打包结果，ArchiveName 为其文件名；没有输出时为空。
	Archive     []byte
	ArchiveName string
	Generated   []string
	Skipped     []ItemError
	// Remaining 是尚未处理的队列项数，RemainingTasks 为对应任务。
	Remaining      int
	RemainingTasks []Task
	Part           int
	// Missing 是本批次记录的缺失字符编码。
	Missing      []string
	PackagingErr error
	// Err 是导致批次中断的意外错误。
	Err      error
	Progress Snapshot
}

// Partial 表示批次未处理完整个队列。
func (r *Result) Partial() bool { return r.State == StatePartial || r.State == StateAborted }

// NeedsAttention 表示存在缺失字形或被跳过的项。
func (r *Result) NeedsAttention() bool { return len(r.Missing) > 0 || len(r.Skipped) > 0 }

type run struct {
	p      *Pipeline
	log    *zap.Logger
	id     string
	base   string
	part   int
	tasks  []Task
	params Params
	engine renderer.Renderer

	blobs   store.BlobStore
	archive *archive.Builder
	paths   *pathAllocator
	prog    *progress

	start        int
	skipParts    int
	cursor       int
	journaled    bool
	continuation bool
	storeFails   int
	result       *Result
}

// errInterrupted 表示在转储分段之间收到停止请求。
var errInterrupted = errors.New("interrupted")

func (r *run) execute(ctx context.Context) (*Result, error) {
	res := r.result
	res.State = StateRunning
	r.cursor = r.start
	if r.params.Mode == ModeFast {
		r.archive = archive.NewBuilder()
		r.event(EventInfo, "", "快速模式（内存累积）", nil)
	} else {
		r.event(EventInfo, "", "安全模式（逐个落盘）", nil)
	}
	if r.continuation {
		r.event(EventInfo, "", fmt.Sprintf("会话已恢复，从第 %d 项继续", r.start), nil)
	}

	counts := r.prescan()
	total := lo.Sum(counts)
	r.event(EventInfo, "", fmt.Sprintf("分析完成，共 %d 个文档", total), nil)
	totalBytes := lo.SumBy(r.tasks, func(t Task) int64 { return t.Size })
	r.prog = newProgress(totalBytes, total, r.p.opts.OnProgress)
	r.prog.advance(lo.SumBy(r.tasks[:r.start], func(t Task) float64 { return float64(t.Size) }), lo.Sum(counts[:r.start]))

	loopErr := r.loop(ctx, counts)
	switch {
	case loopErr != nil:
		res.State = StatePartial
		res.Err = loopErr
		r.event(EventError, "", "批次意外中断", loopErr)
	case r.cursor < len(r.tasks):
		res.State = StateAborted
		r.event(EventInfo, "", "已停止", nil)
	default:
		res.State = StateCompleted
		r.prog.complete()
	}

	if res.State == StateCompleted {
		r.finish(ctx)
	} else {
		r.packagePart(ctx)
	}

	res.Remaining = len(r.tasks) - r.cursor
	res.RemainingTasks = r.tasks[r.cursor:]
	res.Progress = r.prog.snapshot()
	if m := r.p.opts.Missing; m != nil {
		codes, err := m.List()
		if err != nil {
			r.log.Warn("读取缺失字符日志失败", zap.Error(err))
		}
		res.Missing = codes
	}
	return res, res.Err
}

// prescan 估算每个任务包含的逻辑文档数，无法读取的文件按 1 计。
func (r *run) prescan() []int {
	counts := make([]int, len(r.tasks))
	for i, t := range r.tasks {
		counts[i] = 1
		text, err := t.Text()
		if err != nil {
			continue
		}
		if n := r.p.opts.Format.Count(text); n > 0 {
			counts[i] = n
		}
	}
	return counts
}

func (r *run) loop(ctx context.Context, counts []int) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("处理队列时发生意外错误: %v", v)
		}
	}()
	for i := r.start; i < len(r.tasks); i++ {
		if r.p.stopped(ctx) {
			return nil
		}
		yield()

		t := r.tasks[i]
		skip := 0
		if i == r.start {
			skip = r.skipParts
			if skip > 0 {
				per := float64(t.Size) / float64(counts[i])
				r.prog.advance(per*float64(skip), skip)
			}
		}
		r.event(EventItem, t.FileName, "", nil)
		if err := r.process(ctx, t, skip); err != nil {
			if errors.Is(err, errInterrupted) {
				return nil
			}
			return err
		}
		r.prog.settle(lo.SumBy(r.tasks[:i+1], func(t Task) float64 { return float64(t.Size) }))
		r.cursor = i + 1
		if r.journaled {
			if _, err := r.p.opts.Journal.Checkpoint(r.cursor); err != nil {
				return fmt.Errorf("写入检查点失败: %w", err)
			}
		}
	}
	return nil
}

// process 转换一个任务。返回的错误会中断批次；单项失败只记录并跳过。
func (r *run) process(ctx context.Context, t Task, skipParts int) error {
	text, err := t.Text()
	if err != nil {
		r.skip(t.FileName, err)
		r.prog.advance(float64(t.Size), 1)
		return nil
	}
	parts, ok := r.p.opts.Format.Parse(text)
	if !ok {
		return r.convert(ctx, t.FileName, text, OutputPath(t, r.params.OutputMode), float64(t.Size))
	}

	r.event(EventDump, t.FileName, fmt.Sprintf("展开为 %d 个文档", len(parts)), nil)
	per := float64(t.Size) / float64(len(parts))
	for k, part := range parts {
		if k < skipParts {
			continue
		}
		if r.p.stopped(ctx) {
			return errInterrupted
		}
		yield()
		if err := r.convert(ctx, part.Path, part.Content, DumpOutputPath(part.Path), per); err != nil {
			return err
		}
		if r.journaled {
			if _, err := r.p.opts.Journal.CheckpointPart(k + 1); err != nil {
				return fmt.Errorf("写入检查点失败: %w", err)
			}
		}
	}
	return nil
}

// convert 渲染一个逻辑文档并保存输出。
func (r *run) convert(ctx context.Context, name, text, desired string, bytes float64) error {
	if res := r.p.opts.Resolver; res != nil {
		names := lo.Map(r.params.Fonts, func(s fonts.Source, _ int) string { return s.Name })
		if _, err := res.ScanForMissing(text, fonts.StackFor(layout.IsCodeFile(name), names...)); err != nil {
			r.log.Warn("缺失字形预扫描失败", zap.String("path", name), zap.Error(err))
		}
	}

	doc, err := r.engine.Render(ctx, renderer.Job{
		Text:       text,
		PageWidth:  r.params.PageWidth,
		PageHeight: r.params.PageHeight,
		Progress:   r.prog.page,
		Fonts:      r.params.Fonts,
		Options: layout.RenderOptions{
			FileName:  name,
			Border:    r.params.Border,
			PreFlight: r.params.PreFlight,
		},
	})
	if err == nil {
		var data []byte
		if data, err = doc.Bytes(); err == nil {
			return r.save(name, desired, data, bytes)
		}
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return errInterrupted
	}
	r.skip(name, err)
	r.prog.advance(bytes, 1)
	return nil
}

func (r *run) save(name, desired string, data []byte, bytes float64) error {
	path := r.paths.Unique(desired)
	if r.archive != nil {
		if err := r.archive.AddEntry(path, data); err != nil {
			r.skip(name, err)
			r.prog.advance(bytes, 1)
			return nil
		}
	} else if err := r.blobs.Save(path, data); err != nil {
		r.storeFails++
		r.skip(name, fmt.Errorf("保存 %s 失败: %w", path, err))
		r.prog.advance(bytes, 1)
		if r.storeFails >= r.p.opts.MaxStoreFailures {
			return fmt.Errorf("%w: 连续 %d 次保存失败: %v", ErrStoreUnusable, r.storeFails, err)
		}
		return nil
	}
	r.storeFails = 0
	r.result.Generated = append(r.result.Generated, path)
	r.event(EventSaved, path, "", nil)
	r.prog.advance(bytes, 1)
	return nil
}

func (r *run) skip(path string, err error) {
	r.result.Skipped = append(r.result.Skipped, ItemError{Path: path, Err: err})
	r.event(EventError, path, "处理失败，已跳过", err)
}

func (r *run) event(kind EventKind, path, msg string, err error) {
	fields := []zap.Field{zap.String("kind", string(kind))}
	if path != "" {
		fields = append(fields, zap.String("path", path))
	}
	if err != nil {
		r.log.Warn(msg, append(fields, zap.Error(err))...)
	} else {
		r.log.Info(msg, fields...)
	}
	if r.p.opts.OnEvent != nil {
		r.p.opts.OnEvent(Event{Kind: kind, Path: path, Message: msg, Err: err})
	}
}
