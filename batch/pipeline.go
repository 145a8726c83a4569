// Package batch 把文件队列逐个渲染为 PDF，支持转储展开、断点续跑与打包。
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ByLCY/txt2pdf/binding"
	"github.com/ByLCY/txt2pdf/dump"
	"github.com/ByLCY/txt2pdf/fonts"
	"github.com/ByLCY/txt2pdf/glyph"
	"github.com/ByLCY/txt2pdf/journal"
	"github.com/ByLCY/txt2pdf/layout"
	"github.com/ByLCY/txt2pdf/renderer"
	"github.com/ByLCY/txt2pdf/store"
)

// State 是批次的状态。
type State string

const (
	StateQueued    State = "QUEUED"
	StateRunning   State = "RUNNING"
	StatePartial   State = "PARTIAL_FAILURE"
	StateCompleted State = "COMPLETED"
	StateAborted   State = "ABORTED"
)

// Mode 是处理策略。
type Mode string

const (
	// ModeSafe 逐个保存输出并写检查点，可断点续跑。
	ModeSafe Mode = "SAFE"
	// ModeFast 在内存中累积输出，结束时一次打包。
	ModeFast Mode = "FAST"
)

// DefaultMaxStoreFailures 是判定输出存储不可用的连续保存失败次数。
const DefaultMaxStoreFailures = 3

var (
	ErrEmptyQueue    = errors.New("队列为空")
	ErrBusy          = errors.New("已有批次正在运行")
	ErrPackaging     = errors.New("打包失败，可单独下载各输出文件")
	ErrStoreUnusable = errors.New("输出存储不可用")
	ErrContentLost   = errors.New("内存任务的内容未写入会话日志，无法续跑")
)

// Params 是一次批次的运行参数，会随会话一同保存。
type Params struct {
	Engine     string                  `json:"engine"`
	PageWidth  float64                 `json:"pageWidth"`
	PageHeight float64                 `json:"pageHeight"`
	Fonts      []fonts.Source          `json:"fonts,omitempty"`
	Border     layout.BorderConfig     `json:"border"`
	PreFlight  *layout.PreFlightConfig `json:"preFlight,omitempty"`
	OutputMode OutputMode              `json:"outputMode"`
	Mode       Mode                    `json:"mode"`
}

func (p Params) withDefaults() Params {
	if p.PageWidth <= 0 || p.PageHeight <= 0 {
		p.PageWidth, p.PageHeight = 210, 297
	}
	if p.OutputMode == "" {
		p.OutputMode = OutputMixed
	}
	if p.Mode == "" {
		p.Mode = ModeSafe
	}
	return p
}

// Options 配置批次流水线。
type Options struct {
	Renderers *renderer.Registry
	Space     store.Space
	// Journal 仅在安全模式下使用。
	Journal *journal.Journal
	// Resolver 不为空时在渲染前预扫描缺失字形。
	Resolver *glyph.Resolver
	// Missing 在新批次开始时清空，结束时汇总到结果中。
	Missing          *glyph.MissingLog
	Format           dump.Format
	CompleteTemplate string
	PartTemplate     string
	MaxStoreFailures int
	Logger           *zap.Logger
	OnEvent          func(Event)
	OnProgress       func(Snapshot)
}

// Pipeline 执行批次。同一时刻只运行一个批次。
type Pipeline struct {
	opts    Options
	stop    atomic.Bool
	running atomic.Bool
}

// New 创建流水线。
func New(opts Options) *Pipeline {
	if opts.Format == nil {
		opts.Format = dump.Markers
	}
	if opts.Space == nil {
		opts.Space = store.NewMemorySpace()
	}
	if opts.CompleteTemplate == "" {
		opts.CompleteTemplate = binding.CompleteTemplate
	}
	if opts.PartTemplate == "" {
		opts.PartTemplate = binding.PartTemplate
	}
	if opts.MaxStoreFailures <= 0 {
		opts.MaxStoreFailures = DefaultMaxStoreFailures
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pipeline{opts: opts}
}

// Stop 请求在下一个挂起点停止，正在进行的渲染会先完成。
func (p *Pipeline) Stop() { p.stop.Store(true) }

func (p *Pipeline) stopped(ctx context.Context) bool {
	return p.stop.Load() || ctx.Err() != nil
}

// Run 开始一个新批次。
func (p *Pipeline) Run(ctx context.Context, tasks []Task, params Params) (*Result, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyQueue
	}
	params = params.withDefaults()
	engine, err := p.opts.Renderers.Get(params.Engine)
	if err != nil {
		return nil, err
	}
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.running.Store(false)
	p.stop.Store(false)

	id := journal.NewSessionID()
	base := baseName(tasks[0].FileName)
	ns := store.Namespace(id)
	if p.opts.Missing != nil {
		if err := p.opts.Missing.Clear(); err != nil {
			p.opts.Logger.Warn("清空缺失字符日志失败", zap.Error(err))
		}
	}
	if err := p.opts.Space.Prune(ns); err != nil {
		p.opts.Logger.Warn("清理旧会话输出失败", zap.Error(err))
	}

	r := p.newRun(id, base, 1, tasks, params, engine)
	r.blobs = p.opts.Space.Blobs(ns)
	r.paths = newPathAllocator()
	if params.Mode == ModeSafe && p.opts.Journal != nil {
		metas := lo.Map(tasks, func(t Task, _ int) journal.Item { return t.Meta() })
		if _, err := p.opts.Journal.Start(id, base, metas, params); err != nil {
			return nil, fmt.Errorf("写入会话失败: %w", err)
		}
		r.journaled = true
	}
	return r.execute(ctx)
}

// Resume 从会话日志恢复中断的批次，继续处理剩余队列并沿用原输出命名空间。
func (p *Pipeline) Resume(ctx context.Context) (*Result, error) {
	if p.opts.Journal == nil {
		return nil, journal.ErrNoSession
	}
	s, err := p.opts.Journal.Get()
	if err != nil {
		return nil, err
	}
	var params Params
	if err := s.DecodeParams(&params); err != nil {
		return nil, err
	}
	params = params.withDefaults()
	engine, err := p.opts.Renderers.Get(params.Engine)
	if err != nil {
		return nil, err
	}
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.running.Store(false)
	p.stop.Store(false)

	tasks := lo.Map(s.Queue, func(m journal.Item, _ int) Task { return TaskFromMeta(m) })
	r := p.newRun(s.ID, s.BaseName, s.CurrentPart, tasks, params, engine)
	r.blobs = p.opts.Space.Blobs(store.Namespace(s.ID))
	existing, err := r.blobs.List()
	if err != nil {
		return nil, fmt.Errorf("读取已有输出失败: %w", err)
	}
	r.paths = newPathAllocator(existing...)
	r.start, r.skipParts = s.CurrentFileIndex, s.PartsDone
	r.journaled = true
	r.continuation = true
	return r.execute(ctx)
}

func (p *Pipeline) newRun(id, base string, part int, tasks []Task, params Params, engine renderer.Renderer) *run {
	return &run{
		p:      p,
		log:    p.opts.Logger.With(zap.String("session", id)),
		id:     id,
		base:   base,
		part:   part,
		tasks:  tasks,
		params: params,
		engine: engine,
		result: &Result{SessionID: id, State: StateQueued, Part: part},
	}
}

// baseName 去掉首个文件的扩展名作为归档名，去掉后为空时使用 output。
func baseName(fileName string) string {
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if name == "" {
		return "output"
	}
	return name
}

// yield 是协作式调度的挂起点。
func yield() { runtime.Gosched() }
