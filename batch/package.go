package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ByLCY/txt2pdf/archive"
	"github.com/ByLCY/txt2pdf/binding"
	"github.com/ByLCY/txt2pdf/journal"
)

func (r *run) nameVars() map[string]any {
	return map[string]any{
		"base":    r.base,
		"part":    r.part,
		"session": r.id,
		"mode":    string(r.params.Mode),
	}
}

// finish 打包命名空间中的全部输出并清除会话。打包失败不影响批次完成状态。
func (r *run) finish(ctx context.Context) {
	res := r.result
	b := r.archive
	if b == nil {
		var err error
		if b, err = r.collect(ctx, nil); err != nil {
			res.PackagingErr = fmt.Errorf("%w: %v", ErrPackaging, err)
		}
	}
	if res.PackagingErr == nil {
		name := binding.FileName(r.p.opts.CompleteTemplate, r.nameVars(), binding.CompleteTemplate)
		r.serialize(ctx, b, name)
	}
	if res.PackagingErr != nil {
		r.event(EventError, "", "打包失败", res.PackagingErr)
	}
	if r.journaled {
		if err := r.p.opts.Journal.Clear(); err != nil {
			r.log.Warn("清除会话失败", zap.Error(err))
		}
	}
}

// packagePart 在批次未完成时把本次运行产生的输出打成分卷，并推进分卷编号。
func (r *run) packagePart(ctx context.Context) {
	res := r.result
	if len(res.Generated) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	b := r.archive
	if b == nil {
		var err error
		if b, err = r.collect(ctx, res.Generated); err != nil {
			res.PackagingErr = fmt.Errorf("%w: %v", ErrPackaging, err)
			r.event(EventError, "", "分卷打包失败", res.PackagingErr)
			return
		}
	}
	name := binding.FileName(r.p.opts.PartTemplate, r.nameVars(), binding.PartTemplate)
	r.serialize(ctx, b, name)
	if r.journaled {
		if _, err := r.p.opts.Journal.Update(func(s *journal.Session) { s.CurrentPart = r.part + 1 }); err != nil {
			r.log.Warn("更新分卷编号失败", zap.Error(err))
		}
	}
}

// collect 从输出存储读取 paths 对应的输出；paths 为空时读取全部。
func (r *run) collect(ctx context.Context, paths []string) (*archive.Builder, error) {
	if paths == nil {
		var err error
		if paths, err = r.blobs.List(); err != nil {
			return nil, fmt.Errorf("列出输出失败: %w", err)
		}
	}
	b := archive.NewBuilder()
	for i, p := range paths {
		data, err := r.blobs.Get(p)
		if err != nil {
			r.log.Warn("读取输出失败，未加入归档", zap.String("path", p), zap.Error(err))
			continue
		}
		if err := b.AddEntry(p, data); err != nil {
			return nil, err
		}
		if (i+1)%archive.ReportEvery == 0 {
			r.event(EventArchive, "", fmt.Sprintf("缓冲 %d/%d", i+1, len(paths)), nil)
			yield()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

func (r *run) serialize(ctx context.Context, b *archive.Builder, name string) {
	res := r.result
	if b.Len() == 0 {
		r.event(EventInfo, "", "没有可打包的输出", nil)
		return
	}
	last := -1
	data, err := b.Serialize(ctx, func(pct float64) {
		if step := int(pct) / 10; step != last {
			last = step
			r.event(EventArchive, name, fmt.Sprintf("写入 %.0f%%", pct), nil)
		}
	})
	if err != nil {
		res.PackagingErr = fmt.Errorf("%w: %v", ErrPackaging, err)
		return
	}
	res.Archive, res.ArchiveName = data, name
	r.event(EventArchive, name, fmt.Sprintf("归档完成，共 %d 个文件", b.Len()), nil)
}
