package batch

import (
	"math"
	"sync"
)

// 总进度中按字节与按文件数计算的权重。
const (
	ByteWeight  = 0.85
	CountWeight = 0.15
)

// Snapshot 是某一时刻的进度。
type Snapshot struct {
	ProcessedBytes float64
	TotalBytes     int64
	ProcessedCount int
	TotalCount     int
	// PagePercent 是当前文档的绘制进度（0-100）。
	PagePercent float64
	// Percent 是加权后的整数总进度。
	Percent int
}

// progress 维护批次计数器。计数器只增不减，且不会超过总量。
type progress struct {
	mu       sync.Mutex
	snap     Snapshot
	done     bool
	onChange func(Snapshot)
}

func newProgress(totalBytes int64, totalCount int, onChange func(Snapshot)) *progress {
	return &progress{
		snap:     Snapshot{TotalBytes: totalBytes, TotalCount: totalCount},
		onChange: onChange,
	}
}

// advance 累加已处理的字节与逻辑文档数。
func (p *progress) advance(bytes float64, count int) {
	p.update(func(s *Snapshot) {
		if bytes > 0 {
			s.ProcessedBytes = math.Min(s.ProcessedBytes+bytes, float64(s.TotalBytes))
		}
		if count > 0 {
			s.ProcessedCount = min(s.ProcessedCount+count, s.TotalCount)
		}
	})
}

// settle 把已处理字节数校正为 exact，用于抵消分段平分字节时的浮点误差。
func (p *progress) settle(exact float64) {
	p.update(func(s *Snapshot) {
		s.ProcessedBytes = math.Min(math.Max(s.ProcessedBytes, exact), float64(s.TotalBytes))
	})
}

// page 记录当前文档的绘制进度。
func (p *progress) page(percent float64) {
	p.update(func(s *Snapshot) { s.PagePercent = math.Max(0, math.Min(percent, 100)) })
}

// complete 把计数器推到总量，此后总进度恒为 100。
func (p *progress) complete() {
	p.update(func(s *Snapshot) {
		s.ProcessedBytes = float64(s.TotalBytes)
		s.ProcessedCount = s.TotalCount
		p.done = true
	})
}

func (p *progress) snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *progress) update(fn func(*Snapshot)) {
	p.mu.Lock()
	fn(&p.snap)
	p.snap.Percent = max(p.snap.Percent, p.percentLocked())
	snap := p.snap
	p.mu.Unlock()
	if p.onChange != nil {
		p.onChange(snap)
	}
}

func (p *progress) percentLocked() int {
	if p.done {
		return 100
	}
	s := p.snap
	var pct float64
	if s.TotalBytes > 0 {
		pct += ByteWeight * s.ProcessedBytes / float64(s.TotalBytes) * 100
	}
	if s.TotalCount > 0 {
		pct += CountWeight * float64(s.ProcessedCount) / float64(s.TotalCount) * 100
	}
	return min(int(math.Floor(pct)), 100)
}
