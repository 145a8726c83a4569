// Package journal 持久化当前批次的会话状态，使中断的批次可以从检查点继续。
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ByLCY/txt2pdf/store"
)

// Key 是会话在 KV 仓库中的键。
const Key = "txt2pdf_active_session_v5"

var (
	// ErrNoSession 表示没有可恢复的会话。
	ErrNoSession = errors.New("没有可恢复的会话，请重新开始批次")
	// ErrCorrupt 表示会话记录无法解析。
	ErrCorrupt = errors.New("会话记录已损坏，请重新开始批次")
)

// Item 是队列项的稳定标识信息，不包含文件句柄或内容。
type Item struct {
	Source   string `json:"source"`
	Path     string `json:"path"`
	BasePath string `json:"basePath"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}

// Session 是一个批次的检查点。
type Session struct {
	ID       string `json:"id"`
	BaseName string `json:"baseName"`
	// CurrentPart 是当前正在写入的分卷编号，从 1 开始。
	CurrentPart int `json:"currentPart"`
	// CurrentFileIndex 是下一个待处理队列项的下标，只增不减。
	CurrentFileIndex int `json:"currentFileIndex"`
	// PartsDone 是游标所指任务中已完成的转储分段数，游标前进时归零。
	PartsDone int    `json:"partsDone"`
	Queue     []Item `json:"queue"`
	// Params 保存开始批次时的运行参数，由调用方编码。
	Params    json.RawMessage `json:"params,omitempty"`
	StartedAt time.Time       `json:"startedAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Remaining 返回尚未处理的队列项。
func (s *Session) Remaining() []Item {
	if s.CurrentFileIndex >= len(s.Queue) {
		return nil
	}
	return s.Queue[s.CurrentFileIndex:]
}

// DecodeParams 将保存的运行参数解码到 v。
func (s *Session) DecodeParams(v any) error {
	if len(s.Params) == 0 {
		return fmt.Errorf("%w: 缺少运行参数", ErrCorrupt)
	}
	if err := json.Unmarshal(s.Params, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// NewSessionID 生成新的会话编号。
func NewSessionID() string { return uuid.NewString() }

// Journal 在 KV 仓库中读写唯一的活动会话。
type Journal struct {
	mu  sync.Mutex
	kv  store.KV
	now func() time.Time
}

// New 创建会话日志。
func New(kv store.KV) *Journal {
	return &Journal{kv: kv, now: time.Now}
}

// Start 以新会话覆盖已有会话。
func (j *Journal) Start(id, baseName string, queue []Item, params any) (*Session, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("编码运行参数失败: %w", err)
	}
	now := j.now()
	s := &Session{
		ID:          id,
		BaseName:    baseName,
		CurrentPart: 1,
		Queue:       append([]Item(nil), queue...),
		Params:      raw,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := j.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Update 读取会话、应用 fn 并写回。游标与分卷编号不会被调低。
func (j *Journal) Update(fn func(*Session)) (*Session, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	s, err := j.load()
	if err != nil {
		return nil, err
	}
	index, part := s.CurrentFileIndex, s.CurrentPart
	fn(s)
	s.CurrentFileIndex = max(s.CurrentFileIndex, index)
	s.CurrentPart = max(s.CurrentPart, part)
	if s.CurrentFileIndex > index {
		s.PartsDone = 0
	}
	s.UpdatedAt = j.now()
	if err := j.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Checkpoint 将游标推进到 index。
func (j *Journal) Checkpoint(index int) (*Session, error) {
	return j.Update(func(s *Session) { s.CurrentFileIndex = index })
}

// CheckpointPart 记录游标所指任务已完成的转储分段数。
func (j *Journal) CheckpointPart(done int) (*Session, error) {
	return j.Update(func(s *Session) { s.PartsDone = max(s.PartsDone, done) })
}

// Get 返回活动会话；不存在时返回 ErrNoSession，无法解析时返回 ErrCorrupt。
func (j *Journal) Get() (*Session, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.load()
}

// Clear 删除活动会话。
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.kv.Delete(Key); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("清除会话失败: %w", err)
	}
	return nil
}

func (j *Journal) load() (*Session, error) {
	raw, err := j.kv.Get(Key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("读取会话失败: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: 缺少会话编号", ErrCorrupt)
	}
	if s.CurrentFileIndex < 0 || s.CurrentFileIndex > len(s.Queue) {
		return nil, fmt.Errorf("%w: 游标 %d 超出队列长度 %d", ErrCorrupt, s.CurrentFileIndex, len(s.Queue))
	}
	return &s, nil
}

func (j *Journal) save(s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("编码会话失败: %w", err)
	}
	if err := j.kv.Set(Key, raw); err != nil {
		return fmt.Errorf("写入会话失败: %w", err)
	}
	return nil
}
