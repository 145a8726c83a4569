package glyph

import (
	"fmt"
	"unicode"

	"go.uber.org/zap"

	"github.com/ByLCY/txt2pdf/fonts"
)

// PriorityFallbacks 是主字体栈绘制失败后依次尝试的字体，未注册的字体会被跳过。
var PriorityFallbacks = []string{
	"Noto Sans",
	"Noto Serif",
	"Noto Sans Mono",
	"Noto Sans JP", "Noto Sans KR", "Noto Sans SC", "Noto Sans TC",
	"Noto Naskh Arabic", "Noto Sans Arabic",
	"Roboto",
	"Roboto Mono",
	"Droid Sans Mono",
	fonts.Monospace,
	"Segoe UI",
	"Apple Color Emoji", "Segoe UI Emoji", "Noto Color Emoji",
	"Arial",
	"Helvetica",
	"Times New Roman",
	"Courier New",
	fonts.SansSerif,
	fonts.Serif,
}

// Checker 是可选的字形可用性快速检查，返回 false 表示字体栈无法绘制该字符。
type Checker func(stack fonts.Stack, r rune) bool

// Options 配置 Resolver。
type Options struct {
	// Rasterizer 为空时使用基于字体集合的 FaceRasterizer。
	Rasterizer Rasterizer
	Checker    Checker
	// Fallbacks 为空时使用 PriorityFallbacks。
	Fallbacks []string
	Logger    *zap.Logger
}

// Resolver 通过与“未找到”方框的像素指纹比较，找出字体无法绘制的字符。
type Resolver struct {
	book      *fonts.Book
	raster    Rasterizer
	checker   Checker
	fallbacks []string
	missing   *MissingLog
	logger    *zap.Logger
}

// NewResolver 创建解析器，缺失字符写入 missing。
func NewResolver(book *fonts.Book, missing *MissingLog, opts Options) *Resolver {
	r := &Resolver{
		book:      book,
		raster:    opts.Rasterizer,
		checker:   opts.Checker,
		fallbacks: opts.Fallbacks,
		missing:   missing,
		logger:    opts.Logger,
	}
	if r.raster == nil {
		r.raster = NewFaceRasterizer(book)
	}
	if len(r.fallbacks) == 0 {
		r.fallbacks = PriorityFallbacks
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// fingerprintCache 在一次扫描内缓存各字体栈的“未找到”指纹。
type fingerprintCache map[string]Sample

func (r *Resolver) fingerprint(cache fingerprintCache, stack fonts.Stack) (Sample, error) {
	key := stack.String()
	if s, ok := cache[key]; ok {
		return s, nil
	}
	s, err := r.raster.Render(stack, string(NotACharacter))
	if err != nil {
		return Sample{}, fmt.Errorf("获取 %s 的未找到指纹失败: %w", key, err)
	}
	cache[key] = s
	return s, nil
}

func (r *Resolver) isTofu(cache fingerprintCache, stack fonts.Stack, ch rune) (bool, error) {
	ref, err := r.fingerprint(cache, stack)
	if err != nil {
		return false, err
	}
	s, err := r.raster.Render(stack, string(ch))
	if err != nil {
		return false, err
	}
	return s.IsTofu(ref), nil
}

// ScanForMissing 检查文本中每个不同的字符，把所有字体都无法绘制的字符记入缺失日志。
// ASCII 字符每次调用最多检查一次，由第一个可见 ASCII 字符代表。
// 返回本次新记录的字符。
func (r *Resolver) ScanForMissing(text string, stack fonts.Stack) ([]rune, error) {
	cache := fingerprintCache{}
	checked := map[rune]bool{}
	asciiChecked := false
	var logged []rune

	for _, ch := range text {
		if fonts.IsIgnorable(ch) || unicode.IsSpace(ch) {
			continue
		}
		if ch < 0x80 {
			if asciiChecked {
				continue
			}
			asciiChecked = true
		}
		if checked[ch] {
			continue
		}
		checked[ch] = true

		missing, err := r.missingFrom(cache, stack, ch)
		if err != nil {
			return logged, err
		}
		if !missing {
			continue
		}
		if r.recovered(cache, ch) {
			continue
		}
		added, err := r.missing.Log(ch)
		if err != nil {
			return logged, err
		}
		if added {
			r.logger.Debug("记录缺失字符", zap.String("code", CodeKey(ch)))
			logged = append(logged, ch)
		}
	}
	return logged, nil
}

func (r *Resolver) missingFrom(cache fingerprintCache, stack fonts.Stack, ch rune) (bool, error) {
	if r.checker != nil && !r.checker(stack, ch) {
		return true, nil
	}
	return r.isTofu(cache, stack, ch)
}

// recovered 依次尝试后备字体，任一字体能绘制即视为可恢复。
func (r *Resolver) recovered(cache fingerprintCache, ch rune) bool {
	for _, name := range r.fallbacks {
		if _, ok := r.book.Lookup(name); !ok {
			continue
		}
		stack := fonts.Stack{name, fonts.SansSerif}
		tofu, err := r.isTofu(cache, stack, ch)
		if err != nil {
			r.logger.Warn("后备字体检测失败", zap.String("font", name), zap.Error(err))
			continue
		}
		if !tofu {
			return true
		}
	}
	return false
}

// Supported 判断字符能否由字体栈或任一后备字体绘制，不写入日志。
func (r *Resolver) Supported(stack fonts.Stack, ch rune) bool {
	if fonts.IsIgnorable(ch) || unicode.IsSpace(ch) {
		return true
	}
	cache := fingerprintCache{}
	missing, err := r.missingFrom(cache, stack, ch)
	if err != nil || !missing {
		return err == nil
	}
	return r.recovered(cache, ch)
}

// CoverageChecker 是基于字体 cmap 的快速检查。
func CoverageChecker(book *fonts.Book) Checker {
	return func(stack fonts.Stack, r rune) bool {
		_, ok := book.Resolve(stack, r)
		return ok
	}
}

// Missing 返回解析器使用的缺失字符日志。
func (r *Resolver) Missing() *MissingLog { return r.missing }
