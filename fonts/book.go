// Package fonts 管理渲染与字形检测共用的字体集合。
package fonts

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// 内置字体名称。
const (
	Regular        = "Go"
	Bold           = "Go Bold"
	Italic         = "Go Italic"
	BoldItalic     = "Go Bold Italic"
	Mono           = "Go Mono"
	MonoBold       = "Go Mono Bold"
	MonoItalic     = "Go Mono Italic"
	MonoBoldItalic = "Go Mono Bold Italic"
)

// 通用字体族，解析时映射到已注册的字体。
const (
	SansSerif = "sans-serif"
	Serif     = "serif"
	Monospace = "monospace"
)

var builtin = map[string][]byte{
	Regular:        goregular.TTF,
	Bold:           gobold.TTF,
	Italic:         goitalic.TTF,
	BoldItalic:     gobolditalic.TTF,
	Mono:           gomono.TTF,
	MonoBold:       gomonobold.TTF,
	MonoItalic:     gomonoitalic.TTF,
	MonoBoldItalic: gomonobolditalic.TTF,
}

// Variants 是同一字体族的四种字重/字形，下标为 variantIndex 的返回值。
type Variants [4]string

var builtinFamilies = []Variants{
	{Regular, Bold, Italic, BoldItalic},
	{Mono, MonoBold, MonoItalic, MonoBoldItalic},
}

func variantIndex(bold, italic bool) int {
	i := 0
	if bold {
		i++
	}
	if italic {
		i += 2
	}
	return i
}

// Load 返回内置字体的字节数据，name 可写为 "embed:Go Mono" 或直接 "Go Mono"。
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(name, "embed:")
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	return data, nil
}

// Source 描述一个外部字体，可以直接提供 Data，也可以提供 Path。
type Source struct {
	Name string `json:"name" mapstructure:"name"`
	Path string `json:"path,omitempty" mapstructure:"path"`
	Data []byte `json:"-" mapstructure:"-"`
}

// Font 是已解析的字体。sfnt.Font 在每次调用传入独立 Buffer 时可并发使用。
type Font struct {
	Name string
	Data []byte
	sfnt *sfnt.Font
}

// SFNT 返回底层字体对象。
func (f *Font) SFNT() *sfnt.Font { return f.sfnt }

// Covers 判断字体是否含有该字符的字形。
func (f *Font) Covers(r rune) bool {
	var buf sfnt.Buffer
	idx, err := f.sfnt.GlyphIndex(&buf, r)
	return err == nil && idx != 0
}

// Advance 返回字符在 sizePt 字号下的步进宽度（pt）。缺失字符返回 .notdef 的宽度。
func (f *Font) Advance(r rune, sizePt float64) float64 {
	var buf sfnt.Buffer
	idx, err := f.sfnt.GlyphIndex(&buf, r)
	if err != nil {
		return 0
	}
	adv, err := f.sfnt.GlyphAdvance(&buf, idx, fixed.Int26_6(sizePt*64), font.HintingNone)
	if err != nil {
		return 0
	}
	return float64(adv) / 64
}

// Book 是按名称索引的字体集合。
type Book struct {
	mu      sync.RWMutex
	fonts   map[string]*Font
	aliases map[string]string
	family  map[string]Variants
}

// NewBook 创建包含内置 Go 字体的字体集合。
func NewBook() *Book {
	b := &Book{
		fonts:   map[string]*Font{},
		aliases: map[string]string{},
		family:  map[string]Variants{},
	}
	for name, data := range builtin {
		if err := b.Register(name, data); err != nil {
			panic("fonts: 内置字体解析失败: " + err.Error())
		}
	}
	for _, v := range builtinFamilies {
		b.SetVariants(v)
	}
	b.SetAlias(SansSerif, Regular)
	b.SetAlias(Serif, Regular)
	b.SetAlias(Monospace, Mono)
	return b
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Register 解析并注册字体，同名字体后注册者生效。
func (b *Book) Register(name string, data []byte) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("字体名称不能为空")
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("解析字体 %s 失败: %w", name, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fonts[key(name)] = &Font{Name: name, Data: data, sfnt: f}
	return nil
}

// RegisterSource 注册外部字体，Data 为空时从 Path 读取。
func (b *Book) RegisterSource(src Source) error {
	data := src.Data
	if len(data) == 0 {
		if src.Path == "" {
			return fmt.Errorf("字体 %s 缺少 path", src.Name)
		}
		var err error
		if strings.HasPrefix(src.Path, "embed:") {
			data, err = Load(src.Path)
		} else {
			data, err = os.ReadFile(src.Path)
		}
		if err != nil {
			return fmt.Errorf("读取字体 %s 失败: %w", src.Path, err)
		}
	}
	return b.Register(src.Name, data)
}

// SetAlias 将通用字体族指向某个已注册字体。
func (b *Book) SetAlias(generic, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.aliases[key(generic)] = name
}

// Lookup 按名称或通用字体族查找字体。
func (b *Book) Lookup(name string) (*Font, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	k := key(name)
	if target, ok := b.aliases[k]; ok {
		k = key(target)
	}
	f, ok := b.fonts[k]
	return f, ok
}

// SetVariants 声明一组字体互为同一族的变体，v[0] 为常规体，空名称表示缺少该变体。
func (b *Book) SetVariants(v Variants) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range v {
		if name != "" {
			b.family[key(name)] = v
		}
	}
}

// Variant 返回字体的粗体或斜体变体，没有对应变体时返回字体本身。
func (b *Book) Variant(f *Font, bold, italic bool) *Font {
	b.mu.RLock()
	v, ok := b.family[key(f.Name)]
	b.mu.RUnlock()
	if !ok {
		return f
	}
	name := v[variantIndex(bold, italic)]
	if name == "" {
		return f
	}
	if vf, ok := b.Lookup(name); ok {
		return vf
	}
	return f
}

// Names 返回所有已注册字体的名称。
func (b *Book) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.fonts))
	for _, f := range b.fonts {
		out = append(out, f.Name)
	}
	sort.Strings(out)
	return out
}

// Has 判断字体栈中是否至少有一个已注册字体。
func (b *Book) Has(stack Stack) bool {
	for _, name := range stack {
		if _, ok := b.Lookup(name); ok {
			return true
		}
	}
	return false
}

// Primary 返回字体栈中第一个已注册的字体，全部未注册时返回内置正文字体。
func (b *Book) Primary(stack Stack) *Font {
	for _, name := range stack {
		if f, ok := b.Lookup(name); ok {
			return f
		}
	}
	f, _ := b.Lookup(Regular)
	return f
}

// Resolve 返回字体栈中第一个覆盖该字符的字体。
func (b *Book) Resolve(stack Stack, r rune) (*Font, bool) {
	for _, name := range stack {
		f, ok := b.Lookup(name)
		if ok && f.Covers(r) {
			return f, true
		}
	}
	return nil, false
}
