package fonts

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/samber/lo"

	"github.com/ByLCY/txt2pdf/layout"
)

// Stack 是按优先级排列的字体名称列表，写法同 CSS font-family。
type Stack []string

var generics = []string{SansSerif, Serif, Monospace}

// 默认字体栈。
var (
	ProseStack = Stack{Regular, SansSerif}
	CodeStack  = Stack{Mono, Monospace}
)

// StackFor 返回代码或正文使用的字体栈，extra 中的字体排在前面。
func StackFor(isCode bool, extra ...string) Stack {
	base := ProseStack
	if isCode {
		base = CodeStack
	}
	return append(Stack(append([]string(nil), extra...)), base...)
}

// ParseStack 解析 `"Noto Sans", sans-serif` 形式的字体栈。
func ParseStack(s string) Stack {
	var out Stack
	for _, part := range strings.Split(s, ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'`)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// String 以 CSS 写法输出字体栈，非通用字体族加引号。
func (s Stack) String() string {
	parts := make([]string, len(s))
	for i, name := range s {
		if lo.Contains(generics, strings.ToLower(name)) {
			parts[i] = name
		} else {
			parts[i] = `"` + name + `"`
		}
	}
	return strings.Join(parts, ", ")
}

// PlaceholderScale 是缺失字形替代图的步进宽度（以字号为单位）。
const PlaceholderScale = 0.85

// Width 按字素簇测量文本宽度（pt）。字体栈中没有字体覆盖的字素簇计 0，
// 渲染器据此识别需要替代绘制的片段。
func (b *Book) Width(stack Stack, s string, sizePt float64) float64 {
	w := 0.0
	state := -1
	rest := s
	var g string
	for len(rest) > 0 {
		g, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		_, gw := b.Grapheme(stack, g, sizePt)
		w += gw
	}
	return w
}

// Grapheme 返回绘制字素簇的字体与宽度（pt）。
// 没有字体覆盖时：空白由首个字体绘制，其它字素簇返回 nil 与 0。
func (b *Book) Grapheme(stack Stack, g string, sizePt float64) (*Font, float64) {
	r, _ := utf8.DecodeRuneInString(g)
	f, ok := b.Resolve(stack, r)
	if !ok {
		if isSpace(r) {
			f = b.Primary(stack)
			return f, f.Advance(r, sizePt)
		}
		return nil, 0
	}
	w := 0.0
	for i, c := range g {
		// 后续码点（组合符号、连接符）只在字体覆盖时计宽
		if i > 0 && !f.Covers(c) {
			continue
		}
		w += f.Advance(c, sizePt)
	}
	return f, w
}

// Measurer 返回排版用的测量函数：缺失字素簇按替代图宽度计算，使排版与绘制一致。
func (b *Book) Measurer(stack Stack, sizePt float64) layout.MeasureFunc {
	placeholder := sizePt * PlaceholderScale
	return func(s string) float64 {
		w := 0.0
		state := -1
		rest := s
		var g string
		for len(rest) > 0 {
			g, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
			_, gw := b.Grapheme(stack, g, sizePt)
			if gw == 0 && !Invisible(g) && !IsBlank(g) {
				gw = placeholder
			}
			w += gw
		}
		return w
	}
}

// Typesetter 让字体集合作为 layout.Typesetter 使用，extra 为用户配置的首选字体。
type Typesetter struct {
	Book  *Book
	Extra []string
}

func (t Typesetter) Measurer(isCode bool, fontSize float64) layout.MeasureFunc {
	return t.Book.Measurer(StackFor(isCode, t.Extra...), fontSize)
}

var _ layout.Typesetter = Typesetter{}

func isSpace(r rune) bool { return unicode.IsSpace(r) }

// IsBlank 判断字素簇是否以空白开头。
func IsBlank(g string) bool {
	r, _ := utf8.DecodeRuneInString(g)
	return isSpace(r)
}

// Invisible 判断字素簇是否只由零宽字符组成。
func Invisible(g string) bool {
	for _, r := range g {
		if !IsIgnorable(r) {
			return false
		}
	}
	return true
}

// IsIgnorable 判断字符是否为永远不视为缺失的不可见字符：
// 变体选择符、标签字符、C0/C1 控制字符以及零宽标记。
func IsIgnorable(r rune) bool {
	switch {
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0000 && r <= 0xE007F:
		return true
	case r <= 0x1F, r >= 0x7F && r <= 0x9F:
		return true
	case r >= 0x200B && r <= 0x200F:
		return true
	case r == 0x2060 || r == 0xFEFF:
		return true
	}
	return false
}
