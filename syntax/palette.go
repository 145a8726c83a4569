package syntax

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/txt2pdf/layout"
)

// Scope 是词法作用域，决定片段的样式。
type Scope string

const (
	ScopeDefault     Scope = "default"
	ScopeComment     Scope = "comment"
	ScopeString      Scope = "string"
	ScopeNumber      Scope = "number"
	ScopeKeyword     Scope = "keyword"
	ScopeControl     Scope = "control"
	ScopeType        Scope = "type"
	ScopeBuiltin     Scope = "builtin"
	ScopeFunction    Scope = "function"
	ScopeProperty    Scope = "property"
	ScopeConstant    Scope = "constant"
	ScopeDecorator   Scope = "decorator"
	ScopeOperator    Scope = "operator"
	ScopePunctuation Scope = "punctuation"
	ScopeTag         Scope = "tag"
	ScopeAttribute   Scope = "attribute"

	// Markdown 结构
	ScopeHeading    Scope = "heading"
	ScopeBullet     Scope = "bullet"
	ScopeQuote      Scope = "quote"
	ScopeBold       Scope = "bold"
	ScopeInlineCode Scope = "inline-code"
)

// Palette 将作用域映射为样式。
type Palette map[Scope]layout.RunStyle

// Style 返回作用域对应的样式，缺失时退回 ScopeDefault。
func (p Palette) Style(s Scope) layout.RunStyle {
	if st, ok := p[s]; ok {
		return st
	}
	return p[ScopeDefault]
}

// DefaultPalette 为白底纸面调校的配色。
var DefaultPalette = Palette{
	ScopeDefault:     {Color: mustColor("#1E1E1E"), Weight: 400},
	ScopeComment:     {Color: mustColor("#008000"), Weight: 400, Italic: true},
	ScopeString:      {Color: mustColor("#A31515"), Weight: 400},
	ScopeNumber:      {Color: mustColor("#098658"), Weight: 400},
	ScopeKeyword:     {Color: mustColor("#0000FF"), Weight: 600},
	ScopeControl:     {Color: mustColor("#AF00DB"), Weight: 600},
	ScopeType:        {Color: mustColor("#267F99"), Weight: 500},
	ScopeBuiltin:     {Color: mustColor("#267F99"), Weight: 400},
	ScopeFunction:    {Color: mustColor("#795E26"), Weight: 500},
	ScopeProperty:    {Color: mustColor("#001080"), Weight: 400},
	ScopeConstant:    {Color: mustColor("#0070C1"), Weight: 500},
	ScopeDecorator:   {Color: mustColor("#AF00DB"), Weight: 400},
	ScopeOperator:    {Color: mustColor("#1E1E1E"), Weight: 500},
	ScopePunctuation: {Color: mustColor("#1E1E1E"), Weight: 500},
	ScopeTag:         {Color: mustColor("#800000"), Weight: 600},
	ScopeAttribute:   {Color: mustColor("#E50000"), Weight: 500},

	ScopeHeading:    {Color: mustColor("#1E1E1E"), Weight: 700},
	ScopeBullet:     {Color: mustColor("#0000FF"), Weight: 600},
	ScopeQuote:      {Color: mustColor("#616161"), Weight: 400, Italic: true},
	ScopeBold:       {Color: mustColor("#1E1E1E"), Weight: 700},
	ScopeInlineCode: {Color: mustColor("#A31515"), Weight: 400},
}

// headingScale 是 h1..h6 的字号倍数。
var headingScale = [...]float64{1.6, 1.4, 1.25, 1.15, 1.05, 1.0}

// ParseColor 解析 #RGB 或 #RRGGBB。
func ParseColor(value string) (layout.Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 && len(v) != 8 {
		return layout.Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(v[:6], 16, 32)
	if err != nil {
		return layout.Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return layout.Color{R: int(n >> 16 & 0xFF), G: int(n >> 8 & 0xFF), B: int(n & 0xFF)}, nil
}

func mustColor(v string) layout.Color {
	c, err := ParseColor(v)
	if err != nil {
		panic(err)
	}
	return c
}
