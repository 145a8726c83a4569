package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinFonts(t *testing.T) {
	b := NewBook()
	assert.Len(t, b.Names(), 8)

	f, ok := b.Lookup("sans-serif")
	require.True(t, ok)
	assert.Equal(t, Regular, f.Name)

	f, ok = b.Lookup("MONOSPACE")
	require.True(t, ok)
	assert.Equal(t, Mono, f.Name)
	assert.Equal(t, MonoBold, b.Variant(f, true, false).Name)
	assert.Equal(t, MonoBoldItalic, b.Variant(f, true, true).Name)
	assert.Equal(t, Italic, b.Variant(b.Primary(ProseStack), false, true).Name)

	custom := &Font{Name: "Custom"}
	assert.Same(t, custom, b.Variant(custom, true, true))

	_, err := Load("embed:Go Mono")
	assert.NoError(t, err)
	_, err = Load("Inter")
	assert.Error(t, err)
}

func TestRegisterRejectsGarbage(t *testing.T) {
	b := NewBook()
	assert.Error(t, b.Register("broken", []byte("not a font")))
	assert.Error(t, b.Register(" ", nil))
	assert.Error(t, b.RegisterSource(Source{Name: "none"}))
	require.NoError(t, b.RegisterSource(Source{Name: "Alias Mono", Path: "embed:Go Mono"}))
	_, ok := b.Lookup("alias mono")
	assert.True(t, ok)
}

func TestCoverageAndAdvance(t *testing.T) {
	b := NewBook()
	mono := b.Primary(CodeStack)
	assert.True(t, mono.Covers('a'))
	assert.False(t, mono.Covers('中'))

	// 等宽字体中所有可见 ASCII 字符宽度相同
	wa := mono.Advance('a', 10)
	assert.Greater(t, wa, 0.0)
	assert.InDelta(t, wa, mono.Advance('W', 10), 1e-9)
	assert.InDelta(t, wa*2, mono.Advance('a', 20), 1e-6)
}

func TestStackParsing(t *testing.T) {
	s := ParseStack(` "Noto Sans" , 'Go Mono', sans-serif,, `)
	assert.Equal(t, Stack{"Noto Sans", "Go Mono", "sans-serif"}, s)
	assert.Equal(t, `"Noto Sans", "Go Mono", sans-serif`, s.String())

	assert.Equal(t, Stack{"X", Mono, Monospace}, StackFor(true, "X"))
	assert.Equal(t, ProseStack, StackFor(false))
}

func TestResolveSkipsUnregistered(t *testing.T) {
	b := NewBook()
	f, ok := b.Resolve(Stack{"Noto Sans", SansSerif}, 'A')
	require.True(t, ok)
	assert.Equal(t, Regular, f.Name)

	_, ok = b.Resolve(Stack{"Noto Sans", SansSerif}, '中')
	assert.False(t, ok)
	assert.False(t, b.Has(Stack{"Noto Sans"}))
	assert.Equal(t, Regular, b.Primary(Stack{"Noto Sans"}).Name)
}

func TestWidthAndMeasurer(t *testing.T) {
	b := NewBook()
	size := 9.0
	adv := b.Primary(CodeStack).Advance('a', size)

	assert.InDelta(t, adv*3, b.Width(CodeStack, "abc", size), 1e-6)
	// 未覆盖的字符绘制宽度为 0，排版宽度按替代图计算
	assert.Zero(t, b.Width(CodeStack, "中", size))
	m := b.Measurer(CodeStack, size)
	assert.InDelta(t, adv+size*PlaceholderScale, m("a中"), 1e-6)
	// 零宽字符既不绘制也不占位
	assert.Zero(t, m("‍"))
	assert.Greater(t, m(" "), 0.0)

	ts := Typesetter{Book: b}
	assert.InDelta(t, m("abc"), ts.Measurer(true, size)("abc"), 1e-9)
}

func TestIgnorable(t *testing.T) {
	for _, r := range []rune{0xFE0F, 0xE0001, 0x00, 0x1F, 0x7F, 0x85, 0x200B, 0x200D, 0x200F} {
		assert.True(t, IsIgnorable(r), "U+%04X", r)
	}
	for _, r := range []rune{'a', ' ', '中', 0x1F600} {
		assert.False(t, IsIgnorable(r), "U+%04X", r)
	}
}
