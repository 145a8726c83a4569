package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/txt2pdf/fonts"
	"github.com/ByLCY/txt2pdf/layout"
)

func TestPrepareProseAndCode(t *testing.T) {
	book := fonts.NewBook()

	prose, err := Prepare(Job{
		Text:       "hello world",
		PageWidth:  148,
		PageHeight: 210,
		Options:    layout.RenderOptions{FileName: "notes.txt"},
	}, book, nil, layout.DebugOptions{})
	require.NoError(t, err)
	assert.False(t, prose.IsCode)
	assert.Equal(t, fonts.ProseStack, prose.Stack)
	require.Len(t, prose.Pages, 1)
	assert.Equal(t, "hello world", prose.Pages[0].Lines[0].Text())

	code, err := Prepare(Job{
		Text:       "func main() {}",
		PageWidth:  148,
		PageHeight: 210,
		Options:    layout.RenderOptions{FileName: "main.go"},
	}, book, nil, layout.DebugOptions{})
	require.NoError(t, err)
	assert.True(t, code.IsCode)
	assert.Equal(t, fonts.CodeStack, code.Stack)
	// 代码行经着色后拆分为多个片段
	assert.Greater(t, len(code.Pages[0].Lines[0].Runs), 1)
	assert.Equal(t, "func main() {}", code.Pages[0].Lines[0].Text())

	g := code.Geometry
	assert.InDelta(t, g.Margin+code.Typography.FontSize, code.Baseline(0), 1e-9)
	assert.InDelta(t, code.Typography.LineHeight, code.Baseline(1)-code.Baseline(0), 1e-9)
}

func TestPrepareJobFontsLeadTheStack(t *testing.T) {
	book := fonts.NewBook()
	plan, err := Prepare(Job{
		Text:       "abc",
		PageWidth:  148,
		PageHeight: 210,
		Fonts:      []fonts.Source{{Name: "Body", Path: "embed:" + fonts.Italic}},
		Options:    layout.RenderOptions{FileName: "a.txt"},
	}, book, nil, layout.DebugOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Body", plan.Stack[0])
	assert.True(t, book.Has(fonts.Stack{"Body"}))
}

func TestPrepareErrors(t *testing.T) {
	book := fonts.NewBook()

	_, err := Prepare(Job{
		Text: "abc", PageWidth: 148, PageHeight: 210,
		Fonts:   []fonts.Source{{Name: "Broken", Path: filepath.Join(t.TempDir(), "missing.ttf")}},
		Options: layout.RenderOptions{FileName: "a.txt"},
	}, book, nil, layout.DebugOptions{})
	assert.Error(t, err)

	_, err = Prepare(Job{
		Text: "abc", PageWidth: 0, PageHeight: 210,
		Options: layout.RenderOptions{FileName: "a.txt"},
	}, book, nil, layout.DebugOptions{})
	assert.Error(t, err)
}

func TestPrepareWritesDebugLayout(t *testing.T) {
	dir := t.TempDir()
	_, err := Prepare(Job{
		Text:       "one\ntwo",
		PageWidth:  148,
		PageHeight: 210,
		Options:    layout.RenderOptions{FileName: "notes.txt"},
	}, fonts.NewBook(), nil, layout.DebugOptions{Dir: dir})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "notes.txt.layout.json"))
	require.NoError(t, err)
	var doc struct {
		Pages []json.RawMessage `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Pages, 1)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("")
	assert.Error(t, err)

	a, b := &stubRenderer{name: "a"}, &stubRenderer{name: "b"}
	reg.Register("a", a, false)
	reg.Register("b", b, true)
	got, err := reg.Get("")
	require.NoError(t, err)
	assert.Same(t, b, got)
	got, err = reg.Get("A")
	require.NoError(t, err)
	assert.Same(t, a, got)
	assert.Equal(t, []string{"a", "b"}, reg.Names())

	_, err = reg.Get("zzz")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyDocument))
}

type stubRenderer struct{ name string }

func (*stubRenderer) Render(context.Context, Job) (Document, error) {
	return &PDF{Data: []byte("%PDF-1.4"), Pages: 1}, nil
}
