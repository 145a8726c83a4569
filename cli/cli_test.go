package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/txt2pdf/batch"
	"github.com/ByLCY/txt2pdf/layout"
)

type testEnv struct {
	dir    string
	config string
	out    string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{dir: dir, config: filepath.Join(dir, "txt2pdf.yaml"), out: filepath.Join(dir, "out")}
	body := "paper: A6\nengine: vector\nstorage: sqlite\n" +
		"data_dir: " + filepath.Join(dir, "data") + "\n" +
		"output_dir: " + env.out + "\n" +
		"render:\n  dpi: 24\n"
	require.NoError(t, os.WriteFile(env.config, []byte(body), 0o644))
	return env
}

func (e testEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(e.dir, "input", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootCommand("test", "none", "unknown")
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestConvertWritesArchive(t *testing.T) {
	env := newTestEnv(t)
	a := env.file(t, "a.txt", "hello world\nsecond line")
	b := env.file(t, "b.go", "package main\n\nfunc main() {}\n")

	out, err := env.run(t, "convert", "--quiet", a, b)
	require.NoError(t, err, out)
	assert.Contains(t, out, "a.txt.pdf")
	assert.Contains(t, out, "已完成")

	zr, err := zip.OpenReader(filepath.Join(env.out, "a_complete.zip"))
	require.NoError(t, err)
	defer zr.Close()
	names := lo.Map(zr.File, func(f *zip.File, _ int) string { return f.Name })
	assert.ElementsMatch(t, []string{"a.txt.pdf", "b.go.pdf"}, names)

	out, err = env.run(t, "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "没有未完成的会话")
}

func TestConvertDumpMirror(t *testing.T) {
	env := newTestEnv(t)
	dumpFile := env.file(t, "bundle.txt", "### **src/main.go** ###\npackage main\n### **README.md** ###\n# Title\n")

	out, err := env.run(t, "convert", "-q", "--output-mode", "mirror", "--out", env.out, dumpFile)
	require.NoError(t, err, out)

	zr, err := zip.OpenReader(filepath.Join(env.out, "bundle_complete.zip"))
	require.NoError(t, err)
	defer zr.Close()
	names := lo.Map(zr.File, func(f *zip.File, _ int) string { return f.Name })
	assert.ElementsMatch(t, []string{"src/main.go.pdf", "README.md.pdf"}, names)
}

func TestConvertRejectsBadFlags(t *testing.T) {
	env := newTestEnv(t)
	a := env.file(t, "a.txt", "x")

	_, err := env.run(t, "convert", "--mode", "turbo", a)
	assert.Error(t, err)
	_, err = env.run(t, "convert", "--split", "--base-path", "out", a, a)
	assert.Error(t, err)
	_, err = env.run(t, "convert")
	assert.Error(t, err)
}

func TestPlanListsDocuments(t *testing.T) {
	env := newTestEnv(t)
	dumpFile := env.file(t, "bundle.txt", "### **one.txt** ###\nalpha\n### **two.txt** ###\nbeta\n")
	plain := env.file(t, "plain.md", "# hi")

	out, err := env.run(t, "plan", dumpFile, plain)
	require.NoError(t, err)
	for _, want := range []string{"one.txt.pdf", "two.txt.pdf", "plain.md.pdf", "3 个文档"} {
		assert.Contains(t, out, want)
	}
	_, err = os.Stat(env.out)
	assert.True(t, os.IsNotExist(err))
}

func TestGlyphCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "glyphs", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, "没有缺失字符")

	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	pngPath := filepath.Join(env.dir, "g.png")
	require.NoError(t, os.WriteFile(pngPath, buf.Bytes(), 0o644))

	_, err = env.run(t, "glyphs", "add", "中", pngPath)
	require.NoError(t, err)
	out, err = env.run(t, "glyphs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0x4E2D")

	_, err = env.run(t, "glyphs", "delete", "0x4E2D")
	require.NoError(t, err)
	_, err = env.run(t, "glyphs", "delete", "0x4E2D")
	assert.Error(t, err)

	_, err = env.run(t, "glyphs", "add", "ab", pngPath)
	assert.Error(t, err)
	_, err = env.run(t, "glyphs", "learn")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "generated.yaml")

	_, err := env.run(t, "config", "init", path)
	require.NoError(t, err)
	_, err = env.run(t, "config", "init", path)
	assert.Error(t, err)
	_, err = env.run(t, "config", "init", "--force", path)
	require.NoError(t, err)

	out, err := env.run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "A4")
}

func TestParseGlyphArg(t *testing.T) {
	r, err := parseGlyphArg("0x1F600")
	require.NoError(t, err)
	assert.Equal(t, '😀', r)
	r, err = parseGlyphArg("é")
	require.NoError(t, err)
	assert.Equal(t, 'é', r)
	_, err = parseGlyphArg("")
	assert.Error(t, err)
}

func TestPlanTasksWithCells(t *testing.T) {
	g, err := layout.NewGeometry(105, 148, layout.BorderConfig{})
	require.NoError(t, err)
	tasks := []batch.Task{
		batch.MemoryTask("long.txt", "A₁", []byte(strings.Repeat("word ", 5000))),
		batch.MemoryTask("short.go", "A₁", []byte("package x")),
	}
	rows, skipped := planTasks(tasks, batch.OutputMirror, g, cellTypesetter{})
	assert.Empty(t, skipped)
	require.Len(t, rows, 2)
	assert.Equal(t, "A₁/long.txt.pdf", rows[0].Output)
	assert.Greater(t, rows[0].Pages, 1)
	assert.Equal(t, 1, rows[1].Pages)

	out, err := newTestEnv(t).run(t, "plan", "--cells", "--paper", "A5", writeTemp(t, "x.md", "# x"))
	require.NoError(t, err)
	assert.Contains(t, out, "x.md.pdf")
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}
