package store

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePathRoundTrip(t *testing.T) {
	paths := []string{
		"report.txt.pdf",
		"docs/报告 (1).md.pdf",
		"a/b c/ü%20#?.pdf",
		"😀/x.pdf",
		"../../victim.txt.pdf",
		"a/./b/../c.pdf",
		"..",
	}
	for _, p := range paths {
		enc := EncodePath(p)
		for _, r := range enc {
			assert.Less(t, r, rune(0x80), "编码结果应为 ASCII: %q", enc)
		}
		dec, err := DecodePath(enc)
		require.NoError(t, err)
		assert.Equal(t, p, dec)
	}
}

func TestEncodePathKeepsDotSegments(t *testing.T) {
	assert.Equal(t, "%2E%2E/%2E%2E/x.pdf", EncodePath("../../x.pdf"))
	assert.Equal(t, "a/%2E/b", EncodePath("a/./b"))
	assert.Equal(t, "...pdf", EncodePath("...pdf"))
}

func TestDirStaysInsideNamespace(t *testing.T) {
	root := t.TempDir()
	space := DirSpace{Root: filepath.Join(root, "outputs")}
	blobs := space.Blobs(Namespace("s1"))

	require.NoError(t, blobs.Save("../../escape.pdf", []byte("x")))
	_, err := os.Stat(filepath.Join(root, "escape.pdf"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	data, err := blobs.Get("../../escape.pdf")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	paths, err := blobs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"../../escape.pdf"}, paths)
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemory()
	_, err := kv.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set("k", []byte("v1")))
	require.NoError(t, kv.Set("k", []byte("v2")))
	v, err := kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(v))

	require.NoError(t, kv.Delete("k"))
	_, err = kv.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testBlobStore(t *testing.T, bs BlobStore) {
	t.Helper()
	_, err := bs.Get("none.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, bs.Save("b/报告.txt.pdf", []byte("two")))
	require.NoError(t, bs.Save("a.txt.pdf", []byte("one")))

	data, err := bs.Get("b/报告.txt.pdf")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	list, err := bs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt.pdf", "b/报告.txt.pdf"}, list)

	require.NoError(t, bs.DeleteAll())
	list, err = bs.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryBlobs(t *testing.T) {
	testBlobStore(t, NewMemoryBlobs())
}

func TestDirBlobs(t *testing.T) {
	testBlobStore(t, NewDir(t.TempDir(), Namespace("abc")))
}

func TestSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "txt2pdf.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, db.Set("k", []byte("v1")))
	require.NoError(t, db.Set("k", []byte("v2")))
	v, err := db.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(v))
	require.NoError(t, db.Delete("k"))
	_, err = db.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	testBlobStore(t, db.Blobs(Namespace("s1")))

	// 命名空间之间互不影响
	require.NoError(t, db.Blobs("x").Save("f.pdf", []byte("x")))
	list, err := db.Blobs("y").List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testPrune(t *testing.T, sp Space) {
	t.Helper()
	keep, old := Namespace("new"), Namespace("old")
	require.NoError(t, sp.Blobs(keep).Save("a.pdf", []byte("a")))
	require.NoError(t, sp.Blobs(old).Save("b.pdf", []byte("b")))
	require.NoError(t, sp.Blobs("other").Save("c.pdf", []byte("c")))

	require.NoError(t, sp.Prune(keep))

	for ns, want := range map[string]int{keep: 1, old: 0, "other": 1} {
		list, err := sp.Blobs(ns).List()
		require.NoError(t, err)
		assert.Len(t, list, want, ns)
	}
}

func TestPrune(t *testing.T) {
	t.Run("memory", func(t *testing.T) { testPrune(t, NewMemorySpace()) })
	t.Run("dir", func(t *testing.T) { testPrune(t, DirSpace{Root: t.TempDir()}) })
	t.Run("sqlite", func(t *testing.T) {
		db, err := OpenSQLite(filepath.Join(t.TempDir(), "txt2pdf.db"))
		require.NoError(t, err)
		defer db.Close()
		testPrune(t, db)
	})
}
