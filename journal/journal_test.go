package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/txt2pdf/store"
)

type params struct {
	Engine string `json:"engine"`
	Width  float64
}

func queue(names ...string) []Item {
	out := make([]Item, len(names))
	for i, n := range names {
		out[i] = Item{Source: "/in/" + n, FileName: n, Size: int64(10 * (i + 1))}
	}
	return out
}

func TestStartGetClear(t *testing.T) {
	j := New(store.NewMemory())
	_, err := j.Get()
	assert.ErrorIs(t, err, ErrNoSession)

	id := NewSessionID()
	s, err := j.Start(id, "report", queue("a.txt", "b.txt"), params{Engine: "raster", Width: 210})
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentPart)
	assert.Equal(t, 0, s.CurrentFileIndex)

	got, err := j.Get()
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "report", got.BaseName)
	assert.Len(t, got.Queue, 2)
	var p params
	require.NoError(t, got.DecodeParams(&p))
	assert.Equal(t, "raster", p.Engine)

	require.NoError(t, j.Clear())
	_, err = j.Get()
	assert.ErrorIs(t, err, ErrNoSession)
	require.NoError(t, j.Clear())
}

func TestCursorNeverDecreases(t *testing.T) {
	j := New(store.NewMemory())
	_, err := j.Start("s", "out", queue("a", "b", "c", "d"), nil)
	require.NoError(t, err)

	s, err := j.Checkpoint(3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentFileIndex)

	s, err = j.Checkpoint(1)
	require.NoError(t, err)
	assert.Equal(t, 3, s.CurrentFileIndex)

	s, err = j.Update(func(s *Session) { s.CurrentPart = 0 })
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentPart)

	assert.Equal(t, []string{"d"}, itemNames(s.Remaining()))
}

func TestPartsDoneResetsWhenCursorAdvances(t *testing.T) {
	j := New(store.NewMemory())
	_, err := j.Start("s", "out", queue("a", "b"), nil)
	require.NoError(t, err)

	s, err := j.CheckpointPart(2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.PartsDone)
	s, err = j.CheckpointPart(1)
	require.NoError(t, err)
	assert.Equal(t, 2, s.PartsDone)

	s, err = j.Checkpoint(1)
	require.NoError(t, err)
	assert.Equal(t, 0, s.PartsDone)
}

func TestRemaining(t *testing.T) {
	s := &Session{Queue: queue("a", "b", "c"), CurrentFileIndex: 1}
	assert.Equal(t, []string{"b", "c"}, itemNames(s.Remaining()))
	s.CurrentFileIndex = 3
	assert.Empty(t, s.Remaining())
}

func TestUpdateWithoutSession(t *testing.T) {
	j := New(store.NewMemory())
	_, err := j.Checkpoint(1)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCorruptSession(t *testing.T) {
	kv := store.NewMemory()
	j := New(kv)

	require.NoError(t, kv.Set(Key, []byte("{not json")))
	_, err := j.Get()
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, kv.Set(Key, []byte(`{"baseName":"x"}`)))
	_, err = j.Get()
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, kv.Set(Key, []byte(`{"id":"x","currentFileIndex":5,"queue":[]}`)))
	_, err = j.Get()
	assert.ErrorIs(t, err, ErrCorrupt)

	s := &Session{ID: "x"}
	assert.ErrorIs(t, s.DecodeParams(&params{}), ErrCorrupt)
}

func itemNames(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.FileName
	}
	return out
}
