package bundle

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestBundle writes items to a bundle in a fresh temp dir and returns its path.
func writeTestBundle(t *testing.T, items []Item, opts ...WriteOption) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "test.bundle")
	require.NoError(t, Write(name, items, opts...))
	return name
}

func TestEncodeLayout(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Path: "a.txt", Data: []byte("hello")},
		{Path: "nested/b.bin", Data: []byte{0x00, 0xFF, 0x10}},
		{Path: "c", Data: bytes.Repeat([]byte("abc"), 1000)},
	}

	var buf bytes.Buffer
	entries, err := Encode(&buf, items)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	indexLen := uint64(0)
	for _, item := range items {
		indexLen += uint64(2 + len(item.Path) + 24)
	}
	assert.Equal(t, uint64(HeaderSize)+indexLen, entries[0].Offset)

	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].End(), entries[i].Offset, "entries must be contiguous")
	}
	assert.Equal(t, uint64(buf.Len()), entries[2].End())

	for i, item := range items {
		assert.Equal(t, item.Path, entries[i].Path, "input order is preserved")
		assert.Equal(t, uint64(len(item.Data)), entries[i].RawSize)
	}
	assert.Less(t, entries[2].CompressedSize, entries[2].RawSize)

	raw := buf.Bytes()
	assert.Equal(t, Magic, binary.LittleEndian.Uint32(raw[0:]))
	assert.Equal(t, EngineVersion.Major, raw[4])
	assert.Equal(t, EngineVersion.Minor, raw[5])
	assert.Equal(t, EngineVersion.Revision, binary.LittleEndian.Uint16(raw[6:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(raw[8:]))
	assert.Equal(t, uint16(len("a.txt")), binary.LittleEndian.Uint16(raw[12:]))
	assert.Equal(t, "a.txt", string(raw[14:19]))
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	entries, err := Encode(&buf, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, HeaderSize, buf.Len())
}

func TestWriteRejectsDuplicatePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	name := filepath.Join(dir, "dup.bundle")
	err := Write(name, []Item{
		{Path: "a.txt", Data: []byte("one")},
		{Path: "b.txt", Data: []byte("two")},
		{Path: `a.txt`, Data: []byte("three")},
	})
	require.ErrorIs(t, err, ErrDuplicatePath)
	assert.Contains(t, err.Error(), "a.txt")

	// nothing, not even the temp file, survives a failed write
	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestWriteNormalizesSeparators(t *testing.T) {
	t.Parallel()

	name := writeTestBundle(t, []Item{{Path: `textures\stone\albedo.png`, Data: []byte("png")}})
	r, err := Open(name)
	require.NoError(t, err)
	defer r.Close()

	data, ok, err := r.Read("textures/stone/albedo.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("png"), data)
}

func TestWriteRejectsDuplicateAfterNormalization(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := Encode(&buf, []Item{
		{Path: "dir/a", Data: []byte("1")},
		{Path: `dir\a`, Data: []byte("2")},
	})
	require.ErrorIs(t, err, ErrDuplicatePath)
}

func TestWriteRejectsInvalidPath(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"", ".", "/abs", "a//b", "a/../b", "trailing/", "..", "bad\xff"} {
		var buf bytes.Buffer
		_, err := Encode(&buf, []Item{{Path: p, Data: []byte("x")}})
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", p)
	}
}

func TestWriteRejectsLongPath(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := Encode(&buf, []Item{{Path: string(bytes.Repeat([]byte("a"), MaxPathLen+1)), Data: nil}})
	require.ErrorIs(t, err, ErrPathTooLong)
}

func TestWriteHighCompression(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("the quick brown fox "), 4096)
	fast := writeTestBundle(t, []Item{{Path: "fox.txt", Data: payload}})
	high := writeTestBundle(t, []Item{{Path: "fox.txt", Data: payload}}, WithLevel(LevelMax))

	for _, name := range []string{fast, high} {
		r, err := Open(name)
		require.NoError(t, err)
		data, ok, err := r.Read("fox.txt")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, payload, data)
		require.NoError(t, r.Close())
	}
}

func TestWriteRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := Encode(&buf, []Item{{Path: "a", Data: []byte("a")}}, WithLevel(Level(12)))
	require.Error(t, err)
}

func TestWriteProgress(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	last := 0
	items := make([]Item, 20)
	for i := range items {
		items[i] = Item{Path: filepath.ToSlash(filepath.Join("dir", string(rune('a'+i)))), Data: make([]byte, 512)}
	}

	var buf bytes.Buffer
	_, err := Encode(&buf, items, WithConcurrency(4), WithProgress(func(done, total int, path string) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, last+1, done)
		assert.Equal(t, len(items), total)
		last = done
		seen = append(seen, path)
	}))
	require.NoError(t, err)
	assert.Len(t, seen, len(items))
}

func TestWriteParallelMatchesSerial(t *testing.T) {
	t.Parallel()

	items := make([]Item, 32)
	for i := range items {
		data := make([]byte, 4096)
		_, err := rand.Read(data[:1024])
		require.NoError(t, err)
		items[i] = Item{Path: fmt.Sprintf("blob/%02d", i), Data: data}
	}

	var serial, parallel bytes.Buffer
	_, err := Encode(&serial, items, WithConcurrency(1))
	require.NoError(t, err)
	_, err = Encode(&parallel, items, WithConcurrency(8))
	require.NoError(t, err)
	assert.Equal(t, serial.Bytes(), parallel.Bytes())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("fast")
	require.NoError(t, err)
	assert.Equal(t, LevelFast, level)

	level, err = ParseLevel("9")
	require.NoError(t, err)
	assert.Equal(t, LevelMax, level)
	assert.Equal(t, "9", level.String())

	for _, bad := range []string{"0", "10", "slow"} {
		_, err := ParseLevel(bad)
		assert.Error(t, err, bad)
	}
}
