package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jchantrell/assetpack/internal/bundle"
	"github.com/jchantrell/assetpack/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource serves fixed files and counts reads. If gate is set, reads
// block until it is closed.
type memSource struct {
	files map[string][]byte
	reads atomic.Int64
	gate  chan struct{}
}

func newMemSource(files map[string]string) *memSource {
	s := &memSource{files: make(map[string][]byte, len(files))}
	for k, v := range files {
		s.files[k] = []byte(v)
	}
	return s
}

func (s *memSource) Read(name string) ([]byte, error) {
	s.reads.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	data, ok := s.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}

// rejecting refuses every input.
type rejecting struct{}

func (*rejecting) Deserialize([]byte) error { return errors.New("never valid") }

// counted records how many objects were decoded.
type counted struct {
	n     int64
	value string
}

var decodes atomic.Int64

func (c *counted) Deserialize(data []byte) error {
	c.n = decodes.Add(1)
	c.value = string(data)
	return nil
}

func TestLoadCachesByKey(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"greeting.txt": "hello"})
	m := NewManager(src)
	key := NewKey()

	first, err := Load[Text](m, key, "greeting.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", first.Get().Value)
	assert.Equal(t, key, first.Key())

	second, err := Load[Text](m, key, "greeting.txt")
	require.NoError(t, err)
	assert.Same(t, first.Get(), second.Get())
	assert.Equal(t, int64(1), src.reads.Load(), "cached load must not read again")

	got, err := Get[Text](m, key)
	require.NoError(t, err)
	assert.Same(t, first.Get(), got.Get())
	assert.True(t, m.Contains(key))
	assert.Equal(t, 1, m.Len())
}

func TestCacheIdentityIgnoresPath(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"old/place.txt": "a", "new/place.txt": "b"})
	m := NewManager(src)
	key := NewKey()

	first, err := Load[Text](m, key, "old/place.txt")
	require.NoError(t, err)
	second, err := Load[Text](m, key, "new/place.txt")
	require.NoError(t, err)
	assert.Same(t, first.Get(), second.Get())
	assert.Equal(t, "a", second.Get().Value)
}

func TestGetNotLoaded(t *testing.T) {
	t.Parallel()

	m := NewManager(newMemSource(nil))
	_, err := Get[Text](m, NewKey())
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestDeserializeFailureLeavesCacheEmpty(t *testing.T) {
	t.Parallel()

	m := NewManager(newMemSource(map[string]string{"asset": "anything"}))
	key := NewKey()

	_, err := Load[rejecting](m, key, "asset")
	require.ErrorIs(t, err, ErrDeserialize)
	assert.Contains(t, err.Error(), "asset")
	assert.False(t, m.Contains(key))

	_, err = Get[rejecting](m, key)
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestSourceErrorPropagates(t *testing.T) {
	t.Parallel()

	m := NewManager(newMemSource(nil))
	key := NewKey()
	_, err := Load[Blob](m, key, "missing.bin")
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrDeserialize)
	assert.Zero(t, m.Len())
}

func TestUnloadKeepsOutstandingHandles(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"a": "payload"})
	m := NewManager(src)
	key := NewKey()

	h, err := Load[Blob](m, key, "a")
	require.NoError(t, err)

	assert.True(t, m.Unload(key))
	assert.False(t, m.Unload(key))
	assert.Equal(t, []byte("payload"), h.Get().Data, "handle outlives eviction")

	_, err = Get[Blob](m, key)
	require.ErrorIs(t, err, ErrNotLoaded)

	reloaded, err := Load[Blob](m, key, "a")
	require.NoError(t, err)
	assert.NotSame(t, h.Get(), reloaded.Get())
	assert.Equal(t, int64(2), src.reads.Load())
}

func TestTypeMismatch(t *testing.T) {
	t.Parallel()

	m := NewManager(newMemSource(map[string]string{"a": "text"}))
	key := NewKey()
	_, err := Load[Text](m, key, "a")
	require.NoError(t, err)

	_, err = Get[Blob](m, key)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Load[Blob](m, key, "a")
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestConcurrentLoadsConverge(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"shared": "value"})
	src.gate = make(chan struct{})
	m := NewManager(src)
	key := NewKey()

	const callers = 16
	results := make([]*counted, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := Load[counted](m, key, "shared")
			if assert.NoError(t, err) {
				results[i] = h.Get()
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, m.Len())
}

func TestInsertKeepsFirstWinner(t *testing.T) {
	t.Parallel()

	m := NewManager(newMemSource(nil))
	key := NewKey()
	winner := &Text{Value: "winner"}
	loser := &Text{Value: "loser"}

	assert.Same(t, winner, m.insert(key, winner))
	assert.Same(t, winner, m.insert(key, loser))

	h, err := Get[Text](m, key)
	require.NoError(t, err)
	assert.Same(t, winner, h.Get())
}

func TestLoadAsyncConverges(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"asset": "data"})
	m := NewManager(src, WithWorkers(2))
	key := NewKey()

	f1 := LoadAsync[counted](m, key, "asset")
	f2 := LoadAsync[counted](m, key, "asset")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h1, err := f1.Wait(ctx)
	require.NoError(t, err)
	h2, err := f2.Wait(ctx)
	require.NoError(t, err)

	assert.Same(t, h1.Get(), h2.Get())
	<-f1.Done()

	got, err := Get[counted](m, key)
	require.NoError(t, err)
	assert.Same(t, h1.Get(), got.Get())
}

func TestLoadAsyncSurvivesAbandonedWait(t *testing.T) {
	t.Parallel()

	src := newMemSource(map[string]string{"slow": "eventually"})
	src.gate = make(chan struct{})
	m := NewManager(src)
	key := NewKey()

	f := LoadAsync[Text](m, key, "slow")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(src.gate)
	m.Wait()

	h, err := Get[Text](m, key)
	require.NoError(t, err)
	assert.Equal(t, "eventually", h.Get().Value)
}

func TestLoadAsyncError(t *testing.T) {
	t.Parallel()

	m := NewManager(newMemSource(map[string]string{"x": "x"}))
	f := LoadAsync[rejecting](m, NewKey(), "x")
	_, err := f.Wait(context.Background())
	require.ErrorIs(t, err, ErrDeserialize)
}

type mapResolver map[Key]string

func (r mapResolver) Resolve(_ context.Context, key Key) (string, error) {
	name, ok := r[key]
	if !ok {
		return "", fmt.Errorf("no path for %s", key)
	}
	return name, nil
}

func TestLoadKey(t *testing.T) {
	t.Parallel()

	key := NewKey()
	src := newMemSource(map[string]string{"levels/one.txt": "level one"})

	_, err := LoadKey[Text](context.Background(), NewManager(src), key)
	require.ErrorIs(t, err, ErrNoResolver)

	m := NewManager(src, WithResolver(mapResolver{key: "levels/one.txt"}))
	h, err := LoadKey[Text](context.Background(), m, key)
	require.NoError(t, err)
	assert.Equal(t, "level one", h.Get().Value)

	_, err = LoadKey[Text](context.Background(), m, NewKey())
	require.Error(t, err)
}

func TestKeysSorted(t *testing.T) {
	t.Parallel()

	m := NewManager(newMemSource(map[string]string{"a": "a"}))
	keys := []Key{{Hi: 2, Lo: 1}, {Hi: 1, Lo: 9}, {Hi: 1, Lo: 3}}
	for _, k := range keys {
		_, err := Load[Blob](m, k, "a")
		require.NoError(t, err)
	}
	assert.Equal(t, []Key{{Hi: 1, Lo: 3}, {Hi: 1, Lo: 9}, {Hi: 2, Lo: 1}}, m.Keys())
}

type levelConfig struct {
	Name    string   `json:"name" yaml:"name"`
	Enemies []string `json:"enemies" yaml:"enemies"`
}

func TestLoadThroughVFSAndBundle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	name := filepath.Join(dir, "content.bundle")
	require.NoError(t, bundle.Write(name, []bundle.Item{
		{Path: "levels/one.jsonc", Data: []byte(`{
			// first level
			"name": "Caves",
			"enemies": ["bat", "slime",],
		}`)},
	}))

	fsys := vfs.New()
	defer fsys.Close()
	require.NoError(t, fsys.MountBundle(name))

	m := NewManager(fsys)
	key := PathKey("levels/one.jsonc")
	h, err := Load[JSON[levelConfig]](m, key, "levels/one.jsonc")
	require.NoError(t, err)
	assert.Equal(t, "Caves", h.Get().Value.Name)
	assert.Equal(t, []string{"bat", "slime"}, h.Get().Value.Enemies)

	_, err = Load[Blob](m, NewKey(), "levels/two.jsonc")
	require.ErrorIs(t, err, vfs.ErrNotFound)
}
