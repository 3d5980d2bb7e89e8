package pack

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jchantrell/assetpack/internal/bundle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}
	return root
}

func paths(items []bundle.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Path
	}
	return out
}

func TestCollectDirectory(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"b.txt":             "b",
		"a/deep/file.bin":   "deep",
		"textures/rock.png": "rock",
	})

	items, err := Collect(context.Background(), Options{}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/deep/file.bin", "b.txt", "textures/rock.png"}, paths(items))
	assert.Equal(t, []byte("deep"), items[0].Data)
}

func TestCollectLaterRootWins(t *testing.T) {
	t.Parallel()

	base := writeTree(t, map[string]string{"shared.txt": "base", "only-base.txt": "x"})
	patch := writeTree(t, map[string]string{"shared.txt": "patch"})

	items, err := Collect(context.Background(), Options{}, base, patch)
	require.NoError(t, err)
	require.Equal(t, []string{"only-base.txt", "shared.txt"}, paths(items))
	assert.Equal(t, []byte("patch"), items[1].Data)
}

func TestCollectExcludeAndPrefix(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"keep.txt":        "k",
		"skip.tmp":        "s",
		".git/config":     "c",
		"src/main.go.bak": "b",
	})

	items, err := Collect(context.Background(), Options{
		Exclude: []string{"*.tmp", ".git", "src/*.bak"},
		Prefix:  `mods\extra/`,
	}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"mods/extra/keep.txt"}, paths(items))
}

func TestCollectSingleFile(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"nested/icon.png": "icon"})
	items, err := Collect(context.Background(), Options{}, filepath.Join(root, "nested", "icon.png"))
	require.NoError(t, err)
	assert.Equal(t, []string{"icon.png"}, paths(items))
}

func TestCollectSkipsSymlinks(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"real.txt": "real"})
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	items, err := Collect(context.Background(), Options{}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"real.txt"}, paths(items))
}

func TestCollectErrors(t *testing.T) {
	t.Parallel()

	_, err := Collect(context.Background(), Options{}, filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Collect(context.Background(), Options{Exclude: []string{"["}}, t.TempDir())
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Collect(ctx, Options{}, writeTree(t, map[string]string{"a": "a"}))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCollectedItemsRoundTrip(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"x/y.txt": "hello", "z.txt": ""})
	items, err := Collect(context.Background(), Options{}, root)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.bundle")
	require.NoError(t, bundle.Write(out, items))

	r, err := bundle.Open(out)
	require.NoError(t, err)
	defer r.Close()

	data, ok, err := r.Read("x/y.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))

	data, ok, err = r.Read("z.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, data)
}
