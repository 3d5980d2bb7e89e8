package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	v, err := ParseVersion("1.1.0")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 1}, v)
	assert.Equal(t, "1.1.0", v.String())

	v, err = ParseVersion("2.3")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 2, Minor: 3}, v)

	v, err = ParseVersion("1.0.65535")
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), v.Revision)

	for _, bad := range []string{"", "1", "1.2.3.4", "256.0", "a.b", "1.0.70000"} {
		_, err := ParseVersion(bad)
		assert.Error(t, err, bad)
	}
}

func TestVersionCompare(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Version{1, 1, 0}.Compare(Version{1, 1, 0}))
	assert.Equal(t, -1, Version{1, 0, 9}.Compare(Version{1, 1, 0}))
	assert.Equal(t, 1, Version{2, 0, 0}.Compare(Version{1, 9, 9}))
	assert.Equal(t, 1, Version{1, 1, 2}.Compare(Version{1, 1, 1}))
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	p, err := NormalizePath(`meshes\hero\body.mesh`)
	require.NoError(t, err)
	assert.Equal(t, "meshes/hero/body.mesh", p)

	p, err = NormalizePath("Mixed/Case")
	require.NoError(t, err)
	assert.Equal(t, "Mixed/Case", p)

	_, err = NormalizePath(`\leading`)
	assert.ErrorIs(t, err, ErrInvalidPath)
}
