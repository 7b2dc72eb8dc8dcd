package transfer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPayload(t *testing.T) {
	path := writeFile(t, []byte{0x00, 0xFF, 0x41})

	p, err := LoadPayload(path)
	require.NoError(t, err)

	assert.Equal(t, path, p.Path)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []byte{0x00, 0xFF, 0x41}, p.data)
	assert.Len(t, p.Digest(), 64)
}

func TestPayloadDigest(t *testing.T) {
	empty, err := LoadPayload(writeFile(t, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	// BLAKE2b-256("")
	assert.Equal(t, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", empty.Digest())

	a, err := LoadPayload(writeFile(t, []byte("abc")))
	require.NoError(t, err)
	b, err := LoadPayload(writeFile(t, []byte("abd")))
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestLoadPayloadMissing(t *testing.T) {
	_, err := LoadPayload(filepath.Join(t.TempDir(), "absent.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
