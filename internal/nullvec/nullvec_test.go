package nullvec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segmend/internal/segment"
)

func TestBuildRead(t *testing.T) {
	for _, n := range []int{0, 1, 1000, 70000} {
		data, err := Build(n)
		require.NoError(t, err)

		v, err := Read(data)
		require.NoError(t, err)
		assert.Equal(t, n, v.Cardinality())
		if n > 0 {
			assert.True(t, v.Contains(0))
			assert.True(t, v.Contains(uint32(n-1)))
		}
		assert.False(t, v.Contains(uint32(n)))
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build(1000)
	require.NoError(t, err)
	b, err := Build(1000)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuild_NegativeDocs(t *testing.T) {
	_, err := Build(-1)
	assert.Error(t, err)
}

func TestRead_Errors(t *testing.T) {
	data, err := Build(10)
	require.NoError(t, err)

	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-1] ^= 0xFF
	_, err = Read(corrupt)
	assert.ErrorIs(t, err, segment.ErrChecksumMismatch)

	_, err = Read(segment.EncodeArtifact(segment.ArtifactDictionary, []byte{1}))
	assert.Error(t, err)

	_, err = Read(segment.EncodeArtifact(segment.ArtifactNullVector, []byte{1, 2, 3}))
	assert.Error(t, err)
}
