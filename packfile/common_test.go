package packfile

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFileHeader(&buf, 3))

	count, err := ReadFileHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), count)
}

func TestReadFileHeaderRejectsBadMagic(t *testing.T) {
	_, err := ReadFileHeader(bytes.NewReader(bytes.Repeat([]byte{0}, 12)))
	assert.True(t, gitobj.IsCorruption(err))
}

func TestObjectHeaderRoundTripSmall(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeObjectHeader(&buf, gitobj.BlobObject, 10))

	br := bufio.NewReader(&buf)
	typ, size, err := DecodeObjectHeader(br)
	require.NoError(t, err)
	assert.Equal(t, gitobj.BlobObject, typ)
	assert.Equal(t, int64(10), size)
}

func TestObjectHeaderRoundTripLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeObjectHeader(&buf, gitobj.CommitObject, 1<<30))

	br := bufio.NewReader(&buf)
	typ, size, err := DecodeObjectHeader(br)
	require.NoError(t, err)
	assert.Equal(t, gitobj.CommitObject, typ)
	assert.Equal(t, int64(1<<30), size)
}

func TestOfsDeltaOffsetRoundTrip(t *testing.T) {
	for _, off := range []int64{0, 1, 127, 128, 16383, 16384, 1 << 24, 1 << 40} {
		var buf bytes.Buffer
		require.NoError(t, EncodeOfsDeltaOffset(&buf, off))

		br := bufio.NewReader(&buf)
		got, err := DecodeOfsDeltaOffset(br)
		require.NoError(t, err)
		assert.Equal(t, off, got, "offset %d", off)
	}
}
