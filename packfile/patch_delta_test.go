package packfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeApplyDeltaRoundTrip(t *testing.T) {
	base := []byte("the quick brown fox jumps over the lazy dog")
	target := []byte("the quick red fox jumps over the lazy dog")

	instructions := []Instruction{
		{IsCopy: true, Offset: 0, Length: 10}, // "the quick "
		{IsCopy: false, Data: []byte("red")},
		{IsCopy: true, Offset: 15, Length: uint32(len(base) - 15)}, // " fox jumps over the lazy dog"
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeDelta(&buf, int64(len(base)), int64(len(target)), instructions))

	got, err := ApplyDelta(base, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, string(target), string(got))
	assert.Less(t, buf.Len(), len(target))
}

func TestApplyDeltaRejectsBaseSizeMismatch(t *testing.T) {
	base := []byte("short")
	var buf bytes.Buffer
	require.NoError(t, EncodeDelta(&buf, 999, 5, []Instruction{{IsCopy: false, Data: []byte("hello")}}))

	_, err := ApplyDelta(base, buf.Bytes())
	assert.Error(t, err)
}

func TestApplyDeltaRejectsOutOfRangeCopy(t *testing.T) {
	base := []byte("short")
	var buf bytes.Buffer
	require.NoError(t, EncodeDelta(&buf, int64(len(base)), 100, []Instruction{{IsCopy: true, Offset: 0, Length: 100}}))

	_, err := ApplyDelta(base, buf.Bytes())
	assert.Error(t, err)
}

func TestCopyInstructionMaxLengthCompactEncoding(t *testing.T) {
	base := make([]byte, maxCopyLength)
	for i := range base {
		base[i] = byte(i)
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeDelta(&buf, int64(len(base)), int64(len(base)), []Instruction{
		{IsCopy: true, Offset: 0, Length: maxCopyLength},
	}))

	got, err := ApplyDelta(base, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestInsertInstructionSplitsLongLiterals(t *testing.T) {
	base := []byte{}
	data := bytes.Repeat([]byte{'x'}, 300)

	var buf bytes.Buffer
	require.NoError(t, EncodeDelta(&buf, 0, int64(len(data)), []Instruction{{IsCopy: false, Data: data}}))

	got, err := ApplyDelta(base, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
