package packfile

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/idxfile"
)

// TestWritePackThenScanRoundTrip exercises the full writer/scanner path over
// a pack containing a full blob plus an OFS_DELTA derived from it, mirroring
// spec.md §8 scenario 5 (a base blob and a delta-derived blob in one pack).
func TestWritePackThenScanRoundTrip(t *testing.T) {
	compression := gitobj.NewCompression()

	base := []byte("the quick brown fox jumps over the lazy dog")
	target := []byte("the quick red fox jumps over the lazy dog")
	baseID := gitobj.HashObject(gitobj.BlobObject, base)
	targetID := gitobj.HashObject(gitobj.BlobObject, target)

	var deltaBuf bytes.Buffer
	require.NoError(t, EncodeDelta(&deltaBuf, int64(len(base)), int64(len(target)), []Instruction{
		{IsCopy: true, Offset: 0, Length: 10},
		{IsCopy: false, Data: []byte("red")},
		{IsCopy: true, Offset: 15, Length: uint32(len(base) - 15)},
	}))

	entries := []Entry{
		{ID: baseID, Type: gitobj.BlobObject, Content: base},
		{ID: targetID, Type: OFSDeltaObject, Content: deltaBuf.Bytes(), BaseOffset: 12 /* pack header length */},
	}

	var packBuf bytes.Buffer
	packSum, idxEntries, err := WritePack(&packBuf, entries, compression)
	require.NoError(t, err)
	require.Len(t, idxEntries, 2)

	// Sequential scan should recover both entries and the trailer.
	scanner, err := NewScanner(bytes.NewReader(packBuf.Bytes()), compression)
	require.NoError(t, err)
	assert.EqualValues(t, 2, scanner.ObjectCount())

	first, err := scanner.Next()
	require.NoError(t, err)
	assert.Equal(t, gitobj.BlobObject, first.Type)
	assert.Equal(t, base, first.Content)

	second, err := scanner.Next()
	require.NoError(t, err)
	assert.Equal(t, OFSDeltaObject, second.Type)
	resolvedTarget, err := ApplyDelta(first.Content, second.Content)
	require.NoError(t, err)
	assert.Equal(t, string(target), string(resolvedTarget))

	_, err = scanner.Next()
	assert.ErrorIs(t, err, io.EOF)

	trailer, err := scanner.ReadTrailer()
	require.NoError(t, err)
	assert.Equal(t, packSum, trailer)

	// Random access via Reader + idxfile.Index should resolve the delta
	// entry transparently to its full content.
	var idxBuf bytes.Buffer
	require.NoError(t, idxfile.Encode(&idxBuf, idxEntries, packSum))
	idx, err := idxfile.Decode(bytes.NewReader(idxBuf.Bytes()))
	require.NoError(t, err)

	reader, err := NewReader(bytes.NewReader(packBuf.Bytes()), idx, compression, 1<<20)
	require.NoError(t, err)

	assert.True(t, reader.Has(baseID))
	assert.True(t, reader.Has(targetID))

	gotType, gotSize, rc, err := reader.Get(targetID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, gitobj.BlobObject, gotType)
	assert.EqualValues(t, len(target), gotSize)

	gotContent := make([]byte, gotSize)
	_, err = rc.Read(gotContent)
	require.NoError(t, err)
	assert.Equal(t, string(target), string(gotContent))
}

func TestReaderEnforcesMaxChainDepth(t *testing.T) {
	compression := gitobj.NewCompression()

	// A full blob plus one OFS_DELTA on top of it: resolving the delta takes
	// a chain depth of 1, so a cap of 1 resolves it and a cap of 0 refuses
	// it with a ChainTooDeepError.
	base := []byte("x")
	target := []byte("xy")
	targetID := gitobj.HashObject(gitobj.BlobObject, target)
	var deltaBuf bytes.Buffer
	require.NoError(t, EncodeDelta(&deltaBuf, 1, 2, []Instruction{{IsCopy: true, Offset: 0, Length: 1}, {Data: []byte("y")}}))

	entries := []Entry{
		{ID: gitobj.HashObject(gitobj.BlobObject, base), Type: gitobj.BlobObject, Content: base},
		{ID: targetID, Type: OFSDeltaObject, Content: deltaBuf.Bytes(), BaseOffset: 12 /* pack header length */},
	}
	var packBuf bytes.Buffer
	packSum, idxEntries, err := WritePack(&packBuf, entries, compression)
	require.NoError(t, err)

	var idxBuf bytes.Buffer
	require.NoError(t, idxfile.Encode(&idxBuf, idxEntries, packSum))
	idx, err := idxfile.Decode(bytes.NewReader(idxBuf.Bytes()))
	require.NoError(t, err)

	reader, err := NewReader(bytes.NewReader(packBuf.Bytes()), idx, compression, 0)
	require.NoError(t, err)
	reader.SetMaxChainDepth(50)
	assert.Equal(t, DefaultMaxChainDepth, reader.maxChainDepth)

	reader.SetMaxChainDepth(1)
	_, _, rc, err := reader.Get(targetID)
	require.NoError(t, err)
	rc.Close()

	reader.SetMaxChainDepth(0)
	_, _, _, err = reader.Get(targetID)
	assert.True(t, gitobj.IsChainTooDeep(err))
}
