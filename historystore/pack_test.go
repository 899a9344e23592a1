package historystore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/packfile"
)

func TestWritePackThenIngestRoundTrip(t *testing.T) {
	writer := newTestStore(t)
	compression := gitobj.NewCompression()

	base := []byte("the quick brown fox jumps over the lazy dog, over and over")
	target := []byte("the quick RED fox jumps over the lazy dog, over and over")
	baseID := gitobj.HashObject(gitobj.BlobObject, base)
	targetID := gitobj.HashObject(gitobj.BlobObject, target)

	objs := []PackObject{
		{ID: baseID, Type: gitobj.BlobObject, Path: "fox.txt", Content: base},
		{ID: targetID, Type: gitobj.BlobObject, Path: "fox.txt", Content: target},
	}

	result, err := writer.WritePack(objs, compression)
	require.NoError(t, err)
	assert.Len(t, result.IndexEntries, 2)

	reader := newTestStore(t)
	ingestResult, err := reader.IngestPack(result.PackBytes, compression)
	require.NoError(t, err)
	assert.EqualValues(t, 2, ingestResult.ObjectCount)
	assert.Equal(t, result.Checksum, ingestResult.Checksum)

	_, gotBase, err := reader.Objects.LoadBytes(baseID)
	require.NoError(t, err)
	assert.Equal(t, base, gotBase)

	_, gotTarget, err := reader.Objects.LoadBytes(targetID)
	require.NoError(t, err)
	assert.Equal(t, target, gotTarget)
}

func TestWritePackStoresSmallObjectsFull(t *testing.T) {
	s := newTestStore(t)
	compression := gitobj.NewCompression()

	tiny := []byte("hi")
	tinyID := gitobj.HashObject(gitobj.BlobObject, tiny)

	result, err := s.WritePack([]PackObject{{ID: tinyID, Type: gitobj.BlobObject, Content: tiny}}, compression)
	require.NoError(t, err)
	require.Len(t, result.IndexEntries, 1)

	reader := newTestStore(t)
	_, err = reader.IngestPack(result.PackBytes, compression)
	require.NoError(t, err)

	_, got, err := reader.Objects.LoadBytes(tinyID)
	require.NoError(t, err)
	assert.Equal(t, tiny, got)
}

func TestIngestPackResolvesRefDeltaAgainstObjectAlreadyInStore(t *testing.T) {
	compression := gitobj.NewCompression()

	base := []byte("the quick brown fox jumps over the lazy dog")
	target := []byte("the quick red fox jumps over the lazy dog")
	baseID := gitobj.HashObject(gitobj.BlobObject, base)
	targetID := gitobj.HashObject(gitobj.BlobObject, target)

	// The destination already holds base from an earlier, separate pack;
	// this pack carries only a REF_DELTA entry for target, whose base it
	// never includes itself.
	dest := newTestStore(t)
	_, err := dest.Objects.WriteBytes(gitobj.BlobObject, base)
	require.NoError(t, err)

	var deltaBuf bytes.Buffer
	require.NoError(t, packfile.EncodeDelta(&deltaBuf, int64(len(base)), int64(len(target)), []packfile.Instruction{
		{IsCopy: true, Offset: 0, Length: 10},
		{IsCopy: false, Data: []byte("red")},
		{IsCopy: true, Offset: 15, Length: uint32(len(base) - 15)},
	}))

	var packBuf bytes.Buffer
	pw, err := packfile.NewWriter(&packBuf, 1, compression)
	require.NoError(t, err)
	require.NoError(t, pw.AddRefDelta(targetID, baseID, deltaBuf.Bytes()))
	_, _, err = pw.Finish()
	require.NoError(t, err)

	_, err = dest.IngestPack(packBuf.Bytes(), compression)
	require.NoError(t, err)

	_, got, err := dest.Objects.LoadBytes(targetID)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}
