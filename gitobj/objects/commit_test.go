package objects

import (
	"bytes"
	"testing"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitEncodeDecodeRoundTrip(t *testing.T) {
	c := &Commit{
		TreeID:    gitobj.EmptyTreeID,
		ParentIDs: []gitobj.ObjectID{gitobj.EmptyBlobID},
		Author:    gitobj.PersonIdent{Name: "A U Thor", Email: "author@example.com", Timestamp: 1234567890, TZOffset: "+0000"},
		Committer: gitobj.PersonIdent{Name: "A U Thor", Email: "author@example.com", Timestamp: 1234567890, TZOffset: "+0000"},
		Message:   "initial commit\n",
	}

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))

	decoded, err := DecodeCommit(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, c.TreeID, decoded.TreeID)
	assert.Equal(t, c.ParentIDs, decoded.ParentIDs)
	assert.Equal(t, c.Author, decoded.Author)
	assert.Equal(t, c.Message, decoded.Message)
	assert.False(t, decoded.IsRootCommit())
	assert.False(t, decoded.IsMergeCommit())
}

func TestCommitGPGSigFolding(t *testing.T) {
	c := &Commit{
		TreeID:    gitobj.EmptyTreeID,
		Author:    gitobj.PersonIdent{Name: "A", Email: "a@b.c", Timestamp: 1, TZOffset: "+0000"},
		Committer: gitobj.PersonIdent{Name: "A", Email: "a@b.c", Timestamp: 1, TZOffset: "+0000"},
		PGPSig:    "-----BEGIN PGP SIGNATURE-----\n\nabc123\n-----END PGP SIGNATURE-----",
		Message:   "signed\n",
	}

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))
	assert.Contains(t, buf.String(), "gpgsig -----BEGIN PGP SIGNATURE-----\n \n abc123\n -----END PGP SIGNATURE-----\n")

	decoded, err := DecodeCommit(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, c.PGPSig, decoded.PGPSig)
}

func TestCommitMergeAndRoot(t *testing.T) {
	root := &Commit{}
	assert.True(t, root.IsRootCommit())

	merge := &Commit{ParentIDs: []gitobj.ObjectID{gitobj.EmptyBlobID, gitobj.EmptyTreeID}}
	assert.True(t, merge.IsMergeCommit())
}
