package objects

import (
	"bytes"
	"testing"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeCanonicalOrder(t *testing.T) {
	tr := &Tree{Entries: []TreeEntry{
		{Name: "foo.c", Mode: gitobj.Regular, ID: gitobj.EmptyBlobID},
		{Name: "foo", Mode: gitobj.Dir, ID: gitobj.EmptyTreeID},
		{Name: "food", Mode: gitobj.Regular, ID: gitobj.EmptyBlobID},
	}}

	tr.SortEntries()

	names := make([]string, len(tr.Entries))
	for i, e := range tr.Entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"foo.c", "foo", "food"}, names)
}

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	tr := &Tree{Entries: []TreeEntry{
		{Name: "README.md", Mode: gitobj.Regular, ID: gitobj.EmptyBlobID},
		{Name: "src", Mode: gitobj.Dir, ID: gitobj.EmptyTreeID},
		{Name: "run.sh", Mode: gitobj.Executable, ID: gitobj.EmptyBlobID},
	}}

	var buf bytes.Buffer
	require.NoError(t, tr.Encode(&buf))

	decoded, err := DecodeTree(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, decoded.Entries, 3)

	e, ok := decoded.Entry("src")
	require.True(t, ok)
	assert.Equal(t, gitobj.Dir, e.Mode)
	assert.Equal(t, gitobj.EmptyTreeID, e.ID)
}

func TestDecodeTreeMalformedMode(t *testing.T) {
	_, err := DecodeTree(bytes.NewReader([]byte("zz name\x00")))
	assert.True(t, gitobj.IsCorruption(err))
}
