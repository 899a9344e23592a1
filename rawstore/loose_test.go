package rawstore

import (
	"io"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
)

func fortyHex(b byte) string {
	return strings.Repeat(string(rune('a'+b%6)), 40)
}

func TestLooseRawStorageStoreLoadRoundTripUncompressed(t *testing.T) {
	fs := memfs.New()
	s := NewLooseRawStorage(fs, "objects", nil)

	key := fortyHex(0)
	require.NoError(t, s.Store(key, strings.NewReader("payload bytes")))

	r, err := s.Load(key, ReadRange{Length: -1})
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "payload bytes", string(b))

	ok, err := s.Has(key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLooseRawStorageStoreLoadRoundTripCompressed(t *testing.T) {
	fs := memfs.New()
	s := NewLooseRawStorage(fs, "objects", gitobj.NewCompression())

	key := fortyHex(1)
	require.NoError(t, s.Store(key, strings.NewReader("compressed payload bytes, repeated repeated repeated")))

	r, err := s.Load(key, ReadRange{Length: -1})
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "compressed payload bytes, repeated repeated repeated", string(b))
}

func TestLooseRawStorageNotFound(t *testing.T) {
	fs := memfs.New()
	s := NewLooseRawStorage(fs, "objects", nil)

	_, err := s.Load(fortyHex(2), ReadRange{Length: -1})
	assert.True(t, gitobj.IsNotFound(err))
}

func TestLooseRawStorageRemove(t *testing.T) {
	fs := memfs.New()
	s := NewLooseRawStorage(fs, "objects", nil)

	key := fortyHex(3)
	require.NoError(t, s.Store(key, strings.NewReader("x")))

	removed, err := s.Remove(key)
	require.NoError(t, err)
	assert.True(t, removed)

	removedAgain, err := s.Remove(key)
	require.NoError(t, err)
	assert.False(t, removedAgain)
}

func TestLooseRawStorageKeysWalksFanout(t *testing.T) {
	fs := memfs.New()
	s := NewLooseRawStorage(fs, "objects", nil)

	k1 := fortyHex(0)
	k2 := fortyHex(1)
	require.NoError(t, s.Store(k1, strings.NewReader("1")))
	require.NoError(t, s.Store(k2, strings.NewReader("2")))

	it, err := s.Keys()
	require.NoError(t, err)

	var got []string
	require.NoError(t, it.ForEach(func(k string) error {
		got = append(got, k)
		return nil
	}))
	assert.ElementsMatch(t, []string{k1, k2}, got)
}

func TestLooseRawStorageIdempotentStore(t *testing.T) {
	fs := memfs.New()
	s := NewLooseRawStorage(fs, "objects", nil)

	key := fortyHex(4)
	require.NoError(t, s.Store(key, strings.NewReader("same bytes")))
	require.NoError(t, s.Store(key, strings.NewReader("same bytes")))

	size, err := s.Size(key)
	require.NoError(t, err)
	assert.Equal(t, int64(len("same bytes")), size)
}
