package refstore

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
)

func idFor(b byte) gitobj.ObjectID {
	var id gitobj.ObjectID
	id[19] = b
	return id
}

func meta(msg string) ReflogMeta {
	return ReflogMeta{Ident: gitobj.PersonIdent{Name: "tester", Email: "t@example.com"}, Message: msg}
}

func TestStoreSetAndGetDirect(t *testing.T) {
	s := New(memfs.New())
	id := idFor(1)

	require.NoError(t, s.Set("refs/heads/main", id, meta("create main")))

	ref, err := s.Get("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, gitobj.HashReference, ref.Type)
	assert.Equal(t, id, ref.Target)
	assert.Equal(t, gitobj.LooseStorage, ref.Storage)
}

func TestStoreSetSymbolicAndResolve(t *testing.T) {
	s := New(memfs.New())
	id := idFor(2)

	require.NoError(t, s.Set("refs/heads/main", id, meta("create main")))
	require.NoError(t, s.SetSymbolic(gitobj.HEAD, "refs/heads/main", meta("point HEAD at main")))

	head, err := s.Get(gitobj.HEAD)
	require.NoError(t, err)
	assert.Equal(t, gitobj.SymbolicReference, head.Type)
	assert.Equal(t, "refs/heads/main", head.Symbolic)

	resolved, err := s.Resolve(gitobj.HEAD)
	require.NoError(t, err)
	assert.Equal(t, id, resolved.Target)
}

func TestStoreResolveDetectsBrokenChain(t *testing.T) {
	fs := memfs.New()
	s := New(fs)

	// Build a self-referential symbolic cycle by hand.
	require.NoError(t, s.SetSymbolic("refs/heads/a", "refs/heads/b", meta("")))
	require.NoError(t, s.SetSymbolic("refs/heads/b", "refs/heads/a", meta("")))

	_, err := s.Resolve("refs/heads/a")
	require.Error(t, err)
	assert.True(t, gitobj.IsChainTooDeep(err))
}

func TestStoreRejectsInvalidRefName(t *testing.T) {
	s := New(memfs.New())

	err := s.Set("refs/heads/bad..name", idFor(1), meta(""))
	require.Error(t, err)
	assert.True(t, gitobj.IsInvalidArgument(err))

	err = s.SetSymbolic(gitobj.HEAD, "refs/heads/bad..name", meta(""))
	require.Error(t, err)
	assert.True(t, gitobj.IsInvalidArgument(err))
}

func TestStoreCompareAndSwapSuccess(t *testing.T) {
	s := New(memfs.New())
	first := idFor(1)
	second := idFor(2)

	require.NoError(t, s.Set("refs/heads/main", first, meta("init")))

	err := s.CompareAndSwap("refs/heads/main", &first, second, meta("fast-forward"))
	require.NoError(t, err)

	ref, err := s.Get("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, second, ref.Target)
}

func TestStoreCompareAndSwapConflict(t *testing.T) {
	s := New(memfs.New())
	first := idFor(1)
	second := idFor(2)
	wrongExpected := idFor(9)

	require.NoError(t, s.Set("refs/heads/main", first, meta("init")))

	err := s.CompareAndSwap("refs/heads/main", &wrongExpected, second, meta("should fail"))
	require.Error(t, err)

	var casErr *gitobj.CasConflictError
	require.ErrorAs(t, err, &casErr)
	assert.Equal(t, first.String(), casErr.Observed)
	assert.Equal(t, wrongExpected.String(), casErr.Expected)

	ref, err := s.Get("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, first, ref.Target)
}

func TestStoreCompareAndSwapRequiresAbsence(t *testing.T) {
	s := New(memfs.New())
	id := idFor(1)

	err := s.CompareAndSwap("refs/heads/fresh", nil, id, meta("create"))
	require.NoError(t, err)

	ref, err := s.Get("refs/heads/fresh")
	require.NoError(t, err)
	assert.Equal(t, id, ref.Target)

	err = s.CompareAndSwap("refs/heads/fresh", nil, idFor(2), meta("should fail, already exists"))
	require.Error(t, err)
	_, ok := gitobj.IsCasConflict(err)
	assert.True(t, ok)
}

func TestStoreReflogRecordsUpdates(t *testing.T) {
	fs := memfs.New()
	s := New(fs)
	first := idFor(1)
	second := idFor(2)

	require.NoError(t, s.Set("refs/heads/main", first, meta("init")))
	require.NoError(t, s.Set("refs/heads/main", second, meta("advance")))

	f, err := fs.Open("logs/refs/heads/main")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 4096)
	n, _ := f.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, gitobj.ZeroHash.String()+" "+first.String())
	assert.Contains(t, content, first.String()+" "+second.String())
	assert.Contains(t, content, "advance")
}

func TestStoreReflogMirrorsToHeadWhenSymbolic(t *testing.T) {
	fs := memfs.New()
	s := New(fs)
	id := idFor(1)

	require.NoError(t, s.Set("refs/heads/main", id, meta("init")))
	require.NoError(t, s.SetSymbolic(gitobj.HEAD, "refs/heads/main", meta("checkout main")))
	require.NoError(t, s.Set("refs/heads/main", idFor(2), meta("advance")))

	f, err := fs.Open("logs/HEAD")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 4096)
	n, _ := f.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, "advance")
}

func TestStoreListMergesLooseAndPacked(t *testing.T) {
	fs := memfs.New()
	s := New(fs)

	require.NoError(t, s.Set("refs/heads/main", idFor(1), meta("")))
	require.NoError(t, s.Set("refs/tags/v1", idFor(2), meta("")))

	// Pack everything, then set one ref again as a loose ref that overrides
	// its packed entry.
	require.NoError(t, s.PackRefs(PackRefsOptions{All: true, DeleteLoose: true}))
	require.NoError(t, s.Set("refs/heads/main", idFor(3), meta("override after pack")))

	refs, err := s.List("refs/")
	require.NoError(t, err)
	require.Len(t, refs, 2)

	byName := map[string]*gitobj.Reference{}
	for _, r := range refs {
		byName[r.Name] = r
	}
	assert.Equal(t, idFor(3), byName["refs/heads/main"].Target)
	assert.Equal(t, gitobj.LooseStorage, byName["refs/heads/main"].Storage)
	assert.Equal(t, idFor(2), byName["refs/tags/v1"].Target)
	assert.Equal(t, gitobj.PackedStorage, byName["refs/tags/v1"].Storage)
}

func TestStoreListEmptyRepoReturnsNoRefs(t *testing.T) {
	s := New(memfs.New())

	refs, err := s.List("")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestStoreRemoveLoose(t *testing.T) {
	s := New(memfs.New())
	require.NoError(t, s.Set("refs/heads/doomed", idFor(1), meta("")))

	require.NoError(t, s.Remove("refs/heads/doomed"))

	_, err := s.Get("refs/heads/doomed")
	assert.True(t, gitobj.IsNotFound(err))
}

func TestStoreRemovePackedOnly(t *testing.T) {
	s := New(memfs.New())
	require.NoError(t, s.Set("refs/tags/v1", idFor(1), meta("")))
	require.NoError(t, s.PackRefs(PackRefsOptions{All: true, DeleteLoose: true}))

	require.NoError(t, s.Remove("refs/tags/v1"))

	_, err := s.Get("refs/tags/v1")
	assert.True(t, gitobj.IsNotFound(err))
}

func TestStoreRemoveNotFound(t *testing.T) {
	s := New(memfs.New())
	err := s.Remove("refs/heads/nope")
	assert.True(t, gitobj.IsNotFound(err))
}

func TestStorePackRefsDefaultOnlyPacksTags(t *testing.T) {
	s := New(memfs.New())
	require.NoError(t, s.Set("refs/heads/main", idFor(1), meta("")))
	require.NoError(t, s.Set("refs/tags/v1", idFor(2), meta("")))

	require.NoError(t, s.PackRefs(PackRefsOptions{DeleteLoose: true}))

	main, err := s.Get("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, gitobj.LooseStorage, main.Storage)

	tag, err := s.Get("refs/tags/v1")
	require.NoError(t, err)
	assert.Equal(t, gitobj.PackedStorage, tag.Storage)
}

func TestStoreOptimizeRoundTripsPackedRefs(t *testing.T) {
	s := New(memfs.New())
	require.NoError(t, s.Set("refs/tags/v2", idFor(1), meta("")))
	require.NoError(t, s.Set("refs/tags/v1", idFor(2), meta("")))
	require.NoError(t, s.PackRefs(PackRefsOptions{All: true, DeleteLoose: true}))

	require.NoError(t, s.Optimize())

	v1, err := s.Get("refs/tags/v1")
	require.NoError(t, err)
	assert.Equal(t, idFor(2), v1.Target)
	v2, err := s.Get("refs/tags/v2")
	require.NoError(t, err)
	assert.Equal(t, idFor(1), v2.Target)
}
