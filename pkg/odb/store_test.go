package odb

import (
	"context"
	"errors"
	"path"
	"strings"
	"testing"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/storage/compress"
	"gitvault/pkg/storage/disk"
	"gitvault/pkg/types"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	return New(disk.NewAdapterFS(fs)), fs
}

func objectPath(id types.ObjectId) string {
	return path.Join(id.PrefixDir(), id.SuffixName())
}

func TestStore_PutGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    core.ObjectKind
		payload []byte
	}{
		{"blob", core.KindBlob, []byte("hello world\n")},
		{"empty blob", core.KindBlob, []byte{}},
		{"binary", core.KindBlob, []byte{0x00, 0xff, 0x00, 0x10}},
		{"commit kind", core.KindCommit, []byte("tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n")},
		{"tag kind", core.KindTag, []byte("object x\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := store.Put(ctx, tt.kind, tt.payload)
			require.NoError(t, err)
			assert.Equal(t, core.Hash(tt.kind, tt.payload), id)

			raw, err := store.GetRaw(ctx, id)
			require.NoError(t, err)
			assert.NoError(t, core.Verify(id, raw))

			obj, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, obj.Kind)
			assert.Equal(t, len(tt.payload), len(obj.Payload))
			if len(tt.payload) > 0 {
				assert.Equal(t, tt.payload, obj.Payload)
			}

			kind, size, err := store.Stat(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, len(tt.payload), size)
		})
	}
}

func TestStore_GitCompatibleLayout(t *testing.T) {
	store, fs := newTestStore(t)

	id, err := store.Put(context.Background(), core.KindBlob, []byte("hello world\n"))
	require.NoError(t, err)
	assert.Equal(t, "3b18e512dba79e4c8300dd08aeb37f8e728b8dad", id.String())

	_, err = fs.Stat("3b/18e512dba79e4c8300dd08aeb37f8e728b8dad")
	assert.NoError(t, err)
}

func TestStore_PutIsIdempotent(t *testing.T) {
	store, fs := newTestStore(t)
	ctx := context.Background()

	id1, err := store.Put(ctx, core.KindBlob, []byte("same content"))
	require.NoError(t, err)
	id2, err := store.Put(ctx, core.KindBlob, []byte("same content"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	entries, err := fs.ReadDir(id1.PrefixDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no duplicate storage")
}

func TestStore_KindIsPartOfIdentity(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	blob, err := store.Put(ctx, core.KindBlob, []byte("x"))
	require.NoError(t, err)
	tag, err := store.Put(ctx, core.KindTag, []byte("x"))
	require.NoError(t, err)
	assert.NotEqual(t, blob, tag)
}

func TestStore_PutRejectsUnknownKind(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Put(context.Background(), core.ObjectKind("chunk"), []byte("x"))
	assert.ErrorIs(t, err, core.ErrMalformedObject)
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)
	id := types.MustFromHex(strings.Repeat("ab", 20))

	_, err := store.Get(context.Background(), id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ok, err := store.Exists(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_TamperedObjectIsCorrupt(t *testing.T) {
	store, fs := newTestStore(t)
	ctx := context.Background()

	id, err := store.Put(ctx, core.KindBlob, []byte("precious data"))
	require.NoError(t, err)

	data, err := util.ReadFile(fs, objectPath(id))
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01
	require.NoError(t, util.WriteFile(fs, objectPath(id), data, 0o444))

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, core.ErrCorruptObject)

	_, err = store.GetRaw(ctx, id)
	assert.ErrorIs(t, err, core.ErrCorruptObject)

	_, _, err = store.Stat(ctx, id)
	assert.ErrorIs(t, err, core.ErrCorruptObject)
}

func TestStore_CompressedTamperIsCorrupt(t *testing.T) {
	fs := memfs.New()
	store := New(compress.Wrap(disk.NewAdapterFS(fs), compress.Zlib))
	ctx := context.Background()

	id, err := store.Put(ctx, core.KindBlob, []byte("compressed payload"))
	require.NoError(t, err)

	obj, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("compressed payload"), obj.Payload)

	data, err := util.ReadFile(fs, objectPath(id))
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, util.WriteFile(fs, objectPath(id), data, 0o444))

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, core.ErrCorruptObject)
}

func TestStore_MalformedButHashMatching(t *testing.T) {
	store, fs := newTestStore(t)
	bad := []byte("blob 99\x00short")
	id := core.SumCanonical(bad)
	require.NoError(t, util.WriteFile(fs, objectPath(id), bad, 0o444))

	_, err := store.GetRaw(context.Background(), id)
	require.NoError(t, err, "hash matches, raw read succeeds")

	_, err = store.Get(context.Background(), id)
	assert.ErrorIs(t, err, core.ErrMalformedObject)
}

func TestStore_ResolveFullID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Put(ctx, core.KindBlob, []byte("resolve me"))
	require.NoError(t, err)

	got, err := store.Resolve(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = store.Resolve(ctx, strings.ToUpper(id.String()))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = store.Resolve(ctx, strings.Repeat("0", 40))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err = store.Resolve(ctx, id.String()[:7])
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestStore_ResolveInvalidInput(t *testing.T) {
	store, _ := newTestStore(t)
	for _, in := range []string{"", "a", "xyz", strings.Repeat("a", 39) + "g", strings.Repeat("a", 41)} {
		_, err := store.Resolve(context.Background(), in)
		assert.ErrorIs(t, err, types.ErrInvalidIdentifier, "input %q", in)
	}
}

func TestStore_ResolveAmbiguous(t *testing.T) {
	store, fs := newTestStore(t)
	ctx := context.Background()

	first := types.MustFromHex("aa11" + strings.Repeat("11", 18))
	second := types.MustFromHex("aa22" + strings.Repeat("22", 18))
	for _, id := range []types.ObjectId{second, first} {
		require.NoError(t, util.WriteFile(fs, objectPath(id), []byte("x"), 0o444))
	}

	got, err := store.Resolve(ctx, "aa11")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = store.Resolve(ctx, "aa2")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = store.Resolve(ctx, "aa")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrAmbiguousHash)

	var amb *AmbiguousError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, []types.ObjectId{first, second}, amb.Candidates)
	assert.Contains(t, err.Error(), first.String())
	assert.Contains(t, err.Error(), second.String())

	_, err = store.Resolve(ctx, "aa3")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Resolve(ctx, "bb")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResolver_IgnoresTempFiles(t *testing.T) {
	store, fs := newTestStore(t)
	ctx := context.Background()

	id, err := store.Put(ctx, core.KindBlob, []byte("only one"))
	require.NoError(t, err)
	require.NoError(t, util.WriteFile(fs, path.Join(id.PrefixDir(), "tmp_obj_123"), []byte("partial"), 0o644))
	require.NoError(t, util.WriteFile(fs, path.Join(id.PrefixDir(), id.SuffixName()[:10]), []byte("junk"), 0o644))

	got, err := store.Resolve(ctx, id.PrefixDir())
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
