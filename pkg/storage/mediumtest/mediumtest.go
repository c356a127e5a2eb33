// Package mediumtest is a conformance suite shared by every storage.Medium implementation.
package mediumtest

import (
	"context"
	"strings"
	"testing"

	"gitvault/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Key builds a key from a 40-character hex string.
func Key(hex string) storage.Key {
	return storage.Key{Dir: hex[:2], Name: hex[2:]}
}

var (
	keyA = Key("aa11" + strings.Repeat("0", 36))
	keyB = Key("aa22" + strings.Repeat("0", 36))
	keyC = Key("bb33" + strings.Repeat("0", 36))
)

// Run 对 newMedium 返回的全新介质执行全部用例
func Run(t *testing.T, newMedium func(t *testing.T) storage.Medium) {
	t.Run("WriteReadHas", func(t *testing.T) {
		m := newMedium(t)
		ctx := context.Background()

		require.NoError(t, m.Write(ctx, keyA, []byte("payload A")))

		ok, err := m.Has(ctx, keyA)
		require.NoError(t, err)
		assert.True(t, ok)

		data, err := m.Read(ctx, keyA)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload A"), data)
	})

	t.Run("Missing", func(t *testing.T) {
		m := newMedium(t)
		ctx := context.Background()

		ok, err := m.Has(ctx, keyB)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = m.Read(ctx, keyB)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("RewriteSameKey", func(t *testing.T) {
		m := newMedium(t)
		ctx := context.Background()

		require.NoError(t, m.Write(ctx, keyA, []byte("same")))
		require.NoError(t, m.Write(ctx, keyA, []byte("same")))

		data, err := m.Read(ctx, keyA)
		require.NoError(t, err)
		assert.Equal(t, []byte("same"), data)

		names, err := m.List(ctx, keyA.Dir, "")
		require.NoError(t, err)
		assert.Equal(t, []string{keyA.Name}, names)
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		m := newMedium(t)
		ctx := context.Background()

		require.NoError(t, m.Write(ctx, keyC, []byte{}))
		data, err := m.Read(ctx, keyC)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("List", func(t *testing.T) {
		m := newMedium(t)
		ctx := context.Background()

		names, err := m.List(ctx, "aa", "")
		require.NoError(t, err)
		assert.Empty(t, names, "unknown bucket lists as empty")

		for _, k := range []storage.Key{keyA, keyB, keyC} {
			require.NoError(t, m.Write(ctx, k, []byte(k.String())))
		}

		names, err = m.List(ctx, "aa", "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{keyA.Name, keyB.Name}, names)

		names, err = m.List(ctx, "aa", "11")
		require.NoError(t, err)
		assert.Equal(t, []string{keyA.Name}, names)

		names, err = m.List(ctx, "bb", "")
		require.NoError(t, err)
		assert.Equal(t, []string{keyC.Name}, names)

		names, err = m.List(ctx, "aa", "99")
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}
