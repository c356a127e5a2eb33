package disk

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gitvault/pkg/storage"
	"gitvault/pkg/storage/mediumtest"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskAdapter_Conformance(t *testing.T) {
	t.Run("osfs", func(t *testing.T) {
		mediumtest.Run(t, func(t *testing.T) storage.Medium {
			store, err := NewAdapter(t.TempDir())
			require.NoError(t, err)
			return store
		})
	})

	t.Run("memfs", func(t *testing.T) {
		mediumtest.Run(t, func(t *testing.T) storage.Medium {
			return NewAdapterFS(memfs.New())
		})
	})
}

func TestDiskAdapter_Layout(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewAdapter(tmpDir)
	require.NoError(t, err)

	key := mediumtest.Key("2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c")
	require.NoError(t, store.Write(context.Background(), key, []byte("hello world")))

	// 路径应该是 tmpDir/2c/f24dba...
	expectedPath := filepath.Join(tmpDir, "2c", "f24dba5fb0a30e26e83b2ac5b9e29e1b161e5c")
	data, err := os.ReadFile(expectedPath)
	require.NoError(t, err, "file should exist in the sharded directory")
	assert.Equal(t, []byte("hello world"), data)

	// 不应残留临时文件
	entries, err := os.ReadDir(filepath.Join(tmpDir, "2c"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDiskAdapter_ListSkipsTempFiles(t *testing.T) {
	fs := memfs.New()
	store := NewAdapterFS(fs)
	ctx := context.Background()

	key := mediumtest.Key("aa" + strings.Repeat("1", 38))
	require.NoError(t, store.Write(ctx, key, []byte("x")))

	// 模拟一个崩溃的写入者留下的临时文件
	f, err := fs.TempFile("aa", tempPrefix)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	names, err := store.List(ctx, "aa", "")
	require.NoError(t, err)
	assert.Equal(t, []string{key.Name}, names)
}

func TestDiskAdapter_ConcurrentWritersConverge(t *testing.T) {
	store, err := NewAdapter(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := mediumtest.Key("cc" + strings.Repeat("d", 38))
	payload := []byte(strings.Repeat("same content ", 1024))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Write(ctx, key, payload)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	data, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	names, err := store.List(ctx, "cc", "")
	require.NoError(t, err)
	assert.Equal(t, []string{key.Name}, names)
}

func TestDiskAdapter_Buckets(t *testing.T) {
	store := NewAdapterFS(memfs.New())
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, mediumtest.Key("aa"+strings.Repeat("0", 38)), []byte("a")))
	require.NoError(t, store.Write(ctx, mediumtest.Key("0f"+strings.Repeat("0", 38)), []byte("b")))

	buckets, err := store.Buckets(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aa", "0f"}, buckets)
}
