package pebble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gitvault/pkg/storage"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Adapter stores objects in a pebble LSM under keys "aa/bbcc...".
// 单个 Set(Sync) 是原子的，前缀迭代替代目录列举。
type Adapter struct {
	conn *pebble.DB
}

// NewAdapter opens (or creates) the database at <path>/pebble.
func NewAdapter(path string) (*Adapter, error) {
	return open(filepath.Join(path, "pebble"), &pebble.Options{})
}

// NewMemAdapter 使用内存文件系统，供测试使用
func NewMemAdapter() (*Adapter, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(dir string, opts *pebble.Options) (*Adapter, error) {
	conn, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %q: %w", dir, err)
	}
	return &Adapter{conn: conn}, nil
}

func (s *Adapter) Close() error {
	return s.conn.Close()
}

func (s *Adapter) Write(ctx context.Context, key storage.Key, data []byte) error {
	if err := s.conn.Set([]byte(key.String()), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}

func (s *Adapter) Read(ctx context.Context, key storage.Key) ([]byte, error) {
	value, closer, err := s.conn.Get([]byte(key.String()))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()

	// value 只在 closer 关闭前有效，必须拷贝
	data := make([]byte, len(value))
	copy(data, value)
	return data, nil
}

func (s *Adapter) Has(ctx context.Context, key storage.Key) (bool, error) {
	_, closer, err := s.conn.Get([]byte(key.String()))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pebble get %s: %w", key, err)
	}
	closer.Close()
	return true, nil
}

func (s *Adapter) List(ctx context.Context, dir string, namePrefix string) ([]string, error) {
	bucket := dir + "/"
	lower := []byte(bucket + namePrefix)

	iter, err := s.conn.NewIterWithContext(ctx, &pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixUpperBound(lower),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iter %s: %w", lower, err)
	}

	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, strings.TrimPrefix(string(iter.Key()), bucket))
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return nil, fmt.Errorf("pebble iter %s: %w", lower, err)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return names, nil
}

// Buckets 扫描所有 key 的前 2 个字符，每个桶只看第一个 key 然后跳到下一个桶
func (s *Adapter) Buckets(ctx context.Context) ([]string, error) {
	iter, err := s.conn.NewIterWithContext(ctx, &pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var dirs []string
	for valid := iter.First(); valid; {
		dir, _, ok := strings.Cut(string(iter.Key()), "/")
		if !ok {
			valid = iter.Next()
			continue
		}
		dirs = append(dirs, dir)
		valid = iter.SeekGE(prefixUpperBound([]byte(dir + "/")))
	}
	return dirs, iter.Error()
}

// prefixUpperBound 返回大于所有以 prefix 开头的 key 的最小值
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
