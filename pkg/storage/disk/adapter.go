package disk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gitvault/pkg/storage"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

const tempPrefix = "tmp_obj_"

// Adapter 实现了 storage.Medium 接口
// 布局: <root>/aa/bbcc... (前 2 个字符作为子目录)
type Adapter struct {
	fs billy.Filesystem
}

// NewAdapter 创建一个新的磁盘存储适配器
func NewAdapter(root string) (*Adapter, error) {
	// 确保根目录存在
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage dir: %w", err)
	}
	return NewAdapterFS(osfs.New(root)), nil
}

// NewAdapterFS wraps any billy filesystem (memfs in tests).
func NewAdapterFS(fs billy.Filesystem) *Adapter {
	return &Adapter{fs: fs}
}

func (s *Adapter) layout(key storage.Key) string {
	return s.fs.Join(key.Dir, key.Name)
}

func (s *Adapter) Write(ctx context.Context, key storage.Key, data []byte) error {
	targetPath := s.layout(key)

	// 1. 已存在则跳过 (内容寻址保证字节相同)
	if _, err := s.fs.Stat(targetPath); err == nil {
		return nil
	}

	// 2. 准备目录
	if err := s.fs.MkdirAll(key.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", key.Dir, err)
	}

	// 3. 原子写入：先写临时文件再 Rename
	// 要么文件不存在，要么文件是完整的
	tempFile, err := s.fs.TempFile(key.Dir, tempPrefix)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		s.fs.Remove(tempName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		s.fs.Remove(tempName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 4. 移动到最终位置
	if err := s.fs.Rename(tempName, targetPath); err != nil {
		s.fs.Remove(tempName)
		return fmt.Errorf("failed to publish %s: %w", key, err)
	}
	return nil
}

func (s *Adapter) Read(ctx context.Context, key storage.Key) ([]byte, error) {
	data, err := util.ReadFile(s.fs, s.layout(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *Adapter) Has(ctx context.Context, key storage.Key) (bool, error) {
	_, err := s.fs.Stat(s.layout(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *Adapter) List(ctx context.Context, dir string, namePrefix string) ([]string, error) {
	infos, err := s.fs.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket %s: %w", dir, err)
	}

	var names []string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		if strings.HasPrefix(name, namePrefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Buckets 返回所有已存在的桶目录，fsck 使用
func (s *Adapter) Buckets(ctx context.Context) ([]string, error) {
	infos, err := s.fs.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	var dirs []string
	for _, info := range infos {
		if info.IsDir() && len(info.Name()) == 2 {
			dirs = append(dirs, info.Name())
		}
	}
	return dirs, nil
}
