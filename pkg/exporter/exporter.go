// Package exporter 是 treebuilder 的逆过程：把对象库里的 blob / tree 还原成文件
package exporter

import (
	"context"
	"fmt"
	"io"
	"os"

	"gitvault/pkg/core"
	"gitvault/pkg/odb"
	"gitvault/pkg/types"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

type Exporter struct {
	store *odb.Store
}

func NewExporter(store *odb.Store) *Exporter {
	return &Exporter{store: store}
}

// ExportBlob 把 blob 的内容写入 writer；读取时已经校验过哈希
func (e *Exporter) ExportBlob(ctx context.Context, id types.ObjectId, writer io.Writer) error {
	obj, err := e.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get blob %s: %w", id, err)
	}
	if obj.Kind != core.KindBlob {
		return fmt.Errorf("object %s is a %s, not a blob", id, obj.Kind)
	}
	if _, err := writer.Write(obj.Payload); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", id, err)
	}
	return nil
}

// RestoreCallback 每还原一个非目录条目调用一次
type RestoreCallback func(path string, entry core.TreeEntry)

// RestoreTree 递归地将 tree 还原到 fs 的 dir 下
// 文件覆盖写入；submodule 只创建空目录 (与 git 未初始化子模块时一致)
func (e *Exporter) RestoreTree(ctx context.Context, treeID types.ObjectId, fs billy.Filesystem, dir string, onRestore RestoreCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// 1. 获取 Tree 对象
	obj, err := e.store.Get(ctx, treeID)
	if err != nil {
		return fmt.Errorf("failed to get tree %s: %w", treeID, err)
	}
	if obj.Kind != core.KindTree {
		return fmt.Errorf("object %s is a %s, not a tree", treeID, obj.Kind)
	}
	tree, err := core.ParseTree(obj.Payload)
	if err != nil {
		return fmt.Errorf("failed to decode tree %s: %w", treeID, err)
	}

	if err := fs.MkdirAll(dirOrRoot(dir), 0o755); err != nil {
		return fmt.Errorf("failed to create dir %q: %w", dir, err)
	}

	// 2. 遍历 Tree Entries
	for _, entry := range tree.Entries {
		fullPath := fs.Join(dir, entry.Name)

		switch entry.Mode {
		case core.ModeDir:
			if err := e.RestoreTree(ctx, entry.ID, fs, fullPath, onRestore); err != nil {
				return err
			}
			continue

		case core.ModeSubmodule:
			if err := fs.MkdirAll(fullPath, 0o755); err != nil {
				return fmt.Errorf("failed to create submodule dir %q: %w", fullPath, err)
			}

		case core.ModeSymlink:
			target, err := e.readBlob(ctx, entry.ID)
			if err != nil {
				return err
			}
			if err := removeExisting(fs, fullPath); err != nil {
				return err
			}
			if err := fs.Symlink(string(target), fullPath); err != nil {
				return fmt.Errorf("failed to create link %q: %w", fullPath, err)
			}

		default:
			data, err := e.readBlob(ctx, entry.ID)
			if err != nil {
				return err
			}
			perm := os.FileMode(0o644)
			if entry.Mode == core.ModeExecutable {
				perm = 0o755
			}
			// OpenFile 的 perm 只在创建时生效，先删掉旧文件
			if err := removeExisting(fs, fullPath); err != nil {
				return err
			}
			if err := util.WriteFile(fs, fullPath, data, perm); err != nil {
				return fmt.Errorf("failed to write file %q: %w", fullPath, err)
			}
		}

		// 触发回调
		if onRestore != nil {
			onRestore(fullPath, entry)
		}
	}

	return nil
}

func (e *Exporter) readBlob(ctx context.Context, id types.ObjectId) ([]byte, error) {
	obj, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s: %w", id, err)
	}
	if obj.Kind != core.KindBlob {
		return nil, fmt.Errorf("object %s is a %s, not a blob", id, obj.Kind)
	}
	return obj.Payload, nil
}

func removeExisting(fs billy.Filesystem, path string) error {
	if _, err := fs.Lstat(path); err != nil {
		return nil
	}
	if err := fs.Remove(path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}
	return nil
}

func dirOrRoot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
