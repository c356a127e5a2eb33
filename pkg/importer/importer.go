// Package importer 把现有 git 仓库里的全部对象导入对象库，并确认 ID 与 git 一致
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gitvault/pkg/core"
	"gitvault/pkg/odb"
	"gitvault/pkg/types"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// ErrIDMismatch 表示重新编码后的 ID 与 git 给出的 ID 不同
var ErrIDMismatch = errors.New("imported object id differs from git id")

// Stats 统计导入结果
type Stats struct {
	Objects int
	ByKind  map[core.ObjectKind]int
}

type Importer struct {
	store *odb.Store
}

func New(store *odb.Store) *Importer {
	return &Importer{store: store}
}

// ImportRepo 接受工作区目录 (含 .git) 或裸仓库目录
func (im *Importer) ImportRepo(ctx context.Context, repoPath string) (*Stats, error) {
	gitDir := repoPath
	if info, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil && info.IsDir() {
		gitDir = filepath.Join(repoPath, ".git")
	}
	if _, err := os.Stat(filepath.Join(gitDir, "objects")); err != nil {
		return nil, fmt.Errorf("%s is not a git repository: %w", repoPath, err)
	}

	st := filesystem.NewStorage(osfs.New(gitDir), cache.NewObjectLRUDefault())
	defer st.Close()

	iter, err := st.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate objects: %w", err)
	}
	defer iter.Close()

	stats := &Stats{ByKind: make(map[core.ObjectKind]int)}
	err = iter.ForEach(func(obj plumbing.EncodedObject) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		kind, err := im.importObject(ctx, obj)
		if err != nil {
			return err
		}
		stats.Objects++
		stats.ByKind[kind]++
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, err
	}

	slog.Info("git import finished", "repo", repoPath, "objects", stats.Objects)
	return stats, nil
}

func (im *Importer) importObject(ctx context.Context, obj plumbing.EncodedObject) (core.ObjectKind, error) {
	kind, err := core.ParseKind(obj.Type().String())
	if err != nil {
		return "", fmt.Errorf("object %s: %w", obj.Hash(), err)
	}

	r, err := obj.Reader()
	if err != nil {
		return "", fmt.Errorf("failed to open object %s: %w", obj.Hash(), err)
	}
	payload, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return "", fmt.Errorf("failed to read object %s: %w", obj.Hash(), err)
	}

	id, err := im.store.Put(ctx, kind, payload)
	if err != nil {
		return "", err
	}

	gitID := types.ObjectId(obj.Hash())
	if id != gitID {
		return "", fmt.Errorf("%w: git %s, stored %s", ErrIDMismatch, gitID, id)
	}
	return kind, nil
}
