package treebuilder

import (
	"context"
	"fmt"
	"os"
	"path"

	"gitvault/pkg/core"
	"gitvault/pkg/ignore"
	"gitvault/pkg/odb"
	"gitvault/pkg/types"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Builder 把一个目录写成 Merkle Tree：文件 -> blob，目录 -> tree
type Builder struct {
	store   *odb.Store
	fs      billy.Filesystem
	matcher *ignore.Matcher
}

// NewBuilder 以 fs 的根作为工作目录；matcher 可以为 nil
func NewBuilder(store *odb.Store, fs billy.Filesystem, matcher *ignore.Matcher) *Builder {
	return &Builder{store: store, fs: fs, matcher: matcher}
}

// Result 汇总一次构建写入的对象数量
type Result struct {
	Root  types.ObjectId
	Blobs int
	Trees int
}

// Build 执行构建过程，返回根树的 ID
// 与 git 一致，空目录不产生条目；整个根为空时返回空树
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	res := &Result{}
	root, _, err := b.writeDir(ctx, "", res)
	if err != nil {
		return nil, err
	}
	res.Root = root
	return res, nil
}

// writeDir 自底向上：先写子节点，再写本目录的 tree
// 返回的 bool 表示目录是否含有任何条目
func (b *Builder) writeDir(ctx context.Context, dir string, res *Result) (types.ObjectId, bool, error) {
	if err := ctx.Err(); err != nil {
		return types.ZeroId, false, err
	}

	infos, err := b.fs.ReadDir(dirOrRoot(dir))
	if err != nil {
		return types.ZeroId, false, fmt.Errorf("failed to read dir %q: %w", dir, err)
	}

	var entries []core.TreeEntry
	for _, info := range infos {
		rel := path.Join(dir, info.Name())
		if b.matcher.Matches(rel) {
			continue
		}

		entry, ok, err := b.writeEntry(ctx, rel, info, res)
		if err != nil {
			return types.ZeroId, false, err
		}
		if ok {
			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 && dir != "" {
		return types.ZeroId, false, nil
	}

	tree, err := core.NewTree(entries)
	if err != nil {
		return types.ZeroId, false, fmt.Errorf("failed to create tree for %q: %w", dir, err)
	}
	id, err := b.store.PutObject(ctx, tree.Object())
	if err != nil {
		return types.ZeroId, false, fmt.Errorf("failed to store tree %q: %w", dir, err)
	}
	res.Trees++
	return id, len(entries) > 0, nil
}

func (b *Builder) writeEntry(ctx context.Context, rel string, info os.FileInfo, res *Result) (core.TreeEntry, bool, error) {
	mode := info.Mode()

	switch {
	case mode.IsDir():
		id, ok, err := b.writeDir(ctx, rel, res)
		if err != nil || !ok {
			return core.TreeEntry{}, false, err
		}
		return core.TreeEntry{Mode: core.ModeDir, Name: info.Name(), ID: id}, true, nil

	case mode&os.ModeSymlink != 0:
		// 链接本身的目标路径作为 blob 内容
		target, err := b.fs.Readlink(rel)
		if err != nil {
			return core.TreeEntry{}, false, fmt.Errorf("failed to read link %q: %w", rel, err)
		}
		id, err := b.store.Put(ctx, core.KindBlob, []byte(target))
		if err != nil {
			return core.TreeEntry{}, false, err
		}
		res.Blobs++
		return core.TreeEntry{Mode: core.ModeSymlink, Name: info.Name(), ID: id}, true, nil

	case mode.IsRegular():
		data, err := util.ReadFile(b.fs, rel)
		if err != nil {
			return core.TreeEntry{}, false, fmt.Errorf("failed to read %q: %w", rel, err)
		}
		id, err := b.store.Put(ctx, core.KindBlob, data)
		if err != nil {
			return core.TreeEntry{}, false, err
		}
		res.Blobs++

		fileMode := core.ModeFile
		if mode.Perm()&0o111 != 0 {
			fileMode = core.ModeExecutable
		}
		return core.TreeEntry{Mode: fileMode, Name: info.Name(), ID: id}, true, nil

	default:
		// socket / device 等特殊文件 git 也不跟踪
		return core.TreeEntry{}, false, nil
	}
}

func dirOrRoot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
