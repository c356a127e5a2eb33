package core

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gitvault/pkg/types"
)

// FileMode 是 tree 条目的模式字段 (git 使用八进制字符串)
type FileMode string

const (
	ModeFile       FileMode = "100644"
	ModeExecutable FileMode = "100755"
	ModeSymlink    FileMode = "120000"
	ModeDir        FileMode = "40000"
	ModeSubmodule  FileMode = "160000"
)

func (m FileMode) IsValid() bool {
	switch m {
	case ModeFile, ModeExecutable, ModeSymlink, ModeDir, ModeSubmodule:
		return true
	default:
		return false
	}
}

func (m FileMode) IsDir() bool { return m == ModeDir }

// Kind returns the object kind the entry points at.
func (m FileMode) Kind() ObjectKind {
	switch m {
	case ModeDir:
		return KindTree
	case ModeSubmodule:
		return KindCommit
	default:
		return KindBlob
	}
}

type TreeEntry struct {
	Mode FileMode
	Name string
	ID   types.ObjectId
}

func (e TreeEntry) String() string {
	return fmt.Sprintf("%s %s %s\t%s", e.Mode, e.Mode.Kind(), e.ID, e.Name)
}

// sortKey: git 比较目录名时把它当作带尾部 "/" 的名字
func (e TreeEntry) sortKey() string {
	if e.Mode.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

// Tree 是一个已排序、已校验的目录条目列表
type Tree struct {
	Entries []TreeEntry
}

// NewTree validates and sorts the entries.
func NewTree(entries []TreeEntry) (*Tree, error) {
	seen := make(map[string]struct{}, len(entries))
	sorted := make([]TreeEntry, 0, len(entries))

	for _, e := range entries {
		if err := validateEntryName(e.Name); err != nil {
			return nil, err
		}
		if !e.Mode.IsValid() {
			return nil, fmt.Errorf("entry %q: invalid mode %q", e.Name, e.Mode)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate tree entry %q", e.Name)
		}
		seen[e.Name] = struct{}{}
		sorted = append(sorted, e)
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].sortKey() < sorted[j].sortKey()
	})
	return &Tree{Entries: sorted}, nil
}

func validateEntryName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid tree entry name %q", name)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("tree entry name %q contains '/' or NUL", name)
	}
	return nil
}

// Payload 返回 git tree 的二进制格式: "<mode> <name>\x00<20 字节 id>" 依次拼接
func (t *Tree) Payload() []byte {
	var buf bytes.Buffer
	for _, e := range t.Entries {
		buf.WriteString(string(e.Mode))
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.ID[:])
	}
	return buf.Bytes()
}

func (t *Tree) Object() *Object {
	return &Object{Kind: KindTree, Payload: t.Payload()}
}

// ParseTree decodes a tree payload.
func ParseTree(payload []byte) (*Tree, error) {
	var entries []TreeEntry
	seen := make(map[string]struct{})
	rest := payload

	for len(rest) > 0 {
		sp := bytes.IndexByte(rest, ' ')
		if sp == -1 {
			return nil, fmt.Errorf("%w: tree entry without mode separator", ErrMalformedObject)
		}
		mode := FileMode(rest[:sp])
		if !mode.IsValid() {
			return nil, fmt.Errorf("%w: tree entry mode %q", ErrMalformedObject, mode)
		}
		rest = rest[sp+1:]

		nul := bytes.IndexByte(rest, 0)
		if nul == -1 {
			return nil, fmt.Errorf("%w: tree entry without name terminator", ErrMalformedObject)
		}
		name := string(rest[:nul])
		rest = rest[nul+1:]
		if err := validateEntryName(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
		}

		if len(rest) < types.IdSize {
			return nil, fmt.Errorf("%w: tree entry %q truncated id", ErrMalformedObject, name)
		}
		id, _ := types.FromBytes(rest[:types.IdSize])
		rest = rest[types.IdSize:]

		entry := TreeEntry{Mode: mode, Name: name, ID: id}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate tree entry %q", ErrMalformedObject, name)
		}
		seen[name] = struct{}{}
		// 条目必须严格按 git 的顺序排列，否则同一目录会有多个 id
		if n := len(entries); n > 0 && entries[n-1].sortKey() >= entry.sortKey() {
			return nil, fmt.Errorf("%w: tree entry %q out of order", ErrMalformedObject, name)
		}

		entries = append(entries, entry)
	}

	return &Tree{Entries: entries}, nil
}
