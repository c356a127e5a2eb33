package core

import (
	"errors"
	"fmt"

	"gitvault/pkg/types"
)

var (
	// ErrMalformedObject means the canonical bytes are structurally broken.
	ErrMalformedObject = errors.New("malformed object")
	// ErrCorruptObject means stored bytes do not hash to their identifier.
	ErrCorruptObject = errors.New("corrupt object")
)

// ObjectKind 定义了对象类型，同时也是规范编码头部里的类型标签
type ObjectKind string

const (
	KindBlob   ObjectKind = "blob"   // 文件内容
	KindTree   ObjectKind = "tree"   // 目录
	KindCommit ObjectKind = "commit" // 版本快照
	KindTag    ObjectKind = "tag"    // 注解标签
)

func (k ObjectKind) String() string { return string(k) }

func (k ObjectKind) IsValid() bool {
	switch k {
	case KindBlob, KindTree, KindCommit, KindTag:
		return true
	default:
		return false
	}
}

// ParseKind maps a type tag to an ObjectKind.
func ParseKind(s string) (ObjectKind, error) {
	k := ObjectKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown object kind %q", s)
	}
	return k, nil
}

// Object 是一个 (kind, payload) 对，写入存储后不可变
type Object struct {
	Kind    ObjectKind
	Payload []byte
}

// ID 计算对象的标识符 (规范编码的 SHA-1)
func (o *Object) ID() types.ObjectId {
	return Hash(o.Kind, o.Payload)
}

// Bytes 返回规范编码
func (o *Object) Bytes() []byte {
	data, _ := Encode(o.Kind, o.Payload)
	return data
}

func (o *Object) Size() int { return len(o.Payload) }

func (o *Object) String() string {
	return fmt.Sprintf("%s{id: %s, size: %d bytes}", o.Kind, o.ID(), o.Size())
}
