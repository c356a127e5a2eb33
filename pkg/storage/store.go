package storage

import (
	"context"
	"errors"
	"fmt"

	"gitvault/pkg/types"
)

var (
	ErrNotFound      = errors.New("object not found")
	ErrAmbiguousHash = errors.New("ambiguous hash prefix")
	// ErrUndecodable 表示介质里的字节无法还原 (例如解压失败)
	ErrUndecodable = errors.New("stored bytes cannot be decoded")
)

// Key 是两级布局中的位置: Dir = 前 2 个字符, Name = 剩余 38 个字符
type Key struct {
	Dir  string
	Name string
}

// KeyFor derives the storage key of an identifier.
func KeyFor(id types.ObjectId) Key {
	return Key{Dir: id.PrefixDir(), Name: id.SuffixName()}
}

// String 返回 "aa/bbcc..." 形式，S3 / Pebble / Redis 直接用它做 key
func (k Key) String() string {
	return k.Dir + "/" + k.Name
}

// ID 还原标识符；对临时文件等非法名字返回错误
func (k Key) ID() (types.ObjectId, error) {
	return types.FromHex(k.Dir + k.Name)
}

// Medium defines the interface for a backing medium.
// Implementations can be local disk, object storage, an embedded KV store or SQL.
type Medium interface {
	// Write 原子地发布 data：读者要么看不到，要么看到完整字节
	Write(ctx context.Context, key Key, data []byte) error

	// Read 返回 key 下的完整字节，不存在时返回 ErrNotFound
	Read(ctx context.Context, key Key) ([]byte, error)

	// Has 检查是否存在，不读取内容
	Has(ctx context.Context, key Key) (bool, error)

	// List 返回 dir 桶中以 namePrefix 开头的名字 (namePrefix 可为空)
	// 桶不存在时返回空列表而不是错误
	List(ctx context.Context, dir string, namePrefix string) ([]string, error)
}

// Closer is implemented by media that hold connections or file handles.
type Closer interface {
	Close() error
}

// BucketLister is implemented by media that can enumerate their non-empty buckets cheaply.
// Callers fall back to scanning all 256 buckets otherwise.
type BucketLister interface {
	Buckets(ctx context.Context) ([]string, error)
}

// Unwrapper is implemented by decorators (cache, compression) around another medium.
type Unwrapper interface {
	Unwrap() Medium
}

// ListBuckets returns the buckets worth scanning: the innermost BucketLister's answer,
// or all 256 possible buckets when no medium in the chain can enumerate them.
func ListBuckets(ctx context.Context, m Medium) ([]string, error) {
	for {
		if bl, ok := m.(BucketLister); ok {
			return bl.Buckets(ctx)
		}
		u, ok := m.(Unwrapper)
		if !ok {
			break
		}
		m = u.Unwrap()
	}

	dirs := make([]string, 0, 256)
	for i := 0; i < 256; i++ {
		dirs = append(dirs, fmt.Sprintf("%02x", i))
	}
	return dirs, nil
}
