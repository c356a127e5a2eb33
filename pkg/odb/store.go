// Package odb 是对象数据库：把 (kind, payload) 映射到 ObjectId，并持久化到 storage.Medium。
package odb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"
)

// Store 是对象库句柄，本身无锁：写入按内容寻址，介质保证单次写入原子
type Store struct {
	medium   storage.Medium
	resolver *Resolver
	logger   *slog.Logger
}

type Option func(*Store)

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(medium storage.Medium, opts ...Option) *Store {
	s := &Store{
		medium:   medium,
		resolver: NewResolver(medium),
		logger:   slog.Default(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Medium exposes the backing medium (fsck, Close).
func (s *Store) Medium() storage.Medium { return s.medium }

// Close 释放介质持有的连接或文件句柄
func (s *Store) Close() error {
	if c, ok := s.medium.(storage.Closer); ok {
		return c.Close()
	}
	return nil
}

// Put 编码并写入对象；已存在时直接返回相同 ID
func (s *Store) Put(ctx context.Context, kind core.ObjectKind, payload []byte) (types.ObjectId, error) {
	if !kind.IsValid() {
		return types.ZeroId, fmt.Errorf("%w: unknown kind %q", core.ErrMalformedObject, kind)
	}

	data, id := core.Encode(kind, payload)
	key := storage.KeyFor(id)

	exists, err := s.medium.Has(ctx, key)
	if err != nil {
		return types.ZeroId, fmt.Errorf("failed to check %s: %w", id, err)
	}
	if exists {
		s.logger.Debug("object already stored", "id", id.String(), "kind", kind.String())
		return id, nil
	}

	if err := s.medium.Write(ctx, key, data); err != nil {
		return types.ZeroId, fmt.Errorf("failed to write %s: %w", id, err)
	}
	return id, nil
}

// PutObject is Put for an already built object.
func (s *Store) PutObject(ctx context.Context, obj *core.Object) (types.ObjectId, error) {
	return s.Put(ctx, obj.Kind, obj.Payload)
}

// GetRaw 读取规范字节并强制校验哈希
func (s *Store) GetRaw(ctx context.Context, id types.ObjectId) ([]byte, error) {
	data, err := s.medium.Read(ctx, storage.KeyFor(id))
	if err != nil {
		if errors.Is(err, storage.ErrUndecodable) {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptObject, id, err)
		}
		return nil, fmt.Errorf("object %s: %w", id, err)
	}

	if err := core.Verify(id, data); err != nil {
		s.logger.Warn("integrity check failed", "id", id.String(), "err", err)
		return nil, err
	}
	return data, nil
}

// Get 返回解码后的对象
func (s *Store) Get(ctx context.Context, id types.ObjectId) (*core.Object, error) {
	data, err := s.GetRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	obj, err := core.DecodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	return obj, nil
}

func (s *Store) Exists(ctx context.Context, id types.ObjectId) (bool, error) {
	return s.medium.Has(ctx, storage.KeyFor(id))
}

// Stat 返回对象类型和 payload 长度 (同样经过校验)
func (s *Store) Stat(ctx context.Context, id types.ObjectId) (core.ObjectKind, int, error) {
	data, err := s.GetRaw(ctx, id)
	if err != nil {
		return "", 0, err
	}
	kind, size, err := core.DecodeHeader(data)
	if err != nil {
		return "", 0, fmt.Errorf("object %s: %w", id, err)
	}
	return kind, size, nil
}

// Resolve 接受完整 ID 或前缀
// 40 位输入只在对象存在时返回；更短的输入交给 Resolver
func (s *Store) Resolve(ctx context.Context, input string) (types.ObjectId, error) {
	if len(input) == types.HexSize {
		id, err := types.FromHex(input)
		if err != nil {
			return types.ZeroId, err
		}
		ok, err := s.Exists(ctx, id)
		if err != nil {
			return types.ZeroId, err
		}
		if !ok {
			return types.ZeroId, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		return id, nil
	}

	prefix, err := types.ParsePrefix(input)
	if err != nil {
		return types.ZeroId, err
	}
	return s.resolver.Resolve(ctx, prefix)
}
