package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gitvault/pkg/storage"

	"github.com/redis/go-redis/v9"
)

// CachedMedium 是一个装饰器，为底层 storage.Medium 添加 Redis 存在性缓存
// 对象一旦发布就不会改变或删除，所以“存在”可以放心缓存
type CachedMedium struct {
	backend   storage.Medium
	client    *redis.Client
	ttl       time.Duration
	namespace string
}

type Config struct {
	RedisURL string        // redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // 过期时间
	// Namespace 标识底层介质，多个仓库共用一个 Redis 时必须互不相同
	Namespace string
}

func NewCachedMedium(backend storage.Medium, cfg Config) (*CachedMedium, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("cache namespace is required")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Fail-fast 连接检查
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newCachedMedium(backend, client, cfg.TTL, cfg.Namespace), nil
}

func newCachedMedium(backend storage.Medium, client *redis.Client, ttl time.Duration, namespace string) *CachedMedium {
	return &CachedMedium{
		backend:   backend,
		client:    client,
		ttl:       ttl,
		namespace: namespace,
	}
}

// cacheKey: gv:<namespace>:obj:<key>，某个仓库里存在不代表另一个仓库里也存在
func (s *CachedMedium) cacheKey(key storage.Key) string {
	return "gv:" + s.namespace + ":obj:" + key.String()
}

// Has 优先查 Redis
func (s *CachedMedium) Has(ctx context.Context, key storage.Key) (bool, error) {
	ck := s.cacheKey(key)

	val, err := s.client.Exists(ctx, ck).Result()
	if err != nil {
		// 缓存故障降级：退化为无缓存模式
		slog.Warn("redis exists failed, falling back to backend", "key", ck, "err", err)
	} else if val > 0 {
		return true, nil
	}

	found, err := s.backend.Has(ctx, key)
	if err != nil {
		return false, err
	}

	// 回填只针对“存在”：不存在的结果随时可能变化
	if found {
		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.client.Set(fillCtx, ck, "1", s.ttl)
		}()
	}
	return found, nil
}

// Write 写穿 (write-through)，只有底层成功才写 Redis
func (s *CachedMedium) Write(ctx context.Context, key storage.Key, data []byte) error {
	if err := s.backend.Write(ctx, key, data); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.cacheKey(key), "1", s.ttl).Err(); err != nil {
		slog.Warn("redis set failed", "key", key.String(), "err", err)
	}
	return nil
}

// Read 透传：对象内容不进 Redis，只缓存存在性
func (s *CachedMedium) Read(ctx context.Context, key storage.Key) ([]byte, error) {
	return s.backend.Read(ctx, key)
}

func (s *CachedMedium) List(ctx context.Context, dir string, namePrefix string) ([]string, error) {
	return s.backend.List(ctx, dir, namePrefix)
}

func (s *CachedMedium) Unwrap() storage.Medium { return s.backend }

func (s *CachedMedium) Close() error {
	err := s.client.Close()
	if c, ok := s.backend.(storage.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
