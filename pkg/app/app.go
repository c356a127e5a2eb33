// pkg/app/app.go
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gitvault/pkg/odb"
	"gitvault/pkg/storage"
	"gitvault/pkg/storage/cache"
	"gitvault/pkg/storage/compress"
	"gitvault/pkg/storage/disk"
	"gitvault/pkg/storage/pebble"
	"gitvault/pkg/storage/s3"
	"gitvault/pkg/storage/sqlstore"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
type App struct {
	Store    *odb.Store
	RepoPath string
}

// NewApp 按 Viper 配置组装对象库：介质 -> 压缩 -> Redis 缓存 -> odb.Store
func NewApp(ctx context.Context) (*App, error) {
	// 1. 仓库根路径: storage.path 的上一级，即 .gv
	storePath := viper.GetString("storage.path")
	if storePath == "" {
		return nil, fmt.Errorf("storage path not set")
	}
	repoPath := filepath.Dir(storePath)

	// 2. 底层介质
	medium, err := initStore(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// 3. 压缩只改变介质里的字节，哈希不受影响
	algo, err := compress.ParseAlgorithm(viper.GetString("storage.compression"))
	if err != nil {
		closeMedium(medium)
		return nil, err
	}
	medium = compress.WrapWithLimit(medium, algo, viper.GetInt64("storage.max_object_size"))

	// 4. 可选的存在性缓存，按介质划分命名空间
	if url := viper.GetString("cache.redis_url"); url != "" {
		ns, err := cacheNamespace(repoPath)
		if err != nil {
			closeMedium(medium)
			return nil, fmt.Errorf("failed to init cache: %w", err)
		}
		cached, err := cache.NewCachedMedium(medium, cache.Config{
			RedisURL:  url,
			TTL:       viper.GetDuration("cache.ttl"),
			Namespace: ns,
		})
		if err != nil {
			closeMedium(medium)
			return nil, fmt.Errorf("failed to init cache: %w", err)
		}
		medium = cached
	}

	slog.Debug("object store ready",
		"type", viper.GetString("storage.type"),
		"compression", string(algo),
		"repo", repoPath,
	)

	return &App{
		Store:    odb.New(medium),
		RepoPath: repoPath,
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// initStore 根据 storage.type 选择介质
func initStore(ctx context.Context, repoPath string) (storage.Medium, error) {
	storeType := viper.GetString("storage.type")

	switch storeType {
	case "disk", "":
		path := viper.GetString("storage.path")
		if path == "" {
			path = filepath.Join(repoPath, "objects")
		}
		store, err := disk.NewAdapter(path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case "s3":
		store, err := s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("s3.endpoint"),
			Region:          viper.GetString("s3.region"),
			Bucket:          viper.GetString("s3.bucket"),
			AccessKeyID:     viper.GetString("s3.access_key"),
			SecretAccessKey: viper.GetString("s3.secret_key"),
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "pebble":
		store, err := pebble.NewAdapter(repoPath)
		if err != nil {
			return nil, err
		}
		return store, nil

	case "sql":
		cfg := sqlstore.Config{
			Driver:   viper.GetString("database.driver"),
			Host:     viper.GetString("database.host"),
			Port:     viper.GetInt("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.name"),
			SSLMode:  viper.GetString("database.sslmode"),
			Path:     viper.GetString("database.path"),
		}
		if cfg.Driver == "sqlite" && cfg.Path == "" {
			cfg.Path = filepath.Join(repoPath, "objects.db")
		}
		db, err := sqlstore.NewDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return sqlstore.NewAdapter(db), nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %q", storeType)
	}
}

// cacheNamespace 优先使用 cache.namespace，否则取介质位置的摘要
// 同一个介质总是得到同一个命名空间，不同介质互不相同
func cacheNamespace(repoPath string) (string, error) {
	if ns := viper.GetString("cache.namespace"); ns != "" {
		return ns, nil
	}
	identity, err := mediumIdentity(repoPath)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:8]), nil
}

// mediumIdentity 描述 initStore 实际打开的位置，与 initStore 的取值规则保持一致
func mediumIdentity(repoPath string) (string, error) {
	storeType := viper.GetString("storage.type")

	switch storeType {
	case "disk", "":
		path := viper.GetString("storage.path")
		if path == "" {
			path = filepath.Join(repoPath, "objects")
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		return "disk|" + abs, nil

	case "s3":
		return "s3|" + viper.GetString("s3.endpoint") + "|" + viper.GetString("s3.bucket"), nil

	case "pebble":
		abs, err := filepath.Abs(repoPath)
		if err != nil {
			return "", err
		}
		return "pebble|" + abs, nil

	case "sql":
		driver := viper.GetString("database.driver")
		if driver == "sqlite" {
			path := viper.GetString("database.path")
			if path == "" {
				path = filepath.Join(repoPath, "objects.db")
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return "", err
			}
			return "sql|sqlite|" + abs, nil
		}
		return fmt.Sprintf("sql|%s|%s:%d/%s", driver,
			viper.GetString("database.host"),
			viper.GetInt("database.port"),
			viper.GetString("database.name"),
		), nil

	default:
		return "", fmt.Errorf("unsupported storage type: %q", storeType)
	}
}

func closeMedium(m storage.Medium) {
	if c, ok := m.(storage.Closer); ok {
		c.Close()
	}
}

// SetupLogger 安装全局 slog：文本格式写 stderr，stdout 留给命令输出
func SetupLogger(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
	slog.SetDefault(logger)
	return logger
}
