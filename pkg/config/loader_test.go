package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	require.NoError(t, Load(""))

	assert.Equal(t, "disk", viper.GetString("storage.type"))
	assert.Equal(t, "zlib", viper.GetString("storage.compression"))
	assert.Equal(t, ":8080", viper.GetString("server.addr"))
	assert.Equal(t, 24*time.Hour, viper.GetDuration("cache.ttl"))
	assert.Equal(t, int64(256<<20), viper.GetInt64("storage.max_object_size"))
	assert.Empty(t, viper.GetString("cache.namespace"))
	assert.Equal(t, filepath.Join(RepoDir, "objects"), lastTwo(viper.GetString("storage.path")))
}

func TestLoad_ConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	content := "storage:\n  type: pebble\n  compression: zstd\nserver:\n  addr: 127.0.0.1:9999\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o644))

	require.NoError(t, Load(cfg))
	assert.Equal(t, "pebble", viper.GetString("storage.type"))
	assert.Equal(t, "zstd", viper.GetString("storage.compression"))
	assert.Equal(t, "127.0.0.1:9999", viper.GetString("server.addr"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("GV_STORAGE_TYPE", "sql")
	t.Setenv("GV_S3_BUCKET", "objects")

	require.NoError(t, Load(""))
	assert.Equal(t, "sql", viper.GetString("storage.type"))
	assert.Equal(t, "objects", viper.GetString("s3.bucket"))
}

func TestLoad_BrokenFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("storage: [unterminated"), 0o644))

	err := Load(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fatal error config file")
}

func lastTwo(p string) string {
	return filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p))
}
