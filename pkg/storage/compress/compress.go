// Package compress 提供对 storage.Medium 的透明压缩装饰器。
// 哈希永远基于未压缩的规范字节计算，介质里只存压缩后的字节。
package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"gitvault/pkg/storage"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm identifies the codec applied to bytes at rest.
type Algorithm string

const (
	None Algorithm = "none"
	// Zlib 与 git loose object 的磁盘格式一致
	Zlib Algorithm = "zlib"
	Zstd Algorithm = "zstd"
	LZ4  Algorithm = "lz4"
)

// ParseAlgorithm 解析配置项 storage.compression，空串视为 none
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", None:
		return None, nil
	case Zlib, Zstd, LZ4:
		return Algorithm(name), nil
	default:
		return "", fmt.Errorf("unknown compression algorithm: %q", name)
	}
}

// DefaultMaxSize 与 gRPC 的消息上限一致
const DefaultMaxSize int64 = 256 << 20

// ErrTooLarge 表示解压结果超过了允许的对象大小
var ErrTooLarge = errors.New("decompressed size exceeds limit")

// zstd.Encoder 的 EncodeAll 可并发使用，全局复用一份
var zstdEncoder *zstd.Encoder

// 流式解码才能限制输出大小，Decoder 按需从池里取
var zstdDecoders = sync.Pool{
	New: func() any {
		d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic("compress: zstd decoder initialization failed: " + err.Error())
		}
		return d
	},
}

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
}

// Medium 在写入前压缩、读出后解压，其余操作透传
type Medium struct {
	backend storage.Medium
	algo    Algorithm
	maxSize int64
}

// Wrap returns backend unchanged for None.
func Wrap(backend storage.Medium, algo Algorithm) storage.Medium {
	return WrapWithLimit(backend, algo, DefaultMaxSize)
}

// WrapWithLimit 同 Wrap，解压输出超过 maxSize 字节即失败；maxSize <= 0 使用 DefaultMaxSize
func WrapWithLimit(backend storage.Medium, algo Algorithm, maxSize int64) storage.Medium {
	if algo == None || algo == "" {
		return backend
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Medium{backend: backend, algo: algo, maxSize: maxSize}
}

func (m *Medium) Algorithm() Algorithm { return m.algo }

func (m *Medium) MaxSize() int64 { return m.maxSize }

func (m *Medium) Write(ctx context.Context, key storage.Key, data []byte) error {
	packed, err := Compress(m.algo, data)
	if err != nil {
		return fmt.Errorf("compress %s: %w", key, err)
	}
	return m.backend.Write(ctx, key, packed)
}

func (m *Medium) Read(ctx context.Context, key storage.Key) ([]byte, error) {
	packed, err := m.backend.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := DecompressLimit(m.algo, packed, m.maxSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s): %w", storage.ErrUndecodable, key, m.algo, err)
	}
	return data, nil
}

func (m *Medium) Has(ctx context.Context, key storage.Key) (bool, error) {
	return m.backend.Has(ctx, key)
}

func (m *Medium) List(ctx context.Context, dir string, namePrefix string) ([]string, error) {
	return m.backend.List(ctx, dir, namePrefix)
}

func (m *Medium) Unwrap() storage.Medium { return m.backend }

func (m *Medium) Close() error {
	if c, ok := m.backend.(storage.Closer); ok {
		return c.Close()
	}
	return nil
}

// Compress encodes data with algo.
func Compress(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case None, "":
		return data, nil

	case Zlib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("zlib compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("zlib compress: %w", err)
		}
		return buf.Bytes(), nil

	case Zstd:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil

	case LZ4:
		// frame 格式自带内容校验和，损坏的尾部可以被发现
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %q", algo)
	}
}

// Decompress reverses Compress, capped at DefaultMaxSize.
func Decompress(algo Algorithm, packed []byte) ([]byte, error) {
	return DecompressLimit(algo, packed, DefaultMaxSize)
}

// DecompressLimit reverses Compress and fails with ErrTooLarge once the
// output would exceed maxSize bytes.
func DecompressLimit(algo Algorithm, packed []byte, maxSize int64) ([]byte, error) {
	switch algo {
	case None, "":
		return packed, nil

	case Zlib:
		zr, err := zlib.NewReader(bytes.NewReader(packed))
		if err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
		defer zr.Close()
		data, err := readLimited(zr, maxSize)
		if err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
		return data, nil

	case Zstd:
		d := zstdDecoders.Get().(*zstd.Decoder)
		defer zstdDecoders.Put(d)
		if err := d.Reset(bytes.NewReader(packed)); err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		data, err := readLimited(d, maxSize)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return data, nil

	case LZ4:
		data, err := readLimited(lz4.NewReader(bytes.NewReader(packed)), maxSize)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %q", algo)
	}
}

// readLimited 多读一个字节来区分“刚好到上限”和“超出上限”
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxSize)
	}
	return data, nil
}
