package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// IdSize 是 SHA-1 摘要的字节长度
	IdSize = 20
	// HexSize 是十六进制表示的长度
	HexSize = IdSize * 2
	// DirSize 是分桶目录名的长度 (aa/bbcc...)
	DirSize = 2
	// MinPrefixSize 是短哈希允许的最短长度
	MinPrefixSize = DirSize
)

// ErrInvalidIdentifier is returned for malformed hashes and hash prefixes.
var ErrInvalidIdentifier = errors.New("invalid object identifier")

// ObjectId 代表对象的唯一标识符 (SHA-1, 20 bytes)
// 这是一个“值对象”：数组类型保证 == 与 map key 都是按完整哈希比较的。
type ObjectId [IdSize]byte

// ZeroId is the null identifier.
var ZeroId ObjectId

// FromHex parses a 40-character hex string. Upper-case input is accepted
// and normalized.
func FromHex(s string) (ObjectId, error) {
	var id ObjectId
	if len(s) != HexSize {
		return id, fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidIdentifier, s, len(s), HexSize)
	}
	if !isHex(s) {
		return id, fmt.Errorf("%w: %q contains non-hex characters", ErrInvalidIdentifier, s)
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	return id, nil
}

// MustFromHex is FromHex for constants and tests.
func MustFromHex(s string) ObjectId {
	id, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FromBytes builds an ObjectId from a raw 20-byte digest.
func FromBytes(b []byte) (ObjectId, error) {
	var id ObjectId
	if len(b) != IdSize {
		return id, fmt.Errorf("%w: raw hash has %d bytes, want %d", ErrInvalidIdentifier, len(b), IdSize)
	}
	copy(id[:], b)
	return id, nil
}

func (id ObjectId) String() string { return hex.EncodeToString(id[:]) }

// Bytes 返回原始摘要的拷贝
func (id ObjectId) Bytes() []byte {
	b := make([]byte, IdSize)
	copy(b, id[:])
	return b
}

func (id ObjectId) IsZero() bool { return id == ZeroId }

func (id ObjectId) Equal(other ObjectId) bool { return id == other }

// PrefixDir 返回分桶目录名 (前 2 个字符)
func (id ObjectId) PrefixDir() string { return id.String()[:DirSize] }

// SuffixName 返回桶内文件名 (剩余 38 个字符)
func (id ObjectId) SuffixName() string { return id.String()[DirSize:] }

func (id ObjectId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ObjectId) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// HashPrefix 是经过校验的短哈希 (2..40 个小写十六进制字符)
type HashPrefix string

// ParsePrefix validates an abbreviated identifier and lowercases it.
func ParsePrefix(s string) (HashPrefix, error) {
	if len(s) < MinPrefixSize || len(s) > HexSize {
		return "", fmt.Errorf("%w: prefix %q must be between %d and %d characters", ErrInvalidIdentifier, s, MinPrefixSize, HexSize)
	}
	if !isHex(s) {
		return "", fmt.Errorf("%w: prefix %q contains non-hex characters", ErrInvalidIdentifier, s)
	}
	return HashPrefix(strings.ToLower(s)), nil
}

func (p HashPrefix) String() string { return string(p) }

// Dir 返回前缀所在的桶
func (p HashPrefix) Dir() string { return string(p[:DirSize]) }

// Rest 返回桶内文件名需要匹配的前缀部分
func (p HashPrefix) Rest() string { return string(p[DirSize:]) }

func (p HashPrefix) IsFull() bool { return len(p) == HexSize }

// Matches reports whether id starts with the prefix.
func (p HashPrefix) Matches(id ObjectId) bool {
	return strings.HasPrefix(id.String(), string(p))
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
