package core

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"strconv"

	"gitvault/pkg/types"
)

// 规范编码: "<kind> <size>\x00<payload>"
// 与 git loose object 的未压缩格式一致，所以 ID 与 git hash-object 相同。
// 哈希覆盖头部，因此相同字节的 blob 与 tree 不会得到相同 ID。

// Encode 生成规范编码并计算 ID
func Encode(kind ObjectKind, payload []byte) ([]byte, types.ObjectId) {
	header := kind.String() + " " + strconv.Itoa(len(payload)) + "\x00"
	data := make([]byte, 0, len(header)+len(payload))
	data = append(data, header...)
	data = append(data, payload...)
	return data, types.ObjectId(sha1.Sum(data))
}

// Hash 只计算 ID，不保留编码结果
func Hash(kind ObjectKind, payload []byte) types.ObjectId {
	h := sha1.New()
	h.Write([]byte(kind.String() + " " + strconv.Itoa(len(payload)) + "\x00"))
	h.Write(payload)

	var id types.ObjectId
	copy(id[:], h.Sum(nil))
	return id
}

// SumCanonical hashes bytes that are already in canonical form.
func SumCanonical(data []byte) types.ObjectId {
	return types.ObjectId(sha1.Sum(data))
}

// Decode 解析规范编码。payload 与输入共享底层数组。
func Decode(data []byte) (ObjectKind, []byte, error) {
	kind, size, headerLen, err := parseHeader(data)
	if err != nil {
		return "", nil, err
	}

	payload := data[headerLen:]
	if len(payload) != size {
		return "", nil, fmt.Errorf("%w: header declares %d bytes, found %d", ErrMalformedObject, size, len(payload))
	}
	return kind, payload, nil
}

// DecodeObject is Decode returning an *Object.
func DecodeObject(data []byte) (*Object, error) {
	kind, payload, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &Object{Kind: kind, Payload: payload}, nil
}

// DecodeHeader 只解析头部，用于 cat-file -t/-s
func DecodeHeader(data []byte) (ObjectKind, int, error) {
	kind, size, _, err := parseHeader(data)
	return kind, size, err
}

func parseHeader(data []byte) (ObjectKind, int, int, error) {
	nul := bytes.IndexByte(data, 0)
	if nul == -1 {
		return "", 0, 0, fmt.Errorf("%w: no null byte found", ErrMalformedObject)
	}

	header := data[:nul]
	sp := bytes.IndexByte(header, ' ')
	if sp == -1 {
		return "", 0, 0, fmt.Errorf("%w: header %q has no size field", ErrMalformedObject, header)
	}

	kind, err := ParseKind(string(header[:sp]))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}

	sizeField := header[sp+1:]
	size, err := parseSize(sizeField)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}

	return kind, size, nul + 1, nil
}

// parseSize 只接受规范的十进制：无符号、无前导零
func parseSize(field []byte) (int, error) {
	if len(field) == 0 {
		return 0, fmt.Errorf("empty size field")
	}
	if len(field) > 1 && field[0] == '0' {
		return 0, fmt.Errorf("size %q has leading zeros", field)
	}
	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("size %q is not a decimal number", field)
		}
	}
	size, err := strconv.Atoi(string(field))
	if err != nil {
		return 0, fmt.Errorf("size %q: %w", field, err)
	}
	return size, nil
}
