package rpc

import "gitvault/pkg/types"

// 字段使用短 key，和规范编码一样保证确定性

type PutRequest struct {
	Kind    string `cbor:"k"`
	Payload []byte `cbor:"p"`
}

type PutResponse struct {
	ID types.ObjectId `cbor:"id"`
}

type GetRequest struct {
	ID types.ObjectId `cbor:"id"`
}

type GetResponse struct {
	Kind    string `cbor:"k"`
	Payload []byte `cbor:"p"`
}

type ExistsRequest struct {
	ID types.ObjectId `cbor:"id"`
}

type ExistsResponse struct {
	Exists bool `cbor:"e"`
}

// ResolveRequest 的 Prefix 可以是 2..40 位短哈希，也可以是完整 ID
type ResolveRequest struct {
	Prefix string `cbor:"p"`
}

type ResolveResponse struct {
	ID types.ObjectId `cbor:"id"`
}

type StatRequest struct {
	ID types.ObjectId `cbor:"id"`
}

type StatResponse struct {
	Kind string `cbor:"k"`
	Size int64  `cbor:"s"`
}
