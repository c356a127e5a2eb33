package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, "cbor", c.Name())
}

func TestCodec_ObjectIdAsText(t *testing.T) {
	id := types.MustFromHex("3b18e512dba79e4c8300dd08aeb37f8e728b8dad")
	data, err := codec{}.Marshal(&PutResponse{ID: id})
	require.NoError(t, err)

	// 线上是 {"id": "<hex>"}，方便其他语言的客户端
	var generic map[string]string
	require.NoError(t, cbor.Unmarshal(data, &generic))
	assert.Equal(t, id.String(), generic["id"])

	var back PutResponse
	require.NoError(t, codec{}.Unmarshal(data, &back))
	assert.Equal(t, id, back.ID)
}

func TestCodec_Deterministic(t *testing.T) {
	req := &PutRequest{Kind: "blob", Payload: []byte("abc")}
	a, err := codec{}.Marshal(req)
	require.NoError(t, err)
	b, err := codec{}.Marshal(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCodec_RejectsGarbage(t *testing.T) {
	var out GetRequest
	assert.Error(t, codec{}.Unmarshal([]byte{0xff, 0x00}, &out))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     codes.Code
		sentinel error
	}{
		{"invalid", fmt.Errorf("parse: %w", types.ErrInvalidIdentifier), codes.InvalidArgument, types.ErrInvalidIdentifier},
		{"not found", fmt.Errorf("object x: %w", storage.ErrNotFound), codes.NotFound, storage.ErrNotFound},
		{"ambiguous", fmt.Errorf("%w: aa", storage.ErrAmbiguousHash), codes.FailedPrecondition, storage.ErrAmbiguousHash},
		{"corrupt", core.ErrCorruptObject, codes.DataLoss, core.ErrCorruptObject},
		{"malformed", core.ErrMalformedObject, codes.DataLoss, core.ErrCorruptObject},
		{"canceled", context.Canceled, codes.Canceled, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ToStatus(tt.err)
			assert.Equal(t, tt.code, status.Code(st))
			assert.ErrorIs(t, FromStatus(st), tt.sentinel)
		})
	}

	t.Run("internal", func(t *testing.T) {
		st := ToStatus(errors.New("disk on fire"))
		assert.Equal(t, codes.Internal, status.Code(st))
		back := FromStatus(st)
		assert.Equal(t, codes.Internal, status.Code(back))
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, ToStatus(nil))
		assert.NoError(t, FromStatus(nil))
	})
}
