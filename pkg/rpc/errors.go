package rpc

import (
	"context"
	"errors"
	"fmt"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatus 把领域错误翻译成 gRPC 状态码
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, types.ErrInvalidIdentifier):
		code = codes.InvalidArgument
	case errors.Is(err, storage.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, storage.ErrAmbiguousHash):
		code = codes.FailedPrecondition
	case errors.Is(err, core.ErrCorruptObject), errors.Is(err, core.ErrMalformedObject):
		code = codes.DataLoss
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

// FromStatus 是 ToStatus 的反向映射，客户端据此用 errors.Is 判断
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var sentinel error
	switch st.Code() {
	case codes.InvalidArgument:
		sentinel = types.ErrInvalidIdentifier
	case codes.NotFound:
		sentinel = storage.ErrNotFound
	case codes.FailedPrecondition:
		sentinel = storage.ErrAmbiguousHash
	case codes.DataLoss:
		sentinel = core.ErrCorruptObject
	case codes.Canceled:
		sentinel = context.Canceled
	case codes.DeadlineExceeded:
		sentinel = context.DeadlineExceeded
	default:
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
