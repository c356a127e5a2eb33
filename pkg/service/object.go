package service

import (
	"context"
	"log/slog"

	"gitvault/pkg/app"
	"gitvault/pkg/core"
	"gitvault/pkg/rpc"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ObjectService 把 odb.Store 暴露成 gitvault.v1.ObjectService
type ObjectService struct {
	app *app.App
}

var _ rpc.ObjectServiceServer = (*ObjectService)(nil)

func NewObjectService(application *app.App) *ObjectService {
	return &ObjectService{app: application}
}

// Put 存储一个对象并返回它的 ID
func (s *ObjectService) Put(ctx context.Context, req *rpc.PutRequest) (*rpc.PutResponse, error) {
	// 1. 校验请求
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	// 2. 持久化
	id, err := s.app.Store.Put(ctx, kind, req.Payload)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}

	slog.Debug("object stored", "id", id.String(), "kind", req.Kind, "size", len(req.Payload))
	return &rpc.PutResponse{ID: id}, nil
}

func (s *ObjectService) Get(ctx context.Context, req *rpc.GetRequest) (*rpc.GetResponse, error) {
	if req.ID.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	obj, err := s.app.Store.Get(ctx, req.ID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.GetResponse{Kind: obj.Kind.String(), Payload: obj.Payload}, nil
}

func (s *ObjectService) Exists(ctx context.Context, req *rpc.ExistsRequest) (*rpc.ExistsResponse, error) {
	ok, err := s.app.Store.Exists(ctx, req.ID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.ExistsResponse{Exists: ok}, nil
}

func (s *ObjectService) Resolve(ctx context.Context, req *rpc.ResolveRequest) (*rpc.ResolveResponse, error) {
	id, err := s.app.Store.Resolve(ctx, req.Prefix)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.ResolveResponse{ID: id}, nil
}

func (s *ObjectService) Stat(ctx context.Context, req *rpc.StatRequest) (*rpc.StatResponse, error) {
	if req.ID.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	kind, size, err := s.app.Store.Stat(ctx, req.ID)
	if err != nil {
		return nil, rpc.ToStatus(err)
	}
	return &rpc.StatResponse{Kind: kind.String(), Size: int64(size)}, nil
}
