package client

import (
	"context"
	"fmt"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/rpc"
	"gitvault/pkg/types"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// GVClient 封装了与 gitvault 服务端的连接
// 所有方法返回的错误都已映射回领域哨兵错误，可以直接 errors.Is
type GVClient struct {
	conn *grpc.ClientConn
	rpc  *rpc.ObjectServiceClient
}

// NewGVClient 创建客户端；连接在后台建立，网络不通不会在这里报错
func NewGVClient(addr string, extra ...grpc.DialOption) (*GVClient, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(rpc.CodecName),
			grpc.MaxCallRecvMsgSize(256*1024*1024),
			grpc.MaxCallSendMsgSize(256*1024*1024),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", addr, err)
	}

	return &GVClient{
		conn: conn,
		rpc:  rpc.NewObjectServiceClient(conn),
	}, nil
}

func (c *GVClient) Put(ctx context.Context, kind core.ObjectKind, payload []byte) (types.ObjectId, error) {
	if !kind.IsValid() {
		return types.ZeroId, fmt.Errorf("%w: unknown kind %q", core.ErrMalformedObject, kind)
	}
	resp, err := c.rpc.Put(ctx, &rpc.PutRequest{Kind: kind.String(), Payload: payload})
	if err != nil {
		return types.ZeroId, rpc.FromStatus(err)
	}
	return resp.ID, nil
}

// Get 在客户端再校验一次：服务端和网络都不被信任
func (c *GVClient) Get(ctx context.Context, id types.ObjectId) (*core.Object, error) {
	resp, err := c.rpc.Get(ctx, &rpc.GetRequest{ID: id})
	if err != nil {
		return nil, rpc.FromStatus(err)
	}

	kind, err := core.ParseKind(resp.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: server returned %v", core.ErrMalformedObject, err)
	}
	obj := &core.Object{Kind: kind, Payload: resp.Payload}
	if got := obj.ID(); got != id {
		return nil, fmt.Errorf("%w: expected %s, got %s", core.ErrCorruptObject, id, got)
	}
	return obj, nil
}

func (c *GVClient) Exists(ctx context.Context, id types.ObjectId) (bool, error) {
	resp, err := c.rpc.Exists(ctx, &rpc.ExistsRequest{ID: id})
	if err != nil {
		return false, rpc.FromStatus(err)
	}
	return resp.Exists, nil
}

func (c *GVClient) Resolve(ctx context.Context, prefix string) (types.ObjectId, error) {
	resp, err := c.rpc.Resolve(ctx, &rpc.ResolveRequest{Prefix: prefix})
	if err != nil {
		return types.ZeroId, rpc.FromStatus(err)
	}
	return resp.ID, nil
}

func (c *GVClient) Stat(ctx context.Context, id types.ObjectId) (core.ObjectKind, int64, error) {
	resp, err := c.rpc.Stat(ctx, &rpc.StatRequest{ID: id})
	if err != nil {
		return "", 0, rpc.FromStatus(err)
	}
	kind, err := core.ParseKind(resp.Kind)
	if err != nil {
		return "", 0, fmt.Errorf("%w: server returned %v", core.ErrMalformedObject, err)
	}
	return kind, resp.Size, nil
}

// Close 关闭底层连接
func (c *GVClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
