package server

import (
	"time"

	"gitvault/pkg/app"
	"gitvault/pkg/rpc"
	"gitvault/pkg/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// 单条消息上限，对象整块传输
const maxMsgSize = 256 * 1024 * 1024

// New 构建带拦截器的 gRPC 服务器并注册 ObjectService
// Logging 在外层，能记录到 Recovery 把 panic 转换成的 Internal
func New(application *app.App, extra ...grpc.ServerOption) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			UnaryLoggingInterceptor,
			UnaryRecoveryInterceptor,
		),
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, extra...)

	srv := grpc.NewServer(opts...)
	rpc.RegisterObjectServiceServer(srv, service.NewObjectService(application))
	return srv
}
