package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"gitvault/pkg/app"
	"gitvault/pkg/config"
	"gitvault/pkg/server"

	"github.com/spf13/viper"
)

func main() {
	// 1. Load Config
	cfgFile := flag.String("config", "", "config file (default is ./.gv/config.yaml or $HOME/.gv/config.yaml)")
	flag.Parse()

	if err := config.Load(*cfgFile); err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	logger := app.SetupLogger(viper.GetString("log.level"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Init Core Application
	application, err := app.NewApp(ctx)
	if err != nil {
		logger.Error("failed to initialize app", "err", err)
		os.Exit(1)
	}
	defer application.Close()

	// 3. Setup Network
	addr := viper.GetString("server.addr")
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen", "addr", addr, "err", err)
		os.Exit(1)
	}

	// 4. Setup gRPC Server
	// ServiceDesc 是手写的，没有 proto 描述符，不支持 gRPC reflection
	grpcServer := server.New(application)

	// 5. Start Server (Async)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", "addr", lis.Addr().String())
		errCh <- grpcServer.Serve(lis)
	}()

	// 6. Graceful Shutdown
	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
		grpcServer.GracefulStop()
	case err := <-errCh:
		if err != nil {
			logger.Error("failed to serve", "err", err)
			application.Close()
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}
