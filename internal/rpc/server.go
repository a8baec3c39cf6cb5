package rpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/orchestrator"
	"github.com/containerd/errdefs/pkg/errgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler runs one chat request through the pipeline.
type Handler interface {
	Handle(ctx context.Context, req orchestrator.Request) (orchestrator.Reply, error)
}

// Server serves ChatService and the standard health service.
type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	handler Handler
	logger  *slog.Logger
}

// NewServer creates a gRPC server around the given handler.
func NewServer(handler Handler, logger *slog.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(loggingInterceptor(logger)),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             time.Minute,
			PermitWithoutStream: false,
		}),
	}, opts...)

	s := &Server{
		grpc:    grpc.NewServer(opts...),
		health:  health.NewServer(),
		handler: handler,
		logger:  logger,
	}
	s.grpc.RegisterService(&ChatServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve accepts connections on lis until Stop or GracefulStop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", "address", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// GracefulStop marks the services as not serving and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// Interactive implements ChatServer.
func (s *Server) Interactive(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := RequestFromStruct(in)
	reply, err := s.handler.Handle(ctx, req)
	if err != nil {
		return nil, errgrpc.ToGRPC(err)
	}
	out, err := ReplyToStruct(req.Prompt, reply)
	if err != nil {
		return nil, errgrpc.ToGRPC(err)
	}
	return out, nil
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if info.FullMethod == healthpb.Health_Check_FullMethodName {
			return resp, err
		}
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "gRPC call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

var _ ChatServer = (*Server)(nil)
