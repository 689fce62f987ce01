package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
	"github.com/dmitrijs2005/cribfeed/internal/logging"
	"google.golang.org/grpc"
)

// InteractionRecorder accepts or rejects a mutation on behalf of a user.
type InteractionRecorder interface {
	Record(ctx context.Context, userID string, in ack.Interaction) (int64, error)
}

type GRPCServer struct {
	address      string
	interactions InteractionRecorder
	logger       logging.Logger
	jwtSecret    []byte
}

func NewGRPCServer(a string, l logging.Logger, ir InteractionRecorder, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:      a,
		logger:       l.With("module", "grpc_server"),
		interactions: ir,
		jwtSecret:    []byte(secretKey),
	}
}

// newServer builds the grpc.Server with the auth interceptor and the
// acknowledgement service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	ack.RegisterAckServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
