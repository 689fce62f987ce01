package ack

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

var ErrUnavailable = errors.New("acknowledgement service unavailable")

// GRPCClient acknowledges interactions against a remote AckService.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	token       func() string
}

// NewGRPCClient dials endpointURL lazily. token supplies the session token
// sent with every call.
func NewGRPCClient(endpointURL string, token func() string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, token: token}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.token != nil {
		if t := c.token(); t != "" {
			ctx = withAccessToken(ctx, t)
		}
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) Acknowledge(ctx context.Context, in Interaction) error {
	req, err := in.ToStruct()
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}

	if err := c.conn.Invoke(ctx, AcknowledgeFullName, req, new(emptypb.Empty)); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return common.ErrTimeout
		}
		return fmt.Errorf("rpc error: %w", err)
	}

	switch st.Code() {
	case codes.DeadlineExceeded:
		return common.ErrTimeout
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %w", common.ErrRejected, common.ErrAuthentication)
	case codes.PermissionDenied, codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrRejected, st.Message())
	case codes.Unavailable:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
