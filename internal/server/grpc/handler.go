package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
	"github.com/dmitrijs2005/cribfeed/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Acknowledge(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {

	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	in, err := ack.FromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	id, err := s.interactions.Record(ctx, userID, in)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrValidation):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, common.ErrRejected):
			s.logger.Warn(ctx, "Interaction rejected", "user", userID, "post", in.PostID, "kind", in.Kind)
			return nil, status.Error(codes.PermissionDenied, "rejected")
		}
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	s.logger.Debug(ctx, "Interaction recorded", "id", id, "kind", in.Kind, "post", in.PostID)
	return &emptypb.Empty{}, nil
}
