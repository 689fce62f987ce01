package ack

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/netx"
)

// Simulated acknowledges after one simulated round-trip. Deny, when set,
// decides which interactions the fake backend refuses.
type Simulated struct {
	Latency netx.Latency
	Deny    func(Interaction) bool
}

func (s *Simulated) Acknowledge(ctx context.Context, in Interaction) error {
	if err := s.Latency.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return common.ErrTimeout
		}
		return err
	}
	if s.Deny != nil && s.Deny(in) {
		return fmt.Errorf("%w: %s on post %s", common.ErrRejected, in.Kind, in.PostID)
	}
	return nil
}
