package credentials

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/dmitrijs2005/cribfeed/internal/netx"
)

type latencyStore struct {
	next    Store
	latency netx.Latency
}

// WithLatency wraps next so every call first waits one simulated
// round-trip. A deadline hit while waiting is reported as common.ErrTimeout.
func WithLatency(next Store, latency netx.Latency) Store {
	return &latencyStore{next: next, latency: latency}
}

func (s *latencyStore) wait(ctx context.Context) error {
	if err := s.latency.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return common.ErrTimeout
		}
		return err
	}
	return nil
}

func (s *latencyStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.next.FindByEmail(ctx, email)
}

func (s *latencyStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.next.FindByID(ctx, id)
}

func (s *latencyStore) Add(ctx context.Context, account *models.Account, passwordHash []byte) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.next.Add(ctx, account, passwordHash)
}

func (s *latencyStore) Verify(ctx context.Context, email, password string) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	return s.next.Verify(ctx, email, password)
}
