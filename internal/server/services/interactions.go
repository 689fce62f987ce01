// Package services contains server-side business logic. InteractionService
// decides whether an optimistic client mutation is accepted and records the
// accepted ones in the interaction ledger.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/server/repositories/repomanager"
)

type InteractionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewInteractionService(db *sql.DB, m repomanager.RepositoryManager) *InteractionService {
	return &InteractionService{db: db, repomanager: m}
}

// Record accepts in on behalf of userID. Mutations attributed to another
// account are rejected without touching the ledger.
func (s *InteractionService) Record(ctx context.Context, userID string, in ack.Interaction) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if in.ActorID != userID {
		return 0, fmt.Errorf("%w: actor %s does not match session", common.ErrRejected, in.ActorID)
	}

	id, err := s.repomanager.Interactions(s.db).Record(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("error recording interaction: %w", err)
	}
	return id, nil
}
