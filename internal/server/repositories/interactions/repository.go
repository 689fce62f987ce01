package interactions

import (
	"context"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
)

// Repository is the append-only ledger of acknowledged interactions.
type Repository interface {
	Record(ctx context.Context, in ack.Interaction) (int64, error)
	CountByPost(ctx context.Context, postID string) (map[ack.Kind]int64, error)
}
