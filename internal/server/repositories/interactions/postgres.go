package interactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cribfeed/internal/ack"
	"github.com/dmitrijs2005/cribfeed/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, in ack.Interaction) (int64, error) {
	query :=
		`INSERT INTO interactions (kind, post_id, actor_id, comment_id, body, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		string(in.Kind), in.PostID, in.ActorID, optional(in.CommentID), optional(in.Body), in.At).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

func (r *PostgresRepository) CountByPost(ctx context.Context, postID string) (map[ack.Kind]int64, error) {
	query :=
		`SELECT kind, COUNT(*) FROM interactions
		 WHERE post_id = $1
		 GROUP BY kind
		 `

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	counts := make(map[ack.Kind]int64)
	for rows.Next() {
		var (
			kind string
			n    int64
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		counts[ack.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return counts, nil
}

func optional(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
