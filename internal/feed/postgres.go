package feed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/dbx"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresStore keeps the feed in the posts and comments tables. Ordering
// follows the seq columns, so the newest row always sorts first.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postColumns = `id, author_id, author_display_name, author_avatar_ref, author_label, body, media_ref,
		        like_count, created_at`

// selectPosts adds the accounts holding each mark, comma-joined.
const selectPosts = `SELECT ` + postColumns + `,
		(SELECT string_agg(account_id, ',' ORDER BY account_id) FROM post_marks m
		  WHERE m.post_id = posts.id AND m.mark = 'like'),
		(SELECT string_agg(account_id, ',' ORDER BY account_id) FROM post_marks m
		  WHERE m.post_id = posts.id AND m.mark = 'save')
		 FROM posts`

const (
	markLike = "like"
	markSave = "save"
)

const commentColumns = `id, post_id, author_id, author_display_name, author_avatar_ref, body, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresStore) Insert(ctx context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`INSERT INTO posts (` + postColumns + `)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 `

		_, err := tx.ExecContext(ctx, query,
			post.ID, post.AuthorID, post.AuthorDisplayName, nullString(post.AuthorAvatarRef), post.AuthorLabel,
			post.Body, nullString(post.MediaRef), post.LikeCount, post.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return common.ErrConflict
			}
			return fmt.Errorf("db error: %w", err)
		}

		if err := syncMarks(ctx, tx, post.ID, &models.Post{}, post); err != nil {
			return err
		}
		return insertComments(ctx, tx, post.ID, post.Comments)
	})
}

func (r *PostgresStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := selectPosts + `
		 WHERE id = $1
		 `

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	post.Comments, err = loadComments(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostgresStore) All(ctx context.Context) ([]models.Post, error) {
	query := selectPosts + `
		 ORDER BY seq DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	byPost, err := r.allComments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Comments = byPost[posts[i].ID]
	}
	return posts, nil
}

func (r *PostgresStore) Update(ctx context.Context, id string, fn func(*models.Post) error) (*models.Post, error) {
	var updated *models.Post

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := selectPosts + `
			 WHERE id = $1
			 FOR UPDATE
			 `

		current, err := scanPost(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			return err
		}
		current.Comments, err = loadComments(ctx, tx, id)
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}
		next.ID = id
		if err := next.Validate(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE posts
			 SET body = $2, media_ref = $3, like_count = $4
			 WHERE id = $1
			 `,
			id, next.Body, nullString(next.MediaRef), next.LikeCount)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		if err := syncMarks(ctx, tx, id, current, next); err != nil {
			return err
		}

		if err := syncComments(ctx, tx, id, current.Comments, next.Comments); err != nil {
			return err
		}

		next.ViewerHasLiked, next.ViewerHasSaved = false, false
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PostgresStore) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresStore) allComments(ctx context.Context) (map[string][]models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments
		 ORDER BY seq DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	byPost := make(map[string][]models.Comment)
	for rows.Next() {
		postID, c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		byPost[postID] = append(byPost[postID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return byPost, nil
}

func loadComments(ctx context.Context, db dbx.DBTX, postID string) ([]models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments
		 WHERE post_id = $1
		 ORDER BY seq DESC
		 `

	rows, err := db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		_, c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return comments, nil
}

// insertComments writes comments (newest first) oldest first so that seq
// order matches slice order.
func insertComments(ctx context.Context, tx dbx.DBTX, postID string, comments []models.Comment) error {
	query :=
		`INSERT INTO comments (` + commentColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		_, err := tx.ExecContext(ctx, query,
			c.ID, postID, c.AuthorID, c.AuthorDisplayName, nullString(c.AuthorAvatarRef), c.Body, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

// syncComments deletes comments that disappeared and inserts the new ones.
// Existing comments are immutable.
func syncComments(ctx context.Context, tx dbx.DBTX, postID string, before, after []models.Comment) error {
	keep := make(map[string]struct{}, len(after))
	for _, c := range after {
		keep[c.ID] = struct{}{}
	}
	existing := make(map[string]struct{}, len(before))
	for _, c := range before {
		existing[c.ID] = struct{}{}
		if _, ok := keep[c.ID]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, c.ID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	var added []models.Comment
	for _, c := range after {
		if _, ok := existing[c.ID]; !ok {
			added = append(added, c)
		}
	}
	return insertComments(ctx, tx, postID, added)
}

// syncMarks brings the post_marks rows for postID from before to after.
func syncMarks(ctx context.Context, tx dbx.DBTX, postID string, before, after *models.Post) error {
	for _, m := range []struct {
		mark          string
		before, after []string
	}{
		{markLike, before.LikedBy, after.LikedBy},
		{markSave, before.SavedBy, after.SavedBy},
	} {
		for _, account := range m.before {
			if slices.Contains(m.after, account) {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`DELETE FROM post_marks WHERE post_id = $1 AND mark = $2 AND account_id = $3`,
				postID, m.mark, account)
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		for _, account := range m.after {
			if slices.Contains(m.before, account) {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO post_marks (post_id, mark, account_id) VALUES ($1, $2, $3)
				 ON CONFLICT DO NOTHING`,
				postID, m.mark, account)
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
	}
	return nil
}

// splitMarks returns the ids in byte order, whatever the column collation.
func splitMarks(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	ids := strings.Split(ns.String, ",")
	slices.Sort(ids)
	return ids
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p              models.Post
		avatar, media  sql.NullString
		likers, savers sql.NullString
	)

	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorDisplayName, &avatar, &p.AuthorLabel, &p.Body, &media,
		&p.LikeCount, &p.CreatedAt, &likers, &savers)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.AuthorAvatarRef = fromNullString(avatar)
	p.MediaRef = fromNullString(media)
	p.LikedBy = splitMarks(likers)
	p.SavedBy = splitMarks(savers)
	return &p, nil
}

func scanComment(row rowScanner) (string, models.Comment, error) {
	var (
		c      models.Comment
		postID string
		avatar sql.NullString
	)

	if err := row.Scan(&c.ID, &postID, &c.AuthorID, &c.AuthorDisplayName, &avatar, &c.Body, &c.CreatedAt); err != nil {
		return "", models.Comment{}, fmt.Errorf("db error: %w", err)
	}
	c.AuthorAvatarRef = fromNullString(avatar)
	return postID, c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
