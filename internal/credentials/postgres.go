package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/dbx"
	"github.com/dmitrijs2005/cribfeed/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresStore keeps accounts in the accounts table.
type PostgresStore struct {
	db dbx.DBTX
}

func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, email, display_name, avatar_ref, bio, role, creative_discipline,
		        followers, following, collaborations, works_published`

func (r *PostgresStore) Add(ctx context.Context, account *models.Account, passwordHash []byte) error {
	if err := account.Validate(); err != nil {
		return err
	}

	query :=
		`INSERT INTO accounts (id, email, email_key, display_name, avatar_ref, bio, role, creative_discipline,
		                       followers, following, collaborations, works_published, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 `

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, EmailKey(account.Email), account.DisplayName,
		nullString(account.AvatarRef), nullString(account.Bio), string(account.Role), nullString(account.CreativeDiscipline),
		account.Followers, account.Following, account.Collaborations, account.WorksPublished, passwordHash)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAccountExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE email_key = $1
		 `
	return r.scanAccount(r.db.QueryRowContext(ctx, query, EmailKey(email)))
}

func (r *PostgresStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE id = $1
		 `
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresStore) Verify(ctx context.Context, email, password string) (bool, error) {
	query :=
		`SELECT password_hash FROM accounts
		 WHERE email_key = $1
		 `

	var hash []byte
	err := r.db.QueryRowContext(ctx, query, EmailKey(email)).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			checkPassword(dummyHash, password)
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	return checkPassword(hash, password), nil
}

func (r *PostgresStore) scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		a                       models.Account
		role                    string
		avatar, bio, discipline sql.NullString
	)

	err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &avatar, &bio, &role, &discipline,
		&a.Followers, &a.Following, &a.Collaborations, &a.WorksPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.Role = models.Role(role)
	a.AvatarRef = fromNullString(avatar)
	a.Bio = fromNullString(bio)
	a.CreativeDiscipline = fromNullString(discipline)
	return &a, nil
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
