// Package repomanager vends PostgreSQL-backed stores shared by the client's
// postgres backend and the acknowledgement server, and applies the embedded
// goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cribfeed/internal/credentials"
	"github.com/dmitrijs2005/cribfeed/internal/dbx"
	"github.com/dmitrijs2005/cribfeed/internal/feed"
	"github.com/dmitrijs2005/cribfeed/internal/migrations"
	"github.com/dmitrijs2005/cribfeed/internal/server/repositories/interactions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

// Accounts returns a credentials.Store bound to the provided DBTX.
func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) credentials.Store {
	return credentials.NewPostgresStore(db)
}

// Feed needs the pool itself since updates run in their own transaction.
func (m *PostgresRepositoryManager) Feed(db *sql.DB) feed.Store {
	return feed.NewPostgresStore(db)
}

func (m *PostgresRepositoryManager) Interactions(db dbx.DBTX) interactions.Repository {
	return interactions.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

// Open connects to dsn through the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}
