package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cribfeed/internal/credentials"
	"github.com/dmitrijs2005/cribfeed/internal/dbx"
	"github.com/dmitrijs2005/cribfeed/internal/feed"
	"github.com/dmitrijs2005/cribfeed/internal/server/repositories/interactions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) credentials.Store
	Feed(db *sql.DB) feed.Store
	Interactions(db dbx.DBTX) interactions.Repository
}
