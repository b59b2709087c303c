package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lostfound/internal/dbx"
	"github.com/dmitrijs2005/lostfound/internal/server/repositories/listings"
	"github.com/dmitrijs2005/lostfound/internal/server/repositories/sessions"
)

// RepositoryManager vends repositories bound to a DBTX so callers can run
// several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Sessions(db dbx.DBTX) sessions.Repository
	Listings(db dbx.DBTX) listings.Repository
}
