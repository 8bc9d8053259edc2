package repomanager

import (
	"context"
	"database/sql"

	"github.com/orgvault/orgvault/internal/dbx"
	"github.com/orgvault/orgvault/internal/server/permissions"
	"github.com/orgvault/orgvault/internal/server/repositories/secrets"
)

// RepositoryManager vends storage-backed collaborators bound to a DBTX, so
// services can run several repository calls inside one transaction.
type RepositoryManager interface {
	Secrets(db dbx.DBTX) secrets.Repository
	Permissions(db dbx.DBTX) permissions.Checker
	RunMigrations(ctx context.Context, db *sql.DB) error
}
