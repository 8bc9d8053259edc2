package secrets

import (
	"context"

	"github.com/orgvault/orgvault/internal/server/models"
)

// ListFilter scopes listing and counting to one owner inside one
// organization.
type ListFilter struct {
	UserID string
	OrgID  string
}

// Page describes an offset-based pagination window. SortBy falls back to
// created_at when empty; the default direction is descending (newest first).
type Page struct {
	Offset    int
	Limit     int
	SortBy    string
	Ascending bool
}

// Repository is the persistence boundary for user secrets. Implementations
// store SecretData exactly as handed to them (sealed); they never see
// plaintext.
type Repository interface {
	// Create inserts a new row, leaving the legacy whole-blob cipher columns
	// empty, and returns the stored record with generated id and timestamps.
	Create(ctx context.Context, secret *models.UserSecret) (*models.UserSecret, error)

	// GetByID returns the row with the given id or common.ErrorNotFound,
	// regardless of owner. Callers that need the distinction between a
	// missing row and a foreign one (the delete cross-check) use this.
	GetByID(ctx context.Context, id string) (*models.UserSecret, error)

	// GetByIDForOwner returns the row only when id, organization and owner
	// all match; any mismatch is common.ErrorNotFound.
	GetByIDForOwner(ctx context.Context, id, orgID, userID string) (*models.UserSecret, error)

	// List returns the filtered rows inside the pagination window, sealed.
	List(ctx context.Context, filter ListFilter, page Page) ([]*models.UserSecret, error)

	// CountByOwnerAndOrg returns the total number of matching rows,
	// independent of any pagination window.
	CountByOwnerAndOrg(ctx context.Context, orgID, userID string) (int, error)

	// UpdateByID overwrites name, credential kind, secret data and metadata
	// of the row matching id, owner and org together, and returns the
	// updated record. Returns common.ErrorNotFound when no row matches.
	UpdateByID(ctx context.Context, id string, patch *models.UserSecret) (*models.UserSecret, error)

	// DeleteByID hard-deletes the row and returns it as it existed
	// immediately before deletion, or common.ErrorNotFound.
	DeleteByID(ctx context.Context, id string) (*models.UserSecret, error)
}
