package permissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orgvault/orgvault/internal/dbx"
	"github.com/orgvault/orgvault/internal/server/models"
)

// PostgresChecker answers the capability check from the org_memberships
// table.
type PostgresChecker struct {
	db dbx.DBTX
}

func NewPostgresChecker(db dbx.DBTX) *PostgresChecker {
	return &PostgresChecker{db: db}
}

// GetOrgPermission denies when the target organization differs from the one
// baked into the actor's credential, and otherwise looks up the membership
// row. A missing row is a deny, not an error.
func (c *PostgresChecker) GetOrgPermission(ctx context.Context, actor *models.ActorContext) (*OrgPermission, error) {
	if actor.OrgID == "" || actor.OrgID != actor.ActorOrgID {
		return nil, nil
	}

	query := `SELECT id, role FROM org_memberships WHERE user_id = $1 AND org_id = $2`

	p := &OrgPermission{}
	err := c.db.QueryRowContext(ctx, query, actor.ID, actor.OrgID).Scan(&p.MembershipID, &p.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}
