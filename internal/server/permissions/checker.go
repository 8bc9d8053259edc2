// Package permissions implements the organization-permission boundary: a
// single capability check answering whether an actor may operate inside an
// organization.
package permissions

import (
	"context"

	"github.com/orgvault/orgvault/internal/server/models"
)

// OrgPermission describes the membership the actor holds in the target
// organization.
type OrgPermission struct {
	MembershipID string
	Role         string
}

// Checker resolves the actor's permission in its target organization.
// A nil permission (with nil error) always means "deny".
type Checker interface {
	GetOrgPermission(ctx context.Context, actor *models.ActorContext) (*OrgPermission, error)
}
