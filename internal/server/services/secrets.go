// Package services contains the orchestration layer. SecretService is the
// only component that sees plaintext secret values: it checks permissions,
// seals fields on write, opens them on single-record reads, and delegates
// persistence to the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/dbx"
	"github.com/orgvault/orgvault/internal/logging"
	"github.com/orgvault/orgvault/internal/server/crypt"
	"github.com/orgvault/orgvault/internal/server/kms"
	"github.com/orgvault/orgvault/internal/server/models"
	"github.com/orgvault/orgvault/internal/server/repositories/repomanager"
	"github.com/orgvault/orgvault/internal/server/repositories/secrets"
	"github.com/orgvault/orgvault/internal/server/schema"
)

const (
	// MaxListLimit bounds one listing window; DefaultListLimit is applied by
	// the transport when the caller omits the parameter.
	MaxListLimit     = 100
	DefaultListLimit = 25
)

type SecretService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cipher      kms.RootKeyCipher
	logger      logging.Logger
}

func NewSecretService(db *sql.DB, rm repomanager.RepositoryManager, cipher kms.RootKeyCipher, logger logging.Logger) *SecretService {
	return &SecretService{
		db:          db,
		repomanager: rm,
		cipher:      cipher,
		logger:      logger.With("module", "secret_service"),
	}
}

// CreateSecretInput carries one create request. SecretData is plaintext and
// must never be persisted or logged as-is.
type CreateSecretInput struct {
	Actor          models.ActorContext
	Name           string
	CredentialKind models.CredentialKind
	SecretData     map[string]string
	Metadata       map[string]string
}

// UpdateSecretInput replaces name, kind, fields and metadata together;
// partial field updates are not supported.
type UpdateSecretInput struct {
	Actor          models.ActorContext
	SecretID       string
	Name           string
	CredentialKind models.CredentialKind
	SecretData     map[string]string
	Metadata       map[string]string
}

// ListSecretsInput paginates one owner's secrets inside the actor's
// organization.
type ListSecretsInput struct {
	Actor  models.ActorContext
	Offset int
	Limit  int
}

// ListSecretsResult returns sealed records only; listing never decrypts.
type ListSecretsResult struct {
	Secrets    []*models.UserSecret
	TotalCount int
}

// checkOrgAccess fails with ErrorForbidden unless the actor carries an
// organization scope and holds a membership permission in it.
func (s *SecretService) checkOrgAccess(ctx context.Context, actor models.ActorContext) error {
	if actor.OrgID == "" {
		return fmt.Errorf("%w: missing organization scope", common.ErrorForbidden)
	}

	permission, err := s.repomanager.Permissions(s.db).GetOrgPermission(ctx, &actor)
	if err != nil {
		return fmt.Errorf("permission check error: %w", err)
	}
	if permission == nil {
		return fmt.Errorf("%w: user is not a part of the specified organization", common.ErrorForbidden)
	}
	return nil
}

// prepareFields filters the submitted plaintext down to the keys the kind
// declares, validates the survivors, and seals them.
func (s *SecretService) prepareFields(kind models.CredentialKind, plain map[string]string) (map[string]string, error) {
	filtered, err := schema.FilterFields(kind, plain)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateFields(kind, filtered); err != nil {
		return nil, err
	}
	return crypt.SealFields(s.cipher, filtered)
}

// Create seals the submitted fields and persists a new secret owned by the
// actor. Only the generated id is returned; neither plaintext nor ciphertext
// is echoed back.
func (s *SecretService) Create(ctx context.Context, in CreateSecretInput) (string, error) {
	if err := s.checkOrgAccess(ctx, in.Actor); err != nil {
		return "", err
	}

	sealed, err := s.prepareFields(in.CredentialKind, in.SecretData)
	if err != nil {
		return "", err
	}

	created, err := s.repomanager.Secrets(s.db).Create(ctx, &models.UserSecret{
		Name:           in.Name,
		CredentialKind: in.CredentialKind,
		SecretData:     sealed,
		Metadata:       in.Metadata,
		UserID:         in.Actor.ID,
		OrgID:          in.Actor.OrgID,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "secret created", "secret_id", created.ID, "org_id", created.OrgID)
	return created.ID, nil
}

// List returns the actor's own secrets inside its organization, sealed, with
// the total count independent of the pagination window.
func (s *SecretService) List(ctx context.Context, in ListSecretsInput) (*ListSecretsResult, error) {
	if err := s.checkOrgAccess(ctx, in.Actor); err != nil {
		return nil, err
	}

	if in.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", common.ErrorValidation)
	}
	if in.Limit < 1 || in.Limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", common.ErrorValidation, MaxListLimit)
	}

	repo := s.repomanager.Secrets(s.db)
	filter := secrets.ListFilter{UserID: in.Actor.ID, OrgID: in.Actor.OrgID}

	items, err := repo.List(ctx, filter, secrets.Page{Offset: in.Offset, Limit: in.Limit})
	if err != nil {
		return nil, err
	}
	total, err := repo.CountByOwnerAndOrg(ctx, filter.OrgID, filter.UserID)
	if err != nil {
		return nil, err
	}

	return &ListSecretsResult{Secrets: items, TotalCount: total}, nil
}

// GetByID is the only read path that decrypts: the returned record carries
// the opened plaintext field map. The query is scoped to the actor's owner
// and organization in SQL, so a record owned by someone else, or by another
// organization, is reported as not found and its existence cannot be probed.
func (s *SecretService) GetByID(ctx context.Context, actor models.ActorContext, secretID string) (*models.UserSecret, error) {
	if err := s.checkOrgAccess(ctx, actor); err != nil {
		return nil, err
	}

	found, err := s.repomanager.Secrets(s.db).GetByIDForOwner(ctx, secretID, actor.OrgID, actor.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: secret %s", common.ErrorNotFound, secretID)
		}
		return nil, err
	}

	opened, err := crypt.OpenFields(s.cipher, found.SecretData)
	if err != nil {
		s.logger.Error(ctx, "failed to open secret fields", "secret_id", secretID)
		return nil, err
	}

	found.SecretData = opened
	return found, nil
}

// Update replaces the whole mutable surface of the secret; the submitted
// field map is filtered, validated, sealed, and stored wholesale. The
// returned record is in ciphertext form, consistent with Create's
// never-echo-plaintext policy.
func (s *SecretService) Update(ctx context.Context, in UpdateSecretInput) (*models.UserSecret, error) {
	if err := s.checkOrgAccess(ctx, in.Actor); err != nil {
		return nil, err
	}

	sealed, err := s.prepareFields(in.CredentialKind, in.SecretData)
	if err != nil {
		return nil, err
	}

	updated, err := s.repomanager.Secrets(s.db).UpdateByID(ctx, in.SecretID, &models.UserSecret{
		Name:           in.Name,
		CredentialKind: in.CredentialKind,
		SecretData:     sealed,
		Metadata:       in.Metadata,
		UserID:         in.Actor.ID,
		OrgID:          in.Actor.OrgID,
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: secret %s", common.ErrorNotFound, in.SecretID)
		}
		return nil, err
	}

	s.logger.Info(ctx, "secret updated", "secret_id", updated.ID, "org_id", updated.OrgID)
	return updated, nil
}

// Delete hard-deletes the secret and returns the record as it existed before
// deletion. The get-check-delete sequence runs inside one transaction. An id
// that exists under another organization fails with ErrorForbidden even
// though the permission check passed, as a defense against cross-org id
// guessing; a missing id, or one owned by another member of the same
// organization, stays ErrorNotFound.
func (s *SecretService) Delete(ctx context.Context, actor models.ActorContext, secretID string) (*models.UserSecret, error) {
	if err := s.checkOrgAccess(ctx, actor); err != nil {
		return nil, err
	}

	var deleted *models.UserSecret
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Secrets(tx)

		found, err := repo.GetByID(ctx, secretID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: secret %s", common.ErrorNotFound, secretID)
			}
			return err
		}
		if found.OrgID != actor.OrgID {
			return fmt.Errorf("%w: secret belongs to another organization", common.ErrorForbidden)
		}
		if found.UserID != actor.ID {
			// Another member's secret reads as absent, as on the read path.
			return fmt.Errorf("%w: secret %s", common.ErrorNotFound, secretID)
		}

		deleted, err = repo.DeleteByID(ctx, secretID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "secret deleted", "secret_id", deleted.ID, "org_id", deleted.OrgID)
	return deleted, nil
}
