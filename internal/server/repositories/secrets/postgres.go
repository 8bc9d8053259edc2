// Package secrets provides the PostgreSQL-backed repository for user-secret
// persistence.
package secrets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/dbx"
	"github.com/orgvault/orgvault/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const secretColumns = `id, name, credential_kind, secret_data, metadata, user_id, org_id, created_at, updated_at`

func scanSecret(row interface{ Scan(dest ...any) error }) (*models.UserSecret, error) {
	var (
		s        models.UserSecret
		kind     string
		data     []byte
		metadata []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &kind, &data, &metadata, &s.UserID, &s.OrgID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.CredentialKind = models.CredentialKind(kind)
	if err := json.Unmarshal(data, &s.SecretData); err != nil {
		return nil, fmt.Errorf("secret_data decode error: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
			return nil, fmt.Errorf("metadata decode error: %w", err)
		}
	}
	return &s, nil
}

func marshalMaps(secret *models.UserSecret) (data, metadata []byte, err error) {
	if secret.SecretData == nil {
		data = []byte("{}")
	} else if data, err = json.Marshal(secret.SecretData); err != nil {
		return nil, nil, fmt.Errorf("secret_data encode error: %w", err)
	}
	if secret.Metadata != nil {
		if metadata, err = json.Marshal(secret.Metadata); err != nil {
			return nil, nil, fmt.Errorf("metadata encode error: %w", err)
		}
	}
	return data, metadata, nil
}

func (r *PostgresRepository) Create(ctx context.Context, secret *models.UserSecret) (*models.UserSecret, error) {
	data, metadata, err := marshalMaps(secret)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO user_secrets (name, credential_kind, secret_data, metadata, encrypted_value, iv, tag, user_id, org_id)
		VALUES ($1, $2, $3, $4, NULL, NULL, NULL, $5, $6)
		RETURNING ` + secretColumns

	row := r.db.QueryRowContext(ctx, query,
		secret.Name, string(secret.CredentialKind), data, metadata, secret.UserID, secret.OrgID)

	created, err := scanSecret(row)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.UserSecret, error) {
	query := `SELECT ` + secretColumns + ` FROM user_secrets WHERE id = $1`

	secret, err := scanSecret(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return secret, nil
}

func (r *PostgresRepository) GetByIDForOwner(ctx context.Context, id, orgID, userID string) (*models.UserSecret, error) {
	query := `SELECT ` + secretColumns + ` FROM user_secrets WHERE id = $1 AND org_id = $2 AND user_id = $3`

	secret, err := scanSecret(r.db.QueryRowContext(ctx, query, id, orgID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return secret, nil
}

// sortColumns whitelists the sortable columns; anything else falls back to
// created_at.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
}

func orderClause(page Page) string {
	column, ok := sortColumns[page.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if page.Ascending {
		direction = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter, page Page) ([]*models.UserSecret, error) {
	query := `SELECT ` + secretColumns + ` FROM user_secrets WHERE org_id = $1 AND user_id = $2 ` +
		orderClause(page) + ` LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, filter.OrgID, filter.UserID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.UserSecret
	for rows.Next() {
		secret, err := scanSecret(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, secret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) CountByOwnerAndOrg(ctx context.Context, orgID, userID string) (int, error) {
	query := `SELECT count(*) FROM user_secrets WHERE org_id = $1 AND user_id = $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, orgID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) UpdateByID(ctx context.Context, id string, patch *models.UserSecret) (*models.UserSecret, error) {
	data, metadata, err := marshalMaps(patch)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE user_secrets
		SET name = $1, credential_kind = $2, secret_data = $3, metadata = $4
		WHERE id = $5 AND user_id = $6 AND org_id = $7
		RETURNING ` + secretColumns

	row := r.db.QueryRowContext(ctx, query,
		patch.Name, string(patch.CredentialKind), data, metadata, id, patch.UserID, patch.OrgID)

	updated, err := scanSecret(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (*models.UserSecret, error) {
	query := `DELETE FROM user_secrets WHERE id = $1 RETURNING ` + secretColumns

	deleted, err := scanSecret(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return deleted, nil
}
