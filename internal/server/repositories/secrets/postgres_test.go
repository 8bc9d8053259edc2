package secrets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func secretRows(t *testing.T, ids ...string) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "name", "credential_kind", "secret_data", "metadata", "user_id", "org_id", "created_at", "updated_at",
	})
	for _, id := range ids {
		rows.AddRow(id, "Email", "WebLogin", []byte(`{"username":"ab12"}`), []byte(`{"env":"dev"}`), "u-1", "org-1", now, now)
	}
	return rows
}

func TestCreate_InsertsWithEmptyLegacyColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+user_secrets\s*\(name,\s*credential_kind,\s*secret_data,\s*metadata,\s*encrypted_value,\s*iv,\s*tag,\s*user_id,\s*org_id\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*NULL,\s*NULL,\s*NULL,\s*\$5,\s*\$6\)\s*RETURNING`

	mock.ExpectQuery(q).
		WithArgs("Email", "WebLogin", []byte(`{"username":"ab12"}`), []byte(`{"env":"dev"}`), "u-1", "org-1").
		WillReturnRows(secretRows(t, "s-1"))

	got, err := repo.Create(context.Background(), &models.UserSecret{
		Name:           "Email",
		CredentialKind: models.CredentialKindWebLogin,
		SecretData:     map[string]string{"username": "ab12"},
		Metadata:       map[string]string{"env": "dev"},
		UserID:         "u-1",
		OrgID:          "org-1",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "s-1" || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected secret: %+v", got)
	}
}

func TestCreate_NilMetadataStoredAsNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+user_secrets`).
		WithArgs("Email", "WebLogin", []byte(`{}`), nil, "u-1", "org-1").
		WillReturnRows(secretRows(t, "s-1"))

	_, err := repo.Create(context.Background(), &models.UserSecret{
		Name:           "Email",
		CredentialKind: models.CredentialKindWebLogin,
		UserID:         "u-1",
		OrgID:          "org-1",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*\s+FROM\s+user_secrets\s+WHERE\s+id\s*=\s*\$1$`

	mock.ExpectQuery(q).WithArgs("s-1").WillReturnRows(secretRows(t, "s-1"))

	got, err := repo.GetByID(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.CredentialKind != models.CredentialKindWebLogin || got.SecretData["username"] != "ab12" {
		t.Fatalf("unexpected secret: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM user_secrets WHERE id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetByIDForOwner_ScopedInSQL(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*\s+FROM\s+user_secrets\s+WHERE\s+id\s*=\s*\$1\s+AND\s+org_id\s*=\s*\$2\s+AND\s+user_id\s*=\s*\$3$`

	mock.ExpectQuery(q).WithArgs("s-1", "org-1", "u-1").WillReturnRows(secretRows(t, "s-1"))

	got, err := repo.GetByIDForOwner(context.Background(), "s-1", "org-1", "u-1")
	if err != nil {
		t.Fatalf("GetByIDForOwner error: %v", err)
	}
	if got.ID != "s-1" || got.UserID != "u-1" {
		t.Fatalf("unexpected secret: %+v", got)
	}
}

func TestGetByIDForOwner_OwnerMismatchNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM user_secrets WHERE id .* AND org_id .* AND user_id`).
		WithArgs("s-1", "org-1", "u-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIDForOwner(context.Background(), "s-1", "org-1", "u-2")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestList_DefaultSortNewestFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$3\s+OFFSET\s+\$4`

	mock.ExpectQuery(q).
		WithArgs("org-1", "u-1", 25, 0).
		WillReturnRows(secretRows(t, "s-2", "s-1"))

	got, err := repo.List(context.Background(), ListFilter{UserID: "u-1", OrgID: "org-1"}, Page{Offset: 0, Limit: 25})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "s-2" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestList_SortWhitelistFallsBackToCreatedAt(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`ORDER\s+BY\s+created_at\s+ASC`).
		WithArgs("org-1", "u-1", 10, 5).
		WillReturnRows(secretRows(t))

	_, err := repo.List(context.Background(),
		ListFilter{UserID: "u-1", OrgID: "org-1"},
		Page{Offset: 5, Limit: 10, SortBy: "secret_data; DROP TABLE user_secrets", Ascending: true})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
}

func TestCountByOwnerAndOrg(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+count\(\*\)\s+FROM\s+user_secrets\s+WHERE\s+org_id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`

	mock.ExpectQuery(q).
		WithArgs("org-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountByOwnerAndOrg(context.Background(), "org-1", "u-1")
	if err != nil {
		t.Fatalf("CountByOwnerAndOrg error: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}

func TestUpdateByID_ScopedToOwnerAndOrg(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+user_secrets\s+SET\s+name\s*=\s*\$1,\s*credential_kind\s*=\s*\$2,\s*secret_data\s*=\s*\$3,\s*metadata\s*=\s*\$4\s+WHERE\s+id\s*=\s*\$5\s+AND\s+user_id\s*=\s*\$6\s+AND\s+org_id\s*=\s*\$7\s+RETURNING`

	mock.ExpectQuery(q).
		WithArgs("Email", "WebLogin", []byte(`{"username":"ab12"}`), []byte(`{"env":"dev"}`), "s-1", "u-1", "org-1").
		WillReturnRows(secretRows(t, "s-1"))

	_, err := repo.UpdateByID(context.Background(), "s-1", &models.UserSecret{
		Name:           "Email",
		CredentialKind: models.CredentialKindWebLogin,
		SecretData:     map[string]string{"username": "ab12"},
		Metadata:       map[string]string{"env": "dev"},
		UserID:         "u-1",
		OrgID:          "org-1",
	})
	if err != nil {
		t.Fatalf("UpdateByID error: %v", err)
	}
}

func TestUpdateByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+user_secrets`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateByID(context.Background(), "ghost", &models.UserSecret{
		CredentialKind: models.CredentialKindWebLogin,
		UserID:         "u-1",
		OrgID:          "org-1",
	})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestDeleteByID_ReturnsPreDeleteRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+user_secrets\s+WHERE\s+id\s*=\s*\$1\s+RETURNING`

	mock.ExpectQuery(q).WithArgs("s-1").WillReturnRows(secretRows(t, "s-1"))

	got, err := repo.DeleteByID(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("DeleteByID error: %v", err)
	}
	if got.ID != "s-1" || got.Name != "Email" {
		t.Fatalf("unexpected secret: %+v", got)
	}
}

func TestDeleteByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`DELETE\s+FROM\s+user_secrets`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.DeleteByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}
