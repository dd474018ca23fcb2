package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAccountRepositoryGetByEmail(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	rows := sqlmock.NewRows([]string{"id", "organization_id", "first_name", "last_name", "email", "password_hash", "role", "created_at", "updated_at"}).
		AddRow("acct-1", "org-1", "Ada", "Lovelace", "ada@example.com", "hash", "CONTRIBUTOR", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, organization_id, first_name, last_name, email, password_hash, role, created_at, updated_at FROM accounts WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(rows)

	account, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", account.ID)
	assert.Equal(t, "Ada Lovelace", account.FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryListByIDsWithOrganization(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	rows := sqlmock.NewRows([]string{"id", "organization_id", "first_name", "last_name", "role", "organization_name"}).
		AddRow("acct-1", "org-1", "Ada", "Lovelace", "CONTRIBUTOR", "The Herald").
		AddRow("acct-2", "org-2", "Grace", "Hopper", "REVIEWER", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.id, a.organization_id, a.first_name, a.last_name, a.role, o.name AS organization_name FROM accounts a LEFT JOIN organizations o ON o.id = a.organization_id WHERE a.id = ANY($1)")).
		WithArgs(pq.Array([]string{"acct-1", "acct-2"})).
		WillReturnRows(rows)

	accounts, err := repo.ListByIDsWithOrganization(context.Background(), []string{"acct-1", "acct-2"})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.NotNil(t, accounts[0].OrganizationName)
	assert.Equal(t, "The Herald", *accounts[0].OrganizationName)
	assert.Nil(t, accounts[1].OrganizationName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryListByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	accounts, err := repo.ListByIDsWithOrganization(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
