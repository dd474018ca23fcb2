package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/malkassem/documentcloud/internal/models"
)

const accountColumns = `id, organization_id, first_name, last_name, email, password_hash, role, created_at, updated_at`

// AccountRepository provides persistence for accounts.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates the repository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID returns an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE id = $1", accountColumns)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByEmail returns an account by email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE email = $1", accountColumns)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListByIDsWithOrganization returns the accounts for the given ids joined
// with their organization names. One read serves a whole attribution batch.
func (r *AccountRepository) ListByIDsWithOrganization(ctx context.Context, ids []string) ([]models.AccountWithOrganization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT a.id, a.organization_id, a.first_name, a.last_name, a.role, o.name AS organization_name
FROM accounts a
LEFT JOIN organizations o ON o.id = a.organization_id
WHERE a.id = ANY($1)`
	var accounts []models.AccountWithOrganization
	if err := r.db.SelectContext(ctx, &accounts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list accounts with organization: %w", err)
	}
	return accounts, nil
}
