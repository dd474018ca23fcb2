package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ProjectRepository resolves project collaboration grants.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// SharedDocumentIDs returns the distinct documents an account can reach
// through its project collaborations. Project grants extend exclusive
// visibility across organization boundaries.
func (r *ProjectRepository) SharedDocumentIDs(ctx context.Context, accountID string) ([]string, error) {
	const query = `SELECT DISTINCT pm.document_id
FROM project_collaborations pc
JOIN project_memberships pm ON pm.project_id = pc.project_id
WHERE pc.account_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, accountID); err != nil {
		return nil, fmt.Errorf("list shared document ids: %w", err)
	}
	return ids, nil
}
