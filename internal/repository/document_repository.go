package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/malkassem/documentcloud/internal/models"
)

const documentColumns = `id, slug, title, organization_id, account_id, access, comment_access, cacheable, published_url, page_count, public_note_count, created_at, updated_at`

// DocumentRepository provides read access to documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// GetByID returns a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", documentColumns)
	var document models.Document
	if err := r.db.GetContext(ctx, &document, query, id); err != nil {
		return nil, err
	}
	return &document, nil
}
