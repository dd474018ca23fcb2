package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/malkassem/documentcloud/internal/models"
)

// CommentRepository provides read access to annotation comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListByAnnotationIDs returns the comments for all given annotations in one
// read, oldest first.
func (r *CommentRepository) ListByAnnotationIDs(ctx context.Context, ids []string) ([]models.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, annotation_id, account_id, content, draft, created_at, updated_at
FROM comments WHERE annotation_id = ANY($1)
ORDER BY created_at ASC`
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
