package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/malkassem/documentcloud/internal/access"
	"github.com/malkassem/documentcloud/internal/models"
)

const annotationColumns = `id, document_id, account_id, organization_id, access, comment_access, title, content, page_number, location, created_at, updated_at`

// AnnotationRepository provides persistence for annotations.
type AnnotationRepository struct {
	db *sqlx.DB
}

// NewAnnotationRepository creates the repository.
func NewAnnotationRepository(db *sqlx.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// ListByDocument returns the annotations on a document admitted by the
// visibility filter, ordered by page then age.
func (r *AnnotationRepository) ListByDocument(ctx context.Context, documentID string, f access.Filter, filter models.AnnotationFilter) ([]models.Annotation, int, error) {
	args := []interface{}{documentID}
	where, filterArgs := f.SQL("", len(args))
	args = append(args, filterArgs...)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM annotations
WHERE document_id = $1 AND %s
ORDER BY page_number ASC, created_at ASC
LIMIT %d OFFSET %d`, annotationColumns, where, size, offset)
	var annotations []models.Annotation
	if err := r.db.SelectContext(ctx, &annotations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list annotations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM annotations WHERE document_id = $1 AND %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count annotations: %w", err)
	}
	return annotations, total, nil
}

// GetByID returns an annotation by identifier.
func (r *AnnotationRepository) GetByID(ctx context.Context, id string) (*models.Annotation, error) {
	query := fmt.Sprintf("SELECT %s FROM annotations WHERE id = $1", annotationColumns)
	var annotation models.Annotation
	if err := r.db.GetContext(ctx, &annotation, query, id); err != nil {
		return nil, err
	}
	return &annotation, nil
}

// Create inserts a new annotation.
func (r *AnnotationRepository) Create(ctx context.Context, annotation *models.Annotation) error {
	if annotation.ID == "" {
		annotation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if annotation.CreatedAt.IsZero() {
		annotation.CreatedAt = now
	}
	annotation.UpdatedAt = now
	query := `INSERT INTO annotations (id, document_id, account_id, organization_id, access, comment_access, title, content, page_number, location, created_at, updated_at)
VALUES (:id, :document_id, :account_id, :organization_id, :access, :comment_access, :title, :content, :page_number, :location, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, annotation); err != nil {
		return fmt.Errorf("create annotation: %w", err)
	}
	return nil
}

// Update modifies an existing annotation. The resolved ownership fields
// never change after creation.
func (r *AnnotationRepository) Update(ctx context.Context, annotation *models.Annotation) error {
	annotation.UpdatedAt = time.Now().UTC()
	query := `UPDATE annotations SET title = :title, content = :content, page_number = :page_number,
location = :location, access = :access, comment_access = :comment_access, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, annotation); err != nil {
		return fmt.Errorf("update annotation: %w", err)
	}
	return nil
}

// Delete removes an annotation and its comments.
func (r *AnnotationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE annotation_id = $1", id); err != nil {
		return fmt.Errorf("delete annotation comments: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM annotations WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	return nil
}

// CountsByDocument returns per-document counts of the annotations the filter
// admits, restricted to the given document ids.
func (r *AnnotationRepository) CountsByDocument(ctx context.Context, f access.Filter, documentIDs []string) (map[string]int, error) {
	args := []interface{}{pq.Array(documentIDs)}
	where, filterArgs := f.SQL("", len(args))
	args = append(args, filterArgs...)

	query := fmt.Sprintf(`SELECT document_id, COUNT(*) AS total FROM annotations
WHERE document_id = ANY($1) AND %s
GROUP BY document_id`, where)
	var rows []struct {
		DocumentID string `db:"document_id"`
		Total      int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count annotations by document: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.DocumentID] = row.Total
	}
	return counts, nil
}

// PublicNoteCountsByOrganization counts public annotations sitting on public
// documents, grouped by the annotation's organization. Viewer-independent.
func (r *AnnotationRepository) PublicNoteCountsByOrganization(ctx context.Context) (map[string]int, error) {
	const query = `SELECT a.organization_id, COUNT(*) AS total FROM annotations a
JOIN documents d ON d.id = a.document_id
WHERE a.access = $1 AND d.access = $2
GROUP BY a.organization_id`
	var rows []struct {
		OrganizationID string `db:"organization_id"`
		Total          int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, string(models.AccessPublic), string(models.AccessPublic)); err != nil {
		return nil, fmt.Errorf("count public notes by organization: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.OrganizationID] = row.Total
	}
	return counts, nil
}

// RefreshPublicNoteCount recomputes a document's denormalized public note
// counter from the annotations table and returns the new value.
func (r *AnnotationRepository) RefreshPublicNoteCount(ctx context.Context, documentID string) (int, error) {
	const query = `UPDATE documents SET public_note_count = (
SELECT COUNT(*) FROM annotations WHERE document_id = $1 AND access = $2
), updated_at = NOW()
WHERE id = $1
RETURNING public_note_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, documentID, string(models.AccessPublic)); err != nil {
		return 0, fmt.Errorf("refresh public note count: %w", err)
	}
	return count, nil
}
