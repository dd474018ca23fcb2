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

	"github.com/malkassem/documentcloud/internal/access"
	"github.com/malkassem/documentcloud/internal/models"
)

func newAnnotationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func annotationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "document_id", "account_id", "organization_id", "access", "comment_access",
		"title", "content", "page_number", "location", "created_at", "updated_at",
	}).AddRow("note-1", "doc-1", "acct-1", "org-1", "public", "public",
		"Untitled Note", "body", 2, nil, time.Now(), time.Now())
}

func TestAnnotationRepositoryListByDocumentAnonymous(t *testing.T) {
	db, mock, cleanup := newAnnotationRepoMock(t)
	defer cleanup()
	repo := NewAnnotationRepository(db)

	f := access.BuildFilter(access.Viewer{})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, document_id, account_id, organization_id, access, comment_access, title, content, page_number, location, created_at, updated_at FROM annotations WHERE document_id = $1 AND ((access = $2)) ORDER BY page_number ASC, created_at ASC LIMIT 100 OFFSET 0")).
		WithArgs("doc-1", "public").
		WillReturnRows(annotationRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM annotations WHERE document_id = $1 AND ((access = $2))")).
		WithArgs("doc-1", "public").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.ListByDocument(context.Background(), "doc-1", f, models.AnnotationFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "note-1", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationRepositoryListByDocumentWithViewer(t *testing.T) {
	db, mock, cleanup := newAnnotationRepoMock(t)
	defer cleanup()
	repo := NewAnnotationRepository(db)

	f := access.BuildFilter(access.Viewer{
		Account:           &models.Account{ID: "acct-1", OrganizationID: "org-1"},
		SharedDocumentIDs: []string{"doc-9"},
	})
	mock.ExpectQuery(regexp.QuoteMeta("WHERE document_id = $1 AND ((access = $2) OR (access = $3 AND organization_id = $4) OR (access = $5 AND account_id = $6) OR (access = $7 AND document_id = ANY($8))) ORDER BY page_number ASC")).
		WithArgs("doc-1", "public", "exclusive", "org-1", "private", "acct-1", "exclusive", pq.Array([]string{"doc-9"})).
		WillReturnRows(annotationRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM annotations")).
		WithArgs("doc-1", "public", "exclusive", "org-1", "private", "acct-1", "exclusive", pq.Array([]string{"doc-9"})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.ListByDocument(context.Background(), "doc-1", f, models.AnnotationFilter{Page: 1, PageSize: 100})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newAnnotationRepoMock(t)
	defer cleanup()
	repo := NewAnnotationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, document_id, account_id, organization_id, access, comment_access, title, content, page_number, location, created_at, updated_at FROM annotations WHERE id = $1")).
		WithArgs("note-1").
		WillReturnRows(annotationRows())

	annotation, err := repo.GetByID(context.Background(), "note-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", annotation.DocumentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAnnotationRepoMock(t)
	defer cleanup()
	repo := NewAnnotationRepository(db)

	mock.ExpectExec("INSERT INTO annotations").
		WithArgs(sqlmock.AnyArg(), "doc-1", "acct-1", "org-1", "exclusive", "exclusive",
			"Untitled Note", "body", 3, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	annotation := &models.Annotation{
		DocumentID:     "doc-1",
		AccountID:      "acct-1",
		OrganizationID: "org-1",
		Access:         models.AccessExclusive,
		CommentAccess:  models.AccessExclusive,
		Title:          "Untitled Note",
		Content:        "body",
		PageNumber:     3,
	}
	require.NoError(t, repo.Create(context.Background(), annotation))
	assert.NotEmpty(t, annotation.ID)
	assert.False(t, annotation.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationRepositoryUpdateAndDelete(t *testing.T) {
	db, mock, cleanup := newAnnotationRepoMock(t)
	defer cleanup()
	repo := NewAnnotationRepository(db)

	mock.ExpectExec("UPDATE annotations SET title").
		WithArgs("New title", "body", 2, nil, "private", "private", sqlmock.AnyArg(), "note-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	annotation := &models.Annotation{
		ID:            "note-1",
		Title:         "New title",
		Content:       "body",
		PageNumber:    2,
		Access:        models.AccessPrivate,
		CommentAccess: models.AccessPrivate,
	}
	require.NoError(t, repo.Update(context.Background(), annotation))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE annotation_id = $1")).
		WithArgs("note-1").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM annotations WHERE id = $1")).
		WithArgs("note-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "note-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationRepositoryCountsByDocument(t *testing.T) {
	db, mock, cleanup := newAnnotationRepoMock(t)
	defer cleanup()
	repo := NewAnnotationRepository(db)

	f := access.BuildFilter(access.Viewer{})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT document_id, COUNT(*) AS total FROM annotations WHERE document_id = ANY($1) AND ((access = $2)) GROUP BY document_id")).
		WithArgs(pq.Array([]string{"doc-1", "doc-2"}), "public").
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "total"}).
			AddRow("doc-1", 4).
			AddRow("doc-2", 1))

	counts, err := repo.CountsByDocument(context.Background(), f, []string{"doc-1", "doc-2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"doc-1": 4, "doc-2": 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationRepositoryPublicNoteCountsByOrganization(t *testing.T) {
	db, mock, cleanup := newAnnotationRepoMock(t)
	defer cleanup()
	repo := NewAnnotationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.organization_id, COUNT(*) AS total FROM annotations a JOIN documents d ON d.id = a.document_id WHERE a.access = $1 AND d.access = $2 GROUP BY a.organization_id")).
		WithArgs("public", "public").
		WillReturnRows(sqlmock.NewRows([]string{"organization_id", "total"}).
			AddRow("org-1", 12).
			AddRow("org-2", 3))

	counts, err := repo.PublicNoteCountsByOrganization(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"org-1": 12, "org-2": 3}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationRepositoryRefreshPublicNoteCount(t *testing.T) {
	db, mock, cleanup := newAnnotationRepoMock(t)
	defer cleanup()
	repo := NewAnnotationRepository(db)

	mock.ExpectQuery("UPDATE documents SET public_note_count").
		WithArgs("doc-1", "public").
		WillReturnRows(sqlmock.NewRows([]string{"public_note_count"}).AddRow(7))

	count, err := repo.RefreshPublicNoteCount(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
