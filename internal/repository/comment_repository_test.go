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

func newCommentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCommentRepositoryListByAnnotationIDs(t *testing.T) {
	db, mock, cleanup := newCommentRepoMock(t)
	defer cleanup()
	repo := NewCommentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "annotation_id", "account_id", "content", "draft", "created_at", "updated_at"}).
		AddRow("cmt-1", "note-1", "acct-1", "first", false, time.Now(), time.Now()).
		AddRow("cmt-2", "note-2", "acct-2", "draft reply", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, annotation_id, account_id, content, draft, created_at, updated_at FROM comments WHERE annotation_id = ANY($1) ORDER BY created_at ASC")).
		WithArgs(pq.Array([]string{"note-1", "note-2"})).
		WillReturnRows(rows)

	comments, err := repo.ListByAnnotationIDs(context.Background(), []string{"note-1", "note-2"})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "note-1", comments[0].AnnotationID)
	assert.True(t, comments[1].Draft)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryListByAnnotationIDsEmpty(t *testing.T) {
	db, mock, cleanup := newCommentRepoMock(t)
	defer cleanup()
	repo := NewCommentRepository(db)

	comments, err := repo.ListByAnnotationIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}
