package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malkassem/documentcloud/internal/access"
	"github.com/malkassem/documentcloud/internal/middleware"
	"github.com/malkassem/documentcloud/internal/models"
	"github.com/malkassem/documentcloud/internal/service"
	"github.com/malkassem/documentcloud/pkg/assets"
	"github.com/malkassem/documentcloud/pkg/config"
)

type annotationsStub struct {
	items map[string]models.Annotation
}

func (s *annotationsStub) ListByDocument(_ context.Context, documentID string, f access.Filter, _ models.AnnotationFilter) ([]models.Annotation, int, error) {
	out := make([]models.Annotation, 0)
	for _, item := range s.items {
		annotation := item
		if annotation.DocumentID == documentID && f.Match(&annotation) {
			out = append(out, annotation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *annotationsStub) GetByID(_ context.Context, id string) (*models.Annotation, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := item
	return &clone, nil
}

func (s *annotationsStub) Create(_ context.Context, annotation *models.Annotation) error {
	if annotation.ID == "" {
		annotation.ID = "note-created"
	}
	s.items[annotation.ID] = *annotation
	return nil
}

func (s *annotationsStub) Update(_ context.Context, annotation *models.Annotation) error {
	s.items[annotation.ID] = *annotation
	return nil
}

func (s *annotationsStub) Delete(_ context.Context, id string) error {
	delete(s.items, id)
	return nil
}

type accountsStub struct {
	accounts map[string]models.Account
	orgNames map[string]string
}

func (s *accountsStub) GetByID(_ context.Context, id string) (*models.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := account
	return &clone, nil
}

func (s *accountsStub) ListByIDsWithOrganization(_ context.Context, ids []string) ([]models.AccountWithOrganization, error) {
	out := make([]models.AccountWithOrganization, 0, len(ids))
	for _, id := range ids {
		account, ok := s.accounts[id]
		if !ok {
			continue
		}
		row := models.AccountWithOrganization{Account: account}
		if name, ok := s.orgNames[account.OrganizationID]; ok {
			orgName := name
			row.OrganizationName = &orgName
		}
		out = append(out, row)
	}
	return out, nil
}

type documentsStub struct {
	documents map[string]models.Document
}

func (s *documentsStub) GetByID(_ context.Context, id string) (*models.Document, error) {
	document, ok := s.documents[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := document
	return &clone, nil
}

type projectsStub struct {
	shared map[string][]string
}

func (s *projectsStub) SharedDocumentIDs(_ context.Context, accountID string) ([]string, error) {
	return s.shared[accountID], nil
}

type commentsStub struct {
	comments []models.Comment
}

func (s *commentsStub) ListByAnnotationIDs(_ context.Context, ids []string) ([]models.Comment, error) {
	out := make([]models.Comment, 0)
	for _, comment := range s.comments {
		for _, id := range ids {
			if comment.AnnotationID == id {
				out = append(out, comment)
			}
		}
	}
	return out, nil
}

type refresherStub struct {
	documents []string
}

func (s *refresherStub) ScheduleCounterRefresh(documentID string) {
	s.documents = append(s.documents, documentID)
}

type annotationHandlerFixture struct {
	handler   *AnnotationHandler
	store     *annotationsStub
	refresher *refresherStub
}

func newAnnotationHandlerForTest(t *testing.T) *annotationHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	document := models.Document{
		ID:             "doc-1",
		Slug:           "annual-report",
		Title:          "Annual Report",
		OrganizationID: "org-1",
		AccountID:      "owner-1",
		Access:         models.AccessPublic,
		CommentAccess:  models.AccessPublic,
		Cacheable:      true,
		PageCount:      10,
	}
	store := &annotationsStub{items: map[string]models.Annotation{
		"n1": {ID: "n1", DocumentID: "doc-1", AccountID: "acct-1", OrganizationID: "org-1", Access: models.AccessPublic, CommentAccess: models.AccessPublic, Title: "Key finding", Content: "look here", PageNumber: 2},
		"n2": {ID: "n2", DocumentID: "doc-1", AccountID: "acct-1", OrganizationID: "org-1", Access: models.AccessPrivate, CommentAccess: models.AccessPublic, Title: "Draft thought", PageNumber: 3},
	}}
	accounts := &accountsStub{
		accounts: map[string]models.Account{
			"acct-1": {ID: "acct-1", OrganizationID: "org-1", FirstName: "Ida", LastName: "Tarbell", Email: "ida@example.com", Role: models.RoleContributor},
			"acct-2": {ID: "acct-2", OrganizationID: "org-1", FirstName: "Sam", LastName: "Quiet", Email: "sam@example.com", Role: models.RoleReviewer},
		},
		orgNames: map[string]string{"org-1": "The Herald"},
	}
	refresher := &refresherStub{}

	svc := service.NewAnnotationService(service.AnnotationServiceParams{
		Annotations: store,
		Accounts:    accounts,
		Documents:   &documentsStub{documents: map[string]models.Document{"doc-1": document}},
		Projects:    &projectsStub{},
		Comments:    &commentsStub{comments: []models.Comment{{ID: "c1", AnnotationID: "n1", AccountID: "acct-2", Content: "agreed"}}},
		Refresher:   refresher,
		Assets:      assets.NewBuilder(config.AssetsConfig{AssetBaseURL: "https://assets.example.com", AppBaseURL: "https://www.example.com"}),
	})
	exports := service.NewExportService(svc, service.ExportConfig{}, nil, nil, nil)

	return &annotationHandlerFixture{
		handler:   NewAnnotationHandler(svc, exports),
		store:     store,
		refresher: refresher,
	}
}

func authorClaims() *models.JWTClaims {
	return &models.JWTClaims{AccountID: "acct-1", OrganizationID: "org-1", Role: models.RoleContributor, Email: "ida@example.com", FullName: "Ida Tarbell"}
}

type listEnvelope struct {
	Data       []map[string]interface{} `json:"data"`
	Pagination map[string]interface{}   `json:"pagination"`
}

type itemEnvelope struct {
	Data map[string]interface{} `json:"data"`
}

func TestAnnotationHandlerListPublicForAnonymous(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/documents/doc-1/annotations", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}

	fixture.handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "n1", envelope.Data[0]["id"])
	assert.Contains(t, envelope.Data[0], "comments")
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
	assert.Equal(t, float64(1), envelope.Pagination["total_count"])
}

func TestAnnotationHandlerListIncludesPrivateForAuthor(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/documents/doc-1/annotations", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}
	c.Set(middleware.ContextUserKey, authorClaims())

	fixture.handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAnnotationHandlerListCanExcludeComments(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/documents/doc-1/annotations?include_comments=false", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}

	fixture.handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.NotContains(t, envelope.Data[0], "comments")
}

func TestAnnotationHandlerGetHidesInvisible(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	for _, id := range []string{"n2", "missing"} {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/documents/doc-1/annotations/"+id, nil)
		c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}, {Key: "annotationId", Value: id}}

		fixture.handler.Get(c)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestAnnotationHandlerGetIncludesURLsOnRequest(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/documents/doc-1/annotations/n1?include_image_url=true&include_document_url=true", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}, {Key: "annotationId", Value: "n1"}}

	fixture.handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope itemEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "https://assets.example.com/documents/doc-1/pages/annual-report-p{page}-normal.gif", envelope.Data["image_url"])
	assert.Equal(t, "https://www.example.com/documents/doc-1-annual-report.html", envelope.Data["published_url"])
}

func TestAnnotationHandlerCreate(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/documents/doc-1/annotations", strings.NewReader(`{"title":"   ","content":"look","page_number":4}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}
	c.Set(middleware.ContextUserKey, authorClaims())

	fixture.handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope itemEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Untitled Note", envelope.Data["title"])
	assert.Equal(t, "public", envelope.Data["access"])
	assert.Equal(t, "Ida Tarbell", envelope.Data["author_name"])
	assert.Equal(t, []string{"doc-1"}, fixture.refresher.documents)
}

func TestAnnotationHandlerCreateRejectsBadJSON(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/documents/doc-1/annotations", strings.NewReader(`{"title":`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}
	c.Set(middleware.ContextUserKey, authorClaims())

	fixture.handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnnotationHandlerCreateRequiresAuth(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/documents/doc-1/annotations", strings.NewReader(`{"title":"x","page_number":1}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}

	fixture.handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnnotationHandlerUpdateForbiddenForColleagueWithoutRole(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/documents/doc-1/annotations/n1", strings.NewReader(`{"content":"hijack"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}, {Key: "annotationId", Value: "n1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AccountID: "acct-2", OrganizationID: "org-1", Role: models.RoleReviewer})

	fixture.handler.Update(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnnotationHandlerDelete(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/documents/doc-1/annotations/n1", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}, {Key: "annotationId", Value: "n1"}}
	c.Set(middleware.ContextUserKey, authorClaims())

	fixture.handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, exists := fixture.store.items["n1"]
	assert.False(t, exists)
	assert.Equal(t, []string{"doc-1"}, fixture.refresher.documents)
}

func TestAnnotationHandlerExportCSV(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/documents/doc-1/annotations/export?format=csv", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}

	fixture.handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=")
	assert.Contains(t, rec.Body.String(), "Key finding")
	assert.NotContains(t, rec.Body.String(), "Draft thought")
}

func TestAnnotationHandlerExportRejectsUnknownFormat(t *testing.T) {
	fixture := newAnnotationHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/documents/doc-1/annotations/export?format=xlsx", nil)
	c.Params = gin.Params{{Key: "documentId", Value: "doc-1"}}

	fixture.handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
