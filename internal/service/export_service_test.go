package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/malkassem/documentcloud/internal/access"
	"github.com/malkassem/documentcloud/internal/models"
	appErrors "github.com/malkassem/documentcloud/pkg/errors"
)

type listerStub struct {
	annotations []models.Annotation
}

func (l *listerStub) List(ctx context.Context, v access.Viewer, document *models.Document, filter models.AnnotationFilter) ([]models.Annotation, *models.Pagination, error) {
	if filter.Page > 1 {
		return nil, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(l.annotations)}, nil
	}
	return l.annotations, &models.Pagination{Page: 1, PageSize: filter.PageSize, TotalCount: len(l.annotations)}, nil
}

func exportAnnotations() []models.Annotation {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Annotation{
		{
			ID:         "n1",
			PageNumber: 1,
			Title:      "First",
			Content:    "alpha",
			Access:     models.AccessPublic,
			CreatedAt:  created,
			Author:     &models.AuthorInfo{AccountID: "acct-1", FullName: "Ida Tarbell"},
		},
		{
			ID:         "n2",
			PageNumber: 2,
			Title:      "Second",
			Content:    "beta",
			Access:     models.AccessExclusive,
			CreatedAt:  created,
		},
	}
}

func newExportServiceForTest(t *testing.T, maxRows int) *ExportService {
	t.Helper()
	return NewExportService(&listerStub{annotations: exportAnnotations()}, ExportConfig{MaxRows: maxRows}, zap.NewNop(), nil, nil)
}

func TestGenerateCSV(t *testing.T) {
	svc := newExportServiceForTest(t, 0)
	result, err := svc.Generate(context.Background(), access.Viewer{}, testDocument(), models.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Contains(t, result.Filename, "annotations_annual-report_")
	assert.Contains(t, result.Filename, ".csv")

	records, err := csv.NewReader(bytes.NewReader(result.Payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"ID", "Page", "Title", "Content", "Access", "Author", "Created At"}, records[0])
	assert.Equal(t, "Ida Tarbell", records[1][5])
	assert.Equal(t, "Unattributed", records[2][5])
	assert.Equal(t, "2024-03-01T12:00:00Z", records[1][6])
}

func TestGeneratePDF(t *testing.T) {
	svc := newExportServiceForTest(t, 0)
	result, err := svc.Generate(context.Background(), access.Viewer{}, testDocument(), models.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Payload, []byte("%PDF")))
	assert.Contains(t, result.Filename, ".pdf")
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(t, 0)
	_, err := svc.Generate(context.Background(), access.Viewer{}, testDocument(), models.ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(t, err))
}

func TestGenerateTruncatesAtMaxRows(t *testing.T) {
	svc := newExportServiceForTest(t, 1)
	result, err := svc.Generate(context.Background(), access.Viewer{}, testDocument(), models.ExportFormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(result.Payload)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2, "header plus the single permitted row")
}
