package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/malkassem/documentcloud/internal/access"
	"github.com/malkassem/documentcloud/internal/models"
	appErrors "github.com/malkassem/documentcloud/pkg/errors"
	"github.com/malkassem/documentcloud/pkg/export"
)

type annotationLister interface {
	List(ctx context.Context, v access.Viewer, document *models.Document, filter models.AnnotationFilter) ([]models.Annotation, *models.Pagination, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	MaxRows int
}

// ExportResult carries a rendered export and its download metadata.
type ExportResult struct {
	Payload     []byte
	Filename    string
	ContentType string
	Format      models.ExportFormat
}

// ExportService renders a document's visible annotations for download. The
// dataset goes through the same visibility filter as listing, so an export
// never discloses more than the list endpoint would.
type ExportService struct {
	annotations annotationLister
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(annotations annotationLister, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 10000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		annotations: annotations,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate builds and renders the export for one document.
func (s *ExportService) Generate(ctx context.Context, v access.Viewer, document *models.Document, format models.ExportFormat) (*ExportResult, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	dataset, err := s.buildDataset(ctx, v, document)
	if err != nil {
		return nil, err
	}

	var payload []byte
	var contentType string
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Annotations: %s", document.Title))
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Payload:     payload,
		Filename:    s.buildFilename(document, format),
		ContentType: contentType,
		Format:      format,
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, v access.Viewer, document *models.Document) (export.Dataset, error) {
	annotations, err := s.collectRows(ctx, v, document)
	if err != nil {
		return export.Dataset{}, err
	}

	rows := make([]map[string]string, 0, len(annotations))
	for _, annotation := range annotations {
		author := "Unattributed"
		if annotation.Author != nil {
			author = annotation.Author.FullName
		}
		rows = append(rows, map[string]string{
			"ID":         annotation.ID,
			"Page":       fmt.Sprintf("%d", annotation.PageNumber),
			"Title":      annotation.Title,
			"Content":    annotation.Content,
			"Access":     string(annotation.Access),
			"Author":     author,
			"Created At": annotation.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return export.Dataset{
		Headers: []string{"ID", "Page", "Title", "Content", "Access", "Author", "Created At"},
		Widths:  []float64{3, 1, 3, 6, 2, 3, 3},
		Rows:    rows,
	}, nil
}

// collectRows pages through the visible annotations up to the configured row
// limit.
func (s *ExportService) collectRows(ctx context.Context, v access.Viewer, document *models.Document) ([]models.Annotation, error) {
	const pageSize = 500
	collected := make([]models.Annotation, 0, pageSize)
	for page := 1; ; page++ {
		batch, _, err := s.annotations.List(ctx, v, document, models.AnnotationFilter{Page: page, PageSize: pageSize})
		if err != nil {
			return nil, err
		}
		collected = append(collected, batch...)
		if len(batch) < pageSize || len(collected) >= s.cfg.MaxRows {
			break
		}
	}
	if len(collected) > s.cfg.MaxRows {
		s.logger.Sugar().Warnw("export truncated",
			"document_id", document.ID,
			"collected", len(collected),
			"max_rows", s.cfg.MaxRows)
		collected = collected[:s.cfg.MaxRows]
	}
	return collected, nil
}

func (s *ExportService) buildFilename(document *models.Document, format models.ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("annotations_%s_%s.%s", sanitizeFilename(document.Slug), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
