package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/malkassem/documentcloud/internal/access"
	"github.com/malkassem/documentcloud/internal/dto"
	"github.com/malkassem/documentcloud/internal/models"
	"github.com/malkassem/documentcloud/internal/service"
	appErrors "github.com/malkassem/documentcloud/pkg/errors"
	"github.com/malkassem/documentcloud/pkg/response"
)

// publicCacheControl marks anonymous responses for cacheable documents as
// shared-cache friendly.
const publicCacheControl = "public, max-age=300"

// AnnotationHandler wires annotation operations to HTTP endpoints.
type AnnotationHandler struct {
	service *service.AnnotationService
	exports *service.ExportService
}

// NewAnnotationHandler constructs the handler.
func NewAnnotationHandler(svc *service.AnnotationService, exports *service.ExportService) *AnnotationHandler {
	return &AnnotationHandler{service: svc, exports: exports}
}

// List godoc
// @Summary List a document's annotations
// @Description Returns the annotations on a document the caller may see
// @Tags Annotations
// @Produce json
// @Param documentId path string true "Document ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param include_comments query bool false "Embed comments (default true)"
// @Param include_image_url query bool false "Include page image URL"
// @Param include_document_url query bool false "Include document URL"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{documentId}/annotations [get]
func (h *AnnotationHandler) List(c *gin.Context) {
	start := time.Now()
	viewer, document, ok := h.resolve(c)
	if !ok {
		return
	}

	filter := models.AnnotationFilter{
		DocumentID: document.ID,
		Page:       intQuery(c, "page", 0),
		PageSize:   intQuery(c, "page_size", 0),
	}
	annotations, pagination, err := h.service.List(c.Request.Context(), viewer, document, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	canonicalizer, err := h.service.NewCanonicalizer(c.Request.Context(), viewer, document, annotations, canonicalOptionsFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if document.Cacheable && viewer.Anonymous() {
		c.Header("Cache-Control", publicCacheControl)
	}
	meta := map[string]interface{}{"processing_time_ms": time.Since(start).Milliseconds()}
	response.JSON(c, http.StatusOK, canonicalizer.CanonicalBatch(annotations), pagination, meta)
}

// Get godoc
// @Summary Fetch a single annotation
// @Tags Annotations
// @Produce json
// @Param documentId path string true "Document ID"
// @Param annotationId path string true "Annotation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{documentId}/annotations/{annotationId} [get]
func (h *AnnotationHandler) Get(c *gin.Context) {
	viewer, document, ok := h.resolve(c)
	if !ok {
		return
	}

	annotation, err := h.service.Get(c.Request.Context(), viewer, document, c.Param("annotationId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := h.canonicalOne(c, viewer, document, annotation)
	if err != nil {
		response.Error(c, err)
		return
	}
	if document.Cacheable && viewer.Anonymous() {
		c.Header("Cache-Control", publicCacheControl)
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Create godoc
// @Summary Annotate a document
// @Description Creates an annotation, inheriting unset fields from the document
// @Tags Annotations
// @Accept json
// @Produce json
// @Param documentId path string true "Document ID"
// @Param payload body dto.CreateAnnotationRequest true "Annotation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /documents/{documentId}/annotations [post]
func (h *AnnotationHandler) Create(c *gin.Context) {
	viewer, document, ok := h.resolve(c)
	if !ok {
		return
	}

	var req dto.CreateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid annotation payload"))
		return
	}

	annotation, err := h.service.Create(c.Request.Context(), viewer, document, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := h.canonicalOne(c, viewer, document, annotation)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payload)
}

// Update godoc
// @Summary Edit an annotation
// @Tags Annotations
// @Accept json
// @Produce json
// @Param documentId path string true "Document ID"
// @Param annotationId path string true "Annotation ID"
// @Param payload body dto.UpdateAnnotationRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{documentId}/annotations/{annotationId} [put]
func (h *AnnotationHandler) Update(c *gin.Context) {
	viewer, document, ok := h.resolve(c)
	if !ok {
		return
	}

	var req dto.UpdateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid annotation payload"))
		return
	}

	annotation, err := h.service.Update(c.Request.Context(), viewer, document, c.Param("annotationId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := h.canonicalOne(c, viewer, document, annotation)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Delete godoc
// @Summary Delete an annotation
// @Tags Annotations
// @Param documentId path string true "Document ID"
// @Param annotationId path string true "Annotation ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{documentId}/annotations/{annotationId} [delete]
func (h *AnnotationHandler) Delete(c *gin.Context) {
	viewer, document, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), viewer, document, c.Param("annotationId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export a document's annotations
// @Description Downloads the caller-visible annotations as CSV or PDF
// @Tags Annotations
// @Produce octet-stream
// @Param documentId path string true "Document ID"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200
// @Failure 400 {object} response.Envelope
// @Router /documents/{documentId}/annotations/export [get]
func (h *AnnotationHandler) Export(c *gin.Context) {
	viewer, document, ok := h.resolve(c)
	if !ok {
		return
	}

	format := models.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.Generate(c.Request.Context(), viewer, document, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// resolve loads the viewer and the addressed document, answering the request
// itself when either fails.
func (h *AnnotationHandler) resolve(c *gin.Context) (access.Viewer, *models.Document, bool) {
	viewer, err := h.service.ResolveViewer(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return access.Viewer{}, nil, false
	}
	document, err := h.service.Document(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		response.Error(c, err)
		return access.Viewer{}, nil, false
	}
	return viewer, document, true
}

func (h *AnnotationHandler) canonicalOne(c *gin.Context, v access.Viewer, document *models.Document, annotation *models.Annotation) (map[string]interface{}, error) {
	canonicalizer, err := h.service.NewCanonicalizer(c.Request.Context(), v, document, []models.Annotation{*annotation}, canonicalOptionsFromQuery(c))
	if err != nil {
		return nil, err
	}
	return canonicalizer.Canonical(annotation), nil
}

func canonicalOptionsFromQuery(c *gin.Context) dto.CanonicalOptions {
	return dto.CanonicalOptions{
		IncludeComments:    boolQuery(c, "include_comments", true),
		IncludeImageURL:    boolQuery(c, "include_image_url", false),
		IncludeDocumentURL: boolQuery(c, "include_document_url", false),
	}
}

func boolQuery(c *gin.Context, name string, fallback bool) bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
