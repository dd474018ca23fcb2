package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/malkassem/documentcloud/internal/access"
	"github.com/malkassem/documentcloud/internal/middleware"
	"github.com/malkassem/documentcloud/internal/models"
	appErrors "github.com/malkassem/documentcloud/pkg/errors"
	"github.com/malkassem/documentcloud/pkg/response"
)

type aggregationService interface {
	CountsByDocument(ctx context.Context, v access.Viewer, documentIDs []string) (map[string]int, bool, error)
	PublicNoteCountsByOrganization(ctx context.Context) (map[string]int, bool, error)
}

type viewerResolver interface {
	ResolveViewer(ctx context.Context, claims *models.JWTClaims) (access.Viewer, error)
}

// AggregationHandler wires note-count aggregation to HTTP endpoints.
type AggregationHandler struct {
	service aggregationService
	viewers viewerResolver
}

// NewAggregationHandler constructs the handler.
func NewAggregationHandler(svc aggregationService, viewers viewerResolver) *AggregationHandler {
	return &AggregationHandler{service: svc, viewers: viewers}
}

// Counts godoc
// @Summary Visible note counts per document
// @Description Counts the annotations the caller may see on each requested document
// @Tags Aggregation
// @Produce json
// @Param document_ids query string true "Comma-separated document IDs"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /annotations/counts [get]
func (h *AggregationHandler) Counts(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	documentIDs := splitIDs(c.Query("document_ids"))
	if len(documentIDs) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "document_ids is required"))
		return
	}

	viewer, err := h.viewers.ResolveViewer(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	counts, cacheHit, err := h.service.CountsByDocument(c.Request.Context(), viewer, documentIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, counts, nil, meta)
}

// OrganizationPublicCounts godoc
// @Summary Public note counts per organization
// @Description Counts publicly visible annotations on public documents, grouped by organization
// @Tags Aggregation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /organizations/public-note-counts [get]
func (h *AggregationHandler) OrganizationPublicCounts(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	start := time.Now()
	counts, cacheHit, err := h.service.PublicNoteCountsByOrganization(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, counts, nil, meta)
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
