package service

import (
	"context"

	"github.com/malkassem/documentcloud/internal/access"
	"github.com/malkassem/documentcloud/internal/dto"
	"github.com/malkassem/documentcloud/internal/models"
	appErrors "github.com/malkassem/documentcloud/pkg/errors"
)

// AssetURLBuilder produces public URLs for document assets.
type AssetURLBuilder interface {
	PageImageTemplate(document *models.Document) string
	DocumentURL(document *models.Document) string
}

// Canonicalizer renders annotations into their canonical map form for one
// request. Comments for the whole batch are loaded in a single read at
// construction, and each annotation's filtered comment list is computed once
// and reused across repeated Canonical calls.
type Canonicalizer struct {
	viewer   access.Viewer
	document *models.Document
	opts     dto.CanonicalOptions
	assets   AssetURLBuilder

	raw      map[string][]models.Comment
	filtered map[string][]map[string]interface{}
}

// NewCanonicalizer prepares a canonicalizer for a batch of annotations on
// one document.
func (s *AnnotationService) NewCanonicalizer(ctx context.Context, v access.Viewer, document *models.Document, batch []models.Annotation, opts dto.CanonicalOptions) (*Canonicalizer, error) {
	c := &Canonicalizer{
		viewer:   v,
		document: document,
		opts:     opts,
		assets:   s.assets,
		raw:      map[string][]models.Comment{},
		filtered: map[string][]map[string]interface{}{},
	}
	if !opts.IncludeComments || len(batch) == 0 {
		return c, nil
	}

	ids := make([]string, 0, len(batch))
	for i := range batch {
		ids = append(ids, batch[i].ID)
	}
	comments, err := s.comments.ListByAnnotationIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}
	for _, comment := range comments {
		c.raw[comment.AnnotationID] = append(c.raw[comment.AnnotationID], comment)
	}
	return c, nil
}

// Canonical renders one annotation. The comments key appears only when the
// canonicalizer was built with comments included; location and attribution
// appear only when set.
func (c *Canonicalizer) Canonical(annotation *models.Annotation) map[string]interface{} {
	out := map[string]interface{}{
		"id":             annotation.ID,
		"page":           annotation.PageNumber,
		"title":          annotation.Title,
		"content":        annotation.Content,
		"access":         string(annotation.Access),
		"comment_access": string(annotation.CommentAccess),
	}
	if annotation.Location != nil {
		out["location"] = map[string]interface{}{"image": *annotation.Location}
	}
	if c.opts.IncludeImageURL {
		out["image_url"] = c.assets.PageImageTemplate(c.document)
	}
	if c.opts.IncludeDocumentURL {
		out["published_url"] = c.assets.DocumentURL(c.document)
	}
	if author := annotation.Author; author != nil {
		out["author_name"] = author.FullName
		out["owns_note"] = author.OwnsNote
		if author.OrganizationName != "" {
			out["organization_name"] = author.OrganizationName
		}
	}
	if c.opts.IncludeComments {
		out["comments"] = c.commentsFor(annotation)
	}
	return out
}

// CanonicalBatch renders a batch in order.
func (c *Canonicalizer) CanonicalBatch(batch []models.Annotation) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(batch))
	for i := range batch {
		out = append(out, c.Canonical(&batch[i]))
	}
	return out
}

// commentsFor returns the viewer-visible comments of an annotation. The
// comment access level decides whether the viewer may see the conversation
// at all, then drafts stay hidden from everyone but their author.
func (c *Canonicalizer) commentsFor(annotation *models.Annotation) []map[string]interface{} {
	if cached, ok := c.filtered[annotation.ID]; ok {
		return cached
	}

	visible := make([]map[string]interface{}, 0)
	if access.AllowsComments(annotation, c.viewer) {
		for _, comment := range c.raw[annotation.ID] {
			if !comment.AccessibleTo(c.viewer.Account) {
				continue
			}
			visible = append(visible, map[string]interface{}{
				"id":         comment.ID,
				"account_id": comment.AccountID,
				"content":    comment.Content,
				"draft":      comment.Draft,
			})
		}
	}
	c.filtered[annotation.ID] = visible
	return visible
}
