package dto

// CreateAnnotationRequest carries a new annotation. Ownership and access
// fields are optional; values left unset inherit from the parent document
// before validation.
type CreateAnnotationRequest struct {
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	PageNumber     *int    `json:"page_number"`
	Location       *string `json:"location"`
	Access         *string `json:"access"`
	CommentAccess  *string `json:"comment_access"`
	OrganizationID *string `json:"organization_id"`
	AccountID      *string `json:"account_id"`
}

// UpdateAnnotationRequest carries a partial annotation update. Nil fields
// keep their stored values.
type UpdateAnnotationRequest struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	PageNumber    *int    `json:"page_number"`
	Location      *string `json:"location"`
	Access        *string `json:"access"`
	CommentAccess *string `json:"comment_access"`
}

// CanonicalOptions controls the canonical annotation payload.
type CanonicalOptions struct {
	IncludeComments    bool
	IncludeImageURL    bool
	IncludeDocumentURL bool
}

// DefaultCanonicalOptions returns the defaults: comments included, image and
// document URLs omitted.
func DefaultCanonicalOptions() CanonicalOptions {
	return CanonicalOptions{IncludeComments: true}
}
