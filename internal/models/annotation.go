package models

import "time"

// Annotation represents a persisted note row attached to a document page.
type Annotation struct {
	ID             string    `db:"id" json:"id"`
	DocumentID     string    `db:"document_id" json:"document_id"`
	AccountID      string    `db:"account_id" json:"account_id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Access         Access    `db:"access" json:"access"`
	CommentAccess  Access    `db:"comment_access" json:"comment_access"`
	Title          string    `db:"title" json:"title"`
	Content        string    `db:"content" json:"content"`
	PageNumber     int       `db:"page_number" json:"page_number"`
	Location       *string   `db:"location" json:"location,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	// Author is attached by the attribution pass; it is never persisted.
	Author *AuthorInfo `db:"-" json:"author,omitempty"`
}

// AuthorInfo carries the display attribution attached to an annotation.
// OrganizationName is populated only when the author's role is privileged.
type AuthorInfo struct {
	AccountID        string `json:"account_id"`
	FullName         string `json:"author_name"`
	OwnsNote         bool   `json:"owns_note"`
	OrganizationName string `json:"organization_name,omitempty"`
}

// AnnotationFilter captures listing criteria for annotations.
type AnnotationFilter struct {
	DocumentID string
	Page       int
	PageSize   int
}
