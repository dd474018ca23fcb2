package models

import (
	"fmt"
	"time"
)

// Document represents a persisted document row that annotations attach to.
type Document struct {
	ID              string    `db:"id" json:"id"`
	Slug            string    `db:"slug" json:"slug"`
	Title           string    `db:"title" json:"title"`
	OrganizationID  string    `db:"organization_id" json:"organization_id"`
	AccountID       string    `db:"account_id" json:"account_id"`
	Access          Access    `db:"access" json:"access"`
	CommentAccess   Access    `db:"comment_access" json:"comment_access"`
	Cacheable       bool      `db:"cacheable" json:"cacheable"`
	PublishedURL    *string   `db:"published_url" json:"published_url,omitempty"`
	PageCount       int       `db:"page_count" json:"page_count"`
	PublicNoteCount int       `db:"public_note_count" json:"public_note_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Canonical returns the slug-qualified identifier used in viewer URLs.
func (d *Document) Canonical() string {
	return fmt.Sprintf("%s-%s", d.ID, d.Slug)
}

// HasPage reports whether page is a valid page number for the document.
func (d *Document) HasPage(page int) bool {
	return page >= 1 && page <= d.PageCount
}
