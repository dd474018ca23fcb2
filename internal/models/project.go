package models

import "time"

// Project groups documents for shared access across organization boundaries.
type Project struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Title          string    `db:"title" json:"title"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectMembership maps a document into a project.
type ProjectMembership struct {
	ProjectID  string `db:"project_id" json:"project_id"`
	DocumentID string `db:"document_id" json:"document_id"`
}

// ProjectCollaboration grants an account access to a project.
type ProjectCollaboration struct {
	ProjectID string `db:"project_id" json:"project_id"`
	AccountID string `db:"account_id" json:"account_id"`
}
