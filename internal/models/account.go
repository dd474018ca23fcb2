package models

import (
	"strings"
	"time"
)

// Account represents an application user stored in the accounts table.
type Account struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Role           Role      `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the account's display name.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Owns reports whether the account authored the annotation.
func (a *Account) Owns(n *Annotation) bool {
	return a != nil && n.AccountID == a.ID
}

// Collaborates reports whether the account may act on the annotation as a
// same-organization collaborator: it must hold a privileged role inside the
// annotation's organization.
func (a *Account) Collaborates(n *Annotation) bool {
	return a != nil && a.Role.Privileged() && n.OrganizationID == a.OrganizationID
}

// AccountWithOrganization joins an account row with its organization name
// for the bulk attribution read.
type AccountWithOrganization struct {
	Account
	OrganizationName *string `db:"organization_name" json:"organization_name,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
