package models

// Access represents the visibility tier of an annotation or document.
type Access string

const (
	AccessPublic    Access = "public"
	AccessPrivate   Access = "private"
	AccessExclusive Access = "exclusive"
	// AccessOrganization is accepted for comment policy only, where it is
	// treated the same as AccessExclusive.
	AccessOrganization Access = "organization"
)

// Valid reports whether a is a recognized annotation access level.
func (a Access) Valid() bool {
	switch a {
	case AccessPublic, AccessPrivate, AccessExclusive:
		return true
	}
	return false
}

// ValidCommentAccess reports whether a is a recognized comment access level.
func (a Access) ValidCommentAccess() bool {
	return a.Valid() || a == AccessOrganization
}

// Role represents an account's role within its organization.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleContributor   Role = "CONTRIBUTOR"
	RoleFreelancer    Role = "FREELANCER"
	RoleReviewer      Role = "REVIEWER"
	RoleDisabled      Role = "DISABLED"
)

// Privileged reports whether the role belongs to the tier whose organization
// name may be disclosed in annotation attribution.
func (r Role) Privileged() bool {
	switch r {
	case RoleAdministrator, RoleContributor, RoleFreelancer:
		return true
	}
	return false
}
