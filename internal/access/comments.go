package access

import "github.com/malkassem/documentcloud/internal/models"

// AllowsComments reports whether the viewer may read or post comments on the
// annotation, combining the annotation's comment_access with the viewer's
// relation to its author. Anonymous and organization-less viewers go through
// the same rules; with no account every relation below is false, so only
// public comment access passes for them.
func AllowsComments(n *models.Annotation, v Viewer) bool {
	switch n.CommentAccess {
	case models.AccessPublic:
		return true
	case models.AccessPrivate:
		return v.Account.Owns(n)
	case models.AccessExclusive, models.AccessOrganization:
		if v.Account.Owns(n) || v.Account.Collaborates(n) {
			return true
		}
		return v.SharesDocument(n.DocumentID)
	}
	return false
}
