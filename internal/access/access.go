// Package access implements the visibility rules for annotations and their
// comments. Every decision is a pure function of the annotation and a Viewer;
// there is no storage access here. The same rules exist in two forms, a
// per-entity predicate (Visible) and a bulk filter (BuildFilter), which must
// agree on every input.
package access

import "github.com/malkassem/documentcloud/internal/models"

// Viewer bundles the acting account with the document ids it can reach
// through project collaborations. Account nil means anonymous. The shared
// document set is resolved once per request by the caller so that every
// decision in the request sees the same grants.
type Viewer struct {
	Account           *models.Account
	SharedDocumentIDs []string
}

// Anonymous reports whether the viewer carries no account.
func (v Viewer) Anonymous() bool {
	return v.Account == nil
}

// SharesDocument reports whether id is in the viewer's reachable set.
func (v Viewer) SharesDocument(id string) bool {
	for _, d := range v.SharedDocumentIDs {
		if d == id {
			return true
		}
	}
	return false
}

// Visible reports whether the viewer may see the annotation. Rules apply in
// order: public annotations are visible to everyone including anonymous
// viewers; all other levels require an account; exclusive opens to the
// annotation's organization, private to the exact author, and exclusive
// additionally to viewers whose projects reach the annotation's document.
func Visible(n *models.Annotation, v Viewer) bool {
	if n.Access == models.AccessPublic {
		return true
	}
	if v.Anonymous() {
		return false
	}
	if n.Access == models.AccessExclusive && n.OrganizationID == v.Account.OrganizationID {
		return true
	}
	if n.Access == models.AccessPrivate && n.AccountID == v.Account.ID {
		return true
	}
	if n.Access == models.AccessExclusive && v.SharesDocument(n.DocumentID) {
		return true
	}
	return false
}
