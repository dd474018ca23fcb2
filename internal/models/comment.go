package models

import "time"

// Comment represents a reply attached to an annotation.
type Comment struct {
	ID           string    `db:"id" json:"id"`
	AnnotationID string    `db:"annotation_id" json:"annotation_id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	Content      string    `db:"content" json:"content"`
	Draft        bool      `db:"draft" json:"draft"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AccessibleTo reports whether the account may read the comment. Drafts stay
// visible to their author only; published comments follow the enclosing
// annotation's policy and are not re-checked here.
func (c *Comment) AccessibleTo(account *Account) bool {
	if !c.Draft {
		return true
	}
	return account != nil && c.AccountID == account.ID
}
