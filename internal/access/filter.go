package access

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/malkassem/documentcloud/internal/models"
)

// Op enumerates the comparison operators a condition may use.
type Op int

const (
	OpEq Op = iota
	OpIn
)

// Cond is a single column comparison. Value is a string for OpEq and a
// []string for OpIn.
type Cond struct {
	Column string
	Op     Op
	Value  interface{}
}

// Eq builds an equality condition.
func Eq(column, value string) Cond {
	return Cond{Column: column, Op: OpEq, Value: value}
}

// In builds a set-membership condition.
func In(column string, values []string) Cond {
	return Cond{Column: column, Op: OpIn, Value: values}
}

// Clause is a conjunction of conditions.
type Clause []Cond

// Filter is a disjunction of clauses selecting the annotations a viewer may
// see. It evaluates the same rules as Visible, either in memory via Match or
// against the store via SQL.
type Filter struct {
	Clauses []Clause
}

// BuildFilter derives the bulk filter for a viewer. Public annotations are
// always selected; a signed-in viewer adds its organization's exclusive
// annotations and its own private ones; a viewer with project grants adds
// exclusive annotations on the reachable documents.
func BuildFilter(v Viewer) Filter {
	f := Filter{Clauses: []Clause{
		{Eq("access", string(models.AccessPublic))},
	}}
	if v.Anonymous() {
		return f
	}
	f.Clauses = append(f.Clauses,
		Clause{Eq("access", string(models.AccessExclusive)), Eq("organization_id", v.Account.OrganizationID)},
		Clause{Eq("access", string(models.AccessPrivate)), Eq("account_id", v.Account.ID)},
	)
	if len(v.SharedDocumentIDs) > 0 {
		f.Clauses = append(f.Clauses,
			Clause{Eq("access", string(models.AccessExclusive)), In("document_id", v.SharedDocumentIDs)},
		)
	}
	return f
}

// Match reports whether the annotation satisfies the filter in memory.
func (f Filter) Match(n *models.Annotation) bool {
	for _, clause := range f.Clauses {
		if clause.match(n) {
			return true
		}
	}
	return false
}

func (cl Clause) match(n *models.Annotation) bool {
	for _, c := range cl {
		if !c.match(n) {
			return false
		}
	}
	return len(cl) > 0
}

func (c Cond) match(n *models.Annotation) bool {
	got := columnValue(n, c.Column)
	switch c.Op {
	case OpEq:
		want, ok := c.Value.(string)
		return ok && got == want
	case OpIn:
		want, ok := c.Value.([]string)
		if !ok {
			return false
		}
		for _, w := range want {
			if got == w {
				return true
			}
		}
	}
	return false
}

// columnValue maps a filter column to the annotation field it constrains.
// Unknown columns match nothing.
func columnValue(n *models.Annotation, column string) string {
	switch column {
	case "access":
		return string(n.Access)
	case "organization_id":
		return n.OrganizationID
	case "account_id":
		return n.AccountID
	case "document_id":
		return n.DocumentID
	}
	return ""
}

// SQL renders the filter as a parameterized WHERE fragment. Placeholders
// start at $argOffset+1 so callers can splice the fragment after their own
// arguments. Set-membership conditions render as = ANY with a pq array.
func (f Filter) SQL(table string, argOffset int) (string, []interface{}) {
	if len(f.Clauses) == 0 {
		return "FALSE", nil
	}
	var args []interface{}
	groups := make([]string, 0, len(f.Clauses))
	for _, clause := range f.Clauses {
		parts := make([]string, 0, len(clause))
		for _, c := range clause {
			column := c.Column
			if table != "" {
				column = table + "." + c.Column
			}
			switch c.Op {
			case OpIn:
				args = append(args, pq.Array(c.Value))
				parts = append(parts, fmt.Sprintf("%s = ANY($%d)", column, argOffset+len(args)))
			default:
				args = append(args, c.Value)
				parts = append(parts, fmt.Sprintf("%s = $%d", column, argOffset+len(args)))
			}
		}
		groups = append(groups, "("+strings.Join(parts, " AND ")+")")
	}
	return "(" + strings.Join(groups, " OR ") + ")", args
}
