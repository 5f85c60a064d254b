package specification

import (
	"strings"

	"gorm.io/gorm"
)

// ByDocID filters knowledge records by their public document id.
type ByDocID struct {
	DocID string
}

func (s ByDocID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_id = ?", s.DocID)
}

// MatchingAnyTerm keeps records whose title, section, text or keywords contain at least one term,
// case-insensitively.
type MatchingAnyTerm struct {
	Terms []string
}

func (s MatchingAnyTerm) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Terms) == 0 {
		return db
	}

	clauses := make([]string, 0, len(s.Terms))
	args := make([]interface{}, 0, len(s.Terms)*4)
	for _, term := range s.Terms {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		clauses = append(clauses, "(title ILIKE ? OR section ILIKE ? OR text ILIKE ? OR keywords::text ILIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern)
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
