package search

import (
	"strings"
	"unicode"
)

// Clause is one parsed unit of a free-text query: an optional field scope,
// a term, and the flags controlling how the term is matched. Clauses are
// composed with implicit AND; negated clauses become AND-NOT.
type Clause struct {
	Field    string // empty = default full-text fields
	Term     string
	Negated  bool
	Quoted   bool
	Wildcard bool
}

// ParseQuery parses a free-text query string into an ordered list of
// clauses.
//
// Grammar notes:
//   - `fieldname:` scopes the following term to one indexed field; optional
//     whitespace after the colon is allowed (`series_titles: dancing`).
//   - Double quotes mark an exact phrase and are the only way to include a
//     colon literally; colons outside quotes always mean field scoping.
//   - A leading `-` immediately before a term negates it.
//   - A lone `*` is the wildcard: any document with a non-empty value in
//     the scoped field.
//   - An unterminated quote degrades to treating the rest of the input as
//     a literal phrase rather than erroring.
//
// Other punctuation passes through untouched; only the colon carries
// reserved semantics here.
func ParseQuery(q string) []Clause {
	var clauses []Clause
	runes := []rune(q)
	i := 0

	for i < len(runes) {
		// Skip whitespace between clauses.
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		if i >= len(runes) {
			break
		}

		var c Clause

		// Leading `-` negates the clause. A bare `-` followed by
		// whitespace is just a stray character.
		if runes[i] == '-' && i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			c.Negated = true
			i++
		}

		// Optional field scope: identifier characters followed by a colon.
		if start := i; runes[i] != '"' {
			j := i
			for j < len(runes) && isFieldRune(runes[j]) {
				j++
			}
			if j > i && j < len(runes) && runes[j] == ':' {
				c.Field = string(runes[i:j])
				i = j + 1
				// Whitespace is allowed between the colon and the term.
				for i < len(runes) && unicode.IsSpace(runes[i]) {
					i++
				}
			} else {
				i = start
			}
		}

		if i >= len(runes) {
			// Field scope with no term imposes no constraint.
			break
		}

		if runes[i] == '"' {
			i++
			j := i
			for j < len(runes) && runes[j] != '"' {
				j++
			}
			c.Term = string(runes[i:j])
			c.Quoted = true
			if j < len(runes) {
				j++ // consume closing quote
			}
			i = j
		} else {
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) {
				j++
			}
			c.Term = string(runes[i:j])
			i = j
		}

		c.Term = strings.TrimSpace(c.Term)
		if c.Term == "" && !c.Quoted {
			continue
		}
		if c.Term == "*" && !c.Quoted {
			c.Wildcard = true
		}
		if c.Term == "" {
			continue
		}

		clauses = append(clauses, c)
	}

	return clauses
}

// isFieldRune reports whether r can appear in a field scope name.
func isFieldRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
