package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// User is an account holder. The login is mutable; everything derived from
// it (pseud bylines, sortable creator identities) must be recomputed from
// the current value, never cached.
type User struct {
	Syncable
	Login string `json:"login"`
	Email string `json:"email,omitempty"`
}

// Pseud is a named authoring identity owned by exactly one user. A user's
// default pseud has no display name of its own: its byline is always the
// user's current login.
type Pseud struct {
	Syncable
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// Byline returns the searchable identity of the pseud given the owning
// user's current login. Default pseuds render as the bare login; named
// pseuds as "Name (login)" so both halves are searchable.
func (p *Pseud) Byline(login string) string {
	if p.IsDefault || p.Name == "" || p.Name == login {
		return login
	}
	return p.Name + " (" + login + ")"
}

// SortName returns the sortable identity of the pseud: the display name
// (or current login for default pseuds) case-folded with leading
// non-alphanumeric runes stripped, giving a stable lexical ordering key.
func (p *Pseud) SortName(login string) string {
	name := p.Name
	if p.IsDefault || name == "" {
		name = login
	}
	folded := cases.Fold().String(name)
	return strings.TrimLeftFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
