package catalog

import (
	"strings"
	"unicode"
)

// Author identifies a person credited for a work's text. Two authors
// are equal iff their normalized keys match.
type Author struct {
	ID        string `json:"id" xml:"id"`
	FirstName string `json:"first_name" xml:"first-name"`
	LastName  string `json:"last_name" xml:"last-name"`
	BirthYear string `json:"dob,omitempty" xml:"birth-year,omitempty"`
	DeathYear string `json:"dod,omitempty" xml:"death-year,omitempty"`
}

// Key returns the normalized grouping/sorting key for an author:
// "lastname, firstname" lower-cased with leading punctuation stripped.
func (a Author) Key() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.LastName))
	if a.FirstName != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strings.TrimSpace(a.FirstName))
	}
	key := strings.ToLower(b.String())
	return strings.TrimLeftFunc(key, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// Name returns the author's display name, "Firstname Lastname".
func (a Author) Name() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// Reader identifies a person who narrated one or more sections.
type Reader struct {
	ID   string `json:"reader_id" xml:"id"`
	Name string `json:"display_name" xml:"name"`
}

// Key returns the normalized grouping key for a reader.
func (r Reader) Key() string {
	return strings.ToLower(strings.TrimSpace(r.Name))
}

// Genre is a catalog genre. The canonical name table is bundled with
// the application and applied at catalog boot.
type Genre struct {
	ID   string `json:"id" xml:"id"`
	Name string `json:"name" xml:"name"`
}

// Key returns the normalized grouping key for a genre.
func (g Genre) Key() string {
	return strings.ToLower(strings.TrimSpace(g.Name))
}

// Language is a language tag as reported by the record API ("English").
type Language string

// Key returns the normalized grouping key for a language.
func (l Language) Key() string {
	return strings.ToLower(strings.TrimSpace(string(l)))
}
