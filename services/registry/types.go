// Package registry implements traversal of the judicial virtual office's
// "mis causas" sections: paginated case discovery, per-case movement
// extraction and collection of the documents attached to each movement.
package registry

import (
	"strings"

	"causawatch-backend/lib/textutil"
	"causawatch-backend/services/registry/artifact"
)

// CaseIdentifiers holds whatever identifying fields a section exposes for a
// case. Not every field applies to every section, but at least one is set
// for any case that reached extraction.
type CaseIdentifiers struct {
	// book number ("Libro"), supreme and appeals courts
	Book string
	// docket number digits, collections court ("D-<n>-<year>")
	Rit string
	// case role digits, civil court ("C-<n>-<year>")
	Rol string
	Caption  string
	Tribunal string
}

func (c CaseIdentifiers) Empty() bool {
	return c.Book == "" && c.Rit == "" && c.Rol == "" &&
		c.Caption == "" && c.Tribunal == ""
}

// Fragment returns the best short filesystem-safe identifier for artifact
// naming: the book number, then the civil role, then the collections docket,
// then a clamped caption.
func (c CaseIdentifiers) Fragment() string {
	switch {
	case c.Book != "":
		return textutil.SanitizeFilename(c.Book, 20)
	case c.Rol != "":
		return textutil.SanitizeFilename(c.Rol, 20)
	case c.Rit != "":
		return textutil.SanitizeFilename(c.Rit, 20)
	}
	return textutil.SanitizeFilename(c.Caption, 30)
}

// Notebook is a named sub-collection of movements within one case, exposed
// by some sections as a <select> over procedural books.
type Notebook struct {
	// visible option text
	Name string
	// option value attribute
	Value string
}

// Movement is one procedural event on a case for a given date.
type Movement struct {
	// may be empty for "escritos por resolver" entries
	Folio    string
	Section  string
	Caption  string
	// as rendered by the registry, DD/MM/YYYY
	Date        string
	Identifiers CaseIdentifiers
	// empty for sections without notebooks
	Notebook string

	Documents []artifact.Artifact
	// fetched files from the nested appeals-court record, supreme court only
	AppealFiles []string

	// set when the cross-run seen store already contained this movement;
	// such movements are counted but excluded from the notification
	PreviouslySeen bool
}

// Key renders the movement's identity for deduplication: section, caption,
// date, folio, notebook and every identifier field.
func (m *Movement) Key() string {
	return strings.Join([]string{
		m.Section,
		m.Caption,
		m.Date,
		m.Folio,
		m.Notebook,
		m.Identifiers.Book,
		m.Identifiers.Rit,
		m.Identifiers.Rol,
		m.Identifiers.Caption,
		m.Identifiers.Tribunal,
	}, "|")
}
