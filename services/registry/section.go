package registry

import "causawatch-backend/lib/browser"

// Section is the static configuration of one registry partition. Sections
// are never mutated at runtime; each run instantiates fresh strategies from
// them.
type Section struct {
	Name string
	// selector of the per-section record counter
	TotalSelector string
	// registry-side function that loads the section's tab
	TabScript string
	// whether the case detail exposes a notebook <select>
	HasNotebooks bool

	NewStrategy func(page browser.Page) Strategy
}

// BuiltinSections returns every supported section in traversal order.
func BuiltinSections() []Section {
	return []Section{
		SupremaSection(),
		ApelacionesSection(),
		CivilSection(),
		CobranzaSection(),
	}
}

// SectionsByName filters the built-ins to the named ones, preserving the
// built-in order. Unknown names are ignored.
func SectionsByName(names []string) []Section {
	wanted := map[string]bool{}
	for _, name := range names {
		wanted[name] = true
	}
	var out []Section
	for _, section := range BuiltinSections() {
		if wanted[section.Name] {
			out = append(out, section)
		}
	}
	return out
}
