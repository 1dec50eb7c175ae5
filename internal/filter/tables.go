package filter

import "strings"

// Tables is the set of tables currently under consideration.
// Lookups are case-insensitive since catalogs do not agree on name case.
type Tables map[string]struct{}

func NewTables(names []string) Tables {
	t := make(Tables, len(names))
	for _, n := range names {
		t[strings.ToLower(n)] = struct{}{}
	}
	return t
}

func (t Tables) Contains(table string) bool {
	_, ok := t[strings.ToLower(table)]
	return ok
}

func (t Tables) Len() int {
	return len(t)
}
