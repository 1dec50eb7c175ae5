package filter

import (
	"strings"
	"sync"
)

// IgnoredTables is the set of tables excluded from import, export and
// constraint toggling. The configuration string is parsed once, on first use.
type IgnoredTables struct {
	config string
	once   sync.Once
	names  map[string]struct{}
}

// NewIgnoredTables returns a filter for a comma-separated list of table names.
func NewIgnoredTables(config string) *IgnoredTables {
	return &IgnoredTables{config: config}
}

func (f *IgnoredTables) parse() {
	f.names = make(map[string]struct{})
	for _, part := range strings.Split(f.config, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		f.names[strings.ToLower(name)] = struct{}{}
	}
}

// IsIgnored reports whether a table is excluded. An empty name is always ignored.
func (f *IgnoredTables) IsIgnored(table string) bool {
	if table == "" {
		return true
	}
	if f == nil {
		return false
	}
	f.once.Do(f.parse)
	_, ok := f.names[strings.ToLower(table)]
	return ok
}

// Names returns the configured names, lower-cased, in no particular order.
func (f *IgnoredTables) Names() []string {
	if f == nil {
		return nil
	}
	f.once.Do(f.parse)
	names := make([]string, 0, len(f.names))
	for n := range f.names {
		names = append(names, n)
	}
	return names
}

// Split partitions tables into kept and ignored, preserving input order.
func (f *IgnoredTables) Split(tables []string) (kept, ignored []string) {
	kept = make([]string, 0, len(tables))
	for _, t := range tables {
		if f.IsIgnored(t) {
			ignored = append(ignored, t)
			continue
		}
		kept = append(kept, t)
	}
	return kept, ignored
}
