package command

// Command is one DDL statement targeting a table.
type Command struct {
	Table       string
	Description string
	SQL         string
}

// Set buckets commands by owning table. Commands of one table keep their
// insertion order; tables are listed in the order they were first seen.
type Set struct {
	order  []string
	groups map[string][]Command
	size   int
}

func NewSet() *Set {
	return &Set{groups: make(map[string][]Command)}
}

func (s *Set) Add(table, description, sql string) {
	if _, ok := s.groups[table]; !ok {
		s.order = append(s.order, table)
	}
	s.groups[table] = append(s.groups[table], Command{Table: table, Description: description, SQL: sql})
	s.size++
}

// Tables returns the group keys in first-seen order.
func (s *Set) Tables() []string {
	return append([]string(nil), s.order...)
}

func (s *Set) Group(table string) []Command {
	return s.groups[table]
}

// Len returns the total number of commands.
func (s *Set) Len() int {
	return s.size
}
