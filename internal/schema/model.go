package schema

// Table is a node of the foreign key graph. Dependencies are the tables it
// references, so they have to be loaded first.
type Table struct {
	Name         string
	Dependencies []string
}
