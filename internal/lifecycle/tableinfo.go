package lifecycle

// TableInfo carries state between the before and after hooks of one table.
// It lives exactly as long as the import of that table.
type TableInfo struct {
	Name    string
	Columns map[string]string // column name -> column type, optional

	data map[string]any
}

func NewTableInfo(name string) *TableInfo {
	return &TableInfo{Name: name}
}

func (t *TableInfo) Put(key string, value any) {
	if t.data == nil {
		t.data = make(map[string]any)
	}
	t.data[key] = value
}

func (t *TableInfo) Get(key string) any {
	return t.data[key]
}

// Bool returns the value of key if it holds a bool, false otherwise.
func (t *TableInfo) Bool(key string) bool {
	b, _ := t.data[key].(bool)
	return b
}
