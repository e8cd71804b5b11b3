package compiler

// IdentTable maps identifier names to dense integer ids. Ids are handed out
// lazily, the first time a name is interned, starting at 0. The table is
// append-only.
type IdentTable struct {
	ids   map[string]int
	names []string
}

// NewIdentTable creates an empty identifier table.
func NewIdentTable() *IdentTable {
	return &IdentTable{ids: make(map[string]int)}
}

// Intern returns the id of a name, assigning a new one if the name has not
// been seen before.
func (t *IdentTable) Intern(name string) int {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := len(t.names)
	t.ids[name] = id
	t.names = append(t.names, name)
	return id
}

// Lookup returns the id of a name without interning it.
func (t *IdentTable) Lookup(name string) (int, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Name returns the name for an id, or "" for unknown ids.
func (t *IdentTable) Name(id int) string {
	if id < 0 || id >= len(t.names) {
		return ""
	}
	return t.names[id]
}

// Len is the number of interned names.
func (t *IdentTable) Len() int {
	return len(t.names)
}

// Names returns a copy of all names, in id order.
func (t *IdentTable) Names() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}
