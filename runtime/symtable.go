package runtime

import (
	"fmt"
)

// Symbol table for variables. Symbol tables are attached to scopes.
// Scopes are organized in a tree, with closures holding on to inner scopes.
//

// --- Tags -------------------------------------------------------

// Tag is the symbols type to be stored into symbol tables. It may be a
// little surprising this type is not called 'Symbol', but I prefer the
// name 'Tag' because it is less confusing when dealing with parsers
// and compilers: the compiler interns symbols (identifiers) into ids,
// tags bind these ids to values during runtime.
//
type Tag struct {
	id    int
	name  string
	Value Value
}

// NewTag creates a new tag for an identifier id. The name is for
// debugging purposes only.
func NewTag(id int, nm string) *Tag {
	return &Tag{id: id, name: nm, Value: None}
}

// String is a debug Stringer for symbols.
func (s *Tag) String() string {
	return fmt.Sprintf("<tag '%s'[%d]=%s>", s.name, s.id, Repr(s.Value))
}

// Name gets the tag's name.
func (s *Tag) Name() string {
	return s.name
}

// ID gets the tag's identifier id.
func (s *Tag) ID() int {
	return s.id
}

// === Symbol Tables =========================================================

// SymbolTable is a symbol table to store tags (map-like semantics).
type SymbolTable struct {
	Table map[int]*Tag
}

// NewSymbolTable creates an empty symbol table.
//
func NewSymbolTable() *SymbolTable {
	var symtab = SymbolTable{
		Table: make(map[int]*Tag),
	}
	return &symtab
}

// ResolveTag checks for a tag in the symbol table.
// Returns a tag or nil.
//
func (t *SymbolTable) ResolveTag(id int) *Tag {
	return t.Table[id]
}

// DefineTag creates a new tag to store into the symbol table.
// Overwrites an existing tag with this id, if any.
// Returns the new tag and the previously stored tag (or nil).
//
func (t *SymbolTable) DefineTag(id int, nm string) (*Tag, *Tag) {
	tag := NewTag(id, nm)
	old := t.InsertTag(tag)
	return tag, old
}

// InsertTag inserts a pre-created symbol.
func (t *SymbolTable) InsertTag(tag *Tag) *Tag {
	old := t.ResolveTag(tag.id)
	t.Table[tag.id] = tag
	return old
}

// Size counts the tags in a symbol table.
func (t *SymbolTable) Size() int {
	return len(t.Table)
}

// Each iterates over each tag in the table, executing a mapper function.
func (t *SymbolTable) Each(mapper func(int, *Tag)) {
	for k, v := range t.Table {
		mapper(k, v)
	}
}

// === Scopes ================================================================

// Scope is a named scope, which may contain symbol definitions. Scopes link back to a
// parent scope, forming a tree.
type Scope struct {
	Name   string
	Parent *Scope
	symtab *SymbolTable
}

// NewScope creates a new scope.
func NewScope(nm string, parent *Scope) *Scope {
	sc := &Scope{
		Name:   nm,
		Parent: parent,
		symtab: NewSymbolTable(),
	}
	return sc
}

// Prettyfied Stringer.
func (s *Scope) String() string {
	return fmt.Sprintf("<scope %s>", s.Name)
}

// DefineTag defines a tag in the scope. Returns the new tag and the previously
// stored tag under this key, if any.
//
func (s *Scope) DefineTag(id int, nm string) (*Tag, *Tag) {
	return s.symtab.DefineTag(id, nm)
}

// Bind establishes or overwrites a binding in this scope (not in any of the
// parent scopes).
func (s *Scope) Bind(id int, nm string, v Value) *Tag {
	tag := s.symtab.ResolveTag(id)
	if tag == nil {
		tag, _ = s.DefineTag(id, nm)
	}
	tag.Value = v
	T().P("scope", s.Name).Debugf("bind %s = %s", nm, Repr(v))
	return tag
}

// ResolveTag finds a tag. Returns the tag (or nil) and a scope. The scope is
// the scope (of a scope-tree-path) the tag was found in.
//
func (s *Scope) ResolveTag(id int) (*Tag, *Scope) {
	for sc := s; sc != nil; sc = sc.Parent {
		if tag := sc.symtab.ResolveTag(id); tag != nil {
			return tag, sc
		}
	}
	return nil, nil
}

// Depth is the number of parents of a scope.
func (s *Scope) Depth() int {
	d := 0
	for sc := s.Parent; sc != nil; sc = sc.Parent {
		d++
	}
	return d
}
