// Package table implements the insertion-ordered name table shared by the
// compiler's symbol spaces (locals, upvalues, globals, let-bindings) and the
// native-function registry.
package table

import "github.com/dolthub/swiss"

// Table maps names to the index at which they were first inserted. Inserting
// a name that already exists is a no-op: once assigned, an index never
// changes and the table never shrinks.
type Table struct {
	index *swiss.Map[string, int]
	items []string
}

// New returns an empty Table.
func New() *Table {
	return &Table{index: swiss.NewMap[string, int](8)}
}

// Insert adds name to the table if not already present, and returns its
// index either way.
func (t *Table) Insert(name string) int {
	if idx, ok := t.index.Get(name); ok {
		return idx
	}
	idx := len(t.items)
	t.items = append(t.items, name)
	t.index.Put(name, idx)
	return idx
}

// GetIndex returns the index of name and true if present.
func (t *Table) GetIndex(name string) (int, bool) {
	return t.index.Get(name)
}

// Has reports whether name is present in the table.
func (t *Table) Has(name string) bool {
	_, ok := t.index.Get(name)
	return ok
}

// Retrieve returns the name stored at idx. It panics if idx is out of range,
// mirroring the original's behavior of indexing directly into its backing
// vector.
func (t *Table) Retrieve(idx int) string {
	return t.items[idx]
}

// Len returns the number of names in the table.
func (t *Table) Len() int {
	return len(t.items)
}

// IsEmpty reports whether the table holds no names.
func (t *Table) IsEmpty() bool {
	return len(t.items) == 0
}

// Clone returns an independent copy of t with the same names at the same
// indices; inserts into the copy do not affect t.
func (t *Table) Clone() *Table {
	c := New()
	for _, name := range t.items {
		c.Insert(name)
	}
	return c
}
