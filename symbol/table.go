// Package symbol holds the assembler's symbol tables, and resolves
// deferred constant definitions in dependency order.
package symbol

import (
	"iter"
	"maps"
	"slices"
)

// Scope is the lifetime of a symbol.
type Scope int

const (
	Global = Scope(iota) // Lives for the whole run.
	Local                // Lives until the next global declaration.
	Macro                // Lives for one macro expansion.
)

type entry struct {
	value uint16
	scope Scope
}

// Table maps names to 16-bit values. The zero value is ready to use.
type Table struct {
	entries map[string]entry
}

// Binding is a saved table entry, used to undo a shadowing definition.
type Binding struct {
	Name    string
	Value   uint16
	Scope   Scope
	Existed bool
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: map[string]entry{}}
}

// Lookup returns the value of a name.
func (tb *Table) Lookup(name string) (value uint16, ok bool) {
	e, ok := tb.entries[name]
	return e.value, ok
}

// Has returns true if the name is defined.
func (tb *Table) Has(name string) bool {
	_, ok := tb.entries[name]
	return ok
}

// Set defines or replaces a name.
func (tb *Table) Set(name string, value uint16, scope Scope) {
	if tb.entries == nil {
		tb.entries = map[string]entry{}
	}
	tb.entries[name] = entry{value: value, scope: scope}
}

// Delete removes a name, returning true if it was defined.
func (tb *Table) Delete(name string) (ok bool) {
	_, ok = tb.entries[name]
	delete(tb.entries, name)
	return
}

// Bind defines a name, returning the binding it replaced.
func (tb *Table) Bind(name string, value uint16, scope Scope) (saved Binding) {
	e, ok := tb.entries[name]
	saved = Binding{Name: name, Value: e.value, Scope: e.scope, Existed: ok}
	tb.Set(name, value, scope)
	return
}

// Restore undoes bindings, most recent first.
func (tb *Table) Restore(saved []Binding) {
	for _, b := range slices.Backward(saved) {
		if b.Existed {
			tb.Set(b.Name, b.Value, b.Scope)
		} else {
			delete(tb.entries, b.Name)
		}
	}
}

// Clear removes every name in a scope.
func (tb *Table) Clear(scope Scope) {
	maps.DeleteFunc(tb.entries, func(_ string, e entry) bool {
		return e.scope == scope
	})
}

// Override sets each name in values, and returns a function that restores
// the table to its previous contents.
func (tb *Table) Override(values map[string]uint16) (restore func()) {
	var saved []Binding
	for _, name := range slices.Sorted(maps.Keys(values)) {
		saved = append(saved, tb.Bind(name, values[name], Global))
	}
	return func() {
		tb.Restore(saved)
	}
}

// Clone returns an independent copy of the table.
func (tb *Table) Clone() *Table {
	clone := NewTable()
	maps.Copy(clone.entries, tb.entries)
	return clone
}

// Len returns the number of names defined.
func (tb *Table) Len() int {
	return len(tb.entries)
}

// Names returns all the names of a scope, sorted.
func (tb *Table) Names(scope Scope) []string {
	var names []string
	for name, e := range tb.entries {
		if e.scope == scope {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// All iterates over every name and value, sorted by name.
func (tb *Table) All() iter.Seq2[string, uint16] {
	return func(yield func(string, uint16) bool) {
		for _, name := range slices.Sorted(maps.Keys(tb.entries)) {
			if !yield(name, tb.entries[name].value) {
				return
			}
		}
	}
}

// Snapshot returns the current values of the names that are defined.
func (tb *Table) Snapshot(names []string) (values map[string]uint16) {
	for _, name := range names {
		if e, ok := tb.entries[name]; ok {
			if values == nil {
				values = map[string]uint16{}
			}
			values[name] = e.value
		}
	}
	return
}
