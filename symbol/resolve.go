package symbol

import (
	"slices"
	"strings"

	"github.com/ezrec/ace3710/expr"
)

// Pending is a constant whose value is computed after all the labels it may
// reference are known.
type Pending struct {
	Name    string            // Symbol name.
	Expr    string            // Expression text.
	Deps    []string          // Referenced names that were not defines at declaration.
	Defines map[string]uint16 // Defines referenced, as of the declaration.

	File   string // Source file of the declaration.
	LineNo int    // Source line of the declaration, 1 based.
	Col    int    // Column of the expression text.
}

// Declare builds a pending constant, capturing the defines its expression
// references at the point of declaration.
func Declare(name, text string, defines *Table) *Pending {
	names := expr.Identifiers(text)
	snapshot := defines.Snapshot(names)
	deps := slices.DeleteFunc(names, func(name string) bool {
		_, ok := snapshot[name]
		return ok
	})
	return &Pending{
		Name:    name,
		Expr:    text,
		Deps:    deps,
		Defines: snapshot,
	}
}

// Resolver evaluates pending constants in dependency order.
type Resolver struct {
	order   []*Pending
	pending map[string]*Pending
}

// Add a pending constant.
func (rs *Resolver) Add(p *Pending) (err error) {
	if rs.Has(p.Name) {
		err = ErrDuplicate(p.Name)
		return
	}
	if rs.pending == nil {
		rs.pending = map[string]*Pending{}
	}
	rs.order = append(rs.order, p)
	rs.pending[p.Name] = p
	return
}

// Has returns true if the name is pending.
func (rs *Resolver) Has(name string) bool {
	_, ok := rs.pending[name]
	return ok
}

// Len returns the number of pending constants.
func (rs *Resolver) Len() int {
	return len(rs.order)
}

type resolution struct {
	*Resolver
	vars    *Table
	defines *Table
	scope   Scope
	done    map[string]bool
	path    []string
}

// Resolve evaluates every pending constant in declaration order, storing
// the values into vars with the given scope. Each expression is evaluated
// against the defines it captured, layered over the current defines, and
// then vars. The first failure stops the resolution and is returned as an
// *Error; constants resolved before it are kept.
func (rs *Resolver) Resolve(vars, defines *Table, scope Scope) (err error) {
	res := &resolution{
		Resolver: rs,
		vars:     vars,
		defines:  defines,
		scope:    scope,
		done:     map[string]bool{},
	}

	for _, p := range rs.order {
		err = res.visit(p)
		if err != nil {
			return
		}
	}

	return
}

func (res *resolution) visit(p *Pending) (err error) {
	if res.done[p.Name] {
		return
	}

	if n := slices.Index(res.path, p.Name); n >= 0 {
		chain := append(slices.Clone(res.path[n:]), p.Name)
		err = &Error{Pending: p, Err: ErrCircular(chain)}
		return
	}

	res.path = append(res.path, p.Name)
	for _, dep := range p.Deps {
		next, ok := res.pending[dep]
		if !ok {
			continue
		}
		err = res.visit(next)
		if err != nil {
			return
		}
	}
	res.path = res.path[:len(res.path)-1]

	restore := res.defines.Override(p.Defines)
	value, err := expr.Evaluate(p.Expr, res.defines, res.vars)
	restore()
	if err != nil {
		err = &Error{Pending: p, Err: err}
		return
	}

	res.vars.Set(p.Name, value, res.scope)
	res.done[p.Name] = true
	return
}

// ErrCircular is a dependency cycle, listing the names along it.
type ErrCircular []string

func (err ErrCircular) Error() string {
	return f("Circular dependency: %s", strings.Join(err, " <- "))
}
