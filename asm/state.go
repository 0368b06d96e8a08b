package asm

import (
	"context"
	"strings"

	"github.com/golang/glog"

	"github.com/ezrec/ace3710/expr"
	"github.com/ezrec/ace3710/segment"
	"github.com/ezrec/ace3710/source"
	"github.com/ezrec/ace3710/symbol"
)

// MaxDepth is the deepest nesting of includes and macro calls.
const MaxDepth = 64

type frameKind int

const (
	frameInclude = frameKind(iota)
	frameMacro
)

// frame is a suspended include or macro call.
type frame struct {
	kind   frameKind
	call   source.Cursor    // Line of the .include or macro call.
	col    int              // Column of the call.
	length int              // Length of the call word.
	resume source.Cursor    // Where to continue on return.
	errors int              // Errors recorded before the call.
	macro  *Macro           // Called macro.
	saved  []symbol.Binding // Bindings to undo on return.
}

// cond is an open, taken conditional branch.
type cond struct {
	at     source.Cursor
	col    int
	length int
	depth  int // Frame depth when opened.
}

// state is the state of one pass, or of one local symbol scan.
type state struct {
	*Assembler
	ctx     context.Context
	tier    int           // 1: discover macros, 2: size segments, 3: emit code.
	defines *symbol.Table // Defines of this pass.
	cur     source.Cursor // Line being processed.
	next    source.Cursor // Line to process after cur.
	frames  Stack[*frame]
	conds   Stack[cond]
	segs    Stack[*segment.Segment]
	seg     *segment.Segment // Active segment.
	pending *symbol.Resolver // Constants awaiting resolution.
	abort   bool             // Stop the pass.

	// Local symbol scan
	local     bool
	base      int      // Frame depth of the scanned region.
	first     bool     // Skip the global declaration on the first line.
	stop      bool     // End of the region reached.
	target    *frame   // Macro frame that owns the locals, or nil.
	found     map[string]bool
	constants []string
	failed    bool
}

func (asm *Assembler) newState(ctx context.Context, tier int, main *source.File, defines *symbol.Table) *state {
	return &state{
		Assembler: asm,
		ctx:       ctx,
		tier:      tier,
		defines:   defines,
		cur:       source.Cursor{File: main},
		frames:    Stack[*frame]{Limit: MaxDepth},
		pending:   &symbol.Resolver{},
	}
}

func (st *state) diagAt(cur source.Cursor, col, length int, err error) *Diagnostic {
	return &Diagnostic{
		File:   cur.Name(),
		LineNo: cur.LineNo(),
		Line:   cur.Text(),
		Col:    col,
		Len:    length,
		Err:    err,
	}
}

// failAt records an error. Errors found while scanning for local symbols
// are dropped; the main pass finds them again.
func (st *state) failAt(cur source.Cursor, col, length int, err error) {
	if st.local {
		return
	}
	st.Errors = append(st.Errors, st.diagAt(cur, col, length, err))
}

func (st *state) fail(col, length int, err error) {
	st.failAt(st.cur, col, length, err)
}

// failLocal records an error in a local symbol declaration.
func (st *state) failLocal(col, length int, err error) {
	st.failed = true
	st.Errors = append(st.Errors, st.diag(col, length, err))
}

func (st *state) diag(col, length int, err error) *Diagnostic {
	return st.diagAt(st.cur, col, length, err)
}

// fatal records an error and stops the pass.
func (st *state) fatal(col, length int, err error) {
	st.fail(col, length, err)
	st.abort = true
}

func (st *state) fatalAt(cur source.Cursor, col, length int, err error) {
	st.failAt(cur, col, length, err)
	st.abort = true
}

// failExpr records an expression error within an argument.
func (st *state) failExpr(arg field, err error) {
	if ee, ok := err.(*expr.Error); ok {
		st.fail(arg.Col+ee.Offset, ee.Length, ee)
		return
	}
	st.fail(arg.Col, max(len(arg.Text), 1), err)
}

// warn records an advisory warning. Advisories about defines are given by
// the first pass only, as every pass repeats the same defines.
func (st *state) warn(col, length int, err error) {
	if st.local {
		return
	}
	st.warning(st.diag(col, length, err), false)
}

// macroFrame returns the innermost macro call, or nil.
func (st *state) macroFrame() *frame {
	for n := len(st.frames.Data) - 1; n >= 0; n-- {
		if fr := st.frames.Data[n]; fr.kind == frameMacro {
			return fr
		}
	}
	return nil
}

// bindLocal defines a local symbol. Inside a macro call the symbol shadows
// any previous definition until the call returns.
func (st *state) bindLocal(name string, value uint16, fr *frame) {
	glog.V(3).Infof("%s:%d: local %s = $%04x", st.cur.Name(), st.cur.LineNo(), name, value)
	if fr == nil {
		st.Vars.Set(name, value, symbol.Local)
		return
	}
	fr.saved = append(fr.saved, st.Vars.Bind(name, value, symbol.Macro))
}

// run processes lines until the end of the main file, or until the pass is
// aborted. Only a cancelled context is returned as an error.
func (st *state) run() (err error) {
	for !st.abort && !st.stop {
		err = st.ctx.Err()
		if err != nil {
			return
		}

		if st.cur.EOF() {
			if !st.endOfFile() {
				break
			}
			continue
		}

		st.next = st.cur.Next()
		glog.V(2).Infof("%s:%d: %s", st.cur.Name(), st.cur.LineNo(), st.cur.Text())
		st.line()
		st.first = false
		st.cur = st.next
	}

	if !st.local && !st.abort {
		for _, c := range st.conds.Data {
			st.fatalAt(c.at, c.col, c.length, ErrEndif)
		}
	}

	return
}

// endOfFile returns from an included file. It returns false at the end of
// the main file. A local scan that runs off the end of the file it started
// in continues in the including file.
func (st *state) endOfFile() bool {
	top, ok := st.frames.Peek()
	if !ok {
		return false
	}

	if top.kind != frameInclude {
		st.fatalAt(top.call, top.col, top.length, ErrEndmacro)
		return false
	}

	if !st.closeConds() {
		return false
	}

	st.frames.Pop()
	st.cur = top.resume
	if st.local && st.frames.Len() < st.base {
		st.base = st.frames.Len()
	}
	return true
}

// closeConds checks that no conditional opened in the current frame is
// still open.
func (st *state) closeConds() bool {
	if c, ok := st.conds.Peek(); ok && c.depth == st.frames.Len() {
		st.fatalAt(c.at, c.col, c.length, ErrEndif)
		return false
	}
	return true
}

// line processes the current line.
func (st *state) line() {
	text := st.cur.Text()
	if isDeclaration(text) {
		st.declaration(text)
		return
	}
	st.statement(text, 0)
}

// declaration processes a column 0 label or constant, and any statement
// following a label.
func (st *state) declaration(text string) {
	end := scanName(text, 0)
	name := text[:end]
	if !validName(name) {
		bad := end
		for bad < len(text) && !isSpace(text[bad]) && text[bad] != ':' && text[bad] != '=' {
			bad++
		}
		st.fail(0, max(bad, 1), ErrName)
		return
	}

	pos := skipSpace(text, end)
	if pos >= len(text) || (text[pos] != ':' && text[pos] != '=') {
		st.fail(pos, 1, ErrAssignment)
		return
	}
	label := text[pos] == ':'
	rest := pos + 1

	switch {
	case st.local:
		st.scanDeclaration(name, label, text, rest)
	case st.tier == 2:
		st.sizeDeclaration(name, label, text, rest)
	case st.tier == 3:
		st.emitDeclaration(name, label, text, rest)
	}

	if label && !st.stop && !st.abort {
		st.statement(text, rest)
	}
}

// declare builds a pending constant for the expression at text[rest:].
func (st *state) declare(name string, text string, rest int) *symbol.Pending {
	col := skipSpace(text, rest)
	p := symbol.Declare(name, text[col:], st.defines)
	p.File = st.cur.Name()
	p.LineNo = st.cur.LineNo()
	p.Col = col
	return p
}

// sizeDeclaration defines global labels and queues global constants.
func (st *state) sizeDeclaration(name string, label bool, text string, rest int) {
	if isLocal(name) {
		// Locals are kept only so that sizes may refer to them.
		fr := st.macroFrame()
		if label {
			if st.seg != nil {
				st.bindLocal(name, st.seg.Addr(), fr)
			}
		} else if value, err := expr.Evaluate(text[rest:], st.defines, st.Vars); err == nil {
			st.bindLocal(name, value, fr)
		}
		return
	}

	if st.macroFrame() != nil {
		st.fail(0, len(name), ErrGlobalInMacro)
		return
	}

	st.Vars.Clear(symbol.Local)
	if st.Vars.Has(name) || st.pending.Has(name) {
		st.fail(0, len(name), symbol.ErrDuplicate(name))
		return
	}

	if !label {
		_ = st.pending.Add(st.declare(name, text, rest))
		return
	}

	if st.seg == nil {
		st.fail(0, len(name), ErrNoSegment)
		return
	}
	glog.V(3).Infof("%s:%d: label %s = $%04x", st.cur.Name(), st.cur.LineNo(), name, st.seg.Addr())
	st.Vars.Set(name, st.seg.Addr(), symbol.Global)
}

// emitDeclaration starts a new local symbol region at each global
// declaration. Locals were defined by the scan of their region.
func (st *state) emitDeclaration(name string, label bool, text string, rest int) {
	if !isLocal(name) {
		if st.macroFrame() == nil && !st.scanLocals(st.cur, true, nil) {
			st.abort = true
		}
		return
	}

	if st.Vars.Has(name) {
		return
	}

	fr := st.macroFrame()
	if label {
		if st.seg == nil {
			st.fail(0, len(name), ErrNoSegment)
			return
		}
		st.bindLocal(name, st.seg.Addr(), fr)
		return
	}

	arg := field{Col: skipSpace(text, rest)}
	arg.Text = text[arg.Col:]
	value, err := expr.Evaluate(arg.Text, st.defines, st.Vars)
	if err != nil {
		st.failExpr(arg, err)
		return
	}
	st.bindLocal(name, value, fr)
}

// nested reports whether the scan is inside a macro call that it expanded
// itself. Locals there belong to that call.
func (st *state) nested() bool {
	for _, fr := range st.frames.Data[st.base:] {
		if fr.kind == frameMacro {
			return true
		}
	}
	return false
}

// scanDeclaration collects the locals of the scanned region. The region
// ends at the next global declaration, in whichever file it is.
func (st *state) scanDeclaration(name string, label bool, text string, rest int) {
	if !isLocal(name) {
		if !st.first && !st.nested() {
			st.stop = true
		}
		return
	}

	if st.nested() {
		return
	}

	if st.found[name] {
		st.failLocal(0, len(name), symbol.ErrDuplicate(name))
		return
	}
	st.found[name] = true

	if !label {
		_ = st.pending.Add(st.declare(name, text, rest))
		st.constants = append(st.constants, name)
		return
	}

	if st.seg == nil {
		st.failLocal(0, len(name), ErrNoSegment)
		return
	}
	st.bindLocal(name, st.seg.Addr(), st.target)
}

// scanLocals defines the local symbols of the region starting at start, by
// sizing the region without emitting anything. A region ends at the next
// global declaration, at the end of the main file, or at the end of the
// macro call target. Returns false if a local could not be
// defined.
func (st *state) scanLocals(start source.Cursor, first bool, target *frame) (ok bool) {
	sc := &state{
		Assembler: st.Assembler,
		ctx:       st.ctx,
		tier:      2,
		defines:   st.defines.Clone(),
		cur:       start,
		frames:    st.frames.Clone(),
		conds:     st.conds.Clone(),
		segs:      st.segs.Clone(),
		seg:       st.seg,
		pending:   &symbol.Resolver{},
		local:     true,
		base:      st.frames.Len(),
		first:     first,
		target:    target,
		found:     map[string]bool{},
	}

	cursors := st.Layout.Cursors()
	defer st.Layout.SetCursors(cursors)

	if target == nil {
		st.Vars.Clear(symbol.Local)
	}

	_ = sc.run()

	for sc.frames.Len() > sc.base {
		fr, _ := sc.frames.Pop()
		st.Vars.Restore(fr.saved)
	}

	if sc.failed {
		return false
	}

	glog.V(2).Infof("%s:%d: %d locals", start.Name(), start.LineNo(), len(sc.found))

	if sc.pending.Len() == 0 {
		return true
	}

	scope := symbol.Local
	if target != nil {
		scope = symbol.Macro
		for _, name := range sc.constants {
			target.saved = append(target.saved, st.Vars.Bind(name, 0, symbol.Macro))
			st.Vars.Delete(name)
		}
	}

	err := sc.pending.Resolve(st.Vars, sc.defines, scope)
	if err != nil {
		st.Errors = append(st.Errors, st.resolveError(err))
		return false
	}

	return true
}

// statement processes a directive, macro call or instruction starting at
// or after pos.
func (st *state) statement(text string, pos int) {
	stmt, ok := parseStatement(text, pos)
	if !ok {
		return
	}

	if strings.HasPrefix(stmt.Word, ".") {
		st.directive(text, stmt)
		return
	}

	if m, ok := st.Macros[stmt.Word]; ok {
		if st.tier > 1 {
			st.call(m, text, stmt)
		}
		return
	}

	switch st.tier {
	case 2:
		st.emit(stmt, st.WordSize, nil)
	case 3:
		st.instruction(text, stmt)
	}
}
