package asm

import (
	"slices"
	"strings"

	"github.com/golang/glog"

	"github.com/ezrec/ace3710/expr"
	"github.com/ezrec/ace3710/source"
	"github.com/ezrec/ace3710/symbol"
)

// directives lists every directive name.
var directives = []string{
	".align", ".ascii", ".asciiz", ".byte", ".define", ".else", ".elseif",
	".elseifdef", ".elseifndef", ".endif", ".endmacro", ".error", ".if",
	".ifdef", ".ifndef", ".incbin", ".include", ".macro", ".popseg",
	".pushseg", ".redef", ".res", ".segment", ".undef", ".warning", ".word",
}

// Directives returns the directive names, sorted.
func Directives() []string {
	return slices.Clone(directives)
}

// directive dispatches a directive by the tier of the pass. Directives of
// a later tier are ignored; unknown directives are reported by the last.
func (st *state) directive(text string, stmt statement) {
	switch stmt.Word {
	// Tier 1, every pass.
	case ".include":
		st.include(text, stmt)
	case ".incbin":
		st.incbin(text, stmt)
	case ".define", ".redef":
		st.define(text, stmt)
	case ".undef":
		st.undef(text, stmt)
	case ".if", ".ifdef", ".ifndef":
		st.ifBranch(text, stmt)
	case ".elseif", ".elseifdef", ".elseifndef", ".else":
		st.elseBranch(stmt)
	case ".endif":
		st.endif(stmt)
	case ".macro":
		st.macro(text, stmt)
	case ".endmacro":
		st.endmacro(stmt)

	// Tier 2, sizing and emitting.
	case ".segment":
		if st.tier > 1 {
			st.segment(text, stmt)
		}
	case ".pushseg":
		if st.tier > 1 {
			st.segs.Push(st.seg)
		}
	case ".popseg":
		if st.tier > 1 {
			st.popseg(stmt)
		}
	case ".res":
		if st.tier > 1 {
			st.res(text, stmt)
		}
	case ".align":
		if st.tier > 1 {
			st.align(text, stmt)
		}
	case ".byte":
		if st.tier > 1 {
			st.bytes(text, stmt)
		}
	case ".word":
		if st.tier > 1 {
			st.words(text, stmt)
		}
	case ".ascii", ".asciiz":
		if st.tier > 1 {
			st.ascii(text, stmt)
		}

	// Tier 3, emitting.
	case ".error":
		if st.tier == 3 {
			if msg, ok := st.stringArg(text, stmt); ok {
				st.fail(stmt.Col, len(text)-stmt.Col, ErrUser(msg))
			}
		}
	case ".warning":
		if st.tier == 3 && !st.local {
			if msg, ok := st.stringArg(text, stmt); ok {
				st.warning(st.diag(stmt.Col, len(text)-stmt.Col, ErrUser(msg)), true)
			}
		}

	default:
		if st.tier == 3 {
			st.fail(stmt.Col, len(stmt.Word), ErrDirective(stmt.Word))
		}
	}
}

// stringArg reads the single string argument of a directive.
func (st *state) stringArg(text string, stmt statement) (value string, ok bool) {
	pos := skipSpace(text, stmt.Args)
	value, next, ok := readString(text, pos)
	if !ok {
		st.fail(pos, max(len(text)-pos, 1), ErrString)
		return
	}
	if !atEnd(text, next) {
		next = skipSpace(text, next)
		st.fail(next, len(text)-next, ErrTrailing)
		ok = false
	}
	return
}

// nameArg reads a symbol name argument.
func (st *state) nameArg(text string, pos int) (name string, next int, ok bool) {
	pos = skipSpace(text, pos)
	next = scanName(text, pos)
	name = text[pos:next]
	if !validName(name) {
		end := pos
		for end < len(text) && !isSpace(text[end]) && text[end] != ';' {
			end++
		}
		st.fail(pos, max(end-pos, 1), ErrIdentifier)
		return
	}
	ok = true
	return
}

// exprArg evaluates a single expression argument.
func (st *state) exprArg(text string, pos int, scopes ...expr.Lookup) (value uint16, ok bool) {
	args := splitArgs(text, pos)
	switch len(args) {
	case 0:
		args = []field{{Col: skipSpace(text, pos)}}
	case 1:
	default:
		st.fail(args[1].Col, len(text)-args[1].Col, ErrTrailing)
		return
	}

	value, err := expr.Evaluate(args[0].Text, scopes...)
	if err != nil {
		st.failExpr(args[0], err)
		return
	}
	ok = true
	return
}

// include suspends the current file and continues with the named file.
func (st *state) include(text string, stmt statement) {
	name, ok := st.stringArg(text, stmt)
	if !ok {
		return
	}

	file, fresh, err := st.Files.Open(name, false)
	if err != nil {
		st.fatal(stmt.Col, len(text)-stmt.Col, err)
		return
	}
	if fresh && st.problems(file) {
		return
	}
	if file.Empty() {
		return
	}

	names := []string{st.cur.Name()}
	for _, fr := range slices.Backward(st.frames.Data) {
		names = append(names, fr.call.Name())
	}
	if n := slices.Index(names, file.Name); n >= 0 {
		chain := append([]string{file.Name}, names[:n+1]...)
		st.fatal(stmt.Col, len(text)-stmt.Col, ErrCircularFile(chain))
		return
	}

	if st.frames.Full() {
		st.fatal(stmt.Col, len(stmt.Word), ErrMacroDepth)
		return
	}

	glog.V(2).Infof("%s:%d: include %s", st.cur.Name(), st.cur.LineNo(), name)
	st.frames.Push(&frame{
		kind:   frameInclude,
		call:   st.cur,
		col:    stmt.Col,
		length: len(stmt.Word),
		resume: st.next,
		errors: len(st.Errors),
	})
	st.next = source.Cursor{File: file}
}

// incbin emits the contents of a binary file. In word mode the bytes are
// packed two to a word, with an odd tail padded with zero.
func (st *state) incbin(text string, stmt statement) {
	name, ok := st.stringArg(text, stmt)
	if !ok {
		return
	}

	file, _, err := st.Files.Open(name, true)
	if err != nil {
		st.fail(stmt.Col, len(text)-stmt.Col, err)
		return
	}
	if st.tier == 1 {
		return
	}

	data := file.Data
	units := len(data)
	if st.WordSize == 1 {
		units = (len(data) + 1) / 2
		if len(data)%2 != 0 {
			data = append(slices.Clone(data), 0)
		}
	}
	st.emit(stmt, units, data)
}

// define handles .define and .redef. The value is evaluated against the
// defines only, and defaults to 0.
func (st *state) define(text string, stmt statement) {
	name, next, ok := st.nameArg(text, stmt.Args)
	if !ok {
		return
	}

	value := uint16(0)
	if !atEnd(text, next) {
		value, ok = st.exprArg(text, next, st.defines)
		if !ok {
			return
		}
	}

	switch stmt.Word {
	case ".define":
		if st.tier == 1 && st.defines.Has(name) {
			st.warn(stmt.Col, next-stmt.Col, ErrRedefine(name))
		}
	case ".redef":
		if !st.defines.Has(name) {
			st.fail(stmt.Col, next-stmt.Col, ErrUndefined(name))
			return
		}
	}

	glog.V(3).Infof("%s:%d: define %s = $%04x", st.cur.Name(), st.cur.LineNo(), name, value)
	st.defines.Set(name, value, symbol.Global)
}

func (st *state) undef(text string, stmt statement) {
	name, next, ok := st.nameArg(text, stmt.Args)
	if !ok {
		return
	}
	if !atEnd(text, next) {
		next = skipSpace(text, next)
		st.fail(next, len(text)-next, ErrTrailing)
		return
	}
	if !st.defines.Delete(name) && st.tier == 1 {
		st.warn(stmt.Col, next-stmt.Col, ErrUndefine)
	}
}

// condition evaluates the test of an .if family directive. Tests that fail
// to evaluate are not taken.
func (st *state) condition(text string, stmt statement) (taken bool) {
	switch stmt.Word {
	case ".if", ".elseif":
		value, ok := st.exprArg(text, stmt.Args, st.defines)
		return ok && value != 0
	case ".else":
		return true
	}

	name, next, ok := st.nameArg(text, stmt.Args)
	if !ok {
		return false
	}
	if !atEnd(text, next) {
		next = skipSpace(text, next)
		st.fail(next, len(text)-next, ErrTrailing)
		return false
	}
	taken = st.defines.Has(name)
	if strings.HasSuffix(stmt.Word, "ndef") {
		taken = !taken
	}
	return
}

func (st *state) open(stmt statement) {
	st.conds.Push(cond{
		at:     st.cur,
		col:    stmt.Col,
		length: len(stmt.Word),
		depth:  st.frames.Len(),
	})
}

func (st *state) ifBranch(text string, stmt statement) {
	if st.condition(text, stmt) {
		st.open(stmt)
		return
	}
	st.skip(stmt, true)
}

// elseBranch ends a taken branch, skipping the rest of the conditional.
func (st *state) elseBranch(stmt statement) {
	if !st.close(stmt) {
		return
	}
	st.skip(stmt, false)
}

func (st *state) endif(stmt statement) {
	st.close(stmt)
}

// close pops the conditional opened in the current frame.
func (st *state) close(stmt statement) bool {
	c, ok := st.conds.Peek()
	if !ok || c.depth != st.frames.Len() {
		st.fail(stmt.Col, len(stmt.Word), ErrIf)
		return false
	}
	st.conds.Pop()
	return true
}

// skip passes over the lines of an untaken branch. It stops after the
// matching .endif or, when allowElse is set, at the first .else or .elseif
// branch that is taken.
func (st *state) skip(stmt statement, allowElse bool) {
	start := st.cur
	depth := 0

scan:
	for cur := st.cur.Next(); !cur.EOF(); cur = cur.Next() {
		text := cur.Text()
		if isDeclaration(text) {
			continue
		}
		word, ok := parseStatement(text, 0)
		if !ok {
			continue
		}

		switch word.Word {
		case ".if", ".ifdef", ".ifndef":
			depth++
		case ".endif":
			if depth == 0 {
				st.next = cur.Next()
				return
			}
			depth--
		case ".else", ".elseif", ".elseifdef", ".elseifndef":
			if depth > 0 || !allowElse {
				continue
			}
			st.cur = cur
			if st.condition(text, word) {
				st.open(word)
				st.next = cur.Next()
				return
			}
			st.cur = start
		case ".endmacro":
			break scan
		}
	}

	st.fatalAt(start, stmt.Col, len(stmt.Word), ErrEndif)
}

// findEndmacro returns the line of the .endmacro closing the macro defined
// at def. When check is set, the body is checked for declarations that are
// not allowed in a macro.
func (st *state) findEndmacro(def source.Cursor, check bool) (end source.Cursor, ok bool) {
	for cur := def.Next(); !cur.EOF(); cur = cur.Next() {
		text := cur.Text()
		if isDeclaration(text) {
			if name := text[:scanName(text, 0)]; check && !isLocal(name) {
				st.failAt(cur, 0, max(len(name), 1), ErrGlobalInMacro)
			}
			continue
		}

		word, _ := parseStatement(text, 0)
		switch word.Word {
		case ".endmacro":
			return cur, true
		case ".macro", ".define", ".redef", ".undef":
			if check {
				st.failAt(cur, word.Col, len(word.Word), ErrMacroUpdate)
			}
		}
	}
	return
}

// macro records a macro definition in the first pass, and skips over its
// body in every pass.
func (st *state) macro(text string, stmt statement) {
	discover := st.tier == 1 && !st.local

	end, ok := st.findEndmacro(st.cur, discover)
	if !ok {
		st.fatal(stmt.Col, len(stmt.Word), ErrEndmacro)
		return
	}
	st.next = end.Next()

	if !discover {
		return
	}

	name, next, ok := st.nameArg(text, stmt.Args)
	if !ok {
		return
	}

	args := splitArgs(text, next)
	params := make([]string, 0, len(args))
	for _, arg := range args {
		if !validName(arg.Text) {
			st.fail(arg.Col, max(len(arg.Text), 1), ErrParameters)
			return
		}
		params = append(params, arg.Text)
	}

	if _, ok := st.Macros[name]; ok {
		st.fail(stmt.Col, next-stmt.Col, ErrMacroDuplicate(name))
		return
	}

	glog.V(3).Infof("%s:%d: macro %s(%s)", st.cur.Name(), st.cur.LineNo(), name, strings.Join(params, ", "))
	st.Macros[name] = &Macro{
		Name:   name,
		Params: params,
		File:   st.cur.File,
		LineNo: st.cur.LineNo(),
		Body:   st.cur.Line + 1,
		End:    end.Line,
	}
}

// endmacro returns from a macro call.
func (st *state) endmacro(stmt statement) {
	top, ok := st.frames.Peek()
	if !ok || top.kind != frameMacro {
		st.fatal(stmt.Col, len(stmt.Word), ErrMacro)
		return
	}

	if st.local && st.frames.Len() <= st.base {
		st.stop = true
		return
	}

	if !st.closeConds() {
		return
	}

	st.Vars.Restore(top.saved)
	if len(st.Errors) > top.errors {
		st.failAt(top.call, top.col, top.length, ErrMacroCall)
	}
	st.frames.Pop()
	st.next = top.resume
}

// call expands a macro. The arguments are bound as macro scope symbols
// until the matching .endmacro. While sizing, arguments that cannot be
// evaluated yet are left unbound.
func (st *state) call(m *Macro, text string, stmt statement) {
	args := splitArgs(text, stmt.Args)
	if len(args) != len(m.Params) {
		st.fail(stmt.Col, len(text)-stmt.Col, ErrArgCount)
		return
	}

	values := make([]uint16, len(args))
	bound := make([]bool, len(args))
	for n, arg := range args {
		value, err := expr.Evaluate(arg.Text, st.defines, st.Vars)
		if err != nil {
			if st.tier == 3 {
				st.fail(arg.Col, max(len(arg.Text), 1), &ErrArguments{Err: err})
				return
			}
			continue
		}
		values[n], bound[n] = value, true
	}

	if st.frames.Full() {
		st.fatal(stmt.Col, len(stmt.Word), ErrMacroDepth)
		return
	}

	fr := &frame{
		kind:   frameMacro,
		call:   st.cur,
		col:    stmt.Col,
		length: len(stmt.Word),
		resume: st.next,
		errors: len(st.Errors),
		macro:  m,
	}
	for n, param := range m.Params {
		if bound[n] {
			fr.saved = append(fr.saved, st.Vars.Bind(param, values[n], symbol.Macro))
		}
	}

	glog.V(2).Infof("%s:%d: call %s", st.cur.Name(), st.cur.LineNo(), m.Name)
	st.frames.Push(fr)
	st.next = source.Cursor{File: m.File, Line: m.Body}

	if st.tier == 3 && !st.local && !st.scanLocals(st.next, false, fr) {
		st.abort = true
	}
}
