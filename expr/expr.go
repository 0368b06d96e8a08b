// Package expr evaluates 16-bit assembler expressions.
//
// An expression is made of decimal, $hex, %binary and 'c' character
// literals, symbol names, and the C-like operators listed below (tightest
// binding first). All arithmetic is unsigned 16-bit with wraparound.
//
//	( )
//	+ - ~ ! < >          unary; < is the low byte, > the high byte
//	* / // & ^ << >>     // is modulo
//	+ - |
//	== != < > <= >=
//	&& ^^
//	||
//	? :                  right associative
//
// An expression ends at the end of the text, or at the first ';', ','
// or newline outside of a character literal.
package expr

import (
	"slices"
)

// Lookup resolves a symbol to its value.
type Lookup interface {
	Lookup(name string) (value uint16, ok bool)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(name string) (uint16, bool)

func (fn LookupFunc) Lookup(name string) (uint16, bool) {
	return fn(name)
}

// Map is a Lookup over a plain map.
type Map map[string]uint16

func (m Map) Lookup(name string) (value uint16, ok bool) {
	value, ok = m[name]
	return
}

type operator int

const (
	opParen = operator(iota)
	opPlus
	opNegate
	opInvert
	opNot
	opLow
	opHigh
	opMul
	opDiv
	opMod
	opAnd
	opXor
	opShl
	opShr
	opAdd
	opSub
	opOr
	opEq
	opNe
	opLt
	opGt
	opLe
	opGe
	opLogicalAnd
	opLogicalXor
	opLogicalOr
	opQuestion
	opColon
)

const (
	precUnary    = 1
	precTernary  = 7
	precGrouping = 10
)

func (op operator) precedence() int {
	switch op {
	case opPlus, opNegate, opInvert, opNot, opLow, opHigh:
		return precUnary
	case opMul, opDiv, opMod, opAnd, opXor, opShl, opShr:
		return 2
	case opAdd, opSub, opOr:
		return 3
	case opEq, opNe, opLt, opGt, opLe, opGe:
		return 4
	case opLogicalAnd, opLogicalXor:
		return 5
	case opLogicalOr:
		return 6
	case opQuestion, opColon:
		return precTernary
	}
	return precGrouping
}

func (op operator) unary() bool {
	return op.precedence() == precUnary
}

// pending operator, with its source position for diagnostics.
type pending struct {
	op     operator
	offset int
	length int
}

type evaluator struct {
	text   string
	scopes []Lookup
	values []uint16
	ops    []pending
	conds  []uint16
}

// Evaluate an expression. Names are resolved against each scope in order.
// A failure is always an *Error.
func Evaluate(text string, scopes ...Lookup) (value uint16, err error) {
	ev := &evaluator{text: text, scopes: scopes}
	return ev.run()
}

// Terminator reports whether c ends an expression.
func Terminator(c byte) bool {
	return c == ';' || c == ',' || c == '\n'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// IsNameStart reports whether c may begin a symbol name.
func IsNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '@'
}

// IsNameChar reports whether c may continue a symbol name.
func IsNameChar(c byte) bool {
	return IsNameStart(c) || isDigit(c)
}

func hexDigit(c byte) (v uint16, ok bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint16(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint16(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint16(c-'A') + 10, true
	}
	return 0, false
}

// Escape decodes the character following a backslash.
func Escape(c byte) (v byte, ok bool) {
	switch c {
	case '0':
		return 0, true
	case 't':
		return '\t', true
	case 'n':
		return '\n', true
	case 'e':
		return 0x1b, true
	case '\\', '"', '\'':
		return c, true
	}
	return 0, false
}

func (ev *evaluator) run() (value uint16, err error) {
	text := ev.text
	expectValue := true
	pos := 0

	for pos < len(text) {
		c := text[pos]
		if isSpace(c) {
			pos++
			continue
		}
		if Terminator(c) {
			break
		}

		if expectValue {
			pos, expectValue, err = ev.value(pos)
		} else {
			pos, expectValue, err = ev.operator(pos)
		}
		if err != nil {
			return
		}
	}

	if expectValue {
		err = newError(pos, 1, "Expected value")
		return
	}

	for len(ev.ops) > 0 {
		top := ev.ops[len(ev.ops)-1]
		switch top.op {
		case opParen:
			err = newError(top.offset, 1, "Expected )")
			return
		case opQuestion:
			err = newError(top.offset, 1, "Expected :")
			return
		}
		err = ev.apply()
		if err != nil {
			return
		}
	}

	if len(ev.values) != 1 {
		err = newError(0, pos, "Could not parse expression")
		return
	}

	value = ev.values[0]
	return
}

// value parses a value token, or a prefix operator.
func (ev *evaluator) value(pos int) (next int, expectValue bool, err error) {
	text := ev.text
	c := text[pos]

	switch {
	case isDigit(c):
		var v uint16
		for next = pos; next < len(text) && isDigit(text[next]); next++ {
			v = v*10 + uint16(text[next]-'0')
		}
		ev.values = append(ev.values, v)
		return
	case c == '$':
		var v uint16
		for next = pos + 1; next < len(text); next++ {
			d, ok := hexDigit(text[next])
			if !ok {
				break
			}
			v = v<<4 | d
		}
		if next == pos+1 {
			err = newError(pos, 1, "Expected value")
			return
		}
		ev.values = append(ev.values, v)
		return
	case c == '%':
		var v uint16
		for next = pos + 1; next < len(text) && (text[next] == '0' || text[next] == '1'); next++ {
			v = v<<1 | uint16(text[next]-'0')
		}
		if next == pos+1 {
			err = newError(pos, 1, "Expected value")
			return
		}
		ev.values = append(ev.values, v)
		return
	case c == '\'':
		var v byte
		v, next, err = Character(text, pos)
		if err != nil {
			return
		}
		ev.values = append(ev.values, uint16(v))
		return
	case IsNameStart(c):
		for next = pos; next < len(text) && IsNameChar(text[next]); next++ {
		}
		name := text[pos:next]
		for _, scope := range ev.scopes {
			if v, ok := scope.Lookup(name); ok {
				ev.values = append(ev.values, v)
				return
			}
		}
		err = newError(pos, next-pos, "Uninitialized value \"%s\"", name)
		return
	}

	var op operator
	switch c {
	case '(':
		op = opParen
	case '+':
		op = opPlus
	case '-':
		op = opNegate
	case '~':
		op = opInvert
	case '!':
		op = opNot
	case '<':
		op = opLow
	case '>':
		op = opHigh
	case ')', '*', '/', '&', '^', '|', '=', '?', ':':
		err = newError(pos, 1, "Expected value")
		return
	default:
		err = newError(pos, 1, "Unexpected symbol '%c'", c)
		return
	}

	// Prefix operators bind to the right, so nothing is reduced here.
	ev.ops = append(ev.ops, pending{op: op, offset: pos, length: 1})
	next = pos + 1
	expectValue = true
	return
}

// operator parses an infix operator, or a closing parenthesis.
func (ev *evaluator) operator(pos int) (next int, expectValue bool, err error) {
	text := ev.text
	c := text[pos]
	var d byte
	if pos+1 < len(text) {
		d = text[pos+1]
	}

	next = pos + 1
	var op operator
	switch c {
	case ')':
		for {
			if len(ev.ops) == 0 {
				err = newError(pos, 1, "Unexpected )")
				return
			}
			top := ev.ops[len(ev.ops)-1]
			if top.op == opParen {
				ev.ops = ev.ops[:len(ev.ops)-1]
				break
			}
			if top.op == opQuestion {
				err = newError(top.offset, 1, "Expected :")
				return
			}
			err = ev.apply()
			if err != nil {
				return
			}
		}
		return
	case '*':
		op = opMul
	case '/':
		op = opDiv
		if d == '/' {
			op = opMod
			next++
		}
	case '&':
		op = opAnd
		if d == '&' {
			op = opLogicalAnd
			next++
		}
	case '^':
		op = opXor
		if d == '^' {
			op = opLogicalXor
			next++
		}
	case '|':
		op = opOr
		if d == '|' {
			op = opLogicalOr
			next++
		}
	case '+':
		op = opAdd
	case '-':
		op = opSub
	case '<':
		switch d {
		case '<':
			op = opShl
			next++
		case '=':
			op = opLe
			next++
		default:
			op = opLt
		}
	case '>':
		switch d {
		case '>':
			op = opShr
			next++
		case '=':
			op = opGe
			next++
		default:
			op = opGt
		}
	case '=':
		if d != '=' {
			err = newError(pos, 1, "Invalid operator '='")
			return
		}
		op = opEq
		next++
	case '!':
		if d != '=' {
			err = newError(pos, 1, "Unexpected symbol '%c'", c)
			return
		}
		op = opNe
		next++
	case '?':
		err = ev.question(pos)
		expectValue = true
		return
	case ':':
		err = ev.colon(pos)
		expectValue = true
		return
	default:
		if isDigit(c) || IsNameStart(c) || c == '$' || c == '%' || c == '\'' || c == '(' || c == '~' {
			err = newError(pos, 1, "Expected operator")
		} else {
			err = newError(pos, 1, "Unexpected symbol '%c'", c)
		}
		return
	}

	prec := op.precedence()
	for len(ev.ops) > 0 {
		top := ev.ops[len(ev.ops)-1]
		if top.op == opParen || top.op.precedence() > prec {
			break
		}
		err = ev.apply()
		if err != nil {
			return
		}
	}

	ev.ops = append(ev.ops, pending{op: op, offset: pos, length: next - pos})
	expectValue = true
	return
}

// reduceTighter applies every pending operator that binds tighter than the
// ternary.
func (ev *evaluator) reduceTighter() (err error) {
	for len(ev.ops) > 0 {
		top := ev.ops[len(ev.ops)-1]
		if top.op == opParen || top.op.precedence() >= precTernary {
			break
		}
		err = ev.apply()
		if err != nil {
			return
		}
	}
	return
}

// question moves the condition to the condition stack.
func (ev *evaluator) question(pos int) (err error) {
	err = ev.reduceTighter()
	if err != nil {
		return
	}

	cond := ev.values[len(ev.values)-1]
	ev.values = ev.values[:len(ev.values)-1]
	ev.conds = append(ev.conds, cond)
	ev.ops = append(ev.ops, pending{op: opQuestion, offset: pos, length: 1})
	return
}

// colon closes the 'then' branch of the innermost open '?'.
func (ev *evaluator) colon(pos int) (err error) {
	err = ev.reduceTighter()
	if err != nil {
		return
	}

	// Complete nested ternaries inside the 'then' branch.
	for len(ev.ops) > 0 && ev.ops[len(ev.ops)-1].op == opColon {
		err = ev.apply()
		if err != nil {
			return
		}
	}

	if len(ev.ops) == 0 || ev.ops[len(ev.ops)-1].op != opQuestion {
		err = newError(pos, 1, "Unexpected :")
		return
	}

	ev.ops[len(ev.ops)-1] = pending{op: opColon, offset: pos, length: 1}
	return
}

func boolean(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// apply the operator on the top of the stack.
func (ev *evaluator) apply() (err error) {
	top := ev.ops[len(ev.ops)-1]
	ev.ops = ev.ops[:len(ev.ops)-1]

	need := 2
	if top.op.unary() {
		need = 1
	}
	if len(ev.values) < need {
		err = newError(top.offset, top.length, "Could not parse expression")
		return
	}

	if need == 1 {
		a := ev.values[len(ev.values)-1]
		var v uint16
		switch top.op {
		case opPlus:
			v = a
		case opNegate:
			v = -a
		case opInvert:
			v = ^a
		case opNot:
			v = boolean(a == 0)
		case opLow:
			v = a & 0xff
		case opHigh:
			v = a >> 8
		}
		ev.values[len(ev.values)-1] = v
		return
	}

	a, b := ev.values[len(ev.values)-2], ev.values[len(ev.values)-1]
	ev.values = ev.values[:len(ev.values)-1]

	var v uint16
	switch top.op {
	case opMul:
		v = a * b
	case opDiv, opMod:
		if b == 0 {
			err = newError(top.offset, top.length, "Division by zero")
			return
		}
		if top.op == opDiv {
			v = a / b
		} else {
			v = a % b
		}
	case opAnd:
		v = a & b
	case opXor:
		v = a ^ b
	case opShl:
		v = a << b
	case opShr:
		v = a >> b
	case opAdd:
		v = a + b
	case opSub:
		v = a - b
	case opOr:
		v = a | b
	case opEq:
		v = boolean(a == b)
	case opNe:
		v = boolean(a != b)
	case opLt:
		v = boolean(a < b)
	case opGt:
		v = boolean(a > b)
	case opLe:
		v = boolean(a <= b)
	case opGe:
		v = boolean(a >= b)
	case opLogicalAnd:
		v = boolean(a != 0 && b != 0)
	case opLogicalXor:
		v = boolean((a != 0) != (b != 0))
	case opLogicalOr:
		v = boolean(a != 0 || b != 0)
	case opColon:
		if len(ev.conds) == 0 {
			err = newError(top.offset, top.length, "Unexpected :")
			return
		}
		cond := ev.conds[len(ev.conds)-1]
		ev.conds = ev.conds[:len(ev.conds)-1]
		if cond != 0 {
			v = a
		} else {
			v = b
		}
	default:
		err = newError(top.offset, top.length, "Could not parse expression")
		return
	}

	ev.values[len(ev.values)-1] = v
	return
}

// Character decodes a 'c' literal starting at text[pos], returning the
// character and the offset just past the closing quote.
func Character(text string, pos int) (value byte, next int, err error) {
	next = pos + 1
	if next >= len(text) {
		err = newError(pos, 1, "Could not parse character")
		return
	}

	value = text[next]
	next++
	if value == '\\' {
		var ok bool
		if next < len(text) {
			value, ok = Escape(text[next])
		}
		if !ok {
			err = newError(pos, next-pos+1, "Could not parse character")
			return
		}
		next++
	}

	if next >= len(text) || text[next] != '\'' {
		err = newError(pos, next-pos, "Could not parse character")
		return
	}
	next++
	return
}

// Identifiers returns the distinct symbol names referenced by an
// expression, in order of first use.
func Identifiers(text string) (names []string) {
	for pos := 0; pos < len(text); {
		c := text[pos]
		switch {
		case c == ';' || c == '\n':
			return
		case c == '\'':
			_, next, err := Character(text, pos)
			if err != nil {
				pos++
			} else {
				pos = next
			}
		case c == '$' || isDigit(c):
			for pos++; pos < len(text) && IsNameChar(text[pos]); pos++ {
			}
		case IsNameStart(c):
			start := pos
			for ; pos < len(text) && IsNameChar(text[pos]); pos++ {
			}
			name := text[start:pos]
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		default:
			pos++
		}
	}
	return
}
