package asm

import (
	"errors"

	"github.com/ezrec/ace3710/cpu"
	"github.com/ezrec/ace3710/expr"
	"github.com/ezrec/ace3710/segment"
)

// active returns the active segment, stopping the pass if there is none.
func (st *state) active(stmt statement) *segment.Segment {
	if st.seg == nil {
		st.fatal(stmt.Col, len(stmt.Word), ErrNoSegment)
	}
	return st.seg
}

// emit advances the active segment by units. When emitting code, data is
// stored at the previous cursor; a nil data leaves the buffer untouched.
func (st *state) emit(stmt statement, units int, data []byte) {
	seg := st.active(stmt)
	if seg == nil {
		return
	}

	at, err := seg.Reserve(units)
	if err != nil {
		st.fatal(stmt.Col, len(stmt.Word), err)
		return
	}

	if st.tier < 3 || data == nil {
		return
	}

	if seg.Access == segment.BSS {
		st.fail(stmt.Col, len(stmt.Word), ErrUninitialized(seg.Name))
		return
	}

	copy(seg.Data[at*st.bytesPerUnit():], data)
}

func (st *state) segment(text string, stmt statement) {
	name, ok := st.stringArg(text, stmt)
	if !ok {
		return
	}
	seg := st.Layout.Find(name)
	if seg == nil {
		st.fail(stmt.Col, len(text)-stmt.Col, ErrSegment(name))
		return
	}
	st.seg = seg
}

func (st *state) popseg(stmt statement) {
	seg, ok := st.segs.Pop()
	if !ok {
		st.fail(stmt.Col, len(stmt.Word), ErrSegmentStack)
		return
	}
	st.seg = seg
}

// values evaluates a list of directive arguments. While sizing, only the
// number of arguments is needed.
func (st *state) values(args []field) (values []uint16, ok bool) {
	values = make([]uint16, len(args))
	if st.tier < 3 {
		return values, true
	}

	ok = true
	for n, arg := range args {
		value, err := expr.Evaluate(arg.Text, st.defines, st.Vars)
		if err != nil {
			st.fail(arg.Col, max(len(arg.Text), 1), &ErrArguments{Err: err})
			ok = false
			continue
		}
		values[n] = value
	}
	return
}

// count evaluates the single unit count argument of .res or .align.
func (st *state) count(text string, stmt statement) (value uint16, ok bool) {
	args := splitArgs(text, stmt.Args)
	if len(args) != 1 {
		st.fail(stmt.Col, len(text)-stmt.Col, &ErrArguments{Err: ErrArgCount})
		return
	}
	value, err := expr.Evaluate(args[0].Text, st.defines, st.Vars)
	if err != nil {
		st.fail(args[0].Col, max(len(args[0].Text), 1), &ErrArguments{Err: err})
		return
	}
	ok = true
	return
}

// res reserves units. The reserved space is left zero.
func (st *state) res(text string, stmt statement) {
	n, ok := st.count(text, stmt)
	if !ok {
		return
	}
	if st.tier == 3 && st.seg != nil && st.seg.Access == segment.ReadOnly {
		st.fail(stmt.Col, len(text)-stmt.Col, ErrReadOnly(st.seg.Name))
	}
	st.emit(stmt, int(n), nil)
}

// align pads with zero units up to a multiple of the argument.
func (st *state) align(text string, stmt statement) {
	n, ok := st.count(text, stmt)
	if !ok {
		return
	}
	seg := st.active(stmt)
	if seg == nil {
		return
	}
	st.emit(stmt, seg.Padding(n), nil)
}

// unit encodes one byte sized value; in word mode it fills a whole word.
func (st *state) unit(value byte) []byte {
	if st.WordSize == 1 {
		return st.word(uint16(value))
	}
	return []byte{value}
}

func (st *state) bytes(text string, stmt statement) {
	if st.WordSize == 1 && !st.local && !st.byteWarned {
		st.byteWarned = true
		st.warn(stmt.Col, len(stmt.Word), ErrByteWord)
	}

	args := splitArgs(text, stmt.Args)
	values, ok := st.values(args)
	if !ok {
		return
	}

	var data []byte
	for _, value := range values {
		data = append(data, st.unit(byte(value))...)
	}
	st.emit(stmt, len(values), data)
}

func (st *state) words(text string, stmt statement) {
	args := splitArgs(text, stmt.Args)
	values, ok := st.values(args)
	if !ok {
		return
	}

	var data []byte
	for _, value := range values {
		data = append(data, st.word(value)...)
	}
	st.emit(stmt, len(values)*st.WordSize, data)
}

// ascii emits the characters of a string, one per unit. .asciiz adds a
// terminating zero.
func (st *state) ascii(text string, stmt statement) {
	str, ok := st.stringArg(text, stmt)
	if !ok {
		return
	}
	if stmt.Word == ".asciiz" {
		str += "\x00"
	}

	data := []byte{}
	for n := 0; n < len(str); n++ {
		data = append(data, st.unit(str[n])...)
	}
	st.emit(stmt, len(str), data)
}

// instruction encodes and emits one instruction. An instruction that
// fails to encode still occupies its word, so later addresses match the
// sizing pass.
func (st *state) instruction(text string, stmt statement) {
	var word uint16
	defer func() {
		st.emit(stmt, st.WordSize, st.word(word))
	}()

	if _, ok := cpu.Lookup(stmt.Word); !ok {
		st.fail(stmt.Col, len(stmt.Word), cpu.ErrInstruction(stmt.Word))
		return
	}

	args := splitArgs(text, stmt.Args)
	values := make([]uint16, len(args))
	for n, arg := range args {
		value, err := expr.Evaluate(arg.Text, st.defines, st.Vars)
		if err != nil {
			st.failExpr(arg, err)
			return
		}
		values[n] = value
	}

	if st.seg == nil {
		return
	}

	word, err := cpu.Encode(stmt.Word, values, st.seg.Addr(), st.WordSize)
	if err == nil {
		return
	}

	var eo *cpu.ErrOperand
	switch {
	case errors.As(err, &eo):
		arg := args[eo.Index]
		st.fail(arg.Col, max(len(arg.Text), 1), eo.Err)
	case len(args) > 0:
		last := args[len(args)-1]
		st.fail(args[0].Col, last.Col+len(last.Text)-args[0].Col, err)
	default:
		st.fail(stmt.Col, len(stmt.Word), err)
	}
	word = 0
}
