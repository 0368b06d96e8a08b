// Package config reads memory layout descriptions.
//
// A layout file names the memory regions of the target, then the segments
// loaded into them:
//
//	# comment
//	MEMORY {
//	    ROM: start = $0000, size = $8000, type = ro;
//	    RAM: start = $8000, size = $8000, type = rw;
//	}
//	SEGMENTS {
//	    CODE: load = ROM, fill = yes;
//	    DATA: load = RAM, align = 2;
//	}
//
// Values are expressions, as accepted by the expr package. Files whose name
// ends in ".star" are Starlark scripts instead; see LoadStarlark.
package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ezrec/ace3710/expr"
	"github.com/ezrec/ace3710/segment"
)

// Load reads a layout, choosing the format by file name.
func Load(name string, r io.Reader) (lay *segment.Layout, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		err = fmt.Errorf("%v: %w: %w", name, ErrRead, err)
		return
	}

	if filepath.Ext(name) == ".star" {
		return LoadStarlark(name, data)
	}

	return Parse(name, string(data))
}

type memory struct {
	start  uint16
	size   uint16
	access segment.Access
}

type parser struct {
	file string
	text string
	pos  int
}

// Parse a MEMORY/SEGMENTS layout. The first error found is returned as an
// *Error.
func Parse(name string, text string) (lay *segment.Layout, err error) {
	p := &parser{file: name, text: text}

	memories := map[string]*memory{}
	lay = &segment.Layout{}

	err = p.header("MEMORY", ErrMemoryHeader)
	if err == nil {
		err = p.block(func() error { return p.memory(memories) })
	}
	if err == nil {
		err = p.header("SEGMENTS", ErrSegmentsHeader)
	}
	if err == nil {
		err = p.block(func() error { return p.segment(lay, memories) })
	}
	if err == nil {
		p.skip()
		if p.pos < len(p.text) {
			err = p.errorf(p.pos, 1, ErrTrailing)
		}
	}

	if err != nil {
		lay = nil
	}
	return
}

// errorf positions an error at a byte offset.
func (p *parser) errorf(pos, length int, err error) *Error {
	line := strings.Count(p.text[:pos], "\n")
	col := pos - (strings.LastIndexByte(p.text[:pos], '\n') + 1)
	return &Error{File: p.file, LineNo: line + 1, Col: col, Len: max(length, 1), Err: err}
}

// skip whitespace and comments.
func (p *parser) skip() {
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		switch {
		case c == '#':
			for p.pos < len(p.text) && p.text[p.pos] != '\n' {
				p.pos++
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.text) {
		return p.text[p.pos]
	}
	return 0
}

// ident reads a name, returning its offset.
func (p *parser) ident() (name string, at int) {
	p.skip()
	at = p.pos
	if p.pos < len(p.text) && expr.IsNameStart(p.text[p.pos]) && p.text[p.pos] != '@' {
		for p.pos < len(p.text) && expr.IsNameChar(p.text[p.pos]) {
			p.pos++
		}
	}
	name = p.text[at:p.pos]
	return
}

func (p *parser) expect(c byte, err error) error {
	p.skip()
	if p.peek() != c {
		return p.errorf(p.pos, 1, err)
	}
	p.pos++
	return nil
}

func (p *parser) header(word string, err error) error {
	name, at := p.ident()
	if name != word {
		return p.errorf(at, len(name), err)
	}
	return nil
}

func (p *parser) block(entry func() error) (err error) {
	err = p.expect('{', ErrOpenBrace)
	if err != nil {
		return
	}

	for {
		p.skip()
		switch p.peek() {
		case '}':
			p.pos++
			return
		case 0:
			err = p.errorf(p.pos, 1, ErrCloseBrace)
			return
		}
		err = entry()
		if err != nil {
			return
		}
	}
}

// value reads an expression up to the next ',', ';' or newline.
func (p *parser) value() (value uint16, err error) {
	p.skip()
	at := p.pos
	for p.pos < len(p.text) && !expr.Terminator(p.text[p.pos]) && p.text[p.pos] != '}' {
		if p.text[p.pos] == '\'' {
			_, next, cerr := expr.Character(p.text, p.pos)
			if cerr == nil {
				p.pos = next
				continue
			}
		}
		p.pos++
	}

	value, err = expr.Evaluate(p.text[at:p.pos])
	if ee, ok := err.(*expr.Error); ok {
		err = p.errorf(at+ee.Offset, ee.Length, ee)
	}
	return
}

// attributes reads 'name = value' pairs up to the closing ';'.
func (p *parser) attributes(set func(attr string, at int) error) (err error) {
	seen := map[string]bool{}
	for {
		attr, at := p.ident()
		if attr == "" {
			err = p.errorf(at, 1, ErrAttribute)
			return
		}
		err = p.expect('=', ErrEquals)
		if err != nil {
			return
		}
		err = set(attr, at)
		if err != nil {
			return
		}
		if seen[attr] {
			err = p.errorf(at, len(attr), ErrRedeclared(attr))
			return
		}
		seen[attr] = true

		p.skip()
		switch p.peek() {
		case ',':
			p.pos++
		case ';':
			p.pos++
			return
		default:
			err = p.errorf(p.pos, 1, ErrTrailing)
			return
		}
	}
}

// entryName reads 'NAME:'.
func (p *parser) entryName() (name string, at int, err error) {
	name, at = p.ident()
	if name == "" {
		err = p.errorf(at, 1, ErrIdentifier)
		return
	}
	err = p.expect(':', ErrColon)
	return
}

func (p *parser) memory(memories map[string]*memory) (err error) {
	name, at, err := p.entryName()
	if err != nil {
		return
	}
	if _, ok := memories[name]; ok {
		err = p.errorf(at, len(name), ErrRepeat(name))
		return
	}

	mem := &memory{}
	var hasStart, hasSize, hasType bool
	err = p.attributes(func(attr string, at int) (err error) {
		switch attr {
		case "start":
			mem.start, err = p.value()
			hasStart = true
		case "size":
			mem.size, err = p.value()
			hasSize = true
		case "type":
			kind, kindAt := p.ident()
			access, ok := segment.ParseAccess(kind)
			if !ok {
				err = p.errorf(kindAt, len(kind), ErrAccess(kind))
				return
			}
			mem.access = access
			hasType = true
		default:
			err = p.errorf(at, len(attr), ErrUnknownAttribute(attr))
		}
		return
	})
	if err != nil {
		return
	}

	if !(hasStart && hasSize && hasType) {
		err = p.errorf(at, len(name), ErrMemoryMissing)
		return
	}

	memories[name] = mem
	return
}

func (p *parser) segment(lay *segment.Layout, memories map[string]*memory) (err error) {
	name, at, err := p.entryName()
	if err != nil {
		return
	}
	if lay.Find(name) != nil {
		err = p.errorf(at, len(name), ErrRepeat(name))
		return
	}

	seg := &segment.Segment{Name: name, Align: 1}
	var mem *memory
	err = p.attributes(func(attr string, at int) (err error) {
		switch attr {
		case "load":
			load, loadAt := p.ident()
			var ok bool
			mem, ok = memories[load]
			if !ok {
				err = p.errorf(loadAt, len(load), ErrMemory(load))
			}
		case "fill":
			fill, fillAt := p.ident()
			switch fill {
			case "yes":
				seg.Fill = true
			case "no":
				seg.Fill = false
			default:
				err = p.errorf(fillAt, len(fill), ErrFill(fill))
			}
		case "align":
			seg.Align, err = p.value()
		default:
			err = p.errorf(at, len(attr), ErrUnknownAttribute(attr))
		}
		return
	})
	if err != nil {
		return
	}

	if mem == nil {
		err = p.errorf(at, len(name), ErrLoadMissing)
		return
	}

	seg.Start = mem.start
	seg.Size = mem.size
	seg.Access = mem.access
	err = lay.Add(seg)
	return
}
