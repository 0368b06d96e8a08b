// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/golang/glog"

	"github.com/ezrec/ace3710/cpu"
	"github.com/ezrec/ace3710/expr"
	"github.com/ezrec/ace3710/internal"
	"github.com/ezrec/ace3710/segment"
	"github.com/ezrec/ace3710/source"
	"github.com/ezrec/ace3710/symbol"
)

// Macro is a macro definition.
type Macro struct {
	Name   string
	Params []string
	File   *source.File // Defining file.
	LineNo int          // Line of the .macro directive, 1 based.
	Body   int          // Index of the first body line.
	End    int          // Index of the .endmacro line.
}

// Assembler is a three pass macro assembler for the ACE3710.
type Assembler struct {
	Layout    *segment.Layout  // Memory layout. If nil, the default layout is used.
	WordSize  int              // Units per instruction: 2 when byte addressed, 1 when word addressed. Zero means 2.
	BigEndian bool             // Store the high byte of each word first.
	Files     *source.Registry // Source files. If nil, files are read from the host.
	Stderr    io.Writer        // If set, warnings are printed here as they occur.
	Color     bool             // Colorize printed warnings.

	Macros   map[string]*Macro // Macro definitions.
	Defines  *symbol.Table     // Defines, as of the end of the last pass.
	Vars     *symbol.Table     // Registers, labels and constants.
	Errors   []*Diagnostic     // Errors, in the order they were found.
	Warnings []*Diagnostic     // Warnings, in the order they were found.

	predefine  []predefine
	byteWarned bool
}

type predefine struct {
	name string
	text string
}

// commandLine is the file name of diagnostics about predefines.
const commandLine = "<command line>"

// Predefine adds a define that is set before the source is read. An empty
// value defines the name as 0.
func (asm *Assembler) Predefine(name string, value string) {
	asm.predefine = append(asm.predefine, predefine{name: name, text: value})
}

// bytesPerUnit returns the buffer bytes of one address.
func (asm *Assembler) bytesPerUnit() int {
	return segment.BytesPerUnit(asm.WordSize)
}

// word returns the two bytes of a word in the configured byte order.
func (asm *Assembler) word(value uint16) []byte {
	if asm.BigEndian {
		return []byte{byte(value >> 8), byte(value)}
	}
	return []byte{byte(value), byte(value >> 8)}
}

// reset prepares the assembler for a new run.
func (asm *Assembler) reset() {
	if asm.Layout == nil {
		asm.Layout = segment.Default()
	}
	if asm.WordSize != 1 {
		asm.WordSize = 2
	}
	if asm.Files == nil {
		asm.Files = &source.Registry{}
	}

	asm.Macros = map[string]*Macro{}
	asm.Defines = symbol.NewTable()
	asm.Vars = symbol.NewTable()
	for name, reg := range cpu.Registers {
		asm.Vars.Set(name, reg, symbol.Global)
	}
	asm.Errors = nil
	asm.Warnings = nil
	asm.byteWarned = false
}

// predefined evaluates the predefines in the order they were added.
func (asm *Assembler) predefined() (defines *symbol.Table) {
	defines = symbol.NewTable()
	for _, pre := range asm.predefine {
		if !validName(pre.name) {
			asm.Errors = append(asm.Errors, &Diagnostic{File: commandLine, Err: ErrIdentifier})
			continue
		}
		text := pre.text
		if len(text) == 0 {
			text = "0"
		}
		value, err := expr.Evaluate(text, defines)
		if err != nil {
			asm.Errors = append(asm.Errors, &Diagnostic{File: commandLine, Err: fmt.Errorf("%s: %w", pre.name, err)})
			continue
		}
		defines.Set(pre.name, value, symbol.Global)
	}
	return
}

// problems records the over-long lines of a file, returning true if there
// were any.
func (asm *Assembler) problems(file *source.File) bool {
	for _, p := range file.Problems {
		asm.Errors = append(asm.Errors, &Diagnostic{
			File:   file.Name,
			LineNo: p.LineNo,
			Line:   file.Line(p.LineNo - 1),
			Col:    p.Col,
			Len:    p.Len,
			Err:    errors.New(p.Msg),
		})
	}
	return len(file.Problems) > 0
}

// warning records a warning and prints it. A plain warning is printed
// without its source line.
func (asm *Assembler) warning(d *Diagnostic, plain bool) {
	d.Warning = true
	asm.Warnings = append(asm.Warnings, d)

	if asm.Stderr == nil {
		return
	}
	if plain {
		fmt.Fprintf(asm.Stderr, "WARNING: %v\n", d.Err)
		return
	}
	_ = d.Render(asm.Stderr, asm.Color)
}

// resolveError positions a resolver failure at the failing declaration.
func (asm *Assembler) resolveError(err error) *Diagnostic {
	var se *symbol.Error
	if !errors.As(err, &se) {
		return &Diagnostic{File: commandLine, Err: err}
	}

	p := se.Pending
	d := &Diagnostic{
		File:   p.File,
		LineNo: p.LineNo,
		Col:    p.Col,
		Len:    max(len(p.Expr), 1),
		Err:    se.Err,
	}
	if file, _, ferr := asm.Files.Open(p.File, false); ferr == nil {
		d.Line = file.Line(p.LineNo - 1)
	}
	var ee *expr.Error
	if errors.As(se.Err, &ee) {
		d.Col += ee.Offset
		d.Len = ee.Length
	}
	return d
}

// failed returns the error for a run with errors.
func (asm *Assembler) failed() error {
	return fmt.Errorf("%w: %w", ErrAssembly, asm.Errors[0])
}

// Assemble assembles the named main source file into the layout. Errors
// are collected on asm.Errors; if there are any, ErrAssembly is returned
// wrapping the first of them.
func (asm *Assembler) Assemble(ctx context.Context, name string) (err error) {
	asm.reset()

	defines := asm.predefined()
	if len(asm.Errors) > 0 {
		return asm.failed()
	}

	main, _, err := asm.Files.Open(name, false)
	if err != nil {
		asm.Errors = append(asm.Errors, &Diagnostic{File: name, Err: err})
		return asm.failed()
	}
	if asm.problems(main) {
		return asm.failed()
	}

	passes := []string{"", "discover macros", "size segments", "emit code"}
	for tier := 1; tier <= 3; tier++ {
		glog.V(1).Infof("pass %d: %s", tier, passes[tier])

		if tier > 1 {
			asm.Layout.Allocate(asm.bytesPerUnit())
		}

		st := asm.newState(ctx, tier, main, defines.Clone())
		if tier == 3 && !st.scanLocals(st.cur, false, nil) {
			st.abort = true
		}
		err = st.run()
		if err != nil {
			return
		}
		asm.Defines = st.defines

		if tier == 2 && len(asm.Errors) == 0 {
			glog.V(1).Infof("resolving %d constants", st.pending.Len())
			err = st.pending.Resolve(asm.Vars, st.defines, symbol.Global)
			if err != nil {
				asm.Errors = append(asm.Errors, asm.resolveError(err))
				err = nil
			}
		}

		if len(asm.Errors) > 0 {
			glog.V(1).Infof("pass %d: %d errors", tier, len(asm.Errors))
			return asm.failed()
		}
	}

	return
}

// Symbols iterates over the defines, and then the registers, labels and
// constants, each in name order.
func (asm *Assembler) Symbols() iter.Seq2[string, uint16] {
	defines, vars := asm.Defines, asm.Vars
	if defines == nil {
		defines = symbol.NewTable()
	}
	if vars == nil {
		vars = symbol.NewTable()
	}
	return internal.IterSeq2Concat(defines.All(), vars.All())
}
