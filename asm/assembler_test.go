package asm

import (
	"bytes"
	"context"
	"maps"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/ace3710/cpu"
	"github.com/ezrec/ace3710/segment"
	"github.com/ezrec/ace3710/source"
	"github.com/ezrec/ace3710/symbol"
)

// build returns an assembler reading main.s, and any other files, from
// memory.
func build(main []string, files map[string]string) *Assembler {
	fsys := fstest.MapFS{
		"main.s": {Data: []byte(strings.Join(main, "\n"))},
	}
	for name, text := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(text)}
	}
	return &Assembler{Files: &source.Registry{FS: fsys}}
}

func run(asm *Assembler) error {
	return asm.Assemble(context.Background(), "main.s")
}

// written returns the bytes written to a segment.
func written(asm *Assembler, name string) []byte {
	seg := asm.Layout.Find(name)
	return seg.Data[:seg.WriteAddr*asm.bytesPerUnit()]
}

// failure asserts that assembly failed, and returns the diagnostics.
func failure(t *testing.T, err error, asm *Assembler) []*Diagnostic {
	require.ErrorIs(t, err, ErrAssembly)
	require.NotEmpty(t, asm.Errors)
	return asm.Errors
}

func TestAssembleEmpty(t *testing.T) {
	assert := assert.New(t)

	asm := build(nil, nil)
	assert.NoError(run(asm))
	assert.Empty(asm.Errors)

	names := []string{}
	for _, seg := range asm.Layout.Segments {
		names = append(names, seg.Name)
	}
	assert.Equal([]string{"CODE", "DATA", "DISPATCH_TABLE", "BSS", "STACK", "INTERRUPT_STACK"}, names)
	assert.Equal(2, asm.WordSize)

	value, ok := asm.Vars.Lookup("sp")
	assert.True(ok)
	assert.Equal(uint16(15), value)
}

func TestAssembleInstructions(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "CODE"`,
		"    add r1, r2",
		"    movi 5, r3   ; load",
		"    nop",
	}, nil)
	require.NoError(t, run(asm))

	assert.Equal([]byte{0x51, 0x02, 0x05, 0xd3, 0x20, 0x00}, written(asm, "CODE"))

	asm.BigEndian = true
	require.NoError(t, run(asm))
	assert.Equal([]byte{0x02, 0x51, 0xd3, 0x05, 0x00, 0x20}, written(asm, "CODE"))
}

func TestAssembleBranches(t *testing.T) {
	lines := []string{
		`    .segment "CODE"`,
		"loop:",
		"    add r1, r2",
		"    add r1, r2",
		"    add r1, r2",
		"    bne loop",
		"    beq done",
		"    nop",
		"    nop",
		"    nop",
		"done:",
	}

	t.Run("byte", func(t *testing.T) {
		assert := assert.New(t)

		asm := build(lines, nil)
		require.NoError(t, run(asm))

		done, _ := asm.Vars.Lookup("done")
		assert.Equal(uint16(16), done)

		code := written(asm, "CODE")
		assert.Equal([]byte{0xf8, 0xc1}, code[6:8])
		assert.Equal([]byte{0x06, 0xc0}, code[8:10])
	})

	t.Run("word", func(t *testing.T) {
		assert := assert.New(t)

		asm := build(lines, nil)
		asm.WordSize = 1
		require.NoError(t, run(asm))

		done, _ := asm.Vars.Lookup("done")
		assert.Equal(uint16(8), done)

		code := written(asm, "CODE")
		assert.Len(code, 16)
		assert.Equal([]byte{0xfc, 0xc1}, code[6:8])
		assert.Equal([]byte{0x03, 0xc0}, code[8:10])
	})
}

func TestAssembleBranchRange(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "DATA"`,
		"    beq far",
		"    .res 300",
		"far:",
	}, nil)
	errs := failure(t, run(asm), asm)

	assert.Len(errs, 1)
	assert.Equal(cpu.ErrDisplacement, errs[0].Err)
	assert.Equal(2, errs[0].LineNo)
	assert.Equal("main.s", errs[0].File)
}

func TestAssembleMacro(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		"    .macro addtwo a, b",
		"    add a, b",
		"    .endmacro",
		`    .segment "CODE"`,
		"    addtwo r3, r4",
		"    add r3, r4",
	}, nil)
	require.NoError(t, run(asm))

	code := written(asm, "CODE")
	assert.Equal([]byte{0x53, 0x04}, code[0:2])
	assert.Equal(code[0:2], code[2:4])

	m := asm.Macros["addtwo"]
	if assert.NotNil(m) {
		assert.Equal([]string{"a", "b"}, m.Params)
		assert.Equal(1, m.LineNo)
		assert.Equal(1, m.Body)
		assert.Equal(2, m.End)
	}

	assert.False(asm.Vars.Has("a"))
	assert.False(asm.Vars.Has("b"))
}

func TestAssembleMacroShadow(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		"    .macro load v",
		"    movi v, r1",
		"    .endmacro",
		"v = 7",
		`    .segment "CODE"`,
		"    load 3",
		"    movi v, r1",
	}, nil)
	require.NoError(t, run(asm))

	assert.Equal([]byte{0x03, 0xd1, 0x07, 0xd1}, written(asm, "CODE"))
	value, _ := asm.Vars.Lookup("v")
	assert.Equal(uint16(7), value)
}

func TestAssembleMacroLocals(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		"    .macro spin",
		"@wait:",
		"    bne @wait",
		"    .endmacro",
		`    .segment "CODE"`,
		"    spin",
		"    spin",
	}, nil)
	require.NoError(t, run(asm))

	assert.Equal([]byte{0xfe, 0xc1, 0xfe, 0xc1}, written(asm, "CODE"))
	assert.False(asm.Vars.Has("@wait"))
}

func TestAssembleMacroErrors(t *testing.T) {
	type errTest struct {
		name   string
		source []string
		err    error
		lineNo int
	}

	table := []errTest{
		{"count", []string{
			"    .macro two a, b",
			"    .endmacro",
			`    .segment "CODE"`,
			"    two 1",
		}, ErrArgCount, 4},
		{"update", []string{
			"    .macro m",
			"    .define X 1",
			"    .endmacro",
		}, ErrMacroUpdate, 2},
		{"global", []string{
			"    .macro m",
			"label:",
			"    .endmacro",
		}, ErrGlobalInMacro, 2},
		{"duplicate", []string{
			"    .macro m",
			"    .endmacro",
			"    .macro m",
			"    .endmacro",
		}, ErrMacroDuplicate("m"), 3},
		{"unterminated", []string{
			"    nop",
			"    .macro m",
			"    nop",
		}, ErrEndmacro, 2},
		{"stray", []string{
			"    .endmacro",
		}, ErrMacro, 1},
		{"parameters", []string{
			"    .macro m a, 1b",
			"    .endmacro",
		}, ErrParameters, 1},
		{"name", []string{
			"    .macro",
			"    .endmacro",
		}, ErrIdentifier, 1},
		{"depth", []string{
			"    .macro r",
			"    r",
			"    .endmacro",
			`    .segment "CODE"`,
			"    r",
		}, ErrMacroDepth, 2},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			asm := build(entry.source, nil)
			errs := failure(t, run(asm), asm)
			assert.Len(errs, 1)
			assert.Equal(entry.err, errs[0].Err)
			assert.Equal(entry.lineNo, errs[0].LineNo)
		})
	}
}

func TestAssembleMacroCallError(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		"    .macro bad",
		"    movi 300, r1",
		"    .endmacro",
		`    .segment "CODE"`,
		"    bad",
	}, nil)
	errs := failure(t, run(asm), asm)

	require.Len(t, errs, 2)
	assert.Equal(cpu.ErrArg1Immediate, errs[0].Err)
	assert.Equal(2, errs[0].LineNo)
	assert.Equal(9, errs[0].Col)
	assert.Equal(3, errs[0].Len)
	assert.Equal(ErrMacroCall, errs[1].Err)
	assert.Equal(5, errs[1].LineNo)
	assert.Equal(4, errs[1].Col)
}

func TestAssembleInclude(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "CODE"`,
		`    .include "a.s"`,
		`    .include "a.s"`,
		`    .include "empty.s"`,
	}, map[string]string{
		"a.s":     "    nop\n",
		"empty.s": "",
	})
	require.NoError(t, run(asm))

	assert.Equal([]byte{0x20, 0x00, 0x20, 0x00}, written(asm, "CODE"))
}

func TestAssembleIncludeCircular(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .include "b.s"`,
	}, map[string]string{
		"b.s": `    .include "main.s"` + "\n",
	})
	errs := failure(t, run(asm), asm)

	require.Len(t, errs, 1)
	assert.Equal(ErrCircularFile{"main.s", "b.s", "main.s"}, errs[0].Err)
	assert.Equal("Circular file dependency: main.s <- b.s <- main.s", errs[0].Err.Error())
	assert.Equal("b.s", errs[0].File)
	assert.Equal(1, errs[0].LineNo)
}

func TestAssembleIncludeMissing(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .include "gone.s"`,
	}, nil)
	errs := failure(t, run(asm), asm)

	assert.Equal(source.ErrOpen("gone.s"), errs[0].Err)

	asm = build(nil, nil)
	err := asm.Assemble(context.Background(), "nope.s")
	assert.ErrorIs(err, ErrAssembly)
	assert.Equal(source.ErrOpen("nope.s"), asm.Errors[0].Err)
}

func TestAssembleIncbin(t *testing.T) {
	assert := assert.New(t)

	main := []string{
		`    .segment "DATA"`,
		`    .incbin "blob.bin"`,
	}
	files := map[string]string{"blob.bin": "\x01\x02\x03"}

	asm := build(main, files)
	require.NoError(t, run(asm))
	assert.Equal([]byte{1, 2, 3}, written(asm, "DATA"))

	asm = build(main, files)
	asm.WordSize = 1
	require.NoError(t, run(asm))
	assert.Equal(2, asm.Layout.Find("DATA").WriteAddr)
	assert.Equal([]byte{1, 2, 3, 0}, written(asm, "DATA"))
}

func TestAssembleData(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "DATA"`,
		"    .byte 1, $ff, 'A'",
		"    .word $1234",
		`    .ascii "hi"`,
		`    .asciiz "!"`,
		"    .align 4",
		"    .res 2",
		"    .word -1",
	}, nil)
	require.NoError(t, run(asm))

	assert.Equal([]byte{
		0x01, 0xff, 0x41,
		0x34, 0x12,
		0x68, 0x69,
		0x21, 0x00,
		0x00, 0x00, 0x00,
		0x00, 0x00,
		0xff, 0xff,
	}, written(asm, "DATA"))
}

func TestAssembleDataWordMode(t *testing.T) {
	assert := assert.New(t)

	var stderr bytes.Buffer
	asm := build([]string{
		`    .segment "DATA"`,
		"    .byte 1, 2",
		"    .word $1234",
		`    .ascii "hi"`,
		"    .byte 3",
	}, nil)
	asm.WordSize = 1
	asm.Stderr = &stderr
	require.NoError(t, run(asm))

	assert.Equal(6, asm.Layout.Find("DATA").WriteAddr)
	assert.Equal([]byte{
		0x01, 0x00, 0x02, 0x00,
		0x34, 0x12,
		0x68, 0x00, 0x69, 0x00,
		0x03, 0x00,
	}, written(asm, "DATA"))

	require.Len(t, asm.Warnings, 1)
	assert.Equal(ErrByteWord, asm.Warnings[0].Err)
	assert.Contains(stderr.String(), "WARNING: main.s")
}

func TestAssembleSegments(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "CODE"`,
		"    .pushseg",
		`    .segment "DATA"`,
		`    .segment "BSS"`,
		"    .popseg",
		"    nop",
	}, nil)
	require.NoError(t, run(asm))

	assert.Equal(2, asm.Layout.Find("CODE").WriteAddr)
	assert.Equal(0, asm.Layout.Find("DATA").WriteAddr)
}

func TestAssembleSegmentErrors(t *testing.T) {
	tiny := func() *segment.Layout {
		return &segment.Layout{Segments: []*segment.Segment{
			{Name: "TINY", Start: 0x100, Size: 4, Align: 1, Access: segment.ReadWrite},
		}}
	}

	type errTest struct {
		name   string
		source []string
		err    error
		lineNo int
	}

	table := []errTest{
		{"overflow", []string{`    .segment "TINY"`, "    .byte 1, 2, 3, 4, 5"}, segment.ErrSegmentFull("TINY"), 2},
		{"unknown", []string{`    .segment "NOPE"`}, ErrSegment("NOPE"), 1},
		{"string", []string{`    .segment TINY`}, ErrString, 1},
		{"trailing", []string{`    .segment "TINY" x`}, ErrTrailing, 1},
		{"pop", []string{"    .popseg"}, ErrSegmentStack, 1},
		{"none", []string{"    .byte 1"}, ErrNoSegment, 1},
		{"label", []string{"here:"}, ErrNoSegment, 1},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			asm := build(entry.source, nil)
			asm.Layout = tiny()
			errs := failure(t, run(asm), asm)
			assert.Len(errs, 1)
			assert.Equal(entry.err, errs[0].Err)
			assert.Equal(entry.lineNo, errs[0].LineNo)
		})
	}

	asm := build([]string{`    .segment "TINY"`, "    .byte 1, 2, 3, 4"}, nil)
	asm.Layout = tiny()
	assert.NoError(t, run(asm))
}

func TestAssembleAccess(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "BSS"`,
		"    .res 4",
		"    .byte 1",
		`    .segment "CODE"`,
		"    .res 2",
	}, nil)
	errs := failure(t, run(asm), asm)

	require.Len(t, errs, 2)
	assert.Equal(ErrUninitialized("BSS"), errs[0].Err)
	assert.Equal(3, errs[0].LineNo)
	assert.Equal(ErrReadOnly("CODE"), errs[1].Err)
	assert.Equal(5, errs[1].LineNo)
}

func TestAssembleConstants(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		"C = B * 2",
		"B = A + 1",
		"A = 5",
		`    .segment "CODE"`,
		"    movi C, r1",
	}, nil)
	require.NoError(t, run(asm))

	for name, value := range map[string]uint16{"A": 5, "B": 6, "C": 12} {
		got, ok := asm.Vars.Lookup(name)
		assert.True(ok, name)
		assert.Equal(value, got, name)
	}
	assert.Equal([]byte{0x0c, 0xd1}, written(asm, "CODE"))
}

func TestAssembleConstantErrors(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		"A = B + 1",
		"B = A + 1",
	}, nil)
	errs := failure(t, run(asm), asm)
	require.Len(t, errs, 1)
	assert.Equal(symbol.ErrCircular{"A", "B", "A"}, errs[0].Err)
	assert.Equal(1, errs[0].LineNo)
	assert.Equal(4, errs[0].Col)

	asm = build([]string{
		"A = 1",
		"A = 2",
	}, nil)
	errs = failure(t, run(asm), asm)
	assert.Equal(symbol.ErrDuplicate("A"), errs[0].Err)
	assert.Equal(2, errs[0].LineNo)

	asm = build([]string{"r1 = 5"}, nil)
	errs = failure(t, run(asm), asm)
	assert.Equal(symbol.ErrDuplicate("r1"), errs[0].Err)

	asm = build([]string{"A = 1 / 0"}, nil)
	errs = failure(t, run(asm), asm)
	assert.Equal("Division by zero", errs[0].Err.Error())
	assert.Equal(6, errs[0].Col)
}

func TestAssembleDeclarationErrors(t *testing.T) {
	type errTest struct {
		line string
		err  error
		col  int
	}

	table := []errTest{
		{"1abc: nop", ErrName, 0},
		{"foo bar", ErrAssignment, 4},
		{"foo", ErrAssignment, 3},
	}

	for _, entry := range table {
		t.Run(entry.line, func(t *testing.T) {
			assert := assert.New(t)

			asm := build([]string{entry.line}, nil)
			errs := failure(t, run(asm), asm)
			assert.Len(errs, 1)
			assert.Equal(entry.err, errs[0].Err)
			assert.Equal(entry.col, errs[0].Col)
		})
	}
}

func TestAssembleLocals(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "CODE"`,
		"first:",
		"@loop:",
		"    nop",
		"    bne @loop",
		"second:",
		"@loop:",
		"    bne @loop",
		"    beq @fwd",
		"@fwd:",
	}, nil)
	require.NoError(t, run(asm))

	assert.Equal([]byte{
		0x20, 0x00,
		0xfc, 0xc1,
		0xfe, 0xc1,
		0x00, 0xc0,
	}, written(asm, "CODE"))
}

func TestAssembleLocalConstants(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "CODE"`,
		"main:",
		"@n = @m + 1",
		"@m = 2",
		"    movi @n, r1",
	}, nil)
	require.NoError(t, run(asm))

	assert.Equal([]byte{0x03, 0xd1}, written(asm, "CODE"))
}

func TestAssembleLocalDuplicate(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "CODE"`,
		"main:",
		"@a:",
		"    nop",
		"@a:",
	}, nil)
	errs := failure(t, run(asm), asm)

	require.Len(t, errs, 1)
	assert.Equal(symbol.ErrDuplicate("@a"), errs[0].Err)
	assert.Equal(5, errs[0].LineNo)
}

func TestAssembleConditionals(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		"    .define MODE 2",
		`    .segment "CODE"`,
		"    .if MODE == 1",
		"    movi 1, r1",
		"    .elseif MODE == 2",
		"    movi 2, r1",
		"    .else",
		"    movi 3, r1",
		"    .endif",
		"    .ifdef MISSING",
		"    movi 4, r1",
		"    .if 1",
		"    .endif",
		"    .endif",
		"    .ifndef MISSING",
		"    movi 5, r1",
		"    .endif",
	}, nil)
	require.NoError(t, run(asm))

	assert.Equal([]byte{0x02, 0xd1, 0x05, 0xd1}, written(asm, "CODE"))
}

func TestAssembleConditionalErrors(t *testing.T) {
	type errTest struct {
		name   string
		source []string
		err    error
		lineNo int
	}

	table := []errTest{
		{"open", []string{"    .if 1"}, ErrEndif, 1},
		{"skipped", []string{"    .if 0"}, ErrEndif, 1},
		{"endif", []string{"    .endif"}, ErrIf, 1},
		{"else", []string{"    .else"}, ErrIf, 1},
		{"ifdef", []string{"    .ifdef", "    .endif"}, ErrIdentifier, 1},
		{"include", []string{`    .include "open.s"`}, ErrEndif, 1},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			asm := build(entry.source, map[string]string{"open.s": "    .if 1\n"})
			errs := failure(t, run(asm), asm)
			assert.Len(errs, 1)
			assert.Equal(entry.err, errs[0].Err)
			assert.Equal(entry.lineNo, errs[0].LineNo)
		})
	}
}

func TestAssembleDefines(t *testing.T) {
	assert := assert.New(t)

	var stderr bytes.Buffer
	asm := build([]string{
		"    .define MODE 2",
		"    .redef MODE MODE + 1",
		"    .define EMPTY",
		"    .undef NOTHING",
		`    .segment "CODE"`,
		"    movi MODE, r1",
	}, nil)
	asm.Predefine("MODE", "1")
	asm.Stderr = &stderr
	require.NoError(t, run(asm))

	assert.Equal([]byte{0x03, 0xd1}, written(asm, "CODE"))

	require.Len(t, asm.Warnings, 2)
	assert.Equal(ErrRedefine("MODE"), asm.Warnings[0].Err)
	assert.Equal(ErrUndefine, asm.Warnings[1].Err)

	symbols := maps.Collect(asm.Symbols())
	assert.Equal(uint16(3), symbols["MODE"])
	assert.Equal(uint16(0), symbols["EMPTY"])
	assert.Equal(uint16(1), symbols["r1"])

	asm = build([]string{"    .redef NOPE 1"}, nil)
	errs := failure(t, run(asm), asm)
	assert.Equal(ErrUndefined("NOPE"), errs[0].Err)

	asm = build(nil, nil)
	asm.Predefine("1bad", "")
	errs = failure(t, run(asm), asm)
	assert.Equal(ErrIdentifier, errs[0].Err)
	assert.Equal(commandLine, errs[0].File)
}

func TestAssembleUserMessages(t *testing.T) {
	assert := assert.New(t)

	var stderr bytes.Buffer
	asm := build([]string{
		`    .warning "careful"`,
		`    .error "boom"`,
	}, nil)
	asm.Stderr = &stderr
	errs := failure(t, run(asm), asm)

	require.Len(t, errs, 1)
	assert.Equal(ErrUser("boom"), errs[0].Err)
	require.Len(t, asm.Warnings, 1)
	assert.Equal(ErrUser("careful"), asm.Warnings[0].Err)
	assert.Equal("WARNING: careful\n", stderr.String())
}

func TestAssembleInvalid(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "CODE"`,
		"    .bogus 1",
		"    frob r1",
		"    add r1",
		"    add r1, 16",
	}, nil)
	errs := failure(t, run(asm), asm)

	require.Len(t, errs, 4)
	assert.Equal(ErrDirective(".bogus"), errs[0].Err)
	assert.Equal(cpu.ErrInstruction("frob"), errs[1].Err)
	assert.Equal(cpu.ErrArgCount(2), errs[2].Err)
	assert.Equal(cpu.ErrArg2Register, errs[3].Err)
	assert.Equal(12, errs[3].Col)

	// Failed instructions keep their space.
	assert.Equal(6, asm.Layout.Find("CODE").WriteAddr)
}

func TestAssembleLineTooLong(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{"    nop ; " + strings.Repeat("x", 300)}, nil)
	errs := failure(t, run(asm), asm)

	assert.Equal("Line size cannot exceed 255 chars", errs[0].Err.Error())
	assert.Equal(255, errs[0].Col)
}

func TestAssembleCancel(t *testing.T) {
	assert := assert.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	asm := build([]string{"    nop"}, nil)
	err := asm.Assemble(ctx, "main.s")
	assert.ErrorIs(err, context.Canceled)
}

func TestAssembleLocalsAcrossInclude(t *testing.T) {
	assert := assert.New(t)

	asm := build([]string{
		`    .segment "CODE"`,
		"main:",
		`    .include "a.s"`,
		"    buc @end",
		"@end: nop",
	}, map[string]string{
		"a.s": "foo: nop\n",
	})
	require.NoError(t, run(asm))

	assert.Equal([]byte{
		0x20, 0x00,
		0x00, 0xce,
		0x20, 0x00,
	}, written(asm, "CODE"))

	foo, _ := asm.Vars.Lookup("foo")
	assert.Equal(uint16(0), foo)
}

func TestAssembleWarningPerExpansion(t *testing.T) {
	assert := assert.New(t)

	var stderr bytes.Buffer
	asm := build([]string{
		"    .macro w",
		`    .warning "expanded"`,
		"    .endmacro",
		"    w",
		"    w",
		"    w",
	}, nil)
	asm.Stderr = &stderr
	require.NoError(t, run(asm))

	assert.Len(asm.Warnings, 3)
	assert.Equal(strings.Repeat("WARNING: expanded\n", 3), stderr.String())
}
