package asm

import (
	"fmt"
	"io"
	"strings"
)

const (
	tabWidth = 8

	colorRed    = "\033[1;31m"
	colorYellow = "\033[1;33m"
	colorGreen  = "\033[32m"
	colorReset  = "\033[0m"
)

// Diagnostic is an error or warning at a position in the source.
type Diagnostic struct {
	File    string
	LineNo  int    // 1 based, or 0 when there is no source line.
	Line    string // Text of the source line.
	Col     int    // 0 based byte offset into Line.
	Len     int    // Bytes to highlight.
	Warning bool
	Err     error
}

func (d *Diagnostic) Error() string {
	if d.LineNo == 0 {
		return fmt.Sprintf("%s: %v", d.File, d.Err)
	}
	return fmt.Sprintf("%s:%d:%d: %v", d.File, d.LineNo, d.Col+1, d.Err)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// expand replaces tabs with spaces, returning the expanded text and the
// display column of each byte offset in cols (offsets past the end extend
// the last column).
func expand(line string, cols ...int) (text string, display []int) {
	var sb strings.Builder
	at := make([]int, len(line)+1)
	for n := 0; n < len(line); n++ {
		at[n] = sb.Len()
		if line[n] == '\t' {
			sb.WriteString(strings.Repeat(" ", tabWidth-sb.Len()%tabWidth))
		} else {
			sb.WriteByte(line[n])
		}
	}
	at[len(line)] = sb.Len()

	for _, col := range cols {
		switch {
		case col < 0:
			col = 0
		case col > len(line):
			display = append(display, at[len(line)]+col-len(line))
			continue
		}
		display = append(display, at[col])
	}

	text = sb.String()
	return
}

// Render writes the diagnostic in caret style:
//
//	ERROR: file.s
//	  12 |	    movi 300, r1
//	     |	         ^^^
//	     |	Argument 1 exceeds range -128 to 127 or 0 to 255
func (d *Diagnostic) Render(w io.Writer, color bool) (err error) {
	kind, paint := "ERROR:", colorRed
	if d.Warning {
		kind, paint = "WARNING:", colorYellow
	}
	if color {
		kind = paint + kind + colorReset
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", kind, d.File)
	if d.LineNo > 0 {
		text, cols := expand(d.Line, d.Col, d.Col+max(d.Len, 1))
		carets := strings.Repeat(" ", cols[0]) + strings.Repeat("^", max(cols[1]-cols[0], 1))
		if color {
			carets = colorGreen + carets + colorReset
		}
		fmt.Fprintf(&sb, "%4d |\t%s\n", d.LineNo, text)
		fmt.Fprintf(&sb, "     |\t%s\n", carets)
	}
	fmt.Fprintf(&sb, "     |\t%v\n", d.Err)

	_, err = io.WriteString(w, sb.String())
	return
}
