// Package source loads assembly source and binary include files, and
// tracks positions within them.
package source

import (
	"io/fs"
	"os"
	"strings"

	"github.com/ezrec/ace3710/translate"
)

var f = translate.From

// MaxLine is the longest permitted source line, in bytes.
const MaxLine = 255

// Problem is a defect found while loading a text file.
type Problem struct {
	LineNo int // 1 based.
	Col    int // 0 based.
	Len    int
	Msg    string
}

// File is a loaded source or binary file. Files are never modified after
// they are loaded.
type File struct {
	Name     string
	Binary   bool
	Data     []byte    // Raw contents.
	Lines    []string  // Text lines without terminators; nil for binary files.
	Problems []Problem // Lines over MaxLine.
}

// Len returns the number of lines of a text file.
func (file *File) Len() int {
	return len(file.Lines)
}

// Line returns a text line by index, or "" past the end.
func (file *File) Line(n int) string {
	if n < 0 || n >= len(file.Lines) {
		return ""
	}
	return file.Lines[n]
}

// Empty returns true if a text file has no lines.
func (file *File) Empty() bool {
	return len(file.Lines) == 0
}

// SplitLines splits text into lines, dropping the terminators.
func SplitLines(text string) (lines []string) {
	if len(text) == 0 {
		return
	}
	lines = strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for n, line := range lines {
		lines[n] = strings.TrimSuffix(line, "\r")
	}
	return
}

// Validate lists the lines that are too long.
func Validate(lines []string) (problems []Problem) {
	for n, line := range lines {
		if len(line) > MaxLine {
			problems = append(problems, Problem{
				LineNo: n + 1,
				Col:    MaxLine,
				Len:    len(line) - MaxLine,
				Msg:    f("Line size cannot exceed %d chars", MaxLine),
			})
		}
	}
	return
}

type key struct {
	name   string
	binary bool
}

// Registry opens files on first reference and keeps them until the end of
// the run. The same name opened as text and as binary are distinct files.
type Registry struct {
	FS fs.FS // If nil, names refer to the host file system.

	files map[key]*File
	order []*File
}

func (reg *Registry) read(name string) ([]byte, error) {
	if reg.FS == nil {
		return os.ReadFile(name)
	}
	return fs.ReadFile(reg.FS, name)
}

// Add registers an in-memory text file, replacing any previous file of the
// same name.
func (reg *Registry) Add(name string, text string) *File {
	file := &File{
		Name:  name,
		Data:  []byte(text),
		Lines: SplitLines(text),
	}
	file.Problems = Validate(file.Lines)
	reg.store(file)
	return file
}

func (reg *Registry) store(file *File) {
	if reg.files == nil {
		reg.files = map[key]*File{}
	}
	reg.files[key{file.Name, file.Binary}] = file
	reg.order = append(reg.order, file)
}

// Open returns the named file, loading it if it was not already open.
// fresh is true when this call loaded it.
func (reg *Registry) Open(name string, binary bool) (file *File, fresh bool, err error) {
	file, ok := reg.files[key{name, binary}]
	if ok {
		return
	}

	data, err := reg.read(name)
	if err != nil {
		err = ErrOpen(name)
		return
	}

	file = &File{Name: name, Binary: binary, Data: data}
	if !binary {
		file.Lines = SplitLines(string(data))
		file.Problems = Validate(file.Lines)
	}
	reg.store(file)
	fresh = true
	return
}

// Files returns every file opened, in the order they were opened.
func (reg *Registry) Files() []*File {
	return reg.order
}

// ErrOpen is a file that could not be read.
type ErrOpen string

func (err ErrOpen) Error() string {
	return f("Could not open %s", string(err))
}

// Cursor is a line position within a text file.
type Cursor struct {
	File *File
	Line int // 0 based line index.
}

// EOF returns true when the cursor is past the last line.
func (cur Cursor) EOF() bool {
	return cur.File == nil || cur.Line >= cur.File.Len()
}

// Text returns the line under the cursor.
func (cur Cursor) Text() string {
	if cur.File == nil {
		return ""
	}
	return cur.File.Line(cur.Line)
}

// Next returns the cursor advanced by one line.
func (cur Cursor) Next() Cursor {
	return Cursor{File: cur.File, Line: cur.Line + 1}
}

// LineNo returns the 1 based line number.
func (cur Cursor) LineNo() int {
	return cur.Line + 1
}

// Name returns the file name, or "" for an empty cursor.
func (cur Cursor) Name() string {
	if cur.File == nil {
		return ""
	}
	return cur.File.Name
}
