package asm

import (
	"errors"
	"strings"

	"github.com/ezrec/ace3710/translate"
)

var f = translate.From

var (
	ErrAssembly = errors.New(f("assembly failed"))

	// Declaration errors
	ErrName          = errors.New(f("Invalid constant or label name"))
	ErrAssignment    = errors.New(f("Expected assignment"))
	ErrGlobalInMacro = errors.New(f("Cannot declare global variables in a macro definition"))
	ErrNoSegment     = errors.New(f("No active segment"))

	// Directive errors
	ErrString       = errors.New(f("Expected valid string"))
	ErrTrailing     = errors.New(f("Unexpected trailing garbage"))
	ErrIdentifier   = errors.New(f("Expected identifier"))
	ErrParameters   = errors.New(f("Could not parse parameters"))
	ErrSegmentStack = errors.New(f("No segments on the stack"))
	ErrUndefine     = errors.New(f("undefining an undefined value"))
	ErrByteWord     = errors.New(f("upper byte of .byte is padded with 0 in word mode"))

	// Structure errors
	ErrIf          = errors.New(f("Expected .if"))
	ErrEndif       = errors.New(f("Expected .endif"))
	ErrMacro       = errors.New(f("Expected .macro"))
	ErrEndmacro    = errors.New(f("Expected .endmacro"))
	ErrMacroUpdate = errors.New(f("Cannot update definitions inside a macro definition"))
	ErrMacroDepth  = errors.New(f("Macro call depth exceeded"))
	ErrMacroCall   = errors.New(f("An error occurred inside the macro call"))
	ErrArgCount    = errors.New(f("Incorrect argument count"))
)

type ErrDirective string

func (err ErrDirective) Error() string {
	return f("Invalid macro: %s", string(err))
}

type ErrSegment string

func (err ErrSegment) Error() string {
	return f("Invalid segment \"%s\"", string(err))
}

type ErrReadOnly string

func (err ErrReadOnly) Error() string {
	return f("Cannot reserve in read-only segment %s", string(err))
}

type ErrUninitialized string

func (err ErrUninitialized) Error() string {
	return f("Cannot write to uninitialized segment %s", string(err))
}

type ErrRedefine string

func (err ErrRedefine) Error() string {
	return f("redefinition of \"%s\" (consider using .redef)", string(err))
}

type ErrUndefined string

func (err ErrUndefined) Error() string {
	return f("\"%s\" is not defined", string(err))
}

type ErrMacroDuplicate string

func (err ErrMacroDuplicate) Error() string {
	return f("Repeat definition of macro %s", string(err))
}

// ErrCircularFile is an include cycle, listing the files along it.
type ErrCircularFile []string

func (err ErrCircularFile) Error() string {
	return f("Circular file dependency: %s", strings.Join(err, " <- "))
}

// ErrArguments wraps a failure to evaluate a directive or macro argument.
type ErrArguments struct {
	Err error
}

func (err *ErrArguments) Error() string {
	return f("Could not parse arguments: %v", err.Err)
}

func (err *ErrArguments) Unwrap() error {
	return err.Err
}

// ErrUser is the message of an .error directive.
type ErrUser string

func (err ErrUser) Error() string {
	return string(err)
}
