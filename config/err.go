package config

import (
	"errors"

	"github.com/ezrec/ace3710/translate"
)

var f = translate.From

var (
	ErrMemoryHeader   = errors.New(f("Expected MEMORY header"))
	ErrSegmentsHeader = errors.New(f("Expected SEGMENTS header"))
	ErrOpenBrace      = errors.New(f("Expected {"))
	ErrCloseBrace     = errors.New(f("Expected }"))
	ErrIdentifier     = errors.New(f("Expected identifier"))
	ErrColon          = errors.New(f("Expected :"))
	ErrEquals         = errors.New(f("Expected ="))
	ErrAttribute      = errors.New(f("Expected memory attribute"))
	ErrTrailing       = errors.New(f("Unexpected trailing garbage"))
	ErrMemoryMissing  = errors.New(f("Expected start/size/type definition"))
	ErrLoadMissing    = errors.New(f("Expected load definition"))
	ErrRead           = errors.New(f("Could not read MEMORY block"))
)

// ErrRepeat is a memory region or segment defined twice.
type ErrRepeat string

func (err ErrRepeat) Error() string {
	return f("Repeat definition of %s", string(err))
}

// ErrUnknownAttribute is an attribute name that is not recognized.
type ErrUnknownAttribute string

func (err ErrUnknownAttribute) Error() string {
	return f("Unrecognized attribute: %s", string(err))
}

// ErrRedeclared is an attribute given twice.
type ErrRedeclared string

func (err ErrRedeclared) Error() string {
	return f("Redeclaration of value: %s", string(err))
}

// ErrAccess is an unknown access type.
type ErrAccess string

func (err ErrAccess) Error() string {
	return f("Unrecognized access type: %s", string(err))
}

// ErrFill is an unknown fill option.
type ErrFill string

func (err ErrFill) Error() string {
	return f("Unrecognized fill option: %s", string(err))
}

// ErrMemory is a segment loaded into an unknown memory region.
type ErrMemory string

func (err ErrMemory) Error() string {
	return f("Unrecognized memory location: %s", string(err))
}

// ErrRange is a value that does not fit in 16 bits.
type ErrRange int

func (err ErrRange) Error() string {
	return f("Value %d exceeds range 0 to 65535", int(err))
}

// Error is a positioned configuration error.
type Error struct {
	File   string
	LineNo int // 1 based.
	Col    int // 0 based.
	Len    int
	Err    error
}

func (err *Error) Error() string {
	return f("%v:%d:%d: %v", err.File, err.LineNo, err.Col+1, err.Err)
}

func (err *Error) Unwrap() error {
	return err.Err
}
