package cpu

import (
	"errors"

	"github.com/ezrec/ace3710/translate"
)

var f = translate.From

var (
	// Operand range errors
	ErrArg1Register  = errors.New(f("Argument 1 exceeds range 0 to 15"))
	ErrArg1Immediate = errors.New(f("Argument 1 exceeds range -128 to 127 or 0 to 255"))
	ErrArg1Shift     = errors.New(f("Argument 1 exceeds range -16 to 15"))
	ErrArg2Register  = errors.New(f("Argument 2 exceeds range 0 to 15"))
	ErrArgRegister   = errors.New(f("Argument exceeds range 0 to 15"))
	ErrDisplacement  = errors.New(f("Branch displacement exceeds range -128 to 127"))
)

type ErrInstruction string

func (ei ErrInstruction) Error() string {
	return f("Invalid instruction: %s", string(ei))
}

type ErrArgCount int

func (ea ErrArgCount) Error() string {
	return f("Invalid number of arguments: expected %d", int(ea))
}

// ErrOperand is an out of range operand. Index is 0 based.
type ErrOperand struct {
	Index int
	Err   error
}

func (err *ErrOperand) Error() string {
	return err.Err.Error()
}

func (err *ErrOperand) Unwrap() error {
	return err.Err
}
