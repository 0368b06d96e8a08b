package symbol

import (
	"github.com/ezrec/ace3710/translate"
)

var f = translate.From

// ErrDuplicate is a name declared twice.
type ErrDuplicate string

func (err ErrDuplicate) Error() string {
	return f("Repeat definition for constant or label %s", string(err))
}

// Error is a failure to resolve a pending constant.
type Error struct {
	Pending *Pending
	Err     error
}

func (err *Error) Error() string {
	return err.Err.Error()
}

func (err *Error) Unwrap() error {
	return err.Err
}
