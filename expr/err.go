package expr

import (
	"github.com/ezrec/ace3710/translate"
)

var f = translate.From

// Error is an expression error, positioned relative to the start of the
// expression text.
type Error struct {
	Msg    string // Translated message.
	Offset int    // Byte offset of the offending token.
	Length int    // Length of the offending token, at least 1.
}

func (err *Error) Error() string {
	return err.Msg
}

func newError(offset, length int, key string, args ...any) *Error {
	if length < 1 {
		length = 1
	}
	return &Error{
		Msg:    f(key, args...),
		Offset: offset,
		Length: length,
	}
}
