package segment

import (
	"errors"

	"github.com/ezrec/ace3710/translate"
)

var f = translate.From

var (
	ErrFormat = errors.New(f("unknown output format"))
)

// ErrSegmentFull is a write past the capacity of a segment.
type ErrSegmentFull string

func (err ErrSegmentFull) Error() string {
	return f("Segment %s size exceeded", string(err))
}

// ErrDuplicate is a segment name used twice.
type ErrDuplicate string

func (err ErrDuplicate) Error() string {
	return f("Repeat definition of %s", string(err))
}
