// Package segment models the memory layout of an assembled image: a set of
// named, bounded segments, each with a write cursor and a backing buffer.
package segment

import (
	"slices"
)

// Access is the access discipline of a segment.
type Access int

//go:generate go tool stringer -linecomment -type=Access
const (
	ReadWrite = Access(0) // rw
	ReadOnly  = Access(1) // ro
	BSS       = Access(2) // bss
)

// ParseAccess decodes an access type keyword.
func ParseAccess(name string) (access Access, ok bool) {
	switch name {
	case "rw":
		return ReadWrite, true
	case "ro":
		return ReadOnly, true
	case "bss":
		return BSS, true
	}
	return
}

// Segment is a named region of the output address space.
type Segment struct {
	Name   string // Unique name.
	Start  uint16 // First address.
	Size   uint16 // Capacity, in addressable units.
	Align  uint16 // Output alignment, in units. Zero is treated as one.
	Access Access // Access discipline.
	Fill   bool   // Emit the whole capacity, rather than the written prefix.

	WriteAddr int    // Units written so far.
	Data      []byte // Backing buffer, nil for BSS segments.
}

// Addr returns the address at the write cursor.
func (seg *Segment) Addr() uint16 {
	return seg.Start + uint16(seg.WriteAddr)
}

// Remaining returns the number of units left.
func (seg *Segment) Remaining() int {
	return int(seg.Size) - seg.WriteAddr
}

// Reserve advances the cursor by n units, returning the cursor before the
// advance.
func (seg *Segment) Reserve(n int) (at int, err error) {
	if n > seg.Remaining() {
		err = ErrSegmentFull(seg.Name)
		return
	}
	at = seg.WriteAddr
	seg.WriteAddr += n
	return
}

// Padding returns the units needed to bring the cursor to a multiple of
// align.
func (seg *Segment) Padding(align uint16) int {
	if align <= 1 {
		return 0
	}
	return (int(align) - seg.WriteAddr%int(align)) % int(align)
}

// Layout is the ordered set of segments of one image.
type Layout struct {
	Segments []*Segment
}

// Find returns the named segment, or nil.
func (lay *Layout) Find(name string) *Segment {
	n := slices.IndexFunc(lay.Segments, func(seg *Segment) bool {
		return seg.Name == name
	})
	if n < 0 {
		return nil
	}
	return lay.Segments[n]
}

// Add appends a segment, rejecting a duplicate name.
func (lay *Layout) Add(seg *Segment) (err error) {
	if lay.Find(seg.Name) != nil {
		err = ErrDuplicate(seg.Name)
		return
	}
	if seg.Align == 0 {
		seg.Align = 1
	}
	lay.Segments = append(lay.Segments, seg)
	return
}

// Rewind sets every write cursor back to zero.
func (lay *Layout) Rewind() {
	for _, seg := range lay.Segments {
		seg.WriteAddr = 0
	}
}

// Allocate rewinds the layout and gives every non-BSS segment a zeroed
// buffer of bytesPerUnit bytes per unit.
func (lay *Layout) Allocate(bytesPerUnit int) {
	lay.Rewind()
	for _, seg := range lay.Segments {
		seg.Data = nil
		if seg.Access != BSS {
			seg.Data = make([]byte, int(seg.Size)*bytesPerUnit)
		}
	}
}

// Cursors returns the write cursor of every segment.
func (lay *Layout) Cursors() []int {
	cursors := make([]int, len(lay.Segments))
	for n, seg := range lay.Segments {
		cursors[n] = seg.WriteAddr
	}
	return cursors
}

// SetCursors restores write cursors saved by Cursors.
func (lay *Layout) SetCursors(cursors []int) {
	for n, seg := range lay.Segments {
		seg.WriteAddr = cursors[n]
	}
}

// Default returns the compiled-in layout.
func Default() *Layout {
	return &Layout{
		Segments: []*Segment{
			{Name: "CODE", Start: 0x0000, Size: 0x8000, Align: 1, Access: ReadOnly, Fill: true},
			{Name: "DATA", Start: 0x8000, Size: 0x1000, Align: 1, Access: ReadWrite, Fill: true},
			{Name: "DISPATCH_TABLE", Start: 0x9000, Size: 0x1000, Align: 1, Access: ReadWrite, Fill: true},
			{Name: "BSS", Start: 0xa000, Size: 0x4000, Align: 1, Access: BSS},
			{Name: "STACK", Start: 0xe000, Size: 0x0800, Align: 1, Access: BSS},
			{Name: "INTERRUPT_STACK", Start: 0xe800, Size: 0x0800, Align: 1, Access: BSS},
		},
	}
}
