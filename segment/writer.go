package segment

import (
	"bufio"
	"fmt"
	"io"
)

// Format is an output image encoding.
type Format int

const (
	FormatRaw     = Format(iota) // Raw bytes.
	FormatHexByte                // Text, two hex digits per byte.
	FormatHexWord                // Text, four hex digits per 16-bit word.
)

const (
	cellsPerLine  = 16
	cellsPerGroup = 8
)

// Writer serializes a layout into an output image.
type Writer struct {
	Format       Format
	LittleEndian bool
	WordSize     int // 2 for byte addressed images, 1 for word addressed.
}

// BytesPerUnit returns the number of buffer bytes in one addressable unit.
func BytesPerUnit(wordSize int) int {
	if wordSize == 1 {
		return 2
	}
	return 1
}

// emitter accepts the image bytes in order.
type emitter interface {
	emit(data []byte)
	flush() error
}

// Write the image of every segment, in layout order. Segments with an
// alignment above one are preceded by zero padding up to the next multiple
// of their alignment; BSS segments produce no bytes.
func (wr *Writer) Write(w io.Writer, lay *Layout) (err error) {
	bw := bufio.NewWriter(w)

	var out emitter
	switch wr.Format {
	case FormatRaw:
		out = &rawEmitter{w: bw}
	case FormatHexByte:
		out = &hexEmitter{w: bw}
	case FormatHexWord:
		out = &hexEmitter{w: bw, words: true, littleEndian: wr.LittleEndian}
	default:
		err = ErrFormat
		return
	}

	bpu := BytesPerUnit(wr.WordSize)
	total := 0
	for _, seg := range lay.Segments {
		if seg.Align > 1 {
			align := int(seg.Align)
			pad := (align - (total/bpu)%align) % align
			out.emit(make([]byte, pad*bpu))
			total += pad * bpu
		}

		if seg.Access == BSS {
			continue
		}

		units := seg.WriteAddr
		if seg.Fill {
			units = int(seg.Size)
		}
		data := seg.Data
		if len(data) < units*bpu {
			data = append(data, make([]byte, units*bpu-len(data))...)
		}
		out.emit(data[:units*bpu])
		total += units * bpu
	}

	err = out.flush()
	if err != nil {
		return
	}

	return bw.Flush()
}

type rawEmitter struct {
	w   *bufio.Writer
	err error
}

func (re *rawEmitter) emit(data []byte) {
	if re.err == nil {
		_, re.err = re.w.Write(data)
	}
}

func (re *rawEmitter) flush() error {
	return re.err
}

// hexEmitter writes hex cells, a space between cells, two spaces between
// groups of eight and a newline every sixteen.
type hexEmitter struct {
	w            *bufio.Writer
	words        bool
	littleEndian bool
	cells        int
	odd          []byte
	err          error
}

func (he *hexEmitter) cell(format string, value uint16) {
	if he.err != nil {
		return
	}

	if he.cells > 0 {
		var sep string
		switch he.cells % cellsPerLine {
		case 0:
			sep = "\n"
		case cellsPerGroup:
			sep = "  "
		default:
			sep = " "
		}
		_, he.err = he.w.WriteString(sep)
	}
	if he.err == nil {
		_, he.err = fmt.Fprintf(he.w, format, value)
	}
	he.cells++
}

func (he *hexEmitter) emit(data []byte) {
	if !he.words {
		for _, b := range data {
			he.cell("%02x", uint16(b))
		}
		return
	}

	for _, b := range data {
		he.odd = append(he.odd, b)
		if len(he.odd) < 2 {
			continue
		}
		var word uint16
		if he.littleEndian {
			word = uint16(he.odd[0]) | uint16(he.odd[1])<<8
		} else {
			word = uint16(he.odd[0])<<8 | uint16(he.odd[1])
		}
		he.cell("%04x", word)
		he.odd = he.odd[:0]
	}
}

func (he *hexEmitter) flush() error {
	if len(he.odd) > 0 {
		he.cell("%04x", uint16(he.odd[0]))
		he.odd = nil
	}
	if he.err == nil && he.cells > 0 {
		_, he.err = he.w.WriteString("\n")
	}
	return he.err
}
