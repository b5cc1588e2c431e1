package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Writer buffers big-endian, fixed-width output. The first width violation
// is kept and reported by Err; later writes still append so that offsets in
// a failed encoding stay meaningful for diagnostics.
type Writer struct {
	buf *bytes.Buffer
	err error
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Err returns the first width violation, if any.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) writeN(v uint64, width int) {
	switch width {
	case 1, 2, 4, 8:
	default:
		w.fail(fmt.Errorf("%w: %d-byte write", ErrWidth, width))
		return
	}
	if width < 8 && v>>(8*uint(width)) != 0 {
		w.fail(fmt.Errorf("%w: value %d does not fit in %d bytes", ErrWidth, v, width))
	}
	var buf [8]byte
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	w.buf.Write(buf[:width])
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = fmt.Errorf("at offset %d: %w", w.buf.Len(), err)
	}
}

// Write writes v using the size of T as its width.
func Write[T constraints.Unsigned](w *Writer, v T) {
	w.writeN(uint64(v), binary.Size(v))
}

// WriteWidth writes v in exactly width bytes, recording ErrWidth if v does
// not fit.
func WriteWidth[T constraints.Unsigned](w *Writer, v T, width int) {
	w.writeN(uint64(v), width)
}

// U1 writes a single byte.
func (w *Writer) U1(v uint8) {
	Write(w, v)
}

// U2 writes a big-endian uint16.
func (w *Writer) U2(v uint16) {
	Write(w, v)
}

// U4 writes a big-endian uint32.
func (w *Writer) U4(v uint32) {
	Write(w, v)
}

// U8 writes a big-endian uint64.
func (w *Writer) U8(v uint64) {
	Write(w, v)
}

// Count writes a slice length as a width-byte count.
func (w *Writer) Count(n, width int) {
	if n < 0 {
		w.fail(fmt.Errorf("%w: negative count %d", ErrWidth, n))
		return
	}
	w.writeN(uint64(n), width)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteString writes the raw bytes of s.
func (w *Writer) WriteString(s string) {
	w.buf.WriteString(s)
}
