package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/constraints"
)

// ErrWidth is returned for integer widths outside 1, 2, 4 or 8 bytes, and by
// the Writer when a value does not fit the width it is written with.
var ErrWidth = errors.New("binary: width mismatch")

// readChunk bounds the up-front allocation of ReadBytes. Larger reads grow
// as data actually arrives, so a corrupt length cannot force a huge allocation.
const readChunk = 64 << 10

// Reader reads big-endian, fixed-width integers from a sequential stream with
// position tracking.
type Reader struct {
	r       io.Reader
	pos     int
	base    int
	scratch [8]byte
}

// NewReader creates a new Reader wrapping the given io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// NewReaderAt creates a Reader whose reported positions start at base.
// It is used for payloads that were sliced out of an enclosing stream.
func NewReaderAt(r io.Reader, base int) *Reader {
	return &Reader{r: r, base: base}
}

// Position returns the absolute byte position of the next read.
func (r *Reader) Position() int {
	return r.base + r.pos
}

// Consumed returns the number of bytes read by this Reader.
func (r *Reader) Consumed() int {
	return r.pos
}

func (r *Reader) readN(width int) (uint64, error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return 0, r.wrapError(fmt.Errorf("%w: %d-byte read", ErrWidth, width))
	}
	buf := r.scratch[:width]
	n, err := io.ReadFull(r.r, buf)
	r.pos += n
	if err != nil {
		return 0, r.wrapError(err)
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// Read reads an unsigned integer whose width is the size of T.
func Read[T constraints.Unsigned](r *Reader) (T, error) {
	var zero T
	v, err := r.readN(binary.Size(zero))
	return T(v), err
}

// U1 reads an unsigned byte.
func (r *Reader) U1() (uint8, error) {
	return Read[uint8](r)
}

// U2 reads a big-endian uint16.
func (r *Reader) U2() (uint16, error) {
	return Read[uint16](r)
}

// U4 reads a big-endian uint32.
func (r *Reader) U4() (uint32, error) {
	return Read[uint32](r)
}

// U8 reads a big-endian uint64.
func (r *Reader) U8() (uint64, error) {
	return Read[uint64](r)
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, r.wrapError(fmt.Errorf("negative length %d", n))
	}
	if n <= readChunk {
		buf := make([]byte, n)
		read, err := io.ReadFull(r.r, buf)
		r.pos += read
		if err != nil {
			return nil, r.wrapError(err)
		}
		return buf, nil
	}

	var buf bytes.Buffer
	buf.Grow(readChunk)
	read, err := io.CopyN(&buf, r.r, int64(n))
	r.pos += int(read)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, r.wrapError(err)
	}
	return buf.Bytes(), nil
}

// Sub reads n bytes and returns a Reader over them that reports absolute
// positions.
func (r *Reader) Sub(n int) (*Reader, error) {
	start := r.Position()
	data, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return NewReaderAt(bytes.NewReader(data), start), nil
}

// Remaining reports how many unread bytes a sub-reader still holds.
// It returns -1 for readers not backed by a bytes.Reader.
func (r *Reader) Remaining() int {
	if br, ok := r.r.(*bytes.Reader); ok {
		return br.Len()
	}
	return -1
}

func (r *Reader) wrapError(err error) error {
	return &ParseError{Position: r.Position(), Err: err}
}

// ParseError represents a failed primitive read with position information.
type ParseError struct {
	Err      error
	Position int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
