package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode   Phase = "decode"   // bytes to model
	PhaseEncode   Phase = "encode"   // model to bytes
	PhaseValidate Phase = "validate" // structural model checks
	PhaseLookup   Phase = "lookup"   // constant pool resolution
)

// Kind categorizes the error
type Kind string

const (
	KindIO               Kind = "io"
	KindTruncated        Kind = "truncated"
	KindUnknownTag       Kind = "unknown_tag"
	KindInvalidLength    Kind = "invalid_length"
	KindWidthMismatch    Kind = "width_mismatch"
	KindInvalidMagic     Kind = "invalid_magic"
	KindInvalidReference Kind = "invalid_reference"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindUnsupported      Kind = "unsupported"
)

// Error is the structured error type used throughout the codec
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Section  string
	Detail   string
	Path     []string
	Position int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Section != "" {
		b.WriteString(" in ")
		b.WriteString(e.Section)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Position >= 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Position)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:    phase,
			Kind:     kind,
			Position: -1,
		},
	}
}

// Section sets the structural section being processed
func (b *Builder) Section(s string) *Builder {
	b.err.Section = s
	return b
}

// Path sets the element path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Position sets the byte offset
func (b *Builder) Position(pos int) *Builder {
	b.err.Position = pos
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Read classifies a failed primitive read: a premature end of stream is
// KindTruncated, anything else KindIO.
func Read(section string, pos int, cause error) *Error {
	kind := KindIO
	if errors.Is(cause, io.EOF) || errors.Is(cause, io.ErrUnexpectedEOF) {
		kind = KindTruncated
	}
	return &Error{
		Phase:    PhaseDecode,
		Kind:     kind,
		Section:  section,
		Position: pos,
		Cause:    cause,
	}
}

// Write wraps a failed write to the output sink
func Write(cause error) *Error {
	return &Error{
		Phase:    PhaseEncode,
		Kind:     KindIO,
		Detail:   "write output",
		Position: -1,
		Cause:    cause,
	}
}

// UnknownTag creates an unrecognized constant pool tag error
func UnknownTag(pos int, slot int, tag uint8) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindUnknownTag,
		Section:  "constant pool",
		Position: pos,
		Detail:   fmt.Sprintf("unrecognized tag %d (0x%02x) for slot #%d", tag, tag, slot),
		Value:    tag,
	}
}

// InvalidLength creates a declared-length inconsistency error
func InvalidLength(phase Phase, section string, pos int, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindInvalidLength,
		Section:  section,
		Position: pos,
		Detail:   detail,
	}
}

// InvalidMagic creates a bad signature error
func InvalidMagic(magic uint32) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindInvalidMagic,
		Section:  "header",
		Position: 0,
		Detail:   fmt.Sprintf("magic 0x%08X, want 0xCAFEBABE", magic),
		Value:    magic,
	}
}

// WidthMismatch creates an internal-consistency error for a value that does
// not fit its declared wire width
func WidthMismatch(section string, cause error) *Error {
	return &Error{
		Phase:    PhaseEncode,
		Kind:     KindWidthMismatch,
		Section:  section,
		Position: -1,
		Cause:    cause,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOutOfBounds,
		Detail:   fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Position: -1,
		Value:    index,
	}
}

// InvalidReference creates an error for a reference that resolves to the
// wrong kind of entry or to an unusable slot
func InvalidReference(phase Phase, index int, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindInvalidReference,
		Detail:   fmt.Sprintf("#%d: %s", index, detail),
		Position: -1,
		Value:    index,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnsupported,
		Detail:   what,
		Position: -1,
	}
}

// Within prepends elem to the path of err if err is an *Error, and fills in
// section when the error does not carry one yet. Other errors are returned
// unchanged.
func Within(err error, section string, elem ...string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	if e.Section == "" {
		e.Section = section
	}
	if len(elem) > 0 {
		e.Path = append(append([]string(nil), elem...), e.Path...)
	}
	return err
}

// Is reports whether any error in err's tree matches target.
// It forwards to the standard library so callers need a single import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
