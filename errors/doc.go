// Package errors provides structured error types for the class file codec.
//
// Errors are categorized by Phase (decode, encode, validate, lookup) and Kind
// (truncated input, unknown tag, invalid length, width mismatch and so on).
// The Error type carries the structural section being processed, an element
// path such as methods[1].Code.LineNumberTable, the byte offset, and a cause
// chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidLength).
//		Section("methods").
//		Path("methods[1]", "Code").
//		Position(204).
//		Detail("declared 29 bytes, consumed 27").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownTag(pos, slot, tag)
//	err := errors.Read("constant pool", pos, io.ErrUnexpectedEOF)
//
// All errors implement the standard error interface and support errors.Is/As.
// errors.Is matches on Phase and Kind only:
//
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindTruncated}) {
//		// input ended early
//	}
package errors
