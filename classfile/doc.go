// Package classfile decodes and encodes JVM class files.
//
// Decoding and encoding are exact inverses: for every input the decoder
// accepts, re-encoding the model reproduces the input byte for byte.
//
// # Parsing
//
//	data, _ := os.ReadFile("Main.class")
//	cf, err := classfile.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	name, _ := cf.ClassName()
//
// Parse with structural validation:
//
//	cf, err := classfile.ParseValidate(data)
//
// Stream decoding and options:
//
//	cf, err := classfile.Decode(f, classfile.WithLogger(log), classfile.WithRawAttributes())
//
// # Encoding
//
//	data, err := cf.Bytes()
//	err = classfile.Encode(cf, w)
//
// The encoder writes stored attribute lengths as they are. After building
// or editing a model, call UpdateLengths.
//
// # References
//
// Constant pool references are held as zero-based Index values (wire slot
// minus one). References that may be absent use OptIndex, whose zero value
// is the wire sentinel 0. Interface references are the one exception and
// are kept as wire slot numbers in ClassFile.Interfaces.
//
// The pool itself is sparse: the slot following a Long or Double is nil.
//
//	cp := cf.ConstantPool
//	cls, name, desc, err := cp.MemberRef(idx)
//
// # Attributes
//
// Attributes are recognized by name. Code and Record carry nested
// attributes. Unrecognized names are kept as *UnknownAttribute with their
// payload intact.
//
// # Errors
//
// Failures are *errors.Error values from github.com/wippyai/jclass/errors,
// carrying the phase, kind, section, element path and byte offset.
package classfile
