// Package jclass reads and writes JVM class files.
//
// Decoding and re-encoding an unmodified class file reproduces the input
// byte for byte. Every structure of the format, including all attributes
// defined up to Java 21, has a typed model that can be inspected, edited
// and written back. Attributes the codec does not know are kept as opaque
// bytes.
//
// # Layout
//
//	jclass/
//	├── classfile/       Class file model, decoder, encoder and validator
//	│   └── internal/binary/  Big-endian fixed-width reader and writer
//	├── errors/          Structured error types for debugging
//	└── cmd/classdump/   javap-style dump, CBOR export and TUI browser
//
// # Quick Start
//
// Parse a class, change it and write it back:
//
//	cf, err := classfile.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	name, _ := cf.ClassName()
//	fmt.Println(name, cf.MajorVersion)
//
//	cf.AccessFlags |= classfile.AccFinal
//	out, err := cf.Bytes()
//
// Attribute lengths are taken from the model as written. After editing an
// attribute, call UpdateLengths before encoding, or Validate to find
// lengths that no longer match:
//
//	if err := cf.UpdateLengths(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Constant Pool References
//
// References into the constant pool are zero-based Index values. The
// on-wire slot number is Index+1; see IndexFromWire and Index.Wire. The
// slot following a Long or Double entry is nil in the ConstantPool slice.
// References that may be absent, such as super_class or an exception
// handler's catch_type, use OptIndex.
//
// # Errors
//
// All failures are *errors.Error values carrying a phase (decode, encode,
// validate or lookup), a kind and the path to the failing structure:
//
//	_, err := classfile.Parse(data)
//	var e *errors.Error
//	if errors.As(err, &e) && e.Kind == errors.KindTruncated {
//	    // input ended early
//	}
//
// # Logging
//
// The codec logs through zap. It is silent by default; install a logger
// with classfile.SetLogger or per call with classfile.WithLogger.
package jclass
