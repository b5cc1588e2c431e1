package classfile

import (
	"math"
	"unicode/utf16"

	"github.com/wippyai/jclass/errors"
)

// Constant is one constant pool entry. The set of implementations is closed;
// the decoder and encoder switch over all of them.
type Constant interface {
	Tag() Tag
	constant()
}

// ConstantPool is the symbol table, addressed by zero-based Index. A nil
// entry is a slot that holds no constant: the reserved successor of a Long
// or Double.
type ConstantPool []Constant

// Utf8 holds the raw modified UTF-8 bytes of a string constant. Raw storage
// keeps embedded NULs and supplementary characters byte-exact.
type Utf8 struct {
	Value string
}

// Integer is a 32-bit int constant.
type Integer struct {
	Value int32
}

// Float is a 32-bit IEEE 754 constant, kept as raw bits so NaN payloads
// survive a round trip.
type Float struct {
	Bits uint32
}

// Long is a 64-bit int constant. It occupies two pool slots.
type Long struct {
	Value int64
}

// Double is a 64-bit IEEE 754 constant kept as raw bits. It occupies two
// pool slots.
type Double struct {
	Bits uint64
}

// Class refers to a class or interface by its internal name.
type Class struct {
	Name Index
}

// String is a java.lang.String literal.
type String struct {
	Value Index
}

// Fieldref refers to a field.
type Fieldref struct {
	Class       Index
	NameAndType Index
}

// Methodref refers to a class method.
type Methodref struct {
	Class       Index
	NameAndType Index
}

// InterfaceMethodref refers to an interface method.
type InterfaceMethodref struct {
	Class       Index
	NameAndType Index
}

// NameAndType pairs a member name with its descriptor.
type NameAndType struct {
	Name       Index
	Descriptor Index
}

// MethodHandle is a method handle constant. Kind is one of the Ref* values.
type MethodHandle struct {
	Kind      uint8
	Reference Index
}

// MethodType is a method type constant.
type MethodType struct {
	Descriptor Index
}

// Dynamic is a dynamically-computed constant. BootstrapMethod indexes the
// BootstrapMethods attribute table, not the pool, and is kept as read.
type Dynamic struct {
	BootstrapMethod uint16
	NameAndType     Index
}

// InvokeDynamic is an invokedynamic call site specifier. BootstrapMethod
// indexes the BootstrapMethods attribute table.
type InvokeDynamic struct {
	BootstrapMethod uint16
	NameAndType     Index
}

// Module names a module.
type Module struct {
	Name Index
}

// Package names a package exported or opened by a module.
type Package struct {
	Name Index
}

func (*Utf8) Tag() Tag               { return TagUtf8 }
func (*Integer) Tag() Tag            { return TagInteger }
func (*Float) Tag() Tag              { return TagFloat }
func (*Long) Tag() Tag               { return TagLong }
func (*Double) Tag() Tag             { return TagDouble }
func (*Class) Tag() Tag              { return TagClass }
func (*String) Tag() Tag             { return TagString }
func (*Fieldref) Tag() Tag           { return TagFieldref }
func (*Methodref) Tag() Tag          { return TagMethodref }
func (*InterfaceMethodref) Tag() Tag { return TagInterfaceMethodref }
func (*NameAndType) Tag() Tag        { return TagNameAndType }
func (*MethodHandle) Tag() Tag       { return TagMethodHandle }
func (*MethodType) Tag() Tag         { return TagMethodType }
func (*Dynamic) Tag() Tag            { return TagDynamic }
func (*InvokeDynamic) Tag() Tag      { return TagInvokeDynamic }
func (*Module) Tag() Tag             { return TagModule }
func (*Package) Tag() Tag            { return TagPackage }

func (*Utf8) constant()               {}
func (*Integer) constant()            {}
func (*Float) constant()              {}
func (*Long) constant()               {}
func (*Double) constant()             {}
func (*Class) constant()              {}
func (*String) constant()             {}
func (*Fieldref) constant()           {}
func (*Methodref) constant()          {}
func (*InterfaceMethodref) constant() {}
func (*NameAndType) constant()        {}
func (*MethodHandle) constant()       {}
func (*MethodType) constant()         {}
func (*Dynamic) constant()            {}
func (*InvokeDynamic) constant()      {}
func (*Module) constant()             {}
func (*Package) constant()            {}

// Value returns the float value.
func (f *Float) Value() float32 { return math.Float32frombits(f.Bits) }

// Value returns the double value.
func (d *Double) Value() float64 { return math.Float64frombits(d.Bits) }

// memberRef is implemented by Fieldref, Methodref and InterfaceMethodref.
type memberRef interface {
	Constant
	refs() (class, nameAndType Index)
}

func (c *Fieldref) refs() (Index, Index)           { return c.Class, c.NameAndType }
func (c *Methodref) refs() (Index, Index)          { return c.Class, c.NameAndType }
func (c *InterfaceMethodref) refs() (Index, Index) { return c.Class, c.NameAndType }

// NewUtf8 encodes s as modified UTF-8: NUL becomes C0 80 and supplementary
// characters are written as surrogate pairs of three bytes each.
func NewUtf8(s string) *Utf8 {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			buf = append(buf, 0xC0, 0x80)
		case r < 0x80:
			buf = append(buf, byte(r))
		case r < 0x800:
			buf = append(buf, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			buf = appendUnit3(buf, uint16(r))
		default:
			hi, lo := utf16.EncodeRune(r)
			buf = appendUnit3(buf, uint16(hi))
			buf = appendUnit3(buf, uint16(lo))
		}
	}
	return &Utf8{Value: string(buf)}
}

func appendUnit3(buf []byte, u uint16) []byte {
	return append(buf, 0xE0|byte(u>>12), 0x80|byte(u>>6&0x3F), 0x80|byte(u&0x3F))
}

// Decode converts the modified UTF-8 bytes to a Go string. Malformed
// sequences decode to U+FFFD.
func (u *Utf8) Decode() string {
	b := u.Value
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b) && b[i+1]&0xC0 == 0x80:
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b) && b[i+1]&0xC0 == 0x80 && b[i+2]&0xC0 == 0x80:
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, 0xFFFD)
			i++
		}
	}
	return string(utf16.Decode(units))
}

// Count returns the constant_pool_count written to the wire: one more than
// the number of slots.
func (cp ConstantPool) Count() int {
	return len(cp) + 1
}

// Get returns the constant at i.
func (cp ConstantPool) Get(i Index) (Constant, error) {
	if int(i) >= len(cp) {
		return nil, errors.OutOfBounds(errors.PhaseLookup, int(i.Wire()), cp.Count())
	}
	c := cp[i]
	if c == nil {
		return nil, errors.InvalidReference(errors.PhaseLookup, int(i.Wire()), "unusable slot following a Long or Double")
	}
	return c, nil
}

func lookup[T Constant](cp ConstantPool, i Index, want Tag) (T, error) {
	var zero T
	c, err := cp.Get(i)
	if err != nil {
		return zero, err
	}
	v, ok := c.(T)
	if !ok {
		return zero, errors.InvalidReference(errors.PhaseLookup, int(i.Wire()),
			"expected "+want.String()+", got "+c.Tag().String())
	}
	return v, nil
}

// Utf8 resolves i to a decoded string.
func (cp ConstantPool) Utf8(i Index) (string, error) {
	u, err := lookup[*Utf8](cp, i, TagUtf8)
	if err != nil {
		return "", err
	}
	return u.Decode(), nil
}

// ClassName resolves a Class entry to its internal name.
func (cp ConstantPool) ClassName(i Index) (string, error) {
	c, err := lookup[*Class](cp, i, TagClass)
	if err != nil {
		return "", err
	}
	return cp.Utf8(c.Name)
}

// NameAndType resolves a NameAndType entry.
func (cp ConstantPool) NameAndType(i Index) (name, descriptor string, err error) {
	nt, err := lookup[*NameAndType](cp, i, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = cp.Utf8(nt.Name); err != nil {
		return "", "", err
	}
	if descriptor, err = cp.Utf8(nt.Descriptor); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry.
func (cp ConstantPool) MemberRef(i Index) (class, name, descriptor string, err error) {
	c, err := cp.Get(i)
	if err != nil {
		return "", "", "", err
	}
	ref, ok := c.(memberRef)
	if !ok {
		return "", "", "", errors.InvalidReference(errors.PhaseLookup, int(i.Wire()),
			"expected member reference, got "+c.Tag().String())
	}
	classIdx, ntIdx := ref.refs()
	if class, err = cp.ClassName(classIdx); err != nil {
		return "", "", "", err
	}
	if name, descriptor, err = cp.NameAndType(ntIdx); err != nil {
		return "", "", "", err
	}
	return class, name, descriptor, nil
}

// Find returns the index of the first Utf8 entry whose raw bytes equal s.
func (cp ConstantPool) Find(s string) (Index, bool) {
	for i, c := range cp {
		if u, ok := c.(*Utf8); ok && u.Value == s {
			return Index(i), true
		}
	}
	return 0, false
}
