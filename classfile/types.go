package classfile

// Index is a zero-based constant pool position. On the wire references are
// 1-based slot numbers; Index holds wire-1 with uint16 wraparound, so every
// wire value, including a stray 0, round-trips.
type Index uint16

// IndexFromWire converts a 1-based wire slot number to an Index.
func IndexFromWire(slot uint16) Index {
	return Index(slot - 1)
}

// Wire returns the 1-based slot number written to the class file.
func (i Index) Wire() uint16 {
	return uint16(i) + 1
}

// OptIndex is a reference that may be absent. Absence is encoded on the wire
// as slot 0 (no superclass, catch-all handler, anonymous inner class and so
// on). The zero value is absent.
type OptIndex struct {
	Index Index
	Valid bool
}

// Some returns a present reference to i.
func Some(i Index) OptIndex {
	return OptIndex{Index: i, Valid: true}
}

// OptFromWire converts a wire slot number, treating 0 as absent.
func OptFromWire(slot uint16) OptIndex {
	if slot == 0 {
		return OptIndex{}
	}
	return Some(IndexFromWire(slot))
}

// Wire returns the slot number written to the class file, 0 when absent.
func (o OptIndex) Wire() uint16 {
	if !o.Valid {
		return 0
	}
	return o.Index.Wire()
}

// ClassFile is the decoded form of one class file.
type ClassFile struct {
	ConstantPool ConstantPool
	// Interfaces holds interface references exactly as they appear on the
	// wire (1-based slot numbers). Use InterfaceNames to resolve them.
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
	Magic        uint32
	ThisClass    Index
	SuperClass   OptIndex
	AccessFlags  AccessFlags
	MinorVersion uint16
	MajorVersion uint16
}

// Member is a field or method record. Both share one wire layout.
type Member struct {
	Attributes  []Attribute
	AccessFlags AccessFlags
	Name        Index
	Descriptor  Index
}

// ClassName resolves this_class to its internal binary name.
func (cf *ClassFile) ClassName() (string, error) {
	return cf.ConstantPool.ClassName(cf.ThisClass)
}

// SuperClassName resolves super_class. It returns "" without error for a
// class with no superclass.
func (cf *ClassFile) SuperClassName() (string, error) {
	if !cf.SuperClass.Valid {
		return "", nil
	}
	return cf.ConstantPool.ClassName(cf.SuperClass.Index)
}

// InterfaceNames resolves every direct superinterface.
func (cf *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, 0, len(cf.Interfaces))
	for _, slot := range cf.Interfaces {
		name, err := cf.ConstantPool.ClassName(IndexFromWire(slot))
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// AttributeName resolves the name of a.
func (cf *ClassFile) AttributeName(a Attribute) (string, error) {
	return cf.ConstantPool.Utf8(a.Header().Name)
}

// FindAttribute returns the first attribute in attrs whose name resolves to
// name, or nil.
func (cf *ClassFile) FindAttribute(attrs []Attribute, name string) Attribute {
	for _, a := range attrs {
		if n, err := cf.AttributeName(a); err == nil && n == name {
			return a
		}
	}
	return nil
}

// ResolveName resolves the member name.
func (m *Member) ResolveName(cp ConstantPool) (string, error) {
	return cp.Utf8(m.Name)
}

// ResolveDescriptor resolves the member's type descriptor.
func (m *Member) ResolveDescriptor(cp ConstantPool) (string, error) {
	return cp.Utf8(m.Descriptor)
}

// Code returns the member's Code attribute, or nil for fields and for
// abstract or native methods.
func (m *Member) Code() *Code {
	for _, a := range m.Attributes {
		if c, ok := a.(*Code); ok {
			return c
		}
	}
	return nil
}
