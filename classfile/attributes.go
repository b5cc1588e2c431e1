package classfile

// Attribute is a named, length-prefixed record attached to a class, field,
// method, Code attribute or record component. Variants are recognized by
// the string their name entry resolves to. Names this package does not
// know decode to *UnknownAttribute.
type Attribute interface {
	Header() *AttributeHeader
	attribute()
}

// AttributeHeader is the part common to every attribute. Length is the
// payload size as read from the wire and is written back unchanged; call
// UpdateLengths after editing a model.
type AttributeHeader struct {
	Name   Index
	Length uint32
}

// Header returns h itself so that variants embedding it satisfy Attribute.
func (h *AttributeHeader) Header() *AttributeHeader { return h }

// UnknownAttribute preserves an attribute this package does not interpret.
// Data is the payload without the six-byte header.
type UnknownAttribute struct {
	AttributeHeader
	Data []byte
}

// SourceFile names the source file the class was compiled from.
type SourceFile struct {
	AttributeHeader
	SourceFile Index
}

// ConstantValue points at the Integer, Float, Long, Double or String entry
// initializing a static field.
type ConstantValue struct {
	AttributeHeader
	Value Index
}

// Code holds a method body and the attributes describing it.
type Code struct {
	AttributeHeader
	Code           []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
	MaxStack       uint16
	MaxLocals      uint16
}

// ExceptionHandler covers [StartPC, EndPC). An absent CatchType catches
// everything and is used for finally blocks.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType OptIndex
}

// Exceptions lists the checked exceptions a method declares.
type Exceptions struct {
	AttributeHeader
	Classes []Index
}

// LineNumberTable maps bytecode offsets to source lines.
type LineNumberTable struct {
	AttributeHeader
	Lines []LineNumber
}

// LineNumber is one entry of a LineNumberTable.
type LineNumber struct {
	StartPC uint16
	Line    uint16
}

// LocalVariableTable describes local variables for debuggers.
type LocalVariableTable struct {
	AttributeHeader
	Variables []LocalVariable
}

// LocalVariableTypeTable has the layout of LocalVariableTable, with
// Descriptor holding a generic signature instead.
type LocalVariableTypeTable struct {
	AttributeHeader
	Variables []LocalVariable
}

// LocalVariable names a local variable slot over [StartPC, StartPC+Length).
// Slot is a frame position, not a pool reference.
type LocalVariable struct {
	StartPC    uint16
	Length     uint16
	Name       Index
	Descriptor Index
	Slot       uint16
}

// InnerClasses lists the nested classes a class refers to.
type InnerClasses struct {
	AttributeHeader
	Classes []InnerClass
}

// InnerClass describes one nested class. Outer is absent for local and
// anonymous classes, Name for anonymous ones.
type InnerClass struct {
	Inner       Index
	Outer       OptIndex
	Name        OptIndex
	AccessFlags AccessFlags
}

// EnclosingMethod is set on local and anonymous classes. Method is absent
// when the class is not enclosed by a method or constructor.
type EnclosingMethod struct {
	AttributeHeader
	Class  Index
	Method OptIndex
}

// Synthetic marks a member not present in the source.
type Synthetic struct {
	AttributeHeader
}

// Deprecated marks a deprecated class or member.
type Deprecated struct {
	AttributeHeader
}

// Signature holds a generic signature.
type Signature struct {
	AttributeHeader
	Signature Index
}

// SourceDebugExtension carries opaque debugging data, conventionally SMAP.
type SourceDebugExtension struct {
	AttributeHeader
	Data []byte
}

// BootstrapMethods holds the bootstrap methods of invokedynamic and Dynamic entries.
type BootstrapMethods struct {
	AttributeHeader
	Methods []BootstrapMethod
}

// BootstrapMethod is a MethodHandle reference plus its static arguments.
type BootstrapMethod struct {
	Method    Index
	Arguments []Index
}

// MethodParameters has a one-byte parameter count on the wire.
type MethodParameters struct {
	AttributeHeader
	Parameters []MethodParameter
}

// MethodParameter has an absent Name for formal parameters without one.
type MethodParameter struct {
	Name        OptIndex
	AccessFlags AccessFlags
}

// NestHost names the host of the nest this class belongs to.
type NestHost struct {
	AttributeHeader
	HostClass Index
}

// NestMembers lists the classes of the nest hosted by this class.
type NestMembers struct {
	AttributeHeader
	Classes []Index
}

// PermittedSubclasses lists the subclasses a sealed class permits.
type PermittedSubclasses struct {
	AttributeHeader
	Classes []Index
}

// ModulePackages lists every package of a module.
type ModulePackages struct {
	AttributeHeader
	Packages []Index
}

// ModuleMainClass names the main class of a module.
type ModuleMainClass struct {
	AttributeHeader
	MainClass Index
}

// Record lists the components of a record class.
type Record struct {
	AttributeHeader
	Components []RecordComponent
}

// RecordComponent carries its own attributes (Signature, annotations).
type RecordComponent struct {
	Attributes []Attribute
	Name       Index
	Descriptor Index
}

func (*UnknownAttribute) attribute()       {}
func (*SourceFile) attribute()             {}
func (*ConstantValue) attribute()          {}
func (*Code) attribute()                   {}
func (*Exceptions) attribute()             {}
func (*LineNumberTable) attribute()        {}
func (*LocalVariableTable) attribute()     {}
func (*LocalVariableTypeTable) attribute() {}
func (*InnerClasses) attribute()           {}
func (*EnclosingMethod) attribute()        {}
func (*Synthetic) attribute()              {}
func (*Deprecated) attribute()             {}
func (*Signature) attribute()              {}
func (*SourceDebugExtension) attribute()   {}
func (*BootstrapMethods) attribute()       {}
func (*MethodParameters) attribute()       {}
func (*NestHost) attribute()               {}
func (*NestMembers) attribute()            {}
func (*PermittedSubclasses) attribute()    {}
func (*ModulePackages) attribute()         {}
func (*ModuleMainClass) attribute()        {}
func (*Record) attribute()                 {}
