package classfile

// Element value tags.
const (
	ElemByte       uint8 = 'B'
	ElemChar       uint8 = 'C'
	ElemDouble     uint8 = 'D'
	ElemFloat      uint8 = 'F'
	ElemInt        uint8 = 'I'
	ElemLong       uint8 = 'J'
	ElemShort      uint8 = 'S'
	ElemBoolean    uint8 = 'Z'
	ElemString     uint8 = 's'
	ElemEnum       uint8 = 'e'
	ElemClass      uint8 = 'c'
	ElemAnnotation uint8 = '@'
	ElemArray      uint8 = '['
)

// Annotation is one annotation instance: a type descriptor plus named values.
type Annotation struct {
	Elements []ElementValuePair
	Type     Index
}

// ElementValuePair binds an element name to its value.
type ElementValuePair struct {
	Value ElementValue
	Name  Index
}

// ElementValue is a tagged annotation value. Which fields are meaningful
// depends on Tag:
//
//	B C D F I J S Z s   Const
//	c                   Const (return descriptor)
//	e                   EnumType, EnumConst
//	@                   Annotation
//	[                   Values
type ElementValue struct {
	Annotation *Annotation
	Values     []ElementValue
	Tag        uint8
	Const      Index
	EnumType   Index
	EnumConst  Index
}

// RuntimeVisibleAnnotations holds annotations visible through reflection.
type RuntimeVisibleAnnotations struct {
	AttributeHeader
	Annotations []Annotation
}

// RuntimeInvisibleAnnotations holds annotations not visible through reflection.
type RuntimeInvisibleAnnotations struct {
	AttributeHeader
	Annotations []Annotation
}

// RuntimeVisibleParameterAnnotations holds one annotation list per formal
// parameter. The parameter count is a single byte on the wire.
type RuntimeVisibleParameterAnnotations struct {
	AttributeHeader
	Parameters [][]Annotation
}

// RuntimeInvisibleParameterAnnotations is the invisible form of
// RuntimeVisibleParameterAnnotations.
type RuntimeInvisibleParameterAnnotations struct {
	AttributeHeader
	Parameters [][]Annotation
}

// RuntimeVisibleTypeAnnotations holds type annotations visible through reflection.
type RuntimeVisibleTypeAnnotations struct {
	AttributeHeader
	Annotations []TypeAnnotation
}

// RuntimeInvisibleTypeAnnotations holds type annotations not visible through reflection.
type RuntimeInvisibleTypeAnnotations struct {
	AttributeHeader
	Annotations []TypeAnnotation
}

// AnnotationDefault is the default value of an annotation interface element.
type AnnotationDefault struct {
	AttributeHeader
	Value ElementValue
}

// Type annotation target types.
const (
	TargetClassTypeParameter       uint8 = 0x00
	TargetMethodTypeParameter      uint8 = 0x01
	TargetClassExtends             uint8 = 0x10
	TargetClassTypeParameterBound  uint8 = 0x11
	TargetMethodTypeParameterBound uint8 = 0x12
	TargetFieldType                uint8 = 0x13
	TargetMethodReturn             uint8 = 0x14
	TargetMethodReceiver           uint8 = 0x15
	TargetMethodFormalParameter    uint8 = 0x16
	TargetThrows                   uint8 = 0x17
	TargetLocalVariable            uint8 = 0x40
	TargetResourceVariable         uint8 = 0x41
	TargetExceptionParameter       uint8 = 0x42
	TargetInstanceOf               uint8 = 0x43
	TargetNew                      uint8 = 0x44
	TargetConstructorReference     uint8 = 0x45
	TargetMethodReference          uint8 = 0x46
	TargetCast                     uint8 = 0x47
	TargetConstructorInvocationArg uint8 = 0x48
	TargetMethodInvocationArg      uint8 = 0x49
	TargetConstructorReferenceArg  uint8 = 0x4A
	TargetMethodReferenceArg       uint8 = 0x4B
)

// TypeAnnotation is an annotation on a use of a type.
type TypeAnnotation struct {
	Path       []TypePathEntry
	Target     TargetInfo
	Annotation Annotation
	TargetType uint8
}

// TargetInfo is the union of target_info layouts. None of its indices
// refer to the constant pool.
//
//	0x00 0x01            Value = type parameter index (u1)
//	0x10                 Value = supertype index (u2)
//	0x11 0x12            Value = type parameter index (u1), Argument = bound index
//	0x13 0x14 0x15       empty
//	0x16                 Value = formal parameter index (u1)
//	0x17                 Value = throws type index (u2)
//	0x40 0x41            LocalVars
//	0x42                 Value = exception table index (u2)
//	0x43 to 0x46         Value = bytecode offset (u2)
//	0x47 to 0x4B         Value = bytecode offset (u2), Argument = type argument index
type TargetInfo struct {
	LocalVars []LocalVarTarget
	Value     uint16
	Argument  uint8
}

// LocalVarTarget is a live range of an annotated local variable.
type LocalVarTarget struct {
	StartPC uint16
	Length  uint16
	Slot    uint16
}

// TypePathEntry is one step into a nested, array or parameterized type.
type TypePathEntry struct {
	Kind     uint8
	Argument uint8
}

func (*RuntimeVisibleAnnotations) attribute()            {}
func (*RuntimeInvisibleAnnotations) attribute()          {}
func (*RuntimeVisibleParameterAnnotations) attribute()   {}
func (*RuntimeInvisibleParameterAnnotations) attribute() {}
func (*RuntimeVisibleTypeAnnotations) attribute()        {}
func (*RuntimeInvisibleTypeAnnotations) attribute()      {}
func (*AnnotationDefault) attribute()                    {}
