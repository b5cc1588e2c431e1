package classfile

import (
	"fmt"

	"github.com/wippyai/jclass/classfile/internal/binary"
	"github.com/wippyai/jclass/errors"
)

// cursor reads an attribute payload. The first failure is kept and later
// reads return zero values, so parsers can read a whole layout and check
// err once. Zero counts end every loop after a failure.
type cursor struct {
	d   *Decoder
	r   *binary.Reader
	err error
}

func (c *cursor) fail(err error) {
	if c.err == nil {
		c.err = c.d.readErr(c.r, "", err)
	}
}

func (c *cursor) invalid(kind errors.Kind, format string, args ...any) {
	if c.err == nil {
		c.err = errors.New(errors.PhaseDecode, kind).
			Position(c.r.Position()).
			Detail(format, args...).
			Build()
	}
}

func (c *cursor) u1() uint8 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.U1()
	if err != nil {
		c.fail(err)
	}
	return v
}

func (c *cursor) u2() uint16 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.U2()
	if err != nil {
		c.fail(err)
	}
	return v
}

func (c *cursor) u4() uint32 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.U4()
	if err != nil {
		c.fail(err)
	}
	return v
}

func (c *cursor) bytes(n int) []byte {
	if c.err != nil {
		return nil
	}
	b, err := c.r.ReadBytes(n)
	if err != nil {
		c.fail(err)
	}
	return b
}

func (c *cursor) index() Index {
	return IndexFromWire(c.u2())
}

func (c *cursor) opt() OptIndex {
	return OptFromWire(c.u2())
}

func (c *cursor) flags() AccessFlags {
	return AccessFlags(c.u2())
}

// indexes reads a u2-counted list of references.
func (c *cursor) indexes() []Index {
	n := int(c.u2())
	out := make([]Index, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		out = append(out, c.index())
	}
	return out
}

func (c *cursor) attributes() []Attribute {
	if c.err != nil {
		return nil
	}
	attrs, err := c.d.readAttributes(c.r)
	if err != nil {
		c.err = err
	}
	return attrs
}

// attribute dispatches on the attribute name. It returns nil without
// reading anything for names it does not recognize.
func (c *cursor) attribute(name string, h AttributeHeader) Attribute {
	switch name {
	case AttrSourceFile:
		return &SourceFile{AttributeHeader: h, SourceFile: c.index()}
	case AttrConstantValue:
		return &ConstantValue{AttributeHeader: h, Value: c.index()}
	case AttrCode:
		return c.code(h)
	case AttrExceptions:
		return &Exceptions{AttributeHeader: h, Classes: c.indexes()}
	case AttrLineNumberTable:
		return &LineNumberTable{AttributeHeader: h, Lines: c.lineNumbers()}
	case AttrLocalVariableTable:
		return &LocalVariableTable{AttributeHeader: h, Variables: c.localVariables()}
	case AttrLocalVariableTypeTable:
		return &LocalVariableTypeTable{AttributeHeader: h, Variables: c.localVariables()}
	case AttrStackMapTable:
		return &StackMapTable{AttributeHeader: h, Frames: c.frames()}
	case AttrInnerClasses:
		return &InnerClasses{AttributeHeader: h, Classes: c.innerClasses()}
	case AttrEnclosingMethod:
		return &EnclosingMethod{AttributeHeader: h, Class: c.index(), Method: c.opt()}
	case AttrSynthetic:
		return &Synthetic{AttributeHeader: h}
	case AttrDeprecated:
		return &Deprecated{AttributeHeader: h}
	case AttrSignature:
		return &Signature{AttributeHeader: h, Signature: c.index()}
	case AttrSourceDebugExtension:
		return &SourceDebugExtension{AttributeHeader: h, Data: c.bytes(int(h.Length))}
	case AttrBootstrapMethods:
		return &BootstrapMethods{AttributeHeader: h, Methods: c.bootstrapMethods()}
	case AttrMethodParameters:
		return &MethodParameters{AttributeHeader: h, Parameters: c.methodParameters()}
	case AttrNestHost:
		return &NestHost{AttributeHeader: h, HostClass: c.index()}
	case AttrNestMembers:
		return &NestMembers{AttributeHeader: h, Classes: c.indexes()}
	case AttrPermittedSubclasses:
		return &PermittedSubclasses{AttributeHeader: h, Classes: c.indexes()}
	case AttrModule:
		return c.module(h)
	case AttrModulePackages:
		return &ModulePackages{AttributeHeader: h, Packages: c.indexes()}
	case AttrModuleMainClass:
		return &ModuleMainClass{AttributeHeader: h, MainClass: c.index()}
	case AttrRecord:
		return &Record{AttributeHeader: h, Components: c.recordComponents()}
	case AttrRuntimeVisibleAnnotations:
		return &RuntimeVisibleAnnotations{AttributeHeader: h, Annotations: c.annotations()}
	case AttrRuntimeInvisibleAnnotations:
		return &RuntimeInvisibleAnnotations{AttributeHeader: h, Annotations: c.annotations()}
	case AttrRuntimeVisibleParameterAnnotations:
		return &RuntimeVisibleParameterAnnotations{AttributeHeader: h, Parameters: c.parameterAnnotations()}
	case AttrRuntimeInvisibleParameterAnnotations:
		return &RuntimeInvisibleParameterAnnotations{AttributeHeader: h, Parameters: c.parameterAnnotations()}
	case AttrRuntimeVisibleTypeAnnotations:
		return &RuntimeVisibleTypeAnnotations{AttributeHeader: h, Annotations: c.typeAnnotations()}
	case AttrRuntimeInvisibleTypeAnnotations:
		return &RuntimeInvisibleTypeAnnotations{AttributeHeader: h, Annotations: c.typeAnnotations()}
	case AttrAnnotationDefault:
		return &AnnotationDefault{AttributeHeader: h, Value: c.elementValue()}
	default:
		return nil
	}
}

func (c *cursor) code(h AttributeHeader) *Code {
	code := &Code{AttributeHeader: h}
	code.MaxStack = c.u2()
	code.MaxLocals = c.u2()
	code.Code = c.bytes(int(c.u4()))

	n := int(c.u2())
	code.ExceptionTable = make([]ExceptionHandler, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		code.ExceptionTable = append(code.ExceptionTable, ExceptionHandler{
			StartPC:   c.u2(),
			EndPC:     c.u2(),
			HandlerPC: c.u2(),
			CatchType: c.opt(),
		})
	}
	code.Attributes = c.attributes()
	return code
}

func (c *cursor) lineNumbers() []LineNumber {
	n := int(c.u2())
	lines := make([]LineNumber, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		lines = append(lines, LineNumber{StartPC: c.u2(), Line: c.u2()})
	}
	return lines
}

func (c *cursor) localVariables() []LocalVariable {
	n := int(c.u2())
	vars := make([]LocalVariable, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		vars = append(vars, LocalVariable{
			StartPC:    c.u2(),
			Length:     c.u2(),
			Name:       c.index(),
			Descriptor: c.index(),
			Slot:       c.u2(),
		})
	}
	return vars
}

func (c *cursor) innerClasses() []InnerClass {
	n := int(c.u2())
	classes := make([]InnerClass, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		classes = append(classes, InnerClass{
			Inner:       c.index(),
			Outer:       c.opt(),
			Name:        c.opt(),
			AccessFlags: c.flags(),
		})
	}
	return classes
}

func (c *cursor) bootstrapMethods() []BootstrapMethod {
	n := int(c.u2())
	methods := make([]BootstrapMethod, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		methods = append(methods, BootstrapMethod{Method: c.index(), Arguments: c.indexes()})
	}
	return methods
}

func (c *cursor) methodParameters() []MethodParameter {
	n := int(c.u1())
	params := make([]MethodParameter, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		params = append(params, MethodParameter{Name: c.opt(), AccessFlags: c.flags()})
	}
	return params
}

func (c *cursor) recordComponents() []RecordComponent {
	n := int(c.u2())
	comps := make([]RecordComponent, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		rc := RecordComponent{Name: c.index(), Descriptor: c.index()}
		rc.Attributes = c.attributes()
		if c.err != nil {
			c.err = errors.Within(c.err, "", fmt.Sprintf("components[%d]", i))
		}
		comps = append(comps, rc)
	}
	return comps
}

func (c *cursor) module(h AttributeHeader) *ModuleAttribute {
	m := &ModuleAttribute{AttributeHeader: h}
	m.Name = c.index()
	m.Flags = c.flags()
	m.Version = c.opt()

	n := int(c.u2())
	m.Requires = make([]ModuleRequire, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		m.Requires = append(m.Requires, ModuleRequire{Module: c.index(), Flags: c.flags(), Version: c.opt()})
	}
	m.Exports = c.moduleExports()
	m.Opens = c.moduleExports()
	m.Uses = c.indexes()

	n = int(c.u2())
	m.Provides = make([]ModuleProvide, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		m.Provides = append(m.Provides, ModuleProvide{Service: c.index(), With: c.indexes()})
	}
	return m
}

func (c *cursor) moduleExports() []ModuleExport {
	n := int(c.u2())
	out := make([]ModuleExport, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		out = append(out, ModuleExport{Package: c.index(), Flags: c.flags(), To: c.indexes()})
	}
	return out
}

func (c *cursor) annotations() []Annotation {
	n := int(c.u2())
	anns := make([]Annotation, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		anns = append(anns, c.annotation())
	}
	return anns
}

func (c *cursor) annotation() Annotation {
	a := Annotation{Type: c.index()}
	n := int(c.u2())
	a.Elements = make([]ElementValuePair, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		name := c.index()
		a.Elements = append(a.Elements, ElementValuePair{Name: name, Value: c.elementValue()})
	}
	return a
}

func (c *cursor) elementValue() ElementValue {
	ev := ElementValue{Tag: c.u1()}
	if c.err != nil {
		return ev
	}
	switch ev.Tag {
	case ElemByte, ElemChar, ElemDouble, ElemFloat, ElemInt, ElemLong, ElemShort, ElemBoolean, ElemString, ElemClass:
		ev.Const = c.index()
	case ElemEnum:
		ev.EnumType = c.index()
		ev.EnumConst = c.index()
	case ElemAnnotation:
		a := c.annotation()
		ev.Annotation = &a
	case ElemArray:
		n := int(c.u2())
		ev.Values = make([]ElementValue, 0, n)
		for i := 0; i < n && c.err == nil; i++ {
			ev.Values = append(ev.Values, c.elementValue())
		}
	default:
		c.invalid(errors.KindUnknownTag, "unrecognized element value tag 0x%02x", ev.Tag)
	}
	return ev
}

func (c *cursor) parameterAnnotations() [][]Annotation {
	n := int(c.u1())
	params := make([][]Annotation, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		params = append(params, c.annotations())
	}
	return params
}

func (c *cursor) typeAnnotations() []TypeAnnotation {
	n := int(c.u2())
	anns := make([]TypeAnnotation, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		anns = append(anns, c.typeAnnotation())
	}
	return anns
}

func (c *cursor) typeAnnotation() TypeAnnotation {
	ta := TypeAnnotation{TargetType: c.u1()}
	if c.err != nil {
		return ta
	}
	switch t := ta.TargetType; {
	case t == TargetClassTypeParameter, t == TargetMethodTypeParameter, t == TargetMethodFormalParameter:
		ta.Target.Value = uint16(c.u1())
	case t == TargetClassExtends, t == TargetThrows, t == TargetExceptionParameter,
		t >= TargetInstanceOf && t <= TargetMethodReference:
		ta.Target.Value = c.u2()
	case t == TargetClassTypeParameterBound, t == TargetMethodTypeParameterBound:
		ta.Target.Value = uint16(c.u1())
		ta.Target.Argument = c.u1()
	case t >= TargetFieldType && t <= TargetMethodReceiver:
	case t == TargetLocalVariable, t == TargetResourceVariable:
		n := int(c.u2())
		ta.Target.LocalVars = make([]LocalVarTarget, 0, n)
		for i := 0; i < n && c.err == nil; i++ {
			ta.Target.LocalVars = append(ta.Target.LocalVars, LocalVarTarget{
				StartPC: c.u2(),
				Length:  c.u2(),
				Slot:    c.u2(),
			})
		}
	case t >= TargetCast && t <= TargetMethodReferenceArg:
		ta.Target.Value = c.u2()
		ta.Target.Argument = c.u1()
	default:
		c.invalid(errors.KindUnknownTag, "unrecognized type annotation target 0x%02x", t)
		return ta
	}

	n := int(c.u1())
	ta.Path = make([]TypePathEntry, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		ta.Path = append(ta.Path, TypePathEntry{Kind: c.u1(), Argument: c.u1()})
	}
	ta.Annotation = c.annotation()
	return ta
}

func (c *cursor) frames() []StackMapFrame {
	n := int(c.u2())
	frames := make([]StackMapFrame, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		frames = append(frames, c.frame())
	}
	return frames
}

func (c *cursor) frame() StackMapFrame {
	f := StackMapFrame{Type: c.u1()}
	if c.err != nil {
		return f
	}
	switch t := f.Type; {
	case t <= FrameSameMax:
		f.OffsetDelta = uint16(t)
	case t <= FrameSameLocals1StackMax:
		f.OffsetDelta = uint16(t - 64)
		f.Stack = []VerificationType{c.verificationType()}
	case t >= frameReservedMin && t <= frameReservedMax:
		c.invalid(errors.KindUnknownTag, "reserved stack map frame type %d", t)
	case t == FrameSameLocals1StackExt:
		f.OffsetDelta = c.u2()
		f.Stack = []VerificationType{c.verificationType()}
	case t <= FrameSameExtended:
		f.OffsetDelta = c.u2()
	case t <= FrameAppendMax:
		f.OffsetDelta = c.u2()
		f.Locals = c.verificationTypes(int(t - frameAppendLocalsBaseline))
	default:
		f.OffsetDelta = c.u2()
		f.Locals = c.verificationTypes(int(c.u2()))
		f.Stack = c.verificationTypes(int(c.u2()))
	}
	return f
}

func (c *cursor) verificationTypes(n int) []VerificationType {
	out := make([]VerificationType, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		out = append(out, c.verificationType())
	}
	return out
}

func (c *cursor) verificationType() VerificationType {
	v := VerificationType{Tag: c.u1()}
	switch v.Tag {
	case VerifyTop, VerifyInteger, VerifyFloat, VerifyDouble, VerifyLong, VerifyNull, VerifyUninitializedThis:
	case VerifyObject:
		v.Class = c.index()
	case VerifyUninitialized:
		v.Offset = c.u2()
	default:
		c.invalid(errors.KindUnknownTag, "unrecognized verification type tag %d", v.Tag)
	}
	return v
}
