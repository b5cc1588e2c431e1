package classfile

import (
	"fmt"
	"math"
	"strings"

	"github.com/wippyai/jclass/classfile/internal/binary"
	"github.com/wippyai/jclass/errors"
)

// Validate checks the model for structural consistency: references are in
// range and point at entries of the expected kind, Long and Double entries
// are followed by an empty slot, and every stored attribute length matches
// its payload. It does not look at bytecode.
func (cf *ClassFile) Validate() error {
	if err := cf.validateConstantPool(); err != nil {
		return err
	}
	if err := cf.validateClass(); err != nil {
		return err
	}
	if err := cf.validateMembers("fields", cf.Fields); err != nil {
		return err
	}
	if err := cf.validateMembers("methods", cf.Methods); err != nil {
		return err
	}
	if err := cf.validateAttributes(cf.Attributes); err != nil {
		return errors.Within(err, "attributes")
	}
	return nil
}

// ParseValidate parses a class file and validates it.
// This is a convenience function combining Parse and Validate.
func ParseValidate(data []byte, opts ...Option) (*ClassFile, error) {
	cf, err := Parse(data, opts...)
	if err != nil {
		return nil, err
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

// AttributeLength returns the payload size a would be encoded with,
// using the stored lengths of any nested attributes.
func AttributeLength(a Attribute) (uint32, error) {
	w := binary.NewWriter()
	if err := writeAttributePayload(w, a); err != nil {
		return 0, err
	}
	if err := w.Err(); err != nil {
		return 0, errors.WidthMismatch(attributeLabel(a), err)
	}
	if uint64(w.Len()) > math.MaxUint32 {
		return 0, errors.New(errors.PhaseEncode, errors.KindWidthMismatch).
			Section(attributeLabel(a)).
			Detail("payload of %d bytes exceeds u4", w.Len()).
			Build()
	}
	return uint32(w.Len()), nil
}

// UpdateLengths recomputes the stored Length of every attribute, innermost
// first. Call it after building or editing a model.
func (cf *ClassFile) UpdateLengths() error {
	for i := range cf.Fields {
		if err := updateLengths(cf.Fields[i].Attributes); err != nil {
			return errors.Within(err, "fields", fmt.Sprintf("fields[%d]", i))
		}
	}
	for i := range cf.Methods {
		if err := updateLengths(cf.Methods[i].Attributes); err != nil {
			return errors.Within(err, "methods", fmt.Sprintf("methods[%d]", i))
		}
	}
	return errors.Within(updateLengths(cf.Attributes), "attributes")
}

func updateLengths(attrs []Attribute) error {
	for _, a := range attrs {
		if a == nil {
			return errors.Unsupported(errors.PhaseEncode, "nil attribute")
		}
		switch a := a.(type) {
		case *Code:
			if err := updateLengths(a.Attributes); err != nil {
				return errors.Within(err, "", "Code")
			}
		case *Record:
			for i := range a.Components {
				if err := updateLengths(a.Components[i].Attributes); err != nil {
					return errors.Within(err, "", "Record", fmt.Sprintf("components[%d]", i))
				}
			}
		}
		n, err := AttributeLength(a)
		if err != nil {
			return err
		}
		a.Header().Length = n
	}
	return nil
}

// expectedName is the attribute name each variant is keyed by.
func expectedName(a Attribute) string {
	switch a.(type) {
	case *SourceFile:
		return AttrSourceFile
	case *ConstantValue:
		return AttrConstantValue
	case *Code:
		return AttrCode
	case *Exceptions:
		return AttrExceptions
	case *LineNumberTable:
		return AttrLineNumberTable
	case *LocalVariableTable:
		return AttrLocalVariableTable
	case *LocalVariableTypeTable:
		return AttrLocalVariableTypeTable
	case *StackMapTable:
		return AttrStackMapTable
	case *InnerClasses:
		return AttrInnerClasses
	case *EnclosingMethod:
		return AttrEnclosingMethod
	case *Synthetic:
		return AttrSynthetic
	case *Deprecated:
		return AttrDeprecated
	case *Signature:
		return AttrSignature
	case *SourceDebugExtension:
		return AttrSourceDebugExtension
	case *BootstrapMethods:
		return AttrBootstrapMethods
	case *MethodParameters:
		return AttrMethodParameters
	case *NestHost:
		return AttrNestHost
	case *NestMembers:
		return AttrNestMembers
	case *PermittedSubclasses:
		return AttrPermittedSubclasses
	case *ModuleAttribute:
		return AttrModule
	case *ModulePackages:
		return AttrModulePackages
	case *ModuleMainClass:
		return AttrModuleMainClass
	case *Record:
		return AttrRecord
	case *RuntimeVisibleAnnotations:
		return AttrRuntimeVisibleAnnotations
	case *RuntimeInvisibleAnnotations:
		return AttrRuntimeInvisibleAnnotations
	case *RuntimeVisibleParameterAnnotations:
		return AttrRuntimeVisibleParameterAnnotations
	case *RuntimeInvisibleParameterAnnotations:
		return AttrRuntimeInvisibleParameterAnnotations
	case *RuntimeVisibleTypeAnnotations:
		return AttrRuntimeVisibleTypeAnnotations
	case *RuntimeInvisibleTypeAnnotations:
		return AttrRuntimeInvisibleTypeAnnotations
	case *AnnotationDefault:
		return AttrAnnotationDefault
	default:
		return ""
	}
}

// expect checks that i refers to an entry with one of the given tags.
func (cp ConstantPool) expect(i Index, tags ...Tag) error {
	if int(i) >= len(cp) {
		return errors.OutOfBounds(errors.PhaseValidate, int(i.Wire()), cp.Count())
	}
	c := cp[i]
	if c == nil {
		return errors.InvalidReference(errors.PhaseValidate, int(i.Wire()),
			"refers to the unusable slot after a Long or Double")
	}
	for _, t := range tags {
		if c.Tag() == t {
			return nil
		}
	}
	names := make([]string, len(tags))
	for j, t := range tags {
		names[j] = t.String()
	}
	return errors.InvalidReference(errors.PhaseValidate, int(i.Wire()),
		fmt.Sprintf("expected %s, got %s", strings.Join(names, " or "), c.Tag()))
}

func (cp ConstantPool) expectOpt(o OptIndex, tags ...Tag) error {
	if !o.Valid {
		return nil
	}
	return cp.expect(o.Index, tags...)
}

func (cf *ClassFile) validateConstantPool() error {
	cp := cf.ConstantPool
	wrap := func(i int, err error) error {
		return errors.Within(err, "constant pool", fmt.Sprintf("#%d", i+1))
	}

	for i := 0; i < len(cp); i++ {
		c := cp[i]
		if c == nil {
			return wrap(i, errors.InvalidReference(errors.PhaseValidate, i+1,
				"empty slot not preceded by a Long or Double"))
		}
		if c.Tag().Wide() {
			if i+1 >= len(cp) || cp[i+1] != nil {
				return wrap(i, errors.InvalidReference(errors.PhaseValidate, i+1,
					c.Tag().String()+" must be followed by an empty slot"))
			}
			i++
			continue
		}

		var err error
		switch c := c.(type) {
		case *Class:
			err = cp.expect(c.Name, TagUtf8)
		case *String:
			err = cp.expect(c.Value, TagUtf8)
		case *Fieldref:
			err = cp.expectMember(c.Class, c.NameAndType)
		case *Methodref:
			err = cp.expectMember(c.Class, c.NameAndType)
		case *InterfaceMethodref:
			err = cp.expectMember(c.Class, c.NameAndType)
		case *NameAndType:
			if err = cp.expect(c.Name, TagUtf8); err == nil {
				err = cp.expect(c.Descriptor, TagUtf8)
			}
		case *MethodHandle:
			err = cp.expectHandle(c)
		case *MethodType:
			err = cp.expect(c.Descriptor, TagUtf8)
		case *Dynamic:
			err = cp.expect(c.NameAndType, TagNameAndType)
		case *InvokeDynamic:
			err = cp.expect(c.NameAndType, TagNameAndType)
		case *Module:
			err = cp.expect(c.Name, TagUtf8)
		case *Package:
			err = cp.expect(c.Name, TagUtf8)
		}
		if err != nil {
			return wrap(i, err)
		}
	}
	return nil
}

func (cp ConstantPool) expectMember(class, nameAndType Index) error {
	if err := cp.expect(class, TagClass); err != nil {
		return err
	}
	return cp.expect(nameAndType, TagNameAndType)
}

func (cp ConstantPool) expectHandle(h *MethodHandle) error {
	switch h.Kind {
	case RefGetField, RefGetStatic, RefPutField, RefPutStatic:
		return cp.expect(h.Reference, TagFieldref)
	case RefInvokeVirtual, RefNewInvokeSpecial:
		return cp.expect(h.Reference, TagMethodref)
	case RefInvokeStatic, RefInvokeSpecial:
		return cp.expect(h.Reference, TagMethodref, TagInterfaceMethodref)
	case RefInvokeInterface:
		return cp.expect(h.Reference, TagInterfaceMethodref)
	default:
		return errors.New(errors.PhaseValidate, errors.KindUnknownTag).
			Value(h.Kind).
			Detail("method handle kind %d", h.Kind).
			Build()
	}
}

func (cf *ClassFile) validateClass() error {
	cp := cf.ConstantPool
	if err := cp.expect(cf.ThisClass, TagClass); err != nil {
		return errors.Within(err, "class", "this_class")
	}
	if err := cp.expectOpt(cf.SuperClass, TagClass); err != nil {
		return errors.Within(err, "class", "super_class")
	}
	for i, slot := range cf.Interfaces {
		if err := cp.expect(IndexFromWire(slot), TagClass); err != nil {
			return errors.Within(err, "interfaces", fmt.Sprintf("interfaces[%d]", i))
		}
	}
	return nil
}

func (cf *ClassFile) validateMembers(section string, members []Member) error {
	cp := cf.ConstantPool
	for i := range members {
		m := &members[i]
		err := cp.expect(m.Name, TagUtf8)
		if err == nil {
			err = cp.expect(m.Descriptor, TagUtf8)
		}
		if err == nil {
			err = cf.validateAttributes(m.Attributes)
		}
		if err != nil {
			return errors.Within(err, section, fmt.Sprintf("%s[%d]", section, i))
		}
	}
	return nil
}

func (cf *ClassFile) validateAttributes(attrs []Attribute) error {
	cp := cf.ConstantPool
	for i, a := range attrs {
		if a == nil {
			return errors.Unsupported(errors.PhaseValidate, fmt.Sprintf("nil attribute at position %d", i))
		}
		label := attributeLabel(a)
		h := a.Header()
		if err := cp.expect(h.Name, TagUtf8); err != nil {
			return errors.Within(err, "", label)
		}
		if want := expectedName(a); want != "" {
			if got := cp[h.Name].(*Utf8).Value; got != want {
				return errors.Within(errors.InvalidReference(errors.PhaseValidate, int(h.Name.Wire()),
					fmt.Sprintf("%s attribute is named %q", want, got)), "", label)
			}
		}
		if err := cf.validateAttribute(a); err != nil {
			return errors.Within(err, "", label)
		}
		n, err := AttributeLength(a)
		if err != nil {
			return errors.Within(err, "", label)
		}
		if n != h.Length {
			return errors.Within(errors.InvalidLength(errors.PhaseValidate, "", -1,
				fmt.Sprintf("stored length %d, payload is %d bytes", h.Length, n)), "", label)
		}
	}
	return nil
}

// validateAttribute checks the references inside a payload.
func (cf *ClassFile) validateAttribute(a Attribute) error {
	cp := cf.ConstantPool
	switch a := a.(type) {
	case *SourceFile:
		return cp.expect(a.SourceFile, TagUtf8)
	case *ConstantValue:
		return cp.expect(a.Value, TagInteger, TagFloat, TagLong, TagDouble, TagString)
	case *Code:
		for _, h := range a.ExceptionTable {
			if err := cp.expectOpt(h.CatchType, TagClass); err != nil {
				return err
			}
		}
		return cf.validateAttributes(a.Attributes)
	case *Exceptions:
		return cp.expectAll(a.Classes, TagClass)
	case *NestMembers:
		return cp.expectAll(a.Classes, TagClass)
	case *PermittedSubclasses:
		return cp.expectAll(a.Classes, TagClass)
	case *ModulePackages:
		return cp.expectAll(a.Packages, TagPackage)
	case *LocalVariableTable:
		return cp.expectVariables(a.Variables)
	case *LocalVariableTypeTable:
		return cp.expectVariables(a.Variables)
	case *StackMapTable:
		for _, f := range a.Frames {
			for _, v := range append(append([]VerificationType(nil), f.Locals...), f.Stack...) {
				if v.Tag == VerifyObject {
					if err := cp.expect(v.Class, TagClass); err != nil {
						return err
					}
				}
			}
		}
	case *InnerClasses:
		for _, c := range a.Classes {
			if err := cp.expect(c.Inner, TagClass); err != nil {
				return err
			}
			if err := cp.expectOpt(c.Outer, TagClass); err != nil {
				return err
			}
			if err := cp.expectOpt(c.Name, TagUtf8); err != nil {
				return err
			}
		}
	case *EnclosingMethod:
		if err := cp.expect(a.Class, TagClass); err != nil {
			return err
		}
		return cp.expectOpt(a.Method, TagNameAndType)
	case *Signature:
		return cp.expect(a.Signature, TagUtf8)
	case *BootstrapMethods:
		for i, m := range a.Methods {
			err := cp.expect(m.Method, TagMethodHandle)
			if err == nil {
				err = cp.expectAll(m.Arguments, loadableTags...)
			}
			if err != nil {
				return errors.Within(err, "", fmt.Sprintf("methods[%d]", i))
			}
		}
	case *MethodParameters:
		for _, p := range a.Parameters {
			if err := cp.expectOpt(p.Name, TagUtf8); err != nil {
				return err
			}
		}
	case *NestHost:
		return cp.expect(a.HostClass, TagClass)
	case *ModuleMainClass:
		return cp.expect(a.MainClass, TagClass)
	case *ModuleAttribute:
		if err := cp.expect(a.Name, TagModule); err != nil {
			return err
		}
		if err := cp.expectOpt(a.Version, TagUtf8); err != nil {
			return err
		}
		for _, r := range a.Requires {
			if err := cp.expect(r.Module, TagModule); err != nil {
				return err
			}
			if err := cp.expectOpt(r.Version, TagUtf8); err != nil {
				return err
			}
		}
		for _, p := range a.Provides {
			if err := cp.expect(p.Service, TagClass); err != nil {
				return err
			}
			if err := cp.expectAll(p.With, TagClass); err != nil {
				return err
			}
		}
		for _, e := range append(append([]ModuleExport(nil), a.Exports...), a.Opens...) {
			if err := cp.expect(e.Package, TagPackage); err != nil {
				return err
			}
			if err := cp.expectAll(e.To, TagModule); err != nil {
				return err
			}
		}
		return cp.expectAll(a.Uses, TagClass)
	case *RuntimeVisibleAnnotations:
		return cp.expectAnnotations(a.Annotations)
	case *RuntimeInvisibleAnnotations:
		return cp.expectAnnotations(a.Annotations)
	case *RuntimeVisibleParameterAnnotations:
		return cp.expectParameterAnnotations(a.Parameters)
	case *RuntimeInvisibleParameterAnnotations:
		return cp.expectParameterAnnotations(a.Parameters)
	case *RuntimeVisibleTypeAnnotations:
		return cp.expectTypeAnnotations(a.Annotations)
	case *RuntimeInvisibleTypeAnnotations:
		return cp.expectTypeAnnotations(a.Annotations)
	case *AnnotationDefault:
		return cp.expectElementValue(a.Value)
	case *Record:
		for i, rc := range a.Components {
			err := cp.expect(rc.Name, TagUtf8)
			if err == nil {
				err = cp.expect(rc.Descriptor, TagUtf8)
			}
			if err == nil {
				err = cf.validateAttributes(rc.Attributes)
			}
			if err != nil {
				return errors.Within(err, "", fmt.Sprintf("components[%d]", i))
			}
		}
	}
	return nil
}

// loadableTags are the entry kinds ldc and bootstrap arguments accept.
var loadableTags = []Tag{
	TagInteger, TagFloat, TagLong, TagDouble, TagClass, TagString,
	TagMethodHandle, TagMethodType, TagDynamic,
}

// elementConstTags maps primitive and String element value tags to the
// entry kind their Const must refer to.
var elementConstTags = map[uint8]Tag{
	ElemByte:    TagInteger,
	ElemChar:    TagInteger,
	ElemInt:     TagInteger,
	ElemShort:   TagInteger,
	ElemBoolean: TagInteger,
	ElemDouble:  TagDouble,
	ElemFloat:   TagFloat,
	ElemLong:    TagLong,
	ElemString:  TagUtf8,
	ElemClass:   TagUtf8,
}

func (cp ConstantPool) expectAnnotations(anns []Annotation) error {
	for i := range anns {
		if err := cp.expectAnnotation(&anns[i]); err != nil {
			return errors.Within(err, "", fmt.Sprintf("annotations[%d]", i))
		}
	}
	return nil
}

func (cp ConstantPool) expectParameterAnnotations(params [][]Annotation) error {
	for i, anns := range params {
		if err := cp.expectAnnotations(anns); err != nil {
			return errors.Within(err, "", fmt.Sprintf("parameters[%d]", i))
		}
	}
	return nil
}

func (cp ConstantPool) expectTypeAnnotations(anns []TypeAnnotation) error {
	for i := range anns {
		if err := cp.expectAnnotation(&anns[i].Annotation); err != nil {
			return errors.Within(err, "", fmt.Sprintf("annotations[%d]", i))
		}
	}
	return nil
}

func (cp ConstantPool) expectAnnotation(a *Annotation) error {
	if err := cp.expect(a.Type, TagUtf8); err != nil {
		return err
	}
	for _, e := range a.Elements {
		if err := cp.expect(e.Name, TagUtf8); err != nil {
			return err
		}
		if err := cp.expectElementValue(e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (cp ConstantPool) expectElementValue(v ElementValue) error {
	if tag, ok := elementConstTags[v.Tag]; ok {
		return cp.expect(v.Const, tag)
	}
	switch v.Tag {
	case ElemEnum:
		if err := cp.expect(v.EnumType, TagUtf8); err != nil {
			return err
		}
		return cp.expect(v.EnumConst, TagUtf8)
	case ElemAnnotation:
		if v.Annotation == nil {
			return errors.Unsupported(errors.PhaseValidate, "annotation element value without an annotation")
		}
		return cp.expectAnnotation(v.Annotation)
	case ElemArray:
		for _, e := range v.Values {
			if err := cp.expectElementValue(e); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New(errors.PhaseValidate, errors.KindUnknownTag).
		Detail("unrecognized element value tag 0x%02x", v.Tag).
		Value(v.Tag).
		Build()
}

func (cp ConstantPool) expectAll(idx []Index, tags ...Tag) error {
	for _, i := range idx {
		if err := cp.expect(i, tags...); err != nil {
			return err
		}
	}
	return nil
}

func (cp ConstantPool) expectVariables(vars []LocalVariable) error {
	for _, v := range vars {
		if err := cp.expect(v.Name, TagUtf8); err != nil {
			return err
		}
		if err := cp.expect(v.Descriptor, TagUtf8); err != nil {
			return err
		}
	}
	return nil
}
