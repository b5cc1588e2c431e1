package classfile

import (
	"strings"
	"testing"

	"github.com/wippyai/jclass/errors"
)

func TestValidateFixtures(t *testing.T) {
	for _, name := range fixtures {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseValidate(loadFixture(t, name)); err != nil {
				t.Fatalf("ParseValidate: %v", err)
			}
		})
	}
}

// withAttribute appends the attribute built by fn to the class attributes,
// adding the pool entries it needs.
func withAttribute(fn func(b *poolBuilder) Attribute) func(cf *ClassFile) {
	return func(cf *ClassFile) {
		b := poolBuilder{cp: cf.ConstantPool}
		a := fn(&b)
		cf.ConstantPool = b.cp
		cf.Attributes = append(cf.Attributes, a)
		if err := cf.UpdateLengths(); err != nil {
			panic(err)
		}
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cf *ClassFile)
		kind    errors.Kind
		section string
		path    string
	}{
		{
			name:    "this_class not a Class",
			mutate:  func(cf *ClassFile) { cf.ThisClass = 3 },
			kind:    errors.KindInvalidReference,
			section: "class",
			path:    "this_class",
		},
		{
			name:    "super_class out of range",
			mutate:  func(cf *ClassFile) { cf.SuperClass = Some(200) },
			kind:    errors.KindOutOfBounds,
			section: "class",
			path:    "super_class",
		},
		{
			name:    "pool entry references wrong tag",
			mutate:  func(cf *ClassFile) { cf.ConstantPool[1] = &Class{Name: 0} },
			kind:    errors.KindInvalidReference,
			section: "constant pool",
			path:    "#2",
		},
		{
			name:    "member name not Utf8",
			mutate:  func(cf *ClassFile) { cf.Methods[1].Name = 6 },
			kind:    errors.KindInvalidReference,
			section: "methods",
			path:    "methods[1]",
		},
		{
			name: "attribute name mismatch",
			mutate: func(cf *ClassFile) {
				cf.Attributes[0].Header().Name = 9
			},
			kind:    errors.KindInvalidReference,
			section: "attributes",
			path:    "SourceFile",
		},
		{
			name: "nested stored length",
			mutate: func(cf *ClassFile) {
				cf.Methods[1].Code().Attributes[0].Header().Length = 7
			},
			kind:    errors.KindInvalidLength,
			section: "methods",
			path:    "methods[1].Code.LineNumberTable",
		},
		{
			name: "catch type not a Class",
			mutate: func(cf *ClassFile) {
				code := cf.Methods[0].Code()
				code.ExceptionTable = append(code.ExceptionTable, ExceptionHandler{CatchType: Some(4)})
				code.Length += 8
			},
			kind:    errors.KindInvalidReference,
			section: "methods",
			path:    "methods[0].Code",
		},
		{
			name: "method handle kind",
			mutate: func(cf *ClassFile) {
				cf.ConstantPool = append(cf.ConstantPool, &MethodHandle{Kind: 12, Reference: 0})
			},
			kind:    errors.KindUnknownTag,
			section: "constant pool",
			path:    "#15",
		},
		{
			name: "method handle target",
			mutate: func(cf *ClassFile) {
				cf.ConstantPool = append(cf.ConstantPool, &MethodHandle{Kind: RefGetField, Reference: 0})
			},
			kind:    errors.KindInvalidReference,
			section: "constant pool",
			path:    "#15",
		},
		{
			name: "double without empty slot",
			mutate: func(cf *ClassFile) {
				cf.ConstantPool = append(cf.ConstantPool, &Double{}, &Integer{})
			},
			kind:    errors.KindInvalidReference,
			section: "constant pool",
			path:    "#15",
		},
		{
			name: "bootstrap argument out of range",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				handle := b.add(&MethodHandle{Kind: RefInvokeStatic, Reference: 0})
				return &BootstrapMethods{AttributeHeader: b.header(AttrBootstrapMethods),
					Methods: []BootstrapMethod{{Method: handle, Arguments: []Index{5000}}}}
			}),
			kind:    errors.KindOutOfBounds,
			section: "attributes",
			path:    "BootstrapMethods.methods[0]",
		},
		{
			name: "bootstrap argument not loadable",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				handle := b.add(&MethodHandle{Kind: RefInvokeStatic, Reference: 0})
				return &BootstrapMethods{AttributeHeader: b.header(AttrBootstrapMethods),
					Methods: []BootstrapMethod{{Method: handle, Arguments: []Index{b.utf8("x")}}}}
			}),
			kind:    errors.KindInvalidReference,
			section: "attributes",
			path:    "BootstrapMethods.methods[0]",
		},
		{
			name: "annotation type out of range",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				return &RuntimeVisibleAnnotations{AttributeHeader: b.header(AttrRuntimeVisibleAnnotations),
					Annotations: []Annotation{{Type: 5000}}}
			}),
			kind:    errors.KindOutOfBounds,
			section: "attributes",
			path:    "RuntimeVisibleAnnotations.annotations[0]",
		},
		{
			name: "element name not Utf8",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				return &RuntimeInvisibleAnnotations{AttributeHeader: b.header(AttrRuntimeInvisibleAnnotations),
					Annotations: []Annotation{{Type: b.utf8("LA;"), Elements: []ElementValuePair{
						{Name: 6, Value: ElementValue{Tag: ElemString, Const: 13}},
					}}}}
			}),
			kind:    errors.KindInvalidReference,
			section: "attributes",
			path:    "RuntimeInvisibleAnnotations.annotations[0]",
		},
		{
			name: "int element refers to Utf8",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				return &RuntimeVisibleAnnotations{AttributeHeader: b.header(AttrRuntimeVisibleAnnotations),
					Annotations: []Annotation{{Type: b.utf8("LA;"), Elements: []ElementValuePair{
						{Name: b.utf8("v"), Value: ElementValue{Tag: ElemInt, Const: 13}},
					}}}}
			}),
			kind:    errors.KindInvalidReference,
			section: "attributes",
			path:    "RuntimeVisibleAnnotations.annotations[0]",
		},
		{
			name: "enum constant not Utf8",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				enum := ElementValue{Tag: ElemEnum, EnumType: b.utf8("LE;"), EnumConst: 6}
				return &RuntimeInvisibleParameterAnnotations{AttributeHeader: b.header(AttrRuntimeInvisibleParameterAnnotations),
					Parameters: [][]Annotation{{}, {{Type: b.utf8("LA;"), Elements: []ElementValuePair{
						{Name: b.utf8("v"), Value: ElementValue{Tag: ElemArray, Values: []ElementValue{enum}}},
					}}}}}
			}),
			kind:    errors.KindInvalidReference,
			section: "attributes",
			path:    "RuntimeInvisibleParameterAnnotations.parameters[1].annotations[0]",
		},
		{
			name: "nested annotation type",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				return &RuntimeVisibleParameterAnnotations{AttributeHeader: b.header(AttrRuntimeVisibleParameterAnnotations),
					Parameters: [][]Annotation{{{Type: b.utf8("LA;"), Elements: []ElementValuePair{
						{Name: b.utf8("v"), Value: ElementValue{Tag: ElemAnnotation, Annotation: &Annotation{Type: 5000}}},
					}}}}}
			}),
			kind:    errors.KindOutOfBounds,
			section: "attributes",
			path:    "RuntimeVisibleParameterAnnotations.parameters[0].annotations[0]",
		},
		{
			name: "type annotation type",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				return &RuntimeVisibleTypeAnnotations{AttributeHeader: b.header(AttrRuntimeVisibleTypeAnnotations),
					Annotations: []TypeAnnotation{{TargetType: TargetFieldType, Annotation: Annotation{Type: 6}}}}
			}),
			kind:    errors.KindInvalidReference,
			section: "attributes",
			path:    "RuntimeVisibleTypeAnnotations.annotations[0]",
		},
		{
			name: "invisible type annotation type",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				return &RuntimeInvisibleTypeAnnotations{AttributeHeader: b.header(AttrRuntimeInvisibleTypeAnnotations),
					Annotations: []TypeAnnotation{{TargetType: TargetFieldType, Annotation: Annotation{Type: 5000}}}}
			}),
			kind:    errors.KindOutOfBounds,
			section: "attributes",
			path:    "RuntimeInvisibleTypeAnnotations.annotations[0]",
		},
		{
			name: "annotation default class not Utf8",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				return &AnnotationDefault{AttributeHeader: b.header(AttrAnnotationDefault),
					Value: ElementValue{Tag: ElemClass, Const: 6}}
			}),
			kind:    errors.KindInvalidReference,
			section: "attributes",
			path:    "AnnotationDefault",
		},
		{
			name: "module version not Utf8",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				mod := b.add(&Module{Name: b.utf8("m")})
				return &ModuleAttribute{AttributeHeader: b.header(AttrModule), Name: mod, Version: Some(6)}
			}),
			kind:    errors.KindInvalidReference,
			section: "attributes",
			path:    "ModuleAttribute",
		},
		{
			name: "requires version out of range",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				mod := b.add(&Module{Name: b.utf8("m")})
				return &ModuleAttribute{AttributeHeader: b.header(AttrModule), Name: mod,
					Requires: []ModuleRequire{{Module: mod, Version: Some(5000)}}}
			}),
			kind:    errors.KindOutOfBounds,
			section: "attributes",
			path:    "ModuleAttribute",
		},
		{
			name: "provides service out of range",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				mod := b.add(&Module{Name: b.utf8("m")})
				return &ModuleAttribute{AttributeHeader: b.header(AttrModule), Name: mod,
					Provides: []ModuleProvide{{Service: 5000}}}
			}),
			kind:    errors.KindOutOfBounds,
			section: "attributes",
			path:    "ModuleAttribute",
		},
		{
			name: "provides implementation not a Class",
			mutate: withAttribute(func(b *poolBuilder) Attribute {
				mod := b.add(&Module{Name: b.utf8("m")})
				return &ModuleAttribute{AttributeHeader: b.header(AttrModule), Name: mod,
					Provides: []ModuleProvide{{Service: 6, With: []Index{13}}}}
			}),
			kind:    errors.KindInvalidReference,
			section: "attributes",
			path:    "ModuleAttribute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf, err := Parse(loadFixture(t, "Minimal.class"))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.mutate(cf)

			e := expectKind(t, cf.Validate(), errors.PhaseValidate, tt.kind)
			if e.Section != tt.section {
				t.Errorf("section: got %q, want %q", e.Section, tt.section)
			}
			if got := strings.Join(e.Path, "."); got != tt.path {
				t.Errorf("path: got %q, want %q", got, tt.path)
			}
		})
	}
}

func TestAttributeLength(t *testing.T) {
	cf, err := Parse(loadFixture(t, "Fields.class"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, m := range cf.Methods {
		for _, a := range m.Attributes {
			n, err := AttributeLength(a)
			if err != nil {
				t.Fatalf("AttributeLength: %v", err)
			}
			if n != a.Header().Length {
				t.Errorf("%s: computed %d, stored %d", attributeLabel(a), n, a.Header().Length)
			}
		}
	}
}
