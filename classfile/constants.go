package classfile

import (
	"fmt"
	"strconv"
)

// Magic is the class file signature.
const Magic uint32 = 0xCAFEBABE

// Tag discriminates constant pool entries on the wire.
type Tag uint8

// Constant pool tags.
const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

var tagNames = map[Tag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldref:           "Fieldref",
	TagMethodref:          "Methodref",
	TagInterfaceMethodref: "InterfaceMethodref",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagDynamic:            "Dynamic",
	TagInvokeDynamic:      "InvokeDynamic",
	TagModule:             "Module",
	TagPackage:            "Package",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return "Tag(" + strconv.Itoa(int(t)) + ")"
}

// Wide reports whether entries with this tag occupy two slots.
func (t Tag) Wide() bool {
	return t == TagLong || t == TagDouble
}

// Method handle reference kinds.
const (
	RefGetField         uint8 = 1
	RefGetStatic        uint8 = 2
	RefPutField         uint8 = 3
	RefPutStatic        uint8 = 4
	RefInvokeVirtual    uint8 = 5
	RefInvokeStatic     uint8 = 6
	RefInvokeSpecial    uint8 = 7
	RefNewInvokeSpecial uint8 = 8
	RefInvokeInterface  uint8 = 9
)

// Predefined attribute names. Attributes are recognized by the string value
// of their name entry, not by a numeric tag.
const (
	AttrSourceFile                           = "SourceFile"
	AttrConstantValue                        = "ConstantValue"
	AttrCode                                 = "Code"
	AttrExceptions                           = "Exceptions"
	AttrLineNumberTable                      = "LineNumberTable"
	AttrLocalVariableTable                   = "LocalVariableTable"
	AttrLocalVariableTypeTable               = "LocalVariableTypeTable"
	AttrStackMapTable                        = "StackMapTable"
	AttrInnerClasses                         = "InnerClasses"
	AttrEnclosingMethod                      = "EnclosingMethod"
	AttrSynthetic                            = "Synthetic"
	AttrDeprecated                           = "Deprecated"
	AttrSignature                            = "Signature"
	AttrSourceDebugExtension                 = "SourceDebugExtension"
	AttrBootstrapMethods                     = "BootstrapMethods"
	AttrMethodParameters                     = "MethodParameters"
	AttrNestHost                             = "NestHost"
	AttrNestMembers                          = "NestMembers"
	AttrPermittedSubclasses                  = "PermittedSubclasses"
	AttrModule                               = "Module"
	AttrModulePackages                       = "ModulePackages"
	AttrModuleMainClass                      = "ModuleMainClass"
	AttrRecord                               = "Record"
	AttrRuntimeVisibleAnnotations            = "RuntimeVisibleAnnotations"
	AttrRuntimeInvisibleAnnotations          = "RuntimeInvisibleAnnotations"
	AttrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	AttrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	AttrRuntimeVisibleTypeAnnotations        = "RuntimeVisibleTypeAnnotations"
	AttrRuntimeInvisibleTypeAnnotations      = "RuntimeInvisibleTypeAnnotations"
	AttrAnnotationDefault                    = "AnnotationDefault"
)

// Flag targets select which meaning an access flag bit carries, since the
// same bit is reused across classes, fields and methods.
type FlagTarget int

const (
	TargetClass FlagTarget = iota
	TargetField
	TargetMethod
	TargetInnerClass
	TargetModule
	TargetParameter
)

// AccessFlags is an access and property bitmask.
type AccessFlags uint16

// Access and property flags. Bits shared by several targets are listed once
// under each name.
const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccOpen         AccessFlags = 0x0020
	AccTransitive   AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccStaticPhase  AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
	AccMandated     AccessFlags = 0x8000
)

type flagName struct {
	bit  AccessFlags
	name string
}

var flagNames = map[FlagTarget][]flagName{
	TargetClass: {
		{AccPublic, "ACC_PUBLIC"}, {AccFinal, "ACC_FINAL"}, {AccSuper, "ACC_SUPER"},
		{AccInterface, "ACC_INTERFACE"}, {AccAbstract, "ACC_ABSTRACT"}, {AccSynthetic, "ACC_SYNTHETIC"},
		{AccAnnotation, "ACC_ANNOTATION"}, {AccEnum, "ACC_ENUM"}, {AccModule, "ACC_MODULE"},
	},
	TargetField: {
		{AccPublic, "ACC_PUBLIC"}, {AccPrivate, "ACC_PRIVATE"}, {AccProtected, "ACC_PROTECTED"},
		{AccStatic, "ACC_STATIC"}, {AccFinal, "ACC_FINAL"}, {AccVolatile, "ACC_VOLATILE"},
		{AccTransient, "ACC_TRANSIENT"}, {AccSynthetic, "ACC_SYNTHETIC"}, {AccEnum, "ACC_ENUM"},
	},
	TargetMethod: {
		{AccPublic, "ACC_PUBLIC"}, {AccPrivate, "ACC_PRIVATE"}, {AccProtected, "ACC_PROTECTED"},
		{AccStatic, "ACC_STATIC"}, {AccFinal, "ACC_FINAL"}, {AccSynchronized, "ACC_SYNCHRONIZED"},
		{AccBridge, "ACC_BRIDGE"}, {AccVarargs, "ACC_VARARGS"}, {AccNative, "ACC_NATIVE"},
		{AccAbstract, "ACC_ABSTRACT"}, {AccStrict, "ACC_STRICT"}, {AccSynthetic, "ACC_SYNTHETIC"},
	},
	TargetInnerClass: {
		{AccPublic, "ACC_PUBLIC"}, {AccPrivate, "ACC_PRIVATE"}, {AccProtected, "ACC_PROTECTED"},
		{AccStatic, "ACC_STATIC"}, {AccFinal, "ACC_FINAL"}, {AccInterface, "ACC_INTERFACE"},
		{AccAbstract, "ACC_ABSTRACT"}, {AccSynthetic, "ACC_SYNTHETIC"}, {AccAnnotation, "ACC_ANNOTATION"},
		{AccEnum, "ACC_ENUM"},
	},
	TargetModule: {
		{AccOpen, "ACC_OPEN"}, {AccTransitive, "ACC_TRANSITIVE"}, {AccStaticPhase, "ACC_STATIC_PHASE"},
		{AccSynthetic, "ACC_SYNTHETIC"}, {AccMandated, "ACC_MANDATED"},
	},
	TargetParameter: {
		{AccFinal, "ACC_FINAL"}, {AccSynthetic, "ACC_SYNTHETIC"}, {AccMandated, "ACC_MANDATED"},
	},
}

// Strings returns the flag names set in f for the given target, in table
// order. A bit with two names for the target is reported under the first.
// Unassigned bits are reported as hex.
func (f AccessFlags) Strings(target FlagTarget) []string {
	var names []string
	rest := f
	for _, fn := range flagNames[target] {
		if rest&fn.bit != 0 {
			names = append(names, fn.name)
			rest &^= fn.bit
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%04X", uint16(rest)))
	}
	return names
}
