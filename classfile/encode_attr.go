package classfile

import (
	"fmt"
	"strings"

	"github.com/wippyai/jclass/classfile/internal/binary"
	"github.com/wippyai/jclass/errors"
)

// writeAttributePayload writes everything after an attribute's six-byte
// header. Every variant the decoder produces has a case here.
func writeAttributePayload(w *binary.Writer, a Attribute) error {
	switch a := a.(type) {
	case *UnknownAttribute:
		w.WriteBytes(a.Data)
	case *SourceFile:
		w.U2(a.SourceFile.Wire())
	case *ConstantValue:
		w.U2(a.Value.Wire())
	case *Code:
		w.U2(a.MaxStack)
		w.U2(a.MaxLocals)
		w.Count(len(a.Code), 4)
		w.WriteBytes(a.Code)
		w.Count(len(a.ExceptionTable), 2)
		for _, h := range a.ExceptionTable {
			w.U2(h.StartPC)
			w.U2(h.EndPC)
			w.U2(h.HandlerPC)
			w.U2(h.CatchType.Wire())
		}
		return writeAttributes(w, a.Attributes)
	case *Exceptions:
		writeIndexes(w, a.Classes)
	case *LineNumberTable:
		w.Count(len(a.Lines), 2)
		for _, l := range a.Lines {
			w.U2(l.StartPC)
			w.U2(l.Line)
		}
	case *LocalVariableTable:
		writeLocalVariables(w, a.Variables)
	case *LocalVariableTypeTable:
		writeLocalVariables(w, a.Variables)
	case *StackMapTable:
		w.Count(len(a.Frames), 2)
		for i := range a.Frames {
			if err := writeFrame(w, &a.Frames[i]); err != nil {
				return errors.Within(err, "", fmt.Sprintf("frames[%d]", i))
			}
		}
	case *InnerClasses:
		w.Count(len(a.Classes), 2)
		for _, c := range a.Classes {
			w.U2(c.Inner.Wire())
			w.U2(c.Outer.Wire())
			w.U2(c.Name.Wire())
			w.U2(uint16(c.AccessFlags))
		}
	case *EnclosingMethod:
		w.U2(a.Class.Wire())
		w.U2(a.Method.Wire())
	case *Synthetic, *Deprecated:
	case *Signature:
		w.U2(a.Signature.Wire())
	case *SourceDebugExtension:
		w.WriteBytes(a.Data)
	case *BootstrapMethods:
		w.Count(len(a.Methods), 2)
		for _, m := range a.Methods {
			w.U2(m.Method.Wire())
			writeIndexes(w, m.Arguments)
		}
	case *MethodParameters:
		w.Count(len(a.Parameters), 1)
		for _, p := range a.Parameters {
			w.U2(p.Name.Wire())
			w.U2(uint16(p.AccessFlags))
		}
	case *NestHost:
		w.U2(a.HostClass.Wire())
	case *NestMembers:
		writeIndexes(w, a.Classes)
	case *PermittedSubclasses:
		writeIndexes(w, a.Classes)
	case *ModuleAttribute:
		writeModule(w, a)
	case *ModulePackages:
		writeIndexes(w, a.Packages)
	case *ModuleMainClass:
		w.U2(a.MainClass.Wire())
	case *Record:
		w.Count(len(a.Components), 2)
		for i, rc := range a.Components {
			w.U2(rc.Name.Wire())
			w.U2(rc.Descriptor.Wire())
			if err := writeAttributes(w, rc.Attributes); err != nil {
				return errors.Within(err, "", fmt.Sprintf("components[%d]", i))
			}
		}
	case *RuntimeVisibleAnnotations:
		return writeAnnotations(w, a.Annotations)
	case *RuntimeInvisibleAnnotations:
		return writeAnnotations(w, a.Annotations)
	case *RuntimeVisibleParameterAnnotations:
		return writeParameterAnnotations(w, a.Parameters)
	case *RuntimeInvisibleParameterAnnotations:
		return writeParameterAnnotations(w, a.Parameters)
	case *RuntimeVisibleTypeAnnotations:
		return writeTypeAnnotations(w, a.Annotations)
	case *RuntimeInvisibleTypeAnnotations:
		return writeTypeAnnotations(w, a.Annotations)
	case *AnnotationDefault:
		return writeElementValue(w, &a.Value)
	default:
		return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("attribute type %T", a))
	}
	return nil
}

func writeIndexes(w *binary.Writer, idx []Index) {
	w.Count(len(idx), 2)
	for _, i := range idx {
		w.U2(i.Wire())
	}
}

func writeLocalVariables(w *binary.Writer, vars []LocalVariable) {
	w.Count(len(vars), 2)
	for _, v := range vars {
		w.U2(v.StartPC)
		w.U2(v.Length)
		w.U2(v.Name.Wire())
		w.U2(v.Descriptor.Wire())
		w.U2(v.Slot)
	}
}

func writeModule(w *binary.Writer, m *ModuleAttribute) {
	w.U2(m.Name.Wire())
	w.U2(uint16(m.Flags))
	w.U2(m.Version.Wire())

	w.Count(len(m.Requires), 2)
	for _, r := range m.Requires {
		w.U2(r.Module.Wire())
		w.U2(uint16(r.Flags))
		w.U2(r.Version.Wire())
	}
	for _, list := range [][]ModuleExport{m.Exports, m.Opens} {
		w.Count(len(list), 2)
		for _, e := range list {
			w.U2(e.Package.Wire())
			w.U2(uint16(e.Flags))
			writeIndexes(w, e.To)
		}
	}
	writeIndexes(w, m.Uses)
	w.Count(len(m.Provides), 2)
	for _, p := range m.Provides {
		w.U2(p.Service.Wire())
		writeIndexes(w, p.With)
	}
}

func writeFrame(w *binary.Writer, f *StackMapFrame) error {
	w.U1(f.Type)
	switch t := f.Type; {
	case t <= FrameSameMax:
	case t <= FrameSameLocals1StackMax:
		return writeSingleStackItem(w, f)
	case t >= frameReservedMin && t <= frameReservedMax:
		return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("reserved stack map frame type %d", t))
	case t == FrameSameLocals1StackExt:
		w.U2(f.OffsetDelta)
		return writeSingleStackItem(w, f)
	case t <= FrameSameExtended:
		w.U2(f.OffsetDelta)
	case t <= FrameAppendMax:
		if want := int(t - frameAppendLocalsBaseline); len(f.Locals) != want {
			return errors.InvalidLength(errors.PhaseEncode, "", -1,
				fmt.Sprintf("append frame type %d carries %d locals, has %d", t, want, len(f.Locals)))
		}
		w.U2(f.OffsetDelta)
		return writeVerificationTypes(w, f.Locals)
	default:
		w.U2(f.OffsetDelta)
		w.Count(len(f.Locals), 2)
		if err := writeVerificationTypes(w, f.Locals); err != nil {
			return err
		}
		w.Count(len(f.Stack), 2)
		return writeVerificationTypes(w, f.Stack)
	}
	return nil
}

func writeSingleStackItem(w *binary.Writer, f *StackMapFrame) error {
	if len(f.Stack) != 1 {
		return errors.InvalidLength(errors.PhaseEncode, "", -1,
			fmt.Sprintf("frame type %d carries one stack item, has %d", f.Type, len(f.Stack)))
	}
	return writeVerificationTypes(w, f.Stack)
}

func writeVerificationTypes(w *binary.Writer, types []VerificationType) error {
	for _, v := range types {
		w.U1(v.Tag)
		switch v.Tag {
		case VerifyTop, VerifyInteger, VerifyFloat, VerifyDouble, VerifyLong, VerifyNull, VerifyUninitializedThis:
		case VerifyObject:
			w.U2(v.Class.Wire())
		case VerifyUninitialized:
			w.U2(v.Offset)
		default:
			return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("verification type tag %d", v.Tag))
		}
	}
	return nil
}

func writeAnnotations(w *binary.Writer, anns []Annotation) error {
	w.Count(len(anns), 2)
	for i := range anns {
		if err := writeAnnotation(w, &anns[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeAnnotation(w *binary.Writer, a *Annotation) error {
	w.U2(a.Type.Wire())
	w.Count(len(a.Elements), 2)
	for i := range a.Elements {
		w.U2(a.Elements[i].Name.Wire())
		if err := writeElementValue(w, &a.Elements[i].Value); err != nil {
			return err
		}
	}
	return nil
}

func writeElementValue(w *binary.Writer, ev *ElementValue) error {
	w.U1(ev.Tag)
	switch ev.Tag {
	case ElemByte, ElemChar, ElemDouble, ElemFloat, ElemInt, ElemLong, ElemShort, ElemBoolean, ElemString, ElemClass:
		w.U2(ev.Const.Wire())
	case ElemEnum:
		w.U2(ev.EnumType.Wire())
		w.U2(ev.EnumConst.Wire())
	case ElemAnnotation:
		if ev.Annotation == nil {
			return errors.Unsupported(errors.PhaseEncode, "annotation element value without an annotation")
		}
		return writeAnnotation(w, ev.Annotation)
	case ElemArray:
		w.Count(len(ev.Values), 2)
		for i := range ev.Values {
			if err := writeElementValue(w, &ev.Values[i]); err != nil {
				return err
			}
		}
	default:
		return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("element value tag 0x%02x", ev.Tag))
	}
	return nil
}

func writeParameterAnnotations(w *binary.Writer, params [][]Annotation) error {
	w.Count(len(params), 1)
	for _, anns := range params {
		if err := writeAnnotations(w, anns); err != nil {
			return err
		}
	}
	return nil
}

func writeTypeAnnotations(w *binary.Writer, anns []TypeAnnotation) error {
	w.Count(len(anns), 2)
	for i := range anns {
		ta := &anns[i]
		w.U1(ta.TargetType)
		switch t := ta.TargetType; {
		case t == TargetClassTypeParameter, t == TargetMethodTypeParameter, t == TargetMethodFormalParameter:
			writeNarrow(w, ta.Target.Value)
		case t == TargetClassExtends, t == TargetThrows, t == TargetExceptionParameter,
			t >= TargetInstanceOf && t <= TargetMethodReference:
			w.U2(ta.Target.Value)
		case t == TargetClassTypeParameterBound, t == TargetMethodTypeParameterBound:
			writeNarrow(w, ta.Target.Value)
			w.U1(ta.Target.Argument)
		case t >= TargetFieldType && t <= TargetMethodReceiver:
		case t == TargetLocalVariable, t == TargetResourceVariable:
			w.Count(len(ta.Target.LocalVars), 2)
			for _, lv := range ta.Target.LocalVars {
				w.U2(lv.StartPC)
				w.U2(lv.Length)
				w.U2(lv.Slot)
			}
		case t >= TargetCast && t <= TargetMethodReferenceArg:
			w.U2(ta.Target.Value)
			w.U1(ta.Target.Argument)
		default:
			return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("type annotation target 0x%02x", t))
		}

		w.Count(len(ta.Path), 1)
		for _, p := range ta.Path {
			w.U1(p.Kind)
			w.U1(p.Argument)
		}
		if err := writeAnnotation(w, &ta.Annotation); err != nil {
			return err
		}
	}
	return nil
}

// writeNarrow writes a u1 field held in a wider model field.
func writeNarrow(w *binary.Writer, v uint16) {
	binary.WriteWidth(w, v, 1)
}

// attributeLabel names an attribute by its Go type, for error paths.
func attributeLabel(a Attribute) string {
	name := fmt.Sprintf("%T", a)
	return name[strings.LastIndexByte(name, '.')+1:]
}
