package classfile

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/jclass/classfile/internal/binary"
	"github.com/wippyai/jclass/errors"
)

// Encoder writes class files to a sink.
type Encoder struct {
	w   io.Writer
	log *zap.Logger
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, log: Logger()}
}

// Encode writes cf to w.
func Encode(cf *ClassFile, w io.Writer) error {
	return NewEncoder(w).Encode(cf)
}

// Encode writes cf. The file is assembled in memory first, so nothing
// reaches the sink when encoding fails.
//
// Stored attribute lengths and reference states are written as they are;
// the only transformation is converting Index values back to 1-based slots.
func (e *Encoder) Encode(cf *ClassFile) error {
	data, err := cf.Bytes()
	if err != nil {
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		return errors.Write(err)
	}
	e.log.Debug("class encoded", zap.Int("bytes", len(data)))
	return nil
}

// Bytes returns the encoded class file.
func (cf *ClassFile) Bytes() ([]byte, error) {
	w := binary.NewWriter()

	w.U4(cf.Magic)
	w.U2(cf.MinorVersion)
	w.U2(cf.MajorVersion)

	if err := writeConstantPool(w, cf.ConstantPool); err != nil {
		return nil, err
	}
	if err := w.Err(); err != nil {
		return nil, errors.WidthMismatch("constant pool", err)
	}

	w.U2(uint16(cf.AccessFlags))
	w.U2(cf.ThisClass.Wire())
	w.U2(cf.SuperClass.Wire())

	w.Count(len(cf.Interfaces), 2)
	for _, slot := range cf.Interfaces {
		w.U2(slot)
	}
	if err := w.Err(); err != nil {
		return nil, errors.WidthMismatch("interfaces", err)
	}

	if err := writeMembers(w, "fields", cf.Fields); err != nil {
		return nil, err
	}
	if err := writeMembers(w, "methods", cf.Methods); err != nil {
		return nil, err
	}
	if err := writeAttributes(w, cf.Attributes); err != nil {
		return nil, errors.Within(err, "attributes")
	}
	if err := w.Err(); err != nil {
		return nil, errors.WidthMismatch("attributes", err)
	}
	return w.Bytes(), nil
}

func writeConstantPool(w *binary.Writer, cp ConstantPool) error {
	w.Count(cp.Count(), 2)
	for i := 0; i < len(cp); i++ {
		c := cp[i]
		if c == nil {
			return errors.Within(errors.InvalidReference(errors.PhaseEncode, i+1,
				"empty slot not preceded by a Long or Double"), "constant pool")
		}
		if err := writeConstant(w, c); err != nil {
			return errors.Within(err, "constant pool", fmt.Sprintf("#%d", i+1))
		}
		if c.Tag().Wide() {
			if i+1 >= len(cp) || cp[i+1] != nil {
				return errors.Within(errors.InvalidReference(errors.PhaseEncode, i+1,
					c.Tag().String()+" must be followed by an empty slot"), "constant pool")
			}
			i++
		}
	}
	return nil
}

func writeConstant(w *binary.Writer, c Constant) error {
	w.U1(uint8(c.Tag()))
	switch c := c.(type) {
	case *Utf8:
		w.Count(len(c.Value), 2)
		w.WriteString(c.Value)
	case *Integer:
		w.U4(uint32(c.Value))
	case *Float:
		w.U4(c.Bits)
	case *Long:
		w.U8(uint64(c.Value))
	case *Double:
		w.U8(c.Bits)
	case *Class:
		w.U2(c.Name.Wire())
	case *String:
		w.U2(c.Value.Wire())
	case *Fieldref:
		w.U2(c.Class.Wire())
		w.U2(c.NameAndType.Wire())
	case *Methodref:
		w.U2(c.Class.Wire())
		w.U2(c.NameAndType.Wire())
	case *InterfaceMethodref:
		w.U2(c.Class.Wire())
		w.U2(c.NameAndType.Wire())
	case *NameAndType:
		w.U2(c.Name.Wire())
		w.U2(c.Descriptor.Wire())
	case *MethodHandle:
		w.U1(c.Kind)
		w.U2(c.Reference.Wire())
	case *MethodType:
		w.U2(c.Descriptor.Wire())
	case *Dynamic:
		w.U2(c.BootstrapMethod)
		w.U2(c.NameAndType.Wire())
	case *InvokeDynamic:
		w.U2(c.BootstrapMethod)
		w.U2(c.NameAndType.Wire())
	case *Module:
		w.U2(c.Name.Wire())
	case *Package:
		w.U2(c.Name.Wire())
	default:
		return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("constant type %T", c))
	}
	return nil
}

func writeMembers(w *binary.Writer, section string, members []Member) error {
	w.Count(len(members), 2)
	for i := range members {
		m := &members[i]
		w.U2(uint16(m.AccessFlags))
		w.U2(m.Name.Wire())
		w.U2(m.Descriptor.Wire())
		if err := writeAttributes(w, m.Attributes); err != nil {
			return errors.Within(err, section, fmt.Sprintf("%s[%d]", section, i))
		}
	}
	if err := w.Err(); err != nil {
		return errors.WidthMismatch(section, err)
	}
	return nil
}

func writeAttributes(w *binary.Writer, attrs []Attribute) error {
	w.Count(len(attrs), 2)
	for i, a := range attrs {
		if a == nil {
			return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("nil attribute at position %d", i))
		}
		h := a.Header()
		w.U2(h.Name.Wire())
		w.U4(h.Length)
		if err := writeAttributePayload(w, a); err != nil {
			return errors.Within(err, "", attributeLabel(a))
		}
	}
	return nil
}
