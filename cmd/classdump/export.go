package main

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/jclass/classfile"
)

// cborEncMode uses canonical encoding so that identical classes export to
// identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: %v", err))
	}
	cborEncMode = em
}

// classDoc is the exported, reference-resolved view of a class file.
type classDoc struct {
	Class      string         `cbor:"class"`
	Super      string         `cbor:"super,omitempty"`
	Interfaces []string       `cbor:"interfaces"`
	Constants  []constantDoc  `cbor:"constants"`
	Fields     []memberDoc    `cbor:"fields"`
	Methods    []memberDoc    `cbor:"methods"`
	Attributes []attributeDoc `cbor:"attributes"`
	Major      uint16         `cbor:"major"`
	Minor      uint16         `cbor:"minor"`
	Flags      uint16         `cbor:"flags"`
}

type constantDoc struct {
	Tag      string `cbor:"tag"`
	Operands string `cbor:"operands,omitempty"`
	Value    string `cbor:"value,omitempty"`
	Slot     int    `cbor:"slot"`
}

type memberDoc struct {
	Name       string         `cbor:"name"`
	Descriptor string         `cbor:"descriptor"`
	Attributes []attributeDoc `cbor:"attributes"`
	Flags      uint16         `cbor:"flags"`
}

type attributeDoc struct {
	Name       string         `cbor:"name"`
	Attributes []attributeDoc `cbor:"attributes,omitempty"`
	Data       []byte         `cbor:"data,omitempty"`
	Length     uint32         `cbor:"length"`
}

func newClassDoc(cf *classfile.ClassFile) *classDoc {
	cp := cf.ConstantPool
	doc := &classDoc{
		Major: cf.MajorVersion,
		Minor: cf.MinorVersion,
		Flags: uint16(cf.AccessFlags),
	}
	doc.Class, _ = cf.ClassName()
	doc.Super, _ = cf.SuperClassName()

	doc.Interfaces = make([]string, len(cf.Interfaces))
	for i, slot := range cf.Interfaces {
		name, err := cp.ClassName(classfile.IndexFromWire(slot))
		if err != nil {
			name = fmt.Sprintf("#%d", slot)
		}
		doc.Interfaces[i] = name
	}

	doc.Constants = make([]constantDoc, 0, len(cp))
	for i, c := range cp {
		if c == nil {
			continue
		}
		kind, operands, comment := describeConstant(cp, classfile.Index(i))
		cd := constantDoc{Slot: i + 1, Tag: kind, Operands: operands, Value: comment}
		if comment == "" {
			cd.Operands, cd.Value = "", operands
		}
		doc.Constants = append(doc.Constants, cd)
	}

	doc.Fields = memberDocs(cp, cf.Fields)
	doc.Methods = memberDocs(cp, cf.Methods)
	doc.Attributes = attributeDocs(cp, cf.Attributes)
	return doc
}

func memberDocs(cp classfile.ConstantPool, members []classfile.Member) []memberDoc {
	out := make([]memberDoc, len(members))
	for i := range members {
		m := &members[i]
		out[i].Name, _ = m.ResolveName(cp)
		out[i].Descriptor, _ = m.ResolveDescriptor(cp)
		out[i].Flags = uint16(m.AccessFlags)
		out[i].Attributes = attributeDocs(cp, m.Attributes)
	}
	return out
}

func attributeDocs(cp classfile.ConstantPool, attrs []classfile.Attribute) []attributeDoc {
	out := make([]attributeDoc, len(attrs))
	for i, a := range attrs {
		h := a.Header()
		name, err := cp.Utf8(h.Name)
		if err != nil {
			name = fmt.Sprintf("#%d", h.Name.Wire())
		}
		out[i] = attributeDoc{Name: name, Length: h.Length}
		switch a := a.(type) {
		case *classfile.Code:
			out[i].Data = a.Code
			out[i].Attributes = attributeDocs(cp, a.Attributes)
		case *classfile.UnknownAttribute:
			out[i].Data = a.Data
		}
	}
	return out
}

// exportCBOR writes the resolved view of cf as canonical CBOR.
func exportCBOR(w io.Writer, cf *classfile.ClassFile) error {
	data, err := cborEncMode.Marshal(newClassDoc(cf))
	if err != nil {
		return fmt.Errorf("cbor export: %w", err)
	}
	_, err = w.Write(data)
	return err
}
