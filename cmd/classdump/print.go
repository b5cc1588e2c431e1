package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/wippyai/jclass/classfile"
)

// newRenderer returns a lipgloss renderer for the given color mode. In
// auto mode color is used only when stdout is a terminal.
func newRenderer(w io.Writer, mode string, tty bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch {
	case mode == "always":
		r.SetColorProfile(termenv.ANSI256)
	case mode == "never", !tty:
		r.SetColorProfile(termenv.Ascii)
	default:
		r.SetColorProfile(termenv.EnvColorProfile())
	}
	return r
}

type styles struct {
	title   lipgloss.Style
	section lipgloss.Style
	name    lipgloss.Style
	kind    lipgloss.Style
	comment lipgloss.Style
	attr    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		section: r.NewStyle().Bold(true),
		name:    r.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		kind:    r.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		comment: r.NewStyle().Foreground(lipgloss.Color("#666666")),
		attr:    r.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
	}
}

// printer writes the text report. The first write or disassembly error
// stops all further output.
type printer struct {
	w    io.Writer
	st   styles
	cp   classfile.ConstantPool
	err  error
	code bool
}

func newPrinter(w io.Writer, r *lipgloss.Renderer) *printer {
	return &printer{w: w, st: newStyles(r)}
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) printClass(cf *classfile.ClassFile) error {
	p.cp = cf.ConstantPool
	p.header(cf)
	p.constantPool()
	p.members("Fields", cf.Fields, classfile.TargetField)
	p.members("Methods", cf.Methods, classfile.TargetMethod)
	p.printf("%s (%d):\n", p.st.section.Render("Attributes"), len(cf.Attributes))
	p.attributes(cf.Attributes, "  ")
	return p.err
}

func (p *printer) header(cf *classfile.ClassFile) {
	cp := cf.ConstantPool
	name, err := cf.ClassName()
	if err != nil {
		name = fmt.Sprintf("#%d", cf.ThisClass.Wire())
	}
	p.printf("%s %s\n", p.st.title.Render("Classfile"), p.st.name.Render(name))
	p.printf("  magic: 0x%08X\n", cf.Magic)
	p.printf("  version: %d.%d\n", cf.MajorVersion, cf.MinorVersion)
	p.printf("  flags: %s\n", flagList(cf.AccessFlags, classfile.TargetClass))
	p.printf("  this_class: #%d %s\n", cf.ThisClass.Wire(), name)
	if cf.SuperClass.Valid {
		super, _ := cp.ClassName(cf.SuperClass.Index)
		p.printf("  super_class: #%d %s\n", cf.SuperClass.Wire(), super)
	} else {
		p.printf("  super_class: none\n")
	}
	p.printf("  interfaces: %d\n", len(cf.Interfaces))
	for _, slot := range cf.Interfaces {
		iface, err := cp.ClassName(classfile.IndexFromWire(slot))
		if err != nil {
			iface = "<invalid>"
		}
		p.printf("    #%d %s\n", slot, iface)
	}
}

func (p *printer) constantPool() {
	cp := p.cp
	p.printf("%s (%d slots, count %d):\n", p.st.section.Render("Constant pool"), len(cp), cp.Count())
	for i, c := range cp {
		if c == nil {
			continue
		}
		kind, operands, comment := describeConstant(cp, classfile.Index(i))
		line := fmt.Sprintf("%6s = %s %-14s", fmt.Sprintf("#%d", i+1), p.st.kind.Render(fmt.Sprintf("%-18s", kind)), operands)
		if comment != "" {
			line += " " + p.st.comment.Render("// "+comment)
		}
		p.printf("%s\n", strings.TrimRight(line, " "))
	}
}

func (p *printer) members(title string, members []classfile.Member, target classfile.FlagTarget) {
	p.printf("%s (%d):\n", p.st.section.Render(title), len(members))
	for i := range members {
		p.member(&members[i], target)
	}
}

// memberTitle returns "name descriptor", falling back to slot numbers.
func memberTitle(cp classfile.ConstantPool, m *classfile.Member) string {
	name, err := m.ResolveName(cp)
	if err != nil {
		name = fmt.Sprintf("#%d", m.Name.Wire())
	}
	desc, err := m.ResolveDescriptor(cp)
	if err != nil {
		desc = fmt.Sprintf("#%d", m.Descriptor.Wire())
	}
	return name + " " + desc
}

func (p *printer) member(m *classfile.Member, target classfile.FlagTarget) {
	title := memberTitle(p.cp, m)
	name, desc, _ := strings.Cut(title, " ")
	p.printf("  %s %s\n", p.st.name.Render(name), desc)
	p.printf("    flags: %s\n", flagList(m.AccessFlags, target))
	p.attributes(m.Attributes, "    ")
}

func flagList(f classfile.AccessFlags, target classfile.FlagTarget) string {
	names := f.Strings(target)
	if len(names) == 0 {
		return fmt.Sprintf("(0x%04x)", uint16(f))
	}
	return fmt.Sprintf("(0x%04x) %s", uint16(f), strings.Join(names, ", "))
}

func (p *printer) attributeName(a classfile.Attribute) string {
	name, err := p.cp.Utf8(a.Header().Name)
	if err != nil {
		return fmt.Sprintf("#%d", a.Header().Name.Wire())
	}
	return name
}

func (p *printer) attributes(attrs []classfile.Attribute, indent string) {
	for _, a := range attrs {
		p.printf("%s%s (%d bytes)", indent, p.st.attr.Render(p.attributeName(a)), a.Header().Length)
		if detail := p.attributeDetail(a); detail != "" {
			p.printf(": %s", detail)
		}
		p.printf("\n")

		switch a := a.(type) {
		case *classfile.Code:
			p.codeBody(a, indent+"  ")
		case *classfile.Record:
			for _, rc := range a.Components {
				name, _ := p.cp.Utf8(rc.Name)
				desc, _ := p.cp.Utf8(rc.Descriptor)
				p.printf("%s  %s %s\n", indent, name, desc)
				p.attributes(rc.Attributes, indent+"    ")
			}
		}
	}
}

func (p *printer) attributeDetail(a classfile.Attribute) string {
	cp := p.cp
	utf8 := func(i classfile.Index) string {
		s, err := cp.Utf8(i)
		if err != nil {
			return "<invalid>"
		}
		return s
	}
	classes := func(idx []classfile.Index) string {
		names := make([]string, len(idx))
		for i, c := range idx {
			n, err := cp.ClassName(c)
			if err != nil {
				n = "<invalid>"
			}
			names[i] = n
		}
		return strings.Join(names, ", ")
	}

	switch a := a.(type) {
	case *classfile.SourceFile:
		return utf8(a.SourceFile)
	case *classfile.Signature:
		return utf8(a.Signature)
	case *classfile.ConstantValue:
		_, operands, comment := describeConstant(cp, a.Value)
		if comment != "" {
			return comment
		}
		return operands
	case *classfile.Exceptions:
		return classes(a.Classes)
	case *classfile.NestHost:
		return classes([]classfile.Index{a.HostClass})
	case *classfile.NestMembers:
		return classes(a.Classes)
	case *classfile.PermittedSubclasses:
		return classes(a.Classes)
	case *classfile.ModuleMainClass:
		return classes([]classfile.Index{a.MainClass})
	case *classfile.LineNumberTable:
		return plural(len(a.Lines), "line")
	case *classfile.LocalVariableTable:
		return plural(len(a.Variables), "variable")
	case *classfile.LocalVariableTypeTable:
		return plural(len(a.Variables), "variable")
	case *classfile.StackMapTable:
		return plural(len(a.Frames), "frame")
	case *classfile.InnerClasses:
		return plural(len(a.Classes), "class")
	case *classfile.BootstrapMethods:
		return plural(len(a.Methods), "method")
	case *classfile.MethodParameters:
		return plural(len(a.Parameters), "parameter")
	case *classfile.Record:
		return plural(len(a.Components), "component")
	case *classfile.RuntimeVisibleAnnotations:
		return plural(len(a.Annotations), "annotation")
	case *classfile.RuntimeInvisibleAnnotations:
		return plural(len(a.Annotations), "annotation")
	case *classfile.ModuleAttribute:
		n, err := cp.Get(a.Name)
		if m, ok := n.(*classfile.Module); err == nil && ok {
			return utf8(m.Name)
		}
		return "<invalid>"
	case *classfile.UnknownAttribute:
		return "opaque"
	}
	return ""
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "s") {
		return strconv.Itoa(n) + " " + noun + "es"
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func (p *printer) codeBody(c *classfile.Code, indent string) {
	p.printf("%sstack=%d, locals=%d, code_length=%d\n", indent, c.MaxStack, c.MaxLocals, len(c.Code))
	if p.code && p.err == nil {
		insns, err := classfile.DecodeInstructions(c.Code)
		if err != nil {
			p.err = err
			return
		}
		for _, in := range insns {
			p.printf("%s%s\n", indent, in.String())
		}
	}
	for _, h := range c.ExceptionTable {
		catch := "any"
		if h.CatchType.Valid {
			if n, err := p.cp.ClassName(h.CatchType.Index); err == nil {
				catch = n
			}
		}
		p.printf("%sexception %d-%d -> %d %s\n", indent, h.StartPC, h.EndPC, h.HandlerPC, catch)
	}
	p.attributes(c.Attributes, indent)
}

// describeConstant renders the constant at i as its kind, its raw operands
// and a comment with the resolved value.
func describeConstant(cp classfile.ConstantPool, i classfile.Index) (kind, operands, comment string) {
	c, err := cp.Get(i)
	if err != nil {
		return "?", "", err.Error()
	}
	kind = c.Tag().String()

	utf8 := func(i classfile.Index) string {
		s, err := cp.Utf8(i)
		if err != nil {
			return "<invalid>"
		}
		return s
	}
	nameAndType := func(i classfile.Index) string {
		name, desc, err := cp.NameAndType(i)
		if err != nil {
			return "<invalid>"
		}
		return name + ":" + desc
	}
	ref := func(i classfile.Index) string {
		class, name, desc, err := cp.MemberRef(i)
		if err != nil {
			return "<invalid>"
		}
		return class + "." + name + ":" + desc
	}

	switch c := c.(type) {
	case *classfile.Utf8:
		return kind, c.Decode(), ""
	case *classfile.Integer:
		return kind, strconv.FormatInt(int64(c.Value), 10), ""
	case *classfile.Float:
		return kind, strconv.FormatFloat(float64(c.Value()), 'g', -1, 32) + "f", ""
	case *classfile.Long:
		return kind, strconv.FormatInt(c.Value, 10) + "l", ""
	case *classfile.Double:
		return kind, strconv.FormatFloat(c.Value(), 'g', -1, 64) + "d", ""
	case *classfile.Class:
		return kind, fmt.Sprintf("#%d", c.Name.Wire()), utf8(c.Name)
	case *classfile.String:
		return kind, fmt.Sprintf("#%d", c.Value.Wire()), utf8(c.Value)
	case *classfile.Fieldref:
		return kind, fmt.Sprintf("#%d.#%d", c.Class.Wire(), c.NameAndType.Wire()), ref(i)
	case *classfile.Methodref:
		return kind, fmt.Sprintf("#%d.#%d", c.Class.Wire(), c.NameAndType.Wire()), ref(i)
	case *classfile.InterfaceMethodref:
		return kind, fmt.Sprintf("#%d.#%d", c.Class.Wire(), c.NameAndType.Wire()), ref(i)
	case *classfile.NameAndType:
		return kind, fmt.Sprintf("#%d:#%d", c.Name.Wire(), c.Descriptor.Wire()), nameAndType(i)
	case *classfile.MethodHandle:
		return kind, fmt.Sprintf("%d:#%d", c.Kind, c.Reference.Wire()), ref(c.Reference)
	case *classfile.MethodType:
		return kind, fmt.Sprintf("#%d", c.Descriptor.Wire()), utf8(c.Descriptor)
	case *classfile.Dynamic:
		return kind, fmt.Sprintf("#%d:#%d", c.BootstrapMethod, c.NameAndType.Wire()), nameAndType(c.NameAndType)
	case *classfile.InvokeDynamic:
		return kind, fmt.Sprintf("#%d:#%d", c.BootstrapMethod, c.NameAndType.Wire()), nameAndType(c.NameAndType)
	case *classfile.Module:
		return kind, fmt.Sprintf("#%d", c.Name.Wire()), utf8(c.Name)
	case *classfile.Package:
		return kind, fmt.Sprintf("#%d", c.Name.Wire()), utf8(c.Name)
	}
	return kind, "", ""
}
