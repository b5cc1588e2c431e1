package classfile

import (
	"bytes"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/jclass/classfile/internal/binary"
	"github.com/wippyai/jclass/errors"
)

// Option configures a Decoder.
type Option func(*config)

type config struct {
	logger        *zap.Logger
	rawAttributes bool
	anyMagic      bool
}

// WithLogger sets the logger for a single decode, overriding the package
// logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRawAttributes keeps every attribute as *UnknownAttribute.
func WithRawAttributes() Option {
	return func(c *config) { c.rawAttributes = true }
}

// WithAnyMagic accepts files that do not start with 0xCAFEBABE.
func WithAnyMagic() Option {
	return func(c *config) { c.anyMagic = true }
}

// Decoder reads one class file from a stream.
type Decoder struct {
	r   *binary.Reader
	log *zap.Logger
	cp  ConstantPool
	cfg config
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger
	if log == nil {
		log = Logger()
	}
	return &Decoder{r: binary.NewReader(r), log: log, cfg: cfg}
}

// Decode parses a class file from r. Bytes after the last class attribute
// are left unread.
func Decode(r io.Reader, opts ...Option) (*ClassFile, error) {
	return NewDecoder(r, opts...).Decode()
}

// Parse parses a class file held in memory. Unlike Decode it rejects
// trailing bytes, so that every accepted input re-encodes to itself.
func Parse(data []byte, opts ...Option) (*ClassFile, error) {
	br := bytes.NewReader(data)
	cf, err := Decode(br, opts...)
	if err != nil {
		return nil, err
	}
	if br.Len() != 0 {
		return nil, errors.InvalidLength(errors.PhaseDecode, "trailer", len(data)-br.Len(),
			fmt.Sprintf("%d trailing bytes after class attributes", br.Len()))
	}
	return cf, nil
}

// Decode reads the class file. A Decoder is single use.
func (d *Decoder) Decode() (*ClassFile, error) {
	r := d.r
	cf := &ClassFile{}

	var err error
	if cf.Magic, err = r.U4(); err != nil {
		return nil, d.readErr(r, "header", err)
	}
	if cf.Magic != Magic && !d.cfg.anyMagic {
		return nil, errors.InvalidMagic(cf.Magic)
	}
	if cf.MinorVersion, err = r.U2(); err != nil {
		return nil, d.readErr(r, "header", err)
	}
	if cf.MajorVersion, err = r.U2(); err != nil {
		return nil, d.readErr(r, "header", err)
	}

	if cf.ConstantPool, err = d.readConstantPool(); err != nil {
		return nil, err
	}
	d.cp = cf.ConstantPool
	d.log.Debug("constant pool decoded",
		zap.Int("slots", len(cf.ConstantPool)),
		zap.Int("offset", r.Position()))

	flags, err := r.U2()
	if err != nil {
		return nil, d.readErr(r, "class", err)
	}
	cf.AccessFlags = AccessFlags(flags)
	this, err := r.U2()
	if err != nil {
		return nil, d.readErr(r, "class", err)
	}
	cf.ThisClass = IndexFromWire(this)
	super, err := r.U2()
	if err != nil {
		return nil, d.readErr(r, "class", err)
	}
	cf.SuperClass = OptFromWire(super)

	if cf.Interfaces, err = d.readInterfaces(); err != nil {
		return nil, err
	}
	if cf.Fields, err = d.readMembers("fields"); err != nil {
		return nil, err
	}
	if cf.Methods, err = d.readMembers("methods"); err != nil {
		return nil, err
	}
	if cf.Attributes, err = d.readAttributes(r); err != nil {
		return nil, errors.Within(err, "attributes")
	}

	if ce := d.log.Check(zap.DebugLevel, "class decoded"); ce != nil {
		name, _ := cf.ClassName()
		ce.Write(
			zap.String("class", name),
			zap.Uint16("major", cf.MajorVersion),
			zap.Uint16("minor", cf.MinorVersion),
			zap.Int("fields", len(cf.Fields)),
			zap.Int("methods", len(cf.Methods)),
			zap.Int("attributes", len(cf.Attributes)),
			zap.Int("bytes", r.Position()))
	}
	return cf, nil
}

// readErr converts a primitive read failure. Running out of bytes inside an
// attribute payload means the declared length was too small, which is a
// length error rather than a truncated file.
func (d *Decoder) readErr(r *binary.Reader, section string, err error) error {
	var e *errors.Error
	if errors.As(err, &e) {
		return err
	}
	pos := r.Position()
	var pe *binary.ParseError
	if errors.As(err, &pe) {
		pos, err = pe.Position, pe.Err
	}
	if r != d.r && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
		return errors.New(errors.PhaseDecode, errors.KindInvalidLength).
			Section(section).
			Position(pos).
			Cause(err).
			Detail("payload overruns its declared length").
			Build()
	}
	return errors.Read(section, pos, err)
}

func (d *Decoder) readConstantPool() (ConstantPool, error) {
	r := d.r
	count, err := r.U2()
	if err != nil {
		return nil, d.readErr(r, "constant pool", err)
	}
	if count == 0 {
		return nil, errors.InvalidLength(errors.PhaseDecode, "constant pool", r.Position()-2,
			"constant_pool_count is 0")
	}

	cp := make(ConstantPool, count-1)
	for i := 0; i < len(cp); i++ {
		pos := r.Position()
		tag, err := r.U1()
		if err != nil {
			return nil, d.readErr(r, "constant pool", err)
		}
		c, err := d.readConstant(Tag(tag), pos, i+1)
		if err != nil {
			return nil, err
		}
		cp[i] = c
		if Tag(tag).Wide() {
			if i+1 >= len(cp) {
				return nil, errors.InvalidLength(errors.PhaseDecode, "constant pool", pos,
					fmt.Sprintf("%s in final slot #%d has no room for its second slot", Tag(tag), i+1))
			}
			i++
		}
	}
	return cp, nil
}

func (d *Decoder) readConstant(tag Tag, pos, slot int) (Constant, error) {
	r := d.r
	fail := func(err error) (Constant, error) {
		return nil, errors.Within(d.readErr(r, "constant pool", err), "constant pool", fmt.Sprintf("#%d", slot))
	}

	switch tag {
	case TagUtf8:
		n, err := r.U2()
		if err != nil {
			return fail(err)
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return fail(err)
		}
		return &Utf8{Value: string(b)}, nil
	case TagInteger:
		v, err := r.U4()
		if err != nil {
			return fail(err)
		}
		return &Integer{Value: int32(v)}, nil
	case TagFloat:
		v, err := r.U4()
		if err != nil {
			return fail(err)
		}
		return &Float{Bits: v}, nil
	case TagLong:
		v, err := r.U8()
		if err != nil {
			return fail(err)
		}
		return &Long{Value: int64(v)}, nil
	case TagDouble:
		v, err := r.U8()
		if err != nil {
			return fail(err)
		}
		return &Double{Bits: v}, nil
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		v, err := r.U2()
		if err != nil {
			return fail(err)
		}
		i := IndexFromWire(v)
		switch tag {
		case TagClass:
			return &Class{Name: i}, nil
		case TagString:
			return &String{Value: i}, nil
		case TagMethodType:
			return &MethodType{Descriptor: i}, nil
		case TagModule:
			return &Module{Name: i}, nil
		default:
			return &Package{Name: i}, nil
		}
	case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
		a, err := r.U2()
		if err != nil {
			return fail(err)
		}
		b, err := r.U2()
		if err != nil {
			return fail(err)
		}
		switch tag {
		case TagFieldref:
			return &Fieldref{Class: IndexFromWire(a), NameAndType: IndexFromWire(b)}, nil
		case TagMethodref:
			return &Methodref{Class: IndexFromWire(a), NameAndType: IndexFromWire(b)}, nil
		case TagInterfaceMethodref:
			return &InterfaceMethodref{Class: IndexFromWire(a), NameAndType: IndexFromWire(b)}, nil
		case TagNameAndType:
			return &NameAndType{Name: IndexFromWire(a), Descriptor: IndexFromWire(b)}, nil
		case TagDynamic:
			return &Dynamic{BootstrapMethod: a, NameAndType: IndexFromWire(b)}, nil
		default:
			return &InvokeDynamic{BootstrapMethod: a, NameAndType: IndexFromWire(b)}, nil
		}
	case TagMethodHandle:
		kind, err := r.U1()
		if err != nil {
			return fail(err)
		}
		ref, err := r.U2()
		if err != nil {
			return fail(err)
		}
		return &MethodHandle{Kind: kind, Reference: IndexFromWire(ref)}, nil
	default:
		return nil, errors.UnknownTag(pos, slot, uint8(tag))
	}
}

func (d *Decoder) readInterfaces() ([]uint16, error) {
	r := d.r
	count, err := r.U2()
	if err != nil {
		return nil, d.readErr(r, "interfaces", err)
	}
	interfaces := make([]uint16, count)
	for i := range interfaces {
		if interfaces[i], err = r.U2(); err != nil {
			return nil, d.readErr(r, "interfaces", err)
		}
	}
	return interfaces, nil
}

func (d *Decoder) readMembers(section string) ([]Member, error) {
	r := d.r
	count, err := r.U2()
	if err != nil {
		return nil, d.readErr(r, section, err)
	}
	members := make([]Member, count)
	for i := range members {
		if err := d.readMember(&members[i]); err != nil {
			return nil, errors.Within(err, section, fmt.Sprintf("%s[%d]", section, i))
		}
	}
	return members, nil
}

func (d *Decoder) readMember(m *Member) error {
	r := d.r
	var fields [3]uint16
	for i := range fields {
		v, err := r.U2()
		if err != nil {
			return d.readErr(r, "", err)
		}
		fields[i] = v
	}
	m.AccessFlags = AccessFlags(fields[0])
	m.Name = IndexFromWire(fields[1])
	m.Descriptor = IndexFromWire(fields[2])

	var err error
	m.Attributes, err = d.readAttributes(r)
	return err
}

// readAttributes reads a u2 count and that many attributes from r, which is
// either the top-level stream or the payload of an enclosing attribute.
func (d *Decoder) readAttributes(r *binary.Reader) ([]Attribute, error) {
	count, err := r.U2()
	if err != nil {
		return nil, d.readErr(r, "", err)
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		a, err := d.readAttribute(r)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func (d *Decoder) readAttribute(r *binary.Reader) (Attribute, error) {
	nameSlot, err := r.U2()
	if err != nil {
		return nil, d.readErr(r, "", err)
	}
	length, err := r.U4()
	if err != nil {
		return nil, d.readErr(r, "", err)
	}
	payload, err := r.Sub(int(length))
	if err != nil {
		return nil, d.readErr(r, "", err)
	}

	hdr := AttributeHeader{Name: IndexFromWire(nameSlot), Length: length}
	name := d.attributeName(hdr.Name)

	var a Attribute
	if !d.cfg.rawAttributes {
		c := &cursor{d: d, r: payload}
		a = c.attribute(name, hdr)
		if c.err != nil {
			return nil, errors.Within(c.err, "", name)
		}
	}
	if a == nil {
		data, err := payload.ReadBytes(int(length))
		if err != nil {
			return nil, d.readErr(r, "", err)
		}
		d.log.Debug("preserving opaque attribute",
			zap.String("name", name),
			zap.Uint32("length", length),
			zap.Int("offset", payload.Position()-int(length)))
		return &UnknownAttribute{AttributeHeader: hdr, Data: data}, nil
	}

	if rest := payload.Remaining(); rest != 0 {
		return nil, errors.Within(errors.InvalidLength(errors.PhaseDecode, "", payload.Position(),
			fmt.Sprintf("declared %d bytes, consumed %d", length, int(length)-rest)), "", name)
	}
	return a, nil
}

// attributeName returns the raw name an attribute is keyed by, or "" when
// the name reference does not resolve to a Utf8 entry.
func (d *Decoder) attributeName(i Index) string {
	if int(i) < len(d.cp) {
		if u, ok := d.cp[i].(*Utf8); ok {
			return u.Value
		}
	}
	return ""
}
