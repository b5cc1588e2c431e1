package classfile

import (
	"math"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/wippyai/jclass/errors"
)

func TestModifiedUtf8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		raw  []byte
	}{
		{"ascii", "abc", []byte("abc")},
		{"empty", "", []byte{}},
		{"nul", "a\x00b", []byte{'a', 0xc0, 0x80, 'b'}},
		{"two byte", "é", []byte{0xc3, 0xa9}},
		{"three byte", "€", []byte{0xe2, 0x82, 0xac}},
		{"supplementary", "😀", []byte{0xed, 0xa0, 0xbd, 0xed, 0xb8, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUtf8(tt.in)
			if u.Value != string(tt.raw) {
				t.Errorf("NewUtf8(%q) = % x, want % x", tt.in, []byte(u.Value), tt.raw)
			}
			if got := u.Decode(); got != tt.in {
				t.Errorf("Decode() = %q, want %q", got, tt.in)
			}
		})
	}
}

func TestUtf8DecodeMalformed(t *testing.T) {
	u := &Utf8{Value: string([]byte{'a', 0xff, 0xe2, 0x82})}
	if got, want := u.Decode(), "a���"; got != want {
		t.Errorf("Decode() = %q, want %q", got, want)
	}
}

func TestUtf8RawBytesRoundTrip(t *testing.T) {
	// Raw bytes that are not valid modified UTF-8 must survive encoding.
	cf, err := Parse(loadFixture(t, "Minimal.class"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cf.ConstantPool[13] = &Utf8{Value: string([]byte{0xff, 0x00, 0xc0})}

	data, err := cf.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := pretty.Compare(cf.ConstantPool[13], got.ConstantPool[13]); diff != "" {
		t.Errorf("raw Utf8: -want/+got:\n%s", diff)
	}
}

func TestFloatValues(t *testing.T) {
	f := &Float{Bits: math.Float32bits(1.5)}
	if f.Value() != 1.5 {
		t.Errorf("Float.Value() = %v", f.Value())
	}
	d := &Double{Bits: math.Float64bits(-0.25)}
	if d.Value() != -0.25 {
		t.Errorf("Double.Value() = %v", d.Value())
	}
}

func TestConstantPoolLookup(t *testing.T) {
	cf, err := Parse(loadFixture(t, "Minimal.class"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cp := cf.ConstantPool

	class, name, desc, err := cp.MemberRef(0)
	if err != nil {
		t.Fatalf("MemberRef(#1): %v", err)
	}
	if class != "java/lang/Object" || name != "<init>" || desc != "()V" {
		t.Errorf("MemberRef(#1) = %s %s %s", class, name, desc)
	}

	if i, ok := cp.Find("Code"); !ok || i != 8 {
		t.Errorf("Find(Code) = %d, %v", i, ok)
	}
	if _, ok := cp.Find("absent"); ok {
		t.Error("Find(absent) succeeded")
	}

	tests := []struct {
		name   string
		lookup func() error
		kind   errors.Kind
	}{
		{"out of bounds", func() error { _, err := cp.Get(14); return err }, errors.KindOutOfBounds},
		{"sentinel", func() error { _, err := cp.Get(IndexFromWire(0)); return err }, errors.KindOutOfBounds},
		{"wrong tag", func() error { _, err := cp.Utf8(0); return err }, errors.KindInvalidReference},
		{"class of utf8", func() error { _, err := cp.ClassName(3); return err }, errors.KindInvalidReference},
		{"member of class", func() error { _, _, _, err := cp.MemberRef(1); return err }, errors.KindInvalidReference},
		{"name and type of utf8", func() error { _, _, err := cp.NameAndType(4); return err }, errors.KindInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectKind(t, tt.lookup(), errors.PhaseLookup, tt.kind)
		})
	}
}

func TestTagString(t *testing.T) {
	if got := TagInvokeDynamic.String(); got != "InvokeDynamic" {
		t.Errorf("got %q", got)
	}
	if got := Tag(2).String(); got != "Tag(2)" {
		t.Errorf("got %q", got)
	}
	if !TagDouble.Wide() || TagInteger.Wide() {
		t.Error("Wide() misreports")
	}
}

func TestAccessFlagsStrings(t *testing.T) {
	tests := []struct {
		flags  AccessFlags
		target FlagTarget
		want   []string
	}{
		{0x0021, TargetClass, []string{"ACC_PUBLIC", "ACC_SUPER"}},
		{0x0009, TargetMethod, []string{"ACC_PUBLIC", "ACC_STATIC"}},
		{0x0040, TargetField, []string{"ACC_VOLATILE"}},
		{0x0040, TargetMethod, []string{"ACC_BRIDGE"}},
		{0x8000, TargetModule, []string{"ACC_MANDATED"}},
		{0x8010, TargetParameter, []string{"ACC_FINAL", "ACC_MANDATED"}},
		{0x0101, TargetField, []string{"ACC_PUBLIC", "0x0100"}},
		{0, TargetClass, nil},
	}
	for _, tt := range tests {
		got := tt.flags.Strings(tt.target)
		if diff := pretty.Compare(tt.want, got); diff != "" {
			t.Errorf("0x%04x: -want/+got:\n%s", uint16(tt.flags), diff)
		}
	}
}
