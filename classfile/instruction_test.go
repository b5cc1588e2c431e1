package classfile

import (
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/wippyai/jclass/errors"
)

func TestDecodeInstructions(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want []Instruction
	}{
		{
			name: "constructor",
			code: []byte{0x2a, 0xb7, 0x00, 0x01, 0xb1},
			want: []Instruction{
				{Offset: 0, Opcode: 0x2a, Mnemonic: "aload_0", Operands: []byte{}},
				{Offset: 1, Opcode: 0xb7, Mnemonic: "invokespecial", Operands: []byte{0x00, 0x01}},
				{Offset: 4, Opcode: 0xb1, Mnemonic: "return", Operands: []byte{}},
			},
		},
		{
			name: "wide iinc",
			code: []byte{0xc4, 0x84, 0x01, 0x00, 0x00, 0x05, 0xc4, 0x15, 0x01, 0x00},
			want: []Instruction{
				{Offset: 0, Opcode: OpWide, Mnemonic: "wide", Operands: []byte{0x84, 0x01, 0x00, 0x00, 0x05}},
				{Offset: 6, Opcode: OpWide, Mnemonic: "wide", Operands: []byte{0x15, 0x01, 0x00}},
			},
		},
		{
			name: "tableswitch padding",
			code: []byte{
				0x1a, 0xaa, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x14, // default
				0x00, 0x00, 0x00, 0x01, // low
				0x00, 0x00, 0x00, 0x02, // high
				0x00, 0x00, 0x00, 0x10,
				0x00, 0x00, 0x00, 0x12,
				0xb1,
			},
			want: []Instruction{
				{Offset: 0, Opcode: 0x1a, Mnemonic: "iload_0", Operands: []byte{}},
				{Offset: 1, Opcode: OpTableswitch, Mnemonic: "tableswitch", Operands: []byte{
					0x00, 0x00,
					0x00, 0x00, 0x00, 0x14,
					0x00, 0x00, 0x00, 0x01,
					0x00, 0x00, 0x00, 0x02,
					0x00, 0x00, 0x00, 0x10,
					0x00, 0x00, 0x00, 0x12,
				}},
				{Offset: 24, Opcode: 0xb1, Mnemonic: "return", Operands: []byte{}},
			},
		},
		{
			name: "lookupswitch without padding",
			code: []byte{
				0x00, 0x00, 0x00, 0xab,
				0x00, 0x00, 0x00, 0x0c,
				0x00, 0x00, 0x00, 0x01,
				0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x08,
			},
			want: []Instruction{
				{Offset: 0, Opcode: 0x00, Mnemonic: "nop", Operands: []byte{}},
				{Offset: 1, Opcode: 0x00, Mnemonic: "nop", Operands: []byte{}},
				{Offset: 2, Opcode: 0x00, Mnemonic: "nop", Operands: []byte{}},
				{Offset: 3, Opcode: OpLookupswitch, Mnemonic: "lookupswitch", Operands: []byte{
					0x00, 0x00, 0x00, 0x0c,
					0x00, 0x00, 0x00, 0x01,
					0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x08,
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInstructions(tt.code)
			if err != nil {
				t.Fatalf("DecodeInstructions: %v", err)
			}
			if diff := pretty.Compare(tt.want, got); diff != "" {
				t.Errorf("-want/+got:\n%s", diff)
			}
		})
	}
}

func TestDecodeInstructionsErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		kind errors.Kind
		pos  int
	}{
		{"unassigned opcode", []byte{0x00, 0xcb}, errors.KindUnknownTag, 1},
		{"missing operand", []byte{0x00, 0x11, 0x01}, errors.KindTruncated, 1},
		{"wide at end", []byte{0xc4}, errors.KindTruncated, 0},
		{"switch header cut", []byte{0xaa, 0x00, 0x00, 0x00, 0x00}, errors.KindTruncated, 0},
		{"tableswitch bounds reversed", []byte{
			0xaa, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x05,
			0x00, 0x00, 0x00, 0x01,
		}, errors.KindInvalidLength, 0},
		{"lookupswitch negative pairs", []byte{
			0xab, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00,
			0xff, 0xff, 0xff, 0xff,
		}, errors.KindInvalidLength, 0},
		{"lookupswitch pairs cut", []byte{
			0xab, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x02,
			0x00, 0x00, 0x00, 0x01,
		}, errors.KindTruncated, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInstructions(tt.code)
			e := expectKind(t, err, errors.PhaseDecode, tt.kind)
			if e.Position != tt.pos {
				t.Errorf("position: got %d, want %d", e.Position, tt.pos)
			}
		})
	}
}

func TestFixtureBytecode(t *testing.T) {
	cf, err := Parse(loadFixture(t, "Fields.class"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for i := range cf.Methods {
		code := cf.Methods[i].Code()
		insns, err := DecodeInstructions(code.Code)
		if err != nil {
			t.Fatalf("method %d: %v", i, err)
		}
		end := 0
		for _, in := range insns {
			if in.Offset != end {
				t.Fatalf("method %d: instruction at %d, want %d", i, in.Offset, end)
			}
			end = in.Offset + 1 + len(in.Operands)
		}
		if end != len(code.Code) {
			t.Errorf("method %d: decoded %d of %d bytes", i, end, len(code.Code))
		}
	}

	main := cf.Methods[1].Code()
	insns, _ := DecodeInstructions(main.Code)
	var found bool
	for _, in := range insns {
		if in.Mnemonic == "ldc2_w" && strings.HasSuffix(in.String(), ": ldc2_w 00 1e") {
			found = true
		}
	}
	if !found {
		t.Error("ldc2_w #30 not found in main")
	}
}
