package classfile

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/wippyai/jclass/errors"
)

// Instruction is one decoded bytecode instruction. Operands holds the raw
// operand bytes, including the alignment padding of switch instructions.
type Instruction struct {
	Mnemonic string
	Operands []byte
	Offset   int
	Opcode   uint8
}

// Opcodes with operand layouts that need special handling.
const (
	OpIinc         uint8 = 0x84
	OpTableswitch  uint8 = 0xaa
	OpLookupswitch uint8 = 0xab
	OpWide         uint8 = 0xc4
)

const variableOperands = -1

var mnemonics = [...]string{
	"nop", "aconst_null", "iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4", "iconst_5",
	"lconst_0", "lconst_1", "fconst_0", "fconst_1", "fconst_2", "dconst_0", "dconst_1", "bipush", "sipush",
	"ldc", "ldc_w", "ldc2_w", "iload", "lload", "fload", "dload", "aload", "iload_0", "iload_1", "iload_2",
	"iload_3", "lload_0", "lload_1", "lload_2", "lload_3", "fload_0", "fload_1", "fload_2", "fload_3",
	"dload_0", "dload_1", "dload_2", "dload_3", "aload_0", "aload_1", "aload_2", "aload_3", "iaload",
	"laload", "faload", "daload", "aaload", "baload", "caload", "saload", "istore", "lstore", "fstore",
	"dstore", "astore", "istore_0", "istore_1", "istore_2", "istore_3", "lstore_0", "lstore_1", "lstore_2",
	"lstore_3", "fstore_0", "fstore_1", "fstore_2", "fstore_3", "dstore_0", "dstore_1", "dstore_2",
	"dstore_3", "astore_0", "astore_1", "astore_2", "astore_3", "iastore", "lastore", "fastore", "dastore",
	"aastore", "bastore", "castore", "sastore", "pop", "pop2", "dup", "dup_x1", "dup_x2", "dup2", "dup2_x1",
	"dup2_x2", "swap", "iadd", "ladd", "fadd", "dadd", "isub", "lsub", "fsub", "dsub", "imul", "lmul",
	"fmul", "dmul", "idiv", "ldiv", "fdiv", "ddiv", "irem", "lrem", "frem", "drem", "ineg", "lneg", "fneg",
	"dneg", "ishl", "lshl", "ishr", "lshr", "iushr", "lushr", "iand", "land", "ior", "lor", "ixor", "lxor",
	"iinc", "i2l", "i2f", "i2d", "l2i", "l2f", "l2d", "f2i", "f2l", "f2d", "d2i", "d2l", "d2f", "i2b", "i2c",
	"i2s", "lcmp", "fcmpl", "fcmpg", "dcmpl", "dcmpg", "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle",
	"if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple", "if_acmpeq", "if_acmpne",
	"goto", "jsr", "ret", "tableswitch", "lookupswitch", "ireturn", "lreturn", "freturn", "dreturn",
	"areturn", "return", "getstatic", "putstatic", "getfield", "putfield", "invokevirtual", "invokespecial",
	"invokestatic", "invokeinterface", "invokedynamic", "new", "newarray", "anewarray", "arraylength",
	"athrow", "checkcast", "instanceof", "monitorenter", "monitorexit", "wide", "multianewarray", "ifnull",
	"ifnonnull", "goto_w", "jsr_w",
}

// operandSize returns the fixed operand byte count of op, or
// variableOperands for switches and wide.
func operandSize(op uint8) int {
	switch {
	case op == 0x10, op == 0x12, op >= 0x15 && op <= 0x19, op >= 0x36 && op <= 0x3a,
		op == 0xa9, op == 0xbc:
		return 1
	case op == 0x11, op == 0x13, op == 0x14, op == OpIinc, op >= 0x99 && op <= 0xa8,
		op >= 0xb2 && op <= 0xb8, op == 0xbb, op == 0xbd, op == 0xc0, op == 0xc1,
		op == 0xc6, op == 0xc7:
		return 2
	case op == 0xc5:
		return 3
	case op == 0xb9, op == 0xba, op == 0xc8, op == 0xc9:
		return 4
	case op == OpTableswitch, op == OpLookupswitch, op == OpWide:
		return variableOperands
	default:
		return 0
	}
}

// Mnemonic returns the name of op, or "" for unassigned opcodes.
func Mnemonic(op uint8) string {
	if int(op) < len(mnemonics) {
		return mnemonics[op]
	}
	return ""
}

// DecodeInstructions splits a Code attribute's bytecode into instructions.
// It checks only that every instruction is complete; operand values are
// not interpreted.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	var out []Instruction
	for pc := 0; pc < len(code); {
		op := code[pc]
		name := Mnemonic(op)
		if name == "" {
			return nil, errors.New(errors.PhaseDecode, errors.KindUnknownTag).
				Section("code").
				Position(pc).
				Value(op).
				Detail("unassigned opcode 0x%02x", op).
				Build()
		}

		n := operandSize(op)
		if n == variableOperands {
			var err error
			if n, err = variableSize(code, pc); err != nil {
				return nil, err
			}
		}
		end := pc + 1 + n
		if end > len(code) {
			return nil, truncatedCode(pc, name)
		}
		out = append(out, Instruction{
			Offset:   pc,
			Opcode:   op,
			Mnemonic: name,
			Operands: code[pc+1 : end],
		})
		pc = end
	}
	return out, nil
}

// variableSize computes the operand length of the switch or wide
// instruction at pc.
func variableSize(code []byte, pc int) (int, error) {
	op := code[pc]
	if op == OpWide {
		if pc+1 >= len(code) {
			return 0, truncatedCode(pc, "wide")
		}
		if code[pc+1] == OpIinc {
			return 5, nil
		}
		return 3, nil
	}

	// default, low and high for tableswitch; default and npairs for
	// lookupswitch.
	fixed := 8
	if op == OpTableswitch {
		fixed = 12
	}
	pad := (4 - (pc+1)%4) % 4
	head := pc + 1 + pad
	if head+fixed > len(code) {
		return 0, truncatedCode(pc, Mnemonic(op))
	}
	s4 := func(at int) int64 { return int64(int32(binary.BigEndian.Uint32(code[at:]))) }

	var entries int64
	if op == OpTableswitch {
		low, high := s4(head+4), s4(head+8)
		if high < low {
			return 0, errors.InvalidLength(errors.PhaseDecode, "code", pc,
				fmt.Sprintf("tableswitch high %d below low %d", high, low))
		}
		entries = (high - low + 1) * 4
	} else {
		pairs := s4(head + 4)
		if pairs < 0 {
			return 0, errors.InvalidLength(errors.PhaseDecode, "code", pc,
				fmt.Sprintf("lookupswitch with %d pairs", pairs))
		}
		entries = pairs * 8
	}
	size := int64(pad) + int64(fixed) + entries
	if int64(pc)+1+size > int64(len(code)) {
		return 0, truncatedCode(pc, Mnemonic(op))
	}
	return int(size), nil
}

func truncatedCode(pc int, name string) error {
	return errors.New(errors.PhaseDecode, errors.KindTruncated).
		Section("code").
		Position(pc).
		Detail("%s operands run past the end of the code array", name).
		Build()
}

// String formats the instruction as "offset: mnemonic operands" with
// operands in hex.
func (in Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%4d: %s", in.Offset, in.Mnemonic)
	if len(in.Operands) > 0 {
		fmt.Fprintf(&b, " % x", in.Operands)
	}
	return b.String()
}
