package classfile

// StackMapTable holds the verifier frames of a Code attribute.
type StackMapTable struct {
	AttributeHeader
	Frames []StackMapFrame
}

// Frame type ranges. The frame kind is implied by Type.
const (
	FrameSameMax              uint8 = 63
	FrameSameLocals1StackMax  uint8 = 127
	FrameSameLocals1StackExt  uint8 = 247
	FrameChopMin              uint8 = 248
	FrameChopMax              uint8 = 250
	FrameSameExtended         uint8 = 251
	FrameAppendMin            uint8 = 252
	FrameAppendMax            uint8 = 254
	FrameFull                 uint8 = 255
	frameReservedMin          uint8 = 128
	frameReservedMax          uint8 = 246
	frameAppendLocalsBaseline uint8 = 251
)

// StackMapFrame is one frame in delta form.
//
// For same frames (0-63) and same_locals_1_stack_item frames (64-127) the
// offset delta is implied by Type and OffsetDelta mirrors it. Stack holds
// the single item of same_locals_1_stack_item frames. Locals holds the
// appended locals of append frames. Full frames use both.
type StackMapFrame struct {
	Locals      []VerificationType
	Stack       []VerificationType
	OffsetDelta uint16
	Type        uint8
}

// Verification type tags.
const (
	VerifyTop               uint8 = 0
	VerifyInteger           uint8 = 1
	VerifyFloat             uint8 = 2
	VerifyDouble            uint8 = 3
	VerifyLong              uint8 = 4
	VerifyNull              uint8 = 5
	VerifyUninitializedThis uint8 = 6
	VerifyObject            uint8 = 7
	VerifyUninitialized     uint8 = 8
)

// VerificationType is a verifier type. Class is set for Object, Offset for
// Uninitialized (the offset of the allocating new instruction).
type VerificationType struct {
	Tag    uint8
	Class  Index
	Offset uint16
}

// Kind names the frame form.
func (f *StackMapFrame) Kind() string {
	switch t := f.Type; {
	case t <= FrameSameMax:
		return "same"
	case t <= FrameSameLocals1StackMax:
		return "same_locals_1_stack_item"
	case t < FrameSameLocals1StackExt:
		return "reserved"
	case t == FrameSameLocals1StackExt:
		return "same_locals_1_stack_item_extended"
	case t <= FrameChopMax:
		return "chop"
	case t == FrameSameExtended:
		return "same_extended"
	case t <= FrameAppendMax:
		return "append"
	default:
		return "full"
	}
}

func (*StackMapTable) attribute() {}
