package protocol

// FrameType identifies the payload carried by one frame.
type FrameType uint8

const (
	TypeText       FrameType = 0x01
	TypeVoice      FrameType = 0x02
	TypeControlAck FrameType = 0x03
)

func (t FrameType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeVoice:
		return "voice"
	case TypeControlAck:
		return "control_ack"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a known frame type.
func (t FrameType) Valid() bool {
	return t == TypeText || t == TypeVoice || t == TypeControlAck
}

const (
	// SyncByte opens every frame on the wire.
	SyncByte byte = 0x7E
	// Version is the only protocol version this codec speaks.
	Version byte = 0x01

	// HeaderSize is the fixed header length: sync, version, type, flags,
	// then msg_id, chunk_idx, chunk_cnt, payload_len, checksum as
	// little-endian uint16 fields.
	HeaderSize = 14

	// FlagMoreChunks marks every chunk of a message except the last.
	FlagMoreChunks uint8 = 0x01

	// MaxPayloadSize is the largest payload one frame can declare.
	MaxPayloadSize = 0xFFFF
)

// Frame is one decoded protocol unit. Immutable once constructed.
type Frame struct {
	Type     FrameType
	Flags    uint8
	MsgID    uint16
	ChunkIdx uint16
	ChunkCnt uint16
	Payload  []byte
}

// More reports whether further chunks of the same message follow.
func (f Frame) More() bool {
	return f.Flags&FlagMoreChunks != 0
}

// WireSize returns the encoded length of f.
func (f Frame) WireSize() int {
	return HeaderSize + len(f.Payload)
}
