package protocol

import (
	"encoding/binary"
	"fmt"
)

// Header field offsets. Multi-byte fields are little-endian.
const (
	offSync       = 0
	offVersion    = 1
	offType       = 2
	offFlags      = 3
	offMsgID      = 4
	offChunkIdx   = 6
	offChunkCnt   = 8
	offPayloadLen = 10
	offChecksum   = 12
)

// Encode builds the wire bytes for one frame: fixed header followed by the
// payload. The checksum covers everything from the version byte through the
// end of the payload, excluding the checksum field itself; the sync byte
// stays outside the checksum domain so a corrupted sync can be skipped
// without touching the computation.
func Encode(typ FrameType, flags uint8, msgID, chunkIdx, chunkCnt uint16, payload []byte) ([]byte, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidType, uint8(typ))
	}
	if chunkCnt == 0 {
		return nil, ErrInvalidChunkCnt
	}
	if chunkIdx >= chunkCnt {
		return nil, fmt.Errorf("%w: idx=%d cnt=%d", ErrChunkIdxRange, chunkIdx, chunkCnt)
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	buf := make([]byte, HeaderSize+len(payload))
	buf[offSync] = SyncByte
	buf[offVersion] = Version
	buf[offType] = byte(typ)
	buf[offFlags] = flags
	binary.LittleEndian.PutUint16(buf[offMsgID:], msgID)
	binary.LittleEndian.PutUint16(buf[offChunkIdx:], chunkIdx)
	binary.LittleEndian.PutUint16(buf[offChunkCnt:], chunkCnt)
	binary.LittleEndian.PutUint16(buf[offPayloadLen:], uint16(len(payload)))
	copy(buf[HeaderSize:], payload)

	crc := Checksum(buf[offVersion:offChecksum], payload)
	binary.LittleEndian.PutUint16(buf[offChecksum:], crc)
	return buf, nil
}

// EncodeFrame encodes a constructed Frame.
func EncodeFrame(f Frame) ([]byte, error) {
	return Encode(f.Type, f.Flags, f.MsgID, f.ChunkIdx, f.ChunkCnt, f.Payload)
}

// DecodeResult classifies one decode attempt at a candidate offset.
type DecodeResult int

const (
	// DecodeOK means a full, checksum-valid frame was read.
	DecodeOK DecodeResult = iota
	// DecodeNeedMore means the buffer ends before the candidate frame
	// does; the caller should wait for more bytes.
	DecodeNeedMore
	// DecodeCorrupt means the candidate is confirmed bad (wrong sync or
	// version, checksum mismatch); the caller should advance one byte.
	DecodeCorrupt
)

// DecodeAt attempts to decode one frame starting at buf[off]. On DecodeOK
// the returned int is the number of bytes the frame occupies. DecodeAt has
// no side effects; resynchronization is the caller's job.
func DecodeAt(buf []byte, off int) (Frame, int, DecodeResult) {
	if off+HeaderSize > len(buf) {
		return Frame{}, 0, DecodeNeedMore
	}
	h := buf[off:]
	if h[offSync] != SyncByte || h[offVersion] != Version {
		return Frame{}, 0, DecodeCorrupt
	}

	payloadLen := int(binary.LittleEndian.Uint16(h[offPayloadLen:]))
	total := HeaderSize + payloadLen
	if off+total > len(buf) {
		return Frame{}, 0, DecodeNeedMore
	}

	payload := h[HeaderSize:total]
	want := binary.LittleEndian.Uint16(h[offChecksum:])
	if Checksum(h[offVersion:offChecksum], payload) != want {
		return Frame{}, 0, DecodeCorrupt
	}

	f := Frame{
		Type:     FrameType(h[offType]),
		Flags:    h[offFlags],
		MsgID:    binary.LittleEndian.Uint16(h[offMsgID:]),
		ChunkIdx: binary.LittleEndian.Uint16(h[offChunkIdx:]),
		ChunkCnt: binary.LittleEndian.Uint16(h[offChunkCnt:]),
		Payload:  append([]byte(nil), payload...),
	}
	return f, total, DecodeOK
}
