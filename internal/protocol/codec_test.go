package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("hello over the air")
	wire, err := Encode(TypeText, FlagMoreChunks, 0xBEEF, 2, 5, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(wire) != HeaderSize+len(payload) {
		t.Fatalf("wire size: got %d want %d", len(wire), HeaderSize+len(payload))
	}

	f, n, res := DecodeAt(wire, 0)
	if res != DecodeOK {
		t.Fatalf("decode result: %v", res)
	}
	if n != len(wire) {
		t.Fatalf("consumed: got %d want %d", n, len(wire))
	}
	if f.Type != TypeText || f.Flags != FlagMoreChunks || f.MsgID != 0xBEEF ||
		f.ChunkIdx != 2 || f.ChunkCnt != 5 {
		t.Fatalf("header mismatch: %+v", f)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
	if !f.More() {
		t.Fatalf("expected more-chunks flag set")
	}
}

func TestEncodeRoundTripEmptyPayload(t *testing.T) {
	wire, err := Encode(TypeControlAck, 0, 7, 0, 1, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, _, res := DecodeAt(wire, 0)
	if res != DecodeOK {
		t.Fatalf("decode result: %v", res)
	}
	if len(f.Payload) != 0 || f.Type != TypeControlAck {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestEncodeFrameMatchesFieldEncode(t *testing.T) {
	f := Frame{
		Type:     TypeVoice,
		Flags:    FlagMoreChunks,
		MsgID:    311,
		ChunkIdx: 1,
		ChunkCnt: 4,
		Payload:  []byte("same bytes either way"),
	}
	fromFrame, err := EncodeFrame(f)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	fromFields, err := Encode(f.Type, f.Flags, f.MsgID, f.ChunkIdx, f.ChunkCnt, f.Payload)
	if err != nil {
		t.Fatalf("encode fields: %v", err)
	}
	if !bytes.Equal(fromFrame, fromFields) {
		t.Fatalf("EncodeFrame diverged from Encode")
	}
	if len(fromFrame) != f.WireSize() {
		t.Fatalf("wire size %d, encoded %d bytes", f.WireSize(), len(fromFrame))
	}
}

func TestEncodeRejectsInvalidArgs(t *testing.T) {
	if _, err := Encode(FrameType(0x99), 0, 1, 0, 1, nil); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if _, err := Encode(TypeText, 0, 1, 0, 0, nil); !errors.Is(err, ErrInvalidChunkCnt) {
		t.Fatalf("expected ErrInvalidChunkCnt, got %v", err)
	}
	if _, err := Encode(TypeText, 0, 1, 3, 3, nil); !errors.Is(err, ErrChunkIdxRange) {
		t.Fatalf("expected ErrChunkIdxRange, got %v", err)
	}
	if _, err := Encode(TypeText, 0, 1, 0, 1, make([]byte, MaxPayloadSize+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestDecodeNeedsFullHeader(t *testing.T) {
	wire, _ := Encode(TypeText, 0, 1, 0, 1, []byte("x"))
	for cut := 0; cut < HeaderSize; cut++ {
		if _, _, res := DecodeAt(wire[:cut], 0); res != DecodeNeedMore {
			t.Fatalf("cut=%d: got %v want DecodeNeedMore", cut, res)
		}
	}
}

func TestDecodeNeedsDeclaredPayload(t *testing.T) {
	wire, _ := Encode(TypeVoice, 0, 1, 0, 1, make([]byte, 64))
	if _, _, res := DecodeAt(wire[:len(wire)-1], 0); res != DecodeNeedMore {
		t.Fatalf("truncated payload: got %v want DecodeNeedMore", res)
	}
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	wire, _ := Encode(TypeText, 0, 1, 0, 1, []byte("v"))
	wire[1] = 0x02
	if _, _, res := DecodeAt(wire, 0); res != DecodeCorrupt {
		t.Fatalf("bad version: got %v want DecodeCorrupt", res)
	}
}

func TestDecodeRejectsChecksumMismatch(t *testing.T) {
	wire, _ := Encode(TypeText, 0, 1, 0, 1, []byte("checksummed"))
	wire[HeaderSize] ^= 0x01
	if _, _, res := DecodeAt(wire, 0); res != DecodeCorrupt {
		t.Fatalf("corrupt payload: got %v want DecodeCorrupt", res)
	}
}

func TestDecodeChecksumExcludesSyncByte(t *testing.T) {
	wire, _ := Encode(TypeText, 0, 42, 0, 1, []byte("sync outside crc"))
	stored := binary.LittleEndian.Uint16(wire[offChecksum:])
	if Checksum(wire[offVersion:offChecksum], wire[HeaderSize:]) != stored {
		t.Fatalf("checksum domain should start at the version byte")
	}
}

func TestDecodeAtOffset(t *testing.T) {
	wire, _ := Encode(TypeText, 0, 9, 0, 1, []byte("offset"))
	buf := append([]byte{0x00, 0x11, 0x22}, wire...)
	f, n, res := DecodeAt(buf, 3)
	if res != DecodeOK || n != len(wire) || f.MsgID != 9 {
		t.Fatalf("decode at offset failed: res=%v n=%d f=%+v", res, n, f)
	}
}
