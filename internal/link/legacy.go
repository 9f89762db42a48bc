package link

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

// Legacy line protocol: newline-terminated UTF-8 text, with large binary
// attachments bracketed by marker lines and carried as fixed-width base64
// chunks concatenated in arrival order. No checksum, no chunk index; kept
// only for interop with the older variant of this system.
const (
	legacyVoiceStart = "<VOICE_START>"
	legacyVoiceEnd   = "<VOICE_END>"

	// LegacyChunkChars is the fixed width of one base64 line.
	LegacyChunkChars = 28
)

// EncodeLegacyText renders one outbound text line.
func EncodeLegacyText(text string) []byte {
	return []byte(text + "\n")
}

// EncodeLegacyVoice renders payload as a marker-bracketed base64 block.
func EncodeLegacyVoice(payload []byte) []byte {
	b64 := base64.StdEncoding.EncodeToString(payload)
	var sb strings.Builder
	sb.WriteString(legacyVoiceStart)
	sb.WriteByte('\n')
	for i := 0; i < len(b64); i += LegacyChunkChars {
		end := i + LegacyChunkChars
		if end > len(b64) {
			end = len(b64)
		}
		sb.WriteString(b64[i:end])
		sb.WriteByte('\n')
	}
	sb.WriteString(legacyVoiceEnd)
	sb.WriteByte('\n')
	return []byte(sb.String())
}

// LegacyEvent is one decoded item from the legacy stream.
type LegacyEvent struct {
	Text    string
	Voice   []byte
	IsVoice bool
}

// LegacyDecoder reassembles the legacy line stream from arbitrary byte
// fragments. Like the binary parser it is stateful and single-consumer.
type LegacyDecoder struct {
	pending []byte
	inVoice bool
	b64     strings.Builder
}

// Feed consumes a fragment and returns every event completed by it.
// A corrupt base64 block fails only that block; the decoder keeps going.
func (d *LegacyDecoder) Feed(chunk []byte) ([]LegacyEvent, error) {
	d.pending = append(d.pending, chunk...)

	var events []LegacyEvent
	var firstErr error
	for {
		nl := bytes.IndexByte(d.pending, '\n')
		if nl < 0 {
			break
		}
		line := strings.TrimRight(string(d.pending[:nl]), "\r")
		d.pending = append(d.pending[:0:0], d.pending[nl+1:]...)

		ev, err := d.line(line)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return events, firstErr
}

func (d *LegacyDecoder) line(line string) (*LegacyEvent, error) {
	switch {
	case line == legacyVoiceStart:
		// A second start marker abandons the previous block.
		d.inVoice = true
		d.b64.Reset()
		return nil, nil
	case line == legacyVoiceEnd && d.inVoice:
		d.inVoice = false
		raw, err := base64.StdEncoding.DecodeString(d.b64.String())
		d.b64.Reset()
		if err != nil {
			return nil, fmt.Errorf("link: legacy voice block: %w", err)
		}
		return &LegacyEvent{Voice: raw, IsVoice: true}, nil
	case d.inVoice:
		d.b64.WriteString(line)
		return nil, nil
	case line == "":
		return nil, nil
	default:
		return &LegacyEvent{Text: line}, nil
	}
}
