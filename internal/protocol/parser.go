package protocol

import (
	"github.com/rs/zerolog"
)

// ParserStats is a snapshot of stream parser counters.
type ParserStats struct {
	FramesDecoded  uint64
	BytesConsumed  uint64
	BytesSkipped   uint64
	CorruptRejects uint64
	Buffered       int
}

// StreamParser turns an arbitrarily fragmented byte stream back into frames.
// It buffers bytes across Feed calls and resynchronizes past corruption by
// advancing one byte at a time. Not safe for concurrent use; the owner must
// feed it from a single reader.
type StreamParser struct {
	buf   []byte
	log   zerolog.Logger
	stats ParserStats
}

func NewStreamParser(logger zerolog.Logger) *StreamParser {
	return &StreamParser{log: logger.With().Str("component", "stream_parser").Logger()}
}

// Feed appends chunk to the internal accumulator and returns every frame
// that can now be decoded, in stream order. Splitting a byte sequence across
// any number of Feed calls yields the same frames as feeding it whole.
func (p *StreamParser) Feed(chunk []byte) []Frame {
	p.buf = append(p.buf, chunk...)

	var frames []Frame
	i := 0
scan:
	for i < len(p.buf) {
		if p.buf[i] != SyncByte {
			i++
			p.stats.BytesSkipped++
			continue
		}
		f, n, res := DecodeAt(p.buf, i)
		switch res {
		case DecodeOK:
			frames = append(frames, f)
			i += n
			p.stats.FramesDecoded++
			p.stats.BytesConsumed += uint64(f.WireSize())
		case DecodeNeedMore:
			// Candidate may still complete; keep it buffered.
			break scan
		case DecodeCorrupt:
			p.stats.CorruptRejects++
			p.stats.BytesSkipped++
			p.log.Debug().
				Int("offset", i).
				Str("reason", "corrupt_candidate").
				Msg("resync: skipping one byte")
			i++
		}
	}

	if i > 0 {
		p.buf = append(p.buf[:0:0], p.buf[i:]...)
	}
	p.stats.Buffered = len(p.buf)
	return frames
}

// Stats returns the parser's counters.
func (p *StreamParser) Stats() ParserStats {
	p.stats.Buffered = len(p.buf)
	return p.stats
}

// Reset drops all buffered bytes, for reuse across connections.
func (p *StreamParser) Reset() {
	p.buf = nil
	p.stats.Buffered = 0
}
