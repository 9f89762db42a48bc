package link

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmcree/airlink/internal/observability"
	"github.com/dmcree/airlink/internal/protocol"
)

const (
	// DefaultChunkSize fits comfortably inside one bridge write.
	DefaultChunkSize = 512
	// DefaultFrameDelay gives the remote side time to drain its buffer
	// between frames.
	DefaultFrameDelay = 20 * time.Millisecond
)

var (
	ErrTooManyChunks = errors.New("link: payload exceeds maximum chunk count")
	ErrChunkSize     = errors.New("link: chunk size out of range")
)

// SenderConfig tunes outbound fragmentation and pacing.
type SenderConfig struct {
	ChunkSize  int
	FrameDelay time.Duration
}

func DefaultSenderConfig() SenderConfig {
	return SenderConfig{ChunkSize: DefaultChunkSize, FrameDelay: DefaultFrameDelay}
}

// Sender splits logical messages into paced frames. One logical send runs at
// a time per connection; a second Send blocks until the first completes.
// That serialization is the backpressure mechanism, not an artifact.
type Sender struct {
	mu   sync.Mutex
	t    Transport
	cfg  SenderConfig
	conn string
	seq  atomic.Uint32
	log  zerolog.Logger

	chunksSent atomic.Uint64
	failures   atomic.Uint64
}

func NewSender(t Transport, cfg SenderConfig, conn string, logger zerolog.Logger) (*Sender, error) {
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > protocol.MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d", ErrChunkSize, cfg.ChunkSize)
	}
	return &Sender{
		t:    t,
		cfg:  cfg,
		conn: conn,
		log:  logger.With().Str("component", "sender").Str("conn", conn).Logger(),
	}, nil
}

// Send fragments payload into frames of at most ChunkSize bytes and writes
// them sequentially, pacing with FrameDelay between frames. The first write
// failure abandons the rest of the message; nothing is retried or resumed.
// Returns the msg_id assigned to the message.
func (s *Sender) Send(ctx context.Context, typ protocol.FrameType, payload []byte) (uint16, error) {
	chunkCnt := (len(payload) + s.cfg.ChunkSize - 1) / s.cfg.ChunkSize
	if chunkCnt == 0 {
		chunkCnt = 1
	}
	if chunkCnt > 0xFFFF {
		return 0, fmt.Errorf("%w: %d chunks", ErrTooManyChunks, chunkCnt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Wrapping counter; collisions across 65536 messages are tolerated
	// because the reassembler only needs uniqueness among in-flight ids.
	msgID := uint16(s.seq.Add(1))
	start := time.Now()

	for i := 0; i < chunkCnt; i++ {
		lo := i * s.cfg.ChunkSize
		hi := lo + s.cfg.ChunkSize
		if hi > len(payload) {
			hi = len(payload)
		}
		f := protocol.Frame{
			Type:     typ,
			MsgID:    msgID,
			ChunkIdx: uint16(i),
			ChunkCnt: uint16(chunkCnt),
			Payload:  payload[lo:hi],
		}
		if i < chunkCnt-1 {
			f.Flags = protocol.FlagMoreChunks
		}

		wire, err := protocol.EncodeFrame(f)
		if err != nil {
			return 0, err
		}
		if err := s.t.Write(ctx, wire); err != nil {
			s.failures.Add(1)
			observability.RecordSendFailure(s.conn)
			s.log.Warn().
				Uint16("msg_id", msgID).
				Int("chunk", i).
				Int("of", chunkCnt).
				Err(err).
				Msg("send abandoned on transport failure")
			return msgID, fmt.Errorf("link: send msg %d chunk %d/%d: %w", msgID, i, chunkCnt, err)
		}
		s.chunksSent.Add(1)
		observability.RecordChunkSent(s.conn, typ.String())

		if i < chunkCnt-1 && s.cfg.FrameDelay > 0 {
			select {
			case <-ctx.Done():
				s.failures.Add(1)
				observability.RecordSendFailure(s.conn)
				return msgID, ctx.Err()
			case <-time.After(s.cfg.FrameDelay):
			}
		}
	}

	observability.RecordSendDuration(s.conn, typ.String(), time.Since(start))
	s.log.Debug().
		Uint16("msg_id", msgID).
		Int("chunks", chunkCnt).
		Int("bytes", len(payload)).
		Msg("message sent")
	return msgID, nil
}

// ChunksSent returns the number of frames written so far.
func (s *Sender) ChunksSent() uint64 { return s.chunksSent.Load() }

// Failures returns the number of abandoned sends.
func (s *Sender) Failures() uint64 { return s.failures.Load() }
