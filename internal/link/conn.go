package link

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmcree/airlink/internal/observability"
	"github.com/dmcree/airlink/internal/protocol"
	"github.com/dmcree/airlink/internal/protocol/reassembly"
)

// Config tunes one connection context.
type Config struct {
	// Label names the connection in logs and metrics.
	Label string
	// ChunkSize and FrameDelay feed the sender.
	ChunkSize  int
	FrameDelay time.Duration
	// InboundQueue bounds the delivery channel. When it is full the
	// oldest undelivered message is dropped to admit the new one.
	InboundQueue int
	// ReassemblyTTL evicts partial messages older than this; the wire
	// protocol cannot resume them.
	ReassemblyTTL time.Duration
	// SweepInterval is how often stale partials are checked.
	SweepInterval time.Duration
	// ReadBuffer sizes the reader's scratch buffer.
	ReadBuffer int
}

func DefaultConfig() Config {
	return Config{
		Label:         "link",
		ChunkSize:     DefaultChunkSize,
		FrameDelay:    DefaultFrameDelay,
		InboundQueue:  32,
		ReassemblyTTL: 30 * time.Second,
		SweepInterval: 5 * time.Second,
		ReadBuffer:    4096,
	}
}

// Message is one fully reassembled inbound payload.
type Message struct {
	Type    protocol.FrameType
	MsgID   uint16
	Payload []byte
}

// Stats is a fixed-shape snapshot of connection counters.
type Stats struct {
	FramesDecoded       uint64 `json:"frames_decoded"`
	BytesSkipped        uint64 `json:"bytes_skipped"`
	CorruptRejects      uint64 `json:"corrupt_rejects"`
	MessagesCompleted   uint64 `json:"messages_completed"`
	MessagesDropped     uint64 `json:"messages_dropped"`
	PendingReassemblies int    `json:"pending_reassemblies"`
	ChunksSent          uint64 `json:"chunks_sent"`
	SendFailures        uint64 `json:"send_failures"`
}

// Conn owns the full lifecycle of one serial link: a single reader goroutine
// feeds the stream parser, completed messages reach the consumer through a
// bounded channel, and a sweep goroutine evicts abandoned reassembly state.
// The consumer of Inbound is single; fan-out is the consumer's business.
type Conn struct {
	cfg       Config
	transport *IOTransport
	sender    *Sender
	asm       *reassembly.Reassembler
	log       zerolog.Logger

	pmu    sync.Mutex // guards parser and its stats snapshot
	parser *protocol.StreamParser

	inbound   chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	dropped   atomic.Uint64
	prevStats protocol.ParserStats
}

// Open wires a connection over rwc and starts its goroutines. The caller
// must Close it.
func Open(rwc io.ReadWriteCloser, cfg Config, logger zerolog.Logger) (*Conn, error) {
	log := logger.With().Str("conn", cfg.Label).Logger()
	transport := NewIOTransport(rwc)
	sender, err := NewSender(transport, SenderConfig{ChunkSize: cfg.ChunkSize, FrameDelay: cfg.FrameDelay}, cfg.Label, log)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		cfg:       cfg,
		transport: transport,
		sender:    sender,
		asm:       reassembly.New(log),
		parser:    protocol.NewStreamParser(log),
		log:       log,
		inbound:   make(chan Message, cfg.InboundQueue),
		done:      make(chan struct{}),
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.sweepLoop()
	return c, nil
}

// Inbound delivers completed messages in completion order.
func (c *Conn) Inbound() <-chan Message {
	return c.inbound
}

// Send fragments and transmits one logical message, blocking until any
// in-flight send finishes first.
func (c *Conn) Send(ctx context.Context, typ protocol.FrameType, payload []byte) (uint16, error) {
	return c.sender.Send(ctx, typ, payload)
}

// Stats returns a snapshot of the connection counters.
func (c *Conn) Stats() Stats {
	c.pmu.Lock()
	ps := c.parser.Stats()
	c.pmu.Unlock()
	return Stats{
		FramesDecoded:       ps.FramesDecoded,
		BytesSkipped:        ps.BytesSkipped,
		CorruptRejects:      ps.CorruptRejects,
		MessagesCompleted:   c.asm.Completed(),
		MessagesDropped:     c.dropped.Load(),
		PendingReassemblies: c.asm.Pending(),
		ChunksSent:          c.sender.ChunksSent(),
		SendFailures:        c.sender.Failures(),
	}
}

// Close tears the connection down: the transport is closed, both goroutines
// drain, and the inbound channel is closed. Reassembly state accumulated on
// the peer for our in-flight sends is their sweep's problem.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.transport.Close()
		c.wg.Wait()
		close(c.inbound)
	})
	return c.closeErr
}

func (c *Conn) readLoop() {
	defer c.wg.Done()
	buf := make([]byte, c.cfg.ReadBuffer)
	for {
		n, err := c.transport.Read(buf)
		if n > 0 {
			c.pmu.Lock()
			frames := c.parser.Feed(buf[:n])
			ps := c.parser.Stats()
			c.pmu.Unlock()
			c.recordParserDeltas(ps)
			for _, f := range frames {
				c.handleFrame(f)
			}
		}
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn().Err(err).Msg("inbound stream ended")
			}
			return
		}
	}
}

func (c *Conn) recordParserDeltas(ps protocol.ParserStats) {
	skipped := ps.BytesSkipped - c.prevStats.BytesSkipped
	corrupt := ps.CorruptRejects - c.prevStats.CorruptRejects
	if skipped > 0 || corrupt > 0 {
		observability.RecordResync(c.cfg.Label, skipped, corrupt)
	}
	c.prevStats = ps
}

func (c *Conn) handleFrame(f protocol.Frame) {
	observability.RecordFrameDecoded(c.cfg.Label, f.Type.String())
	payload, done := c.asm.OnChunk(f)
	observability.SetPendingReassemblies(c.cfg.Label, c.asm.Pending())
	if !done {
		return
	}
	observability.RecordMessageCompleted(c.cfg.Label, f.Type.String())
	c.deliver(Message{Type: f.Type, MsgID: f.MsgID, Payload: payload})
}

// deliver enqueues msg, dropping the oldest queued message when the
// consumer lags. The read loop is the only producer, so the loop below
// always terminates.
func (c *Conn) deliver(msg Message) {
	for {
		select {
		case c.inbound <- msg:
			return
		default:
		}
		select {
		case <-c.inbound:
			c.dropped.Add(1)
			observability.RecordInboundDropped(c.cfg.Label)
			c.log.Warn().Msg("inbound queue full, dropping oldest message")
		default:
		}
	}
}

func (c *Conn) sweepLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if n := c.asm.Sweep(c.cfg.ReassemblyTTL); n > 0 {
				c.log.Info().Int("evicted", n).Msg("swept stale reassembly state")
			}
			observability.SetPendingReassemblies(c.cfg.Label, c.asm.Pending())
		}
	}
}
