package link

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmcree/airlink/internal/protocol"
	"github.com/dmcree/airlink/internal/testutil/testlog"
)

func pipePair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	cfg := DefaultConfig()
	cfg.FrameDelay = 0
	cfg.SweepInterval = time.Hour

	cfgA := cfg
	cfgA.Label = "peer-a"
	cfgB := cfg
	cfgB.Label = "peer-b"

	connA, err := Open(a, cfgA, zerolog.Nop())
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	connB, err := Open(b, cfgB, zerolog.Nop())
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	t.Cleanup(func() {
		connA.Close()
		connB.Close()
	})
	return connA, connB
}

func waitMessage(t *testing.T, c *Conn) Message {
	t.Helper()
	select {
	case msg, ok := <-c.Inbound():
		if !ok {
			t.Fatalf("inbound channel closed")
		}
		return msg
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for inbound message")
		return Message{}
	}
}

func TestConnTextRoundTrip(t *testing.T) {
	testlog.Start(t)
	a, b := pipePair(t)

	msgID, err := a.Send(context.Background(), protocol.TypeText, []byte("over the hill"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	got := waitMessage(t, b)
	if got.Type != protocol.TypeText || got.MsgID != msgID {
		t.Fatalf("wrong message: %+v", got)
	}
	if string(got.Payload) != "over the hill" {
		t.Fatalf("payload: %q", got.Payload)
	}
}

func TestConnChunkedVoiceRoundTrip(t *testing.T) {
	testlog.Start(t)
	a, b := pipePair(t)

	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	if _, err := a.Send(context.Background(), protocol.TypeVoice, payload); err != nil {
		t.Fatalf("send: %v", err)
	}
	got := waitMessage(t, b)
	if got.Type != protocol.TypeVoice {
		t.Fatalf("wrong type: %v", got.Type)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Fatalf("voice payload corrupted in transit")
	}

	stats := b.Stats()
	if stats.FramesDecoded < 6 {
		t.Fatalf("frames decoded: %d, want >= 6", stats.FramesDecoded)
	}
	if stats.MessagesCompleted != 1 {
		t.Fatalf("messages completed: %d", stats.MessagesCompleted)
	}
	if stats.PendingReassemblies != 0 {
		t.Fatalf("pending reassemblies left: %d", stats.PendingReassemblies)
	}
}

func TestConnBothDirections(t *testing.T) {
	testlog.Start(t)
	a, b := pipePair(t)

	if _, err := a.Send(context.Background(), protocol.TypeText, []byte("ping")); err != nil {
		t.Fatalf("a send: %v", err)
	}
	if got := waitMessage(t, b); string(got.Payload) != "ping" {
		t.Fatalf("b received %q", got.Payload)
	}
	if _, err := b.Send(context.Background(), protocol.TypeControlAck, []byte("pong")); err != nil {
		t.Fatalf("b send: %v", err)
	}
	if got := waitMessage(t, a); got.Type != protocol.TypeControlAck {
		t.Fatalf("a received %+v", got)
	}
}

func TestConnCloseAbortsSendAndInbound(t *testing.T) {
	testlog.Start(t)
	a, b := pipePair(t)

	if err := b.Close(); err != nil {
		t.Fatalf("close b: %v", err)
	}
	// The peer end is gone; writes must fail rather than hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := a.Send(ctx, protocol.TypeText, []byte("into the void")); err == nil {
		t.Fatalf("send to closed peer succeeded")
	}

	a.Close()
	if _, ok := <-a.Inbound(); ok {
		// Drain until close; a closed conn ends its inbound stream.
		for range a.Inbound() {
		}
	}
}

func TestConnSendAfterCancelledContext(t *testing.T) {
	a, _ := pipePair(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Send(ctx, protocol.TypeText, []byte("late")); err == nil {
		t.Fatalf("send with cancelled context succeeded")
	}
}
