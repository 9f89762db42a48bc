package message

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	c, err := CBOR()
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	in := Envelope{
		Kind:   KindText,
		Sender: "field-unit-7",
		SentAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Body:   []byte("rendezvous at grid 41"),
	}
	raw, err := EncodeEnvelope(c, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeEnvelope(c, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Kind != in.Kind || out.Sender != in.Sender || !out.SentAt.Equal(in.SentAt) {
		t.Fatalf("envelope mismatch: %+v", out)
	}
	if !bytes.Equal(out.Body, in.Body) {
		t.Fatalf("body mismatch")
	}
}

func TestEncodeEnvelopeRejectsEmptyKind(t *testing.T) {
	c, _ := CBOR()
	if _, err := EncodeEnvelope(c, Envelope{Sender: "x"}); !errors.Is(err, ErrEmptyKind) {
		t.Fatalf("expected ErrEmptyKind, got %v", err)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	c, _ := CBOR()
	env := Envelope{Kind: KindAck, Sender: "base", SentAt: time.Unix(1700000000, 0).UTC(), AckFor: 99}
	a, err := EncodeEnvelope(c, env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, _ := EncodeEnvelope(c, env)
	if !bytes.Equal(a, b) {
		t.Fatalf("canonical encoding not stable")
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	c, _ := CBOR()
	if _, err := DecodeEnvelope(c, []byte{0xFF, 0x00, 0x13}); err == nil {
		t.Fatalf("expected decode error for garbage input")
	}
}
