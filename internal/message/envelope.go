package message

import (
	"errors"
	"time"
)

type Kind string

const (
	KindText Kind = "text"
	KindAck  Kind = "ack"
)

var ErrEmptyKind = errors.New("message: empty envelope kind")

// Envelope is the structured body carried by text and control-ack frames.
type Envelope struct {
	Kind   Kind      `cbor:"kind"`
	Sender string    `cbor:"sender"`
	SentAt time.Time `cbor:"sent_at"`
	Body   []byte    `cbor:"body,omitempty"`
	AckFor uint16    `cbor:"ack_for,omitempty"`
}

// EncodeEnvelope marshals env with c after basic shape checks.
func EncodeEnvelope(c Codec, env Envelope) ([]byte, error) {
	if env.Kind == "" {
		return nil, ErrEmptyKind
	}
	return c.Marshal(env)
}

// DecodeEnvelope unmarshals one envelope from payload.
func DecodeEnvelope(c Codec, payload []byte) (Envelope, error) {
	var env Envelope
	if err := c.Unmarshal(payload, &env); err != nil {
		return Envelope{}, err
	}
	if env.Kind == "" {
		return Envelope{}, ErrEmptyKind
	}
	return env, nil
}
