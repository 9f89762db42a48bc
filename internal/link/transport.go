// Package link owns one serial connection: chunked sending, the inbound
// parse/reassemble pump, and the legacy line protocol.
package link

import (
	"context"
	"io"
)

// Transport is the outbound half of the byte channel to the radio bridge.
// Write blocks until the bridge accepts the bytes or fails; connection
// establishment and discovery live outside this module.
type Transport interface {
	Write(ctx context.Context, p []byte) error
}

// IOTransport adapts an io.ReadWriteCloser (serial passthrough, TCP bridge,
// net.Pipe in tests) to the Transport interface.
type IOTransport struct {
	rwc io.ReadWriteCloser
}

func NewIOTransport(rwc io.ReadWriteCloser) *IOTransport {
	return &IOTransport{rwc: rwc}
}

func (t *IOTransport) Write(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.rwc.Write(p)
	return err
}

func (t *IOTransport) Read(p []byte) (int, error) {
	return t.rwc.Read(p)
}

func (t *IOTransport) Close() error {
	return t.rwc.Close()
}
