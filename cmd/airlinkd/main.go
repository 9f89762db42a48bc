package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dmcree/airlink/internal/config"
	"github.com/dmcree/airlink/internal/diag"
	"github.com/dmcree/airlink/internal/link"
	"github.com/dmcree/airlink/internal/logging"
	"github.com/dmcree/airlink/internal/message"
	"github.com/dmcree/airlink/internal/protocol"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "airlinkd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "airlink.toml", "path to node config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := logging.ConfigureRuntime(cfg.Node)

	raw, err := net.Dial("tcp", cfg.Link.Bridge)
	if err != nil {
		return fmt.Errorf("dial serial bridge %s: %w", cfg.Link.Bridge, err)
	}

	linkCfg := link.Config{
		Label:         cfg.Node,
		ChunkSize:     cfg.Link.ChunkSize,
		FrameDelay:    cfg.Link.FrameDelay(),
		InboundQueue:  cfg.Link.InboundQueue,
		ReassemblyTTL: cfg.Link.ReassemblyTTL(),
		SweepInterval: cfg.Link.SweepInterval(),
		ReadBuffer:    4096,
	}
	conn, err := link.Open(raw, linkCfg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	codec, err := message.CBOR()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go consumeInbound(ctx, conn, codec, logger)

	server := diag.NewServer(cfg.Diag, cfg.Node, conn.Stats, logger)
	logger.Info().
		Str("bridge", cfg.Link.Bridge).
		Int("chunk_size", cfg.Link.ChunkSize).
		Msg("link up")
	return server.Run(ctx)
}

func consumeInbound(ctx context.Context, conn *link.Conn, codec message.Codec, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.Inbound():
			if !ok {
				return
			}
			logInbound(msg, codec, logger)
		}
	}
}

func logInbound(msg link.Message, codec message.Codec, logger zerolog.Logger) {
	switch msg.Type {
	case protocol.TypeText, protocol.TypeControlAck:
		env, err := message.DecodeEnvelope(codec, msg.Payload)
		if err != nil {
			logger.Warn().Uint16("msg_id", msg.MsgID).Err(err).Msg("undecodable envelope")
			return
		}
		logger.Info().
			Uint16("msg_id", msg.MsgID).
			Str("kind", string(env.Kind)).
			Str("sender", env.Sender).
			Int("bytes", len(env.Body)).
			Msg("message received")
	case protocol.TypeVoice:
		logger.Info().
			Uint16("msg_id", msg.MsgID).
			Int("bytes", len(msg.Payload)).
			Msg("voice message received")
	}
}
