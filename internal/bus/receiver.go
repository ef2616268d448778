package bus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"solana-decision-core/internal/protocol"
)

// maxPacket is larger than any protocol message; oversized datagrams are
// truncated and fail decoding.
const maxPacket = 512

// DecodeErrorKind classifies receive-side decode failures for metrics.
func DecodeErrorKind(err error) string {
	switch {
	case errors.Is(err, protocol.ErrShortPacket):
		return "short_packet"
	case errors.Is(err, protocol.ErrBadVersion):
		return "bad_version"
	case errors.Is(err, protocol.ErrBadChecksum):
		return "bad_checksum"
	case errors.Is(err, protocol.ErrUnknownTag):
		return "unknown_tag"
	default:
		return "other"
	}
}

// AdvisoryHandler consumes decoded producer messages.
type AdvisoryHandler func(protocol.Advisory)

// ConfirmationHandler consumes decoded executor confirmations.
type ConfirmationHandler func(*protocol.ExecutionConfirmation)

// Receiver owns one UDP socket and its read loop.
type Receiver struct {
	conn *net.UDPConn
	// onDecodeError is called with the error kind label for each packet
	// that fails to decode.
	onDecodeError func(kind string)
}

// NewReceiver binds a UDP socket on addr (host:port).
func NewReceiver(addr string) (*Receiver, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen addr %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", addr, err)
	}

	return &Receiver{
		conn:          conn,
		onDecodeError: func(string) {},
	}, nil
}

// OnDecodeError registers a metrics hook for decode failures.
func (r *Receiver) OnDecodeError(fn func(kind string)) {
	if fn != nil {
		r.onDecodeError = fn
	}
}

// LocalAddr returns the bound address, useful with port 0 in tests.
func (r *Receiver) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// Close unblocks the read loop and closes the socket.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

// RunAdvisories reads producer packets until ctx is cancelled. Decode
// failures are counted and logged, never fatal.
func (r *Receiver) RunAdvisories(ctx context.Context, handle AdvisoryHandler) {
	r.run(ctx, func(buf []byte) {
		advisory, err := protocol.DecodeAdvisory(buf)
		if err != nil {
			r.onDecodeError(DecodeErrorKind(err))
			log.Debug().Err(err).Int("bytes", len(buf)).Msg("dropped advisory packet")
			return
		}
		handle(advisory)
	})
}

// RunConfirmations reads executor packets until ctx is cancelled.
func (r *Receiver) RunConfirmations(ctx context.Context, handle ConfirmationHandler) {
	r.run(ctx, func(buf []byte) {
		conf, err := protocol.DecodeConfirmation(buf)
		if err != nil {
			r.onDecodeError(DecodeErrorKind(err))
			log.Debug().Err(err).Int("bytes", len(buf)).Msg("dropped confirmation packet")
			return
		}
		handle(conf)
	})
}

func (r *Receiver) run(ctx context.Context, handle func([]byte)) {
	// Closing the socket on cancel unblocks ReadFromUDP.
	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	buf := make([]byte, maxPacket)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn().Err(err).Msg("udp read error")
			// Transient errors back off briefly instead of spinning.
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		packet := make([]byte, n)
		copy(packet, buf[:n])
		handle(packet)
	}
}
