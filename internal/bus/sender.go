package bus

import (
	"fmt"
	"net"
	"sync"

	"solana-decision-core/internal/protocol"
)

// Sender writes trade instructions to the executor's UDP socket.
type Sender struct {
	mu   sync.Mutex
	conn *net.UDPConn
}

// NewSender connects to the executor address (host:port).
func NewSender(addr string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve executor addr %s: %w", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("dial executor %s: %w", addr, err)
	}

	return &Sender{conn: conn}, nil
}

// Send encodes and transmits one instruction.
func (s *Sender) Send(d *protocol.TradeDecision) error {
	buf := d.Encode()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.conn.Write(buf); err != nil {
		return fmt.Errorf("send trade decision: %w", err)
	}
	return nil
}

// Close closes the socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
