package protocol

import (
	"encoding/binary"
	"fmt"

	"solana-decision-core/internal/domain"
)

// ExecutionConfirmation is the executor's report on an instruction.
//
// Wire layout (128 bytes, little-endian):
//
//	[0]       tag = 2
//	[1]       version
//	[2:34]    mint
//	[34]      side
//	[35:43]   executed size_lamports u64
//	[43:51]   executed price, u64 scaled by 1e9
//	[51:83]   tx signature
//	[83:91]   unix timestamp u64
//	[91]      success flag
//	[92:128]  padding
type ExecutionConfirmation struct {
	Mint          domain.Address
	Side          domain.Side
	SizeLamports  uint64
	PriceScaled   uint64
	TxSignature   [32]byte
	UnixTimestamp uint64
	Success       bool
}

// Price returns the executed price in SOL.
func (c *ExecutionConfirmation) Price() float64 {
	return float64(c.PriceScaled) / PriceScale
}

// Encode serializes the confirmation. Used by executor-side tooling and
// tests; the core itself only decodes.
func (c *ExecutionConfirmation) Encode() []byte {
	buf := make([]byte, SizeConfirmation)
	buf[0] = TagConfirmation
	buf[1] = Version
	copy(buf[2:34], c.Mint[:])
	buf[34] = byte(c.Side)
	binary.LittleEndian.PutUint64(buf[35:43], c.SizeLamports)
	binary.LittleEndian.PutUint64(buf[43:51], c.PriceScaled)
	copy(buf[51:83], c.TxSignature[:])
	binary.LittleEndian.PutUint64(buf[83:91], c.UnixTimestamp)
	if c.Success {
		buf[91] = 1
	}
	return buf
}

// DecodeConfirmation parses a confirmation packet.
func DecodeConfirmation(buf []byte) (*ExecutionConfirmation, error) {
	if len(buf) < SizeConfirmation {
		return nil, fmt.Errorf("confirmation: %d bytes: %w", len(buf), ErrShortPacket)
	}
	if buf[0] != TagConfirmation {
		return nil, fmt.Errorf("confirmation: tag %d: %w", buf[0], ErrUnknownTag)
	}
	if buf[1] != Version {
		return nil, fmt.Errorf("confirmation: version %d: %w", buf[1], ErrBadVersion)
	}

	c := &ExecutionConfirmation{
		Side:          domain.Side(buf[34]),
		SizeLamports:  binary.LittleEndian.Uint64(buf[35:43]),
		PriceScaled:   binary.LittleEndian.Uint64(buf[43:51]),
		UnixTimestamp: binary.LittleEndian.Uint64(buf[83:91]),
		Success:       buf[91] == 1,
	}
	copy(c.Mint[:], buf[2:34])
	copy(c.TxSignature[:], buf[51:83])
	return c, nil
}
