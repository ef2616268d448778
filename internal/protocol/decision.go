package protocol

import (
	"encoding/binary"
	"fmt"

	"solana-decision-core/internal/domain"
)

// TradeDecision is the instruction the core sends to the executor.
//
// Wire layout (52 bytes, little-endian):
//
//	[0]      tag = 1
//	[1]      version
//	[2:34]   mint
//	[34]     side (0 buy, 1 sell)
//	[35:43]  size_lamports u64
//	[43:45]  slippage_bps u16
//	[45]     confidence
//	[46]     checksum (XOR of bytes 2..46)
//	[47]     retry_count
//	[48]     entry_type (trigger pathway)
//	[49:52]  padding
type TradeDecision struct {
	Mint         domain.Address
	Side         domain.Side
	SizeLamports uint64
	SlippageBps  uint16
	Confidence   uint8
	RetryCount   uint8
	EntryType    domain.Pathway
}

// Encode serializes the decision into its fixed wire form.
func (d *TradeDecision) Encode() []byte {
	buf := make([]byte, SizeTradeDecision)
	buf[0] = TagTradeDecision
	buf[1] = Version
	copy(buf[2:34], d.Mint[:])
	buf[34] = byte(d.Side)
	binary.LittleEndian.PutUint64(buf[35:43], d.SizeLamports)
	binary.LittleEndian.PutUint16(buf[43:45], d.SlippageBps)
	buf[45] = d.Confidence
	buf[46] = checksum(buf[2:46])
	buf[47] = d.RetryCount
	buf[48] = byte(d.EntryType)
	return buf
}

// DecodeTradeDecision parses and verifies a decision packet.
func DecodeTradeDecision(buf []byte) (*TradeDecision, error) {
	if len(buf) < SizeTradeDecision {
		return nil, fmt.Errorf("trade decision: %d bytes: %w", len(buf), ErrShortPacket)
	}
	if buf[0] != TagTradeDecision {
		return nil, fmt.Errorf("trade decision: tag %d: %w", buf[0], ErrUnknownTag)
	}
	if buf[1] != Version {
		return nil, fmt.Errorf("trade decision: version %d: %w", buf[1], ErrBadVersion)
	}
	if got := checksum(buf[2:46]); got != buf[46] {
		return nil, fmt.Errorf("trade decision: checksum %#x != %#x: %w", got, buf[46], ErrBadChecksum)
	}

	d := &TradeDecision{
		Side:         domain.Side(buf[34]),
		SizeLamports: binary.LittleEndian.Uint64(buf[35:43]),
		SlippageBps:  binary.LittleEndian.Uint16(buf[43:45]),
		Confidence:   buf[45],
		RetryCount:   buf[47],
		EntryType:    domain.Pathway(buf[48]),
	}
	copy(d.Mint[:], buf[2:34])
	return d, nil
}

// checksum XORs the payload bytes. Catches single-byte corruption, which is
// all a same-host UDP hop realistically produces.
func checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum ^= b
	}
	return sum
}
