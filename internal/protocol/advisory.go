package protocol

import (
	"encoding/binary"
	"fmt"

	"solana-decision-core/internal/domain"
)

// Advisory is a decoded producer message. Concrete types form a closed set;
// receivers switch on the type.
type Advisory interface {
	Tag() uint8
}

// RankAdvisory reports a mint ranked highly by the producer's discovery
// scan. 64 bytes:
//
//	[0] tag=15, [1] version, [2:34] mint, [34] rank, [35] score,
//	[36:40] vol_60s u32 scaled by 100, [40:42] buyers_60s u16,
//	[42:46] age_seconds u32, rest padding.
type RankAdvisory struct {
	Mint      domain.Address
	Rank      uint8
	Score     uint8
	Vol60s    float64
	Buyers60s uint16
	AgeSecs   uint32
}

func (RankAdvisory) Tag() uint8 { return TagRankOpportunity }

// MomentumAdvisory reports a short-window surge. 64 bytes:
//
//	[0] tag=16, [1] version, [2:34] mint, [34:36] vol_5s u16 scaled by
//	100, [36:38] buyers_2s u16, [38] score, rest padding.
type MomentumAdvisory struct {
	Mint     domain.Address
	Vol5s    float64
	Buyers2s uint16
	Score    uint8
}

func (MomentumAdvisory) Tag() uint8 { return TagMomentumOpportunity }

// CopyTradeAdvisory reports a buy by a tracked wallet. 80 bytes:
//
//	[0] tag=13, [1] version, [2:34] mint, [34:66] wallet,
//	[66:74] size_lamports u64, rest padding.
type CopyTradeAdvisory struct {
	Mint         domain.Address
	Wallet       domain.Address
	SizeLamports uint64
}

func (CopyTradeAdvisory) Tag() uint8 { return TagCopyTrade }

// LateAdvisory reports sustained activity on an aged mint. 56 bytes:
//
//	[0] tag=12, [1] version, [2:34] mint, [34:38] vol_60s u32 scaled by
//	100, [38:40] buyers_60s u16, [40:44] age_seconds u32, [44] score,
//	rest padding.
type LateAdvisory struct {
	Mint      domain.Address
	Vol60s    float64
	Buyers60s uint16
	AgeSecs   uint32
	Score     uint8
}

func (LateAdvisory) Tag() uint8 { return TagLateOpportunity }

// SolPriceAdvisory carries the SOL/USD rate. 32 bytes:
//
//	[0] tag=14, [1] version, [2:10] price u64 scaled by 1e9, rest padding.
type SolPriceAdvisory struct {
	PriceUSD float64
}

func (SolPriceAdvisory) Tag() uint8 { return TagSolPriceUpdate }

// WalletActivityAdvisory reports any trade by a tracked wallet, feeding the
// wallet cache between refreshes. 80 bytes:
//
//	[0] tag=23, [1] version, [2:34] wallet, [34:66] mint, [66] side,
//	[67:75] size_lamports u64, rest padding.
type WalletActivityAdvisory struct {
	Wallet       domain.Address
	Mint         domain.Address
	Side         domain.Side
	SizeLamports uint64
}

func (WalletActivityAdvisory) Tag() uint8 { return TagWalletActivity }

// DecodeAdvisory parses any producer message by its tag.
func DecodeAdvisory(buf []byte) (Advisory, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("advisory: %d bytes: %w", len(buf), ErrShortPacket)
	}

	tag := buf[0]
	size, ok := advisorySizes[tag]
	if !ok {
		return nil, fmt.Errorf("advisory: tag %d: %w", tag, ErrUnknownTag)
	}
	if len(buf) < size {
		return nil, fmt.Errorf("advisory tag %d: %d bytes, need %d: %w", tag, len(buf), size, ErrShortPacket)
	}
	if buf[1] != Version {
		return nil, fmt.Errorf("advisory tag %d: version %d: %w", tag, buf[1], ErrBadVersion)
	}

	switch tag {
	case TagRankOpportunity:
		a := RankAdvisory{
			Rank:      buf[34],
			Score:     buf[35],
			Vol60s:    float64(binary.LittleEndian.Uint32(buf[36:40])) / VolumeScale,
			Buyers60s: binary.LittleEndian.Uint16(buf[40:42]),
			AgeSecs:   binary.LittleEndian.Uint32(buf[42:46]),
		}
		copy(a.Mint[:], buf[2:34])
		return a, nil

	case TagMomentumOpportunity:
		a := MomentumAdvisory{
			Vol5s:    float64(binary.LittleEndian.Uint16(buf[34:36])) / VolumeScale,
			Buyers2s: binary.LittleEndian.Uint16(buf[36:38]),
			Score:    buf[38],
		}
		copy(a.Mint[:], buf[2:34])
		return a, nil

	case TagCopyTrade:
		a := CopyTradeAdvisory{
			SizeLamports: binary.LittleEndian.Uint64(buf[66:74]),
		}
		copy(a.Mint[:], buf[2:34])
		copy(a.Wallet[:], buf[34:66])
		return a, nil

	case TagLateOpportunity:
		a := LateAdvisory{
			Vol60s:    float64(binary.LittleEndian.Uint32(buf[34:38])) / VolumeScale,
			Buyers60s: binary.LittleEndian.Uint16(buf[38:40]),
			AgeSecs:   binary.LittleEndian.Uint32(buf[40:44]),
			Score:     buf[44],
		}
		copy(a.Mint[:], buf[2:34])
		return a, nil

	case TagSolPriceUpdate:
		return SolPriceAdvisory{
			PriceUSD: float64(binary.LittleEndian.Uint64(buf[2:10])) / PriceScale,
		}, nil

	case TagWalletActivity:
		a := WalletActivityAdvisory{
			Side:         domain.Side(buf[66]),
			SizeLamports: binary.LittleEndian.Uint64(buf[67:75]),
		}
		copy(a.Wallet[:], buf[2:34])
		copy(a.Mint[:], buf[34:66])
		return a, nil
	}

	return nil, fmt.Errorf("advisory: tag %d: %w", tag, ErrUnknownTag)
}

var advisorySizes = map[uint8]int{
	TagLateOpportunity:     SizeLateOpportunity,
	TagCopyTrade:           SizeCopyTrade,
	TagSolPriceUpdate:      SizeSolPriceUpdate,
	TagRankOpportunity:     SizeRankOpportunity,
	TagMomentumOpportunity: SizeMomentumOpportunity,
	TagWalletActivity:      SizeWalletActivity,
}

// EncodeRankAdvisory serializes a rank advisory. Producer-side encoding
// lives here so tooling and tests share one layout definition.
func EncodeRankAdvisory(a RankAdvisory) []byte {
	buf := make([]byte, SizeRankOpportunity)
	buf[0] = TagRankOpportunity
	buf[1] = Version
	copy(buf[2:34], a.Mint[:])
	buf[34] = a.Rank
	buf[35] = a.Score
	binary.LittleEndian.PutUint32(buf[36:40], uint32(a.Vol60s*VolumeScale))
	binary.LittleEndian.PutUint16(buf[40:42], a.Buyers60s)
	binary.LittleEndian.PutUint32(buf[42:46], a.AgeSecs)
	return buf
}

// EncodeMomentumAdvisory serializes a momentum advisory.
func EncodeMomentumAdvisory(a MomentumAdvisory) []byte {
	buf := make([]byte, SizeMomentumOpportunity)
	buf[0] = TagMomentumOpportunity
	buf[1] = Version
	copy(buf[2:34], a.Mint[:])
	binary.LittleEndian.PutUint16(buf[34:36], uint16(a.Vol5s*VolumeScale))
	binary.LittleEndian.PutUint16(buf[36:38], a.Buyers2s)
	buf[38] = a.Score
	return buf
}

// EncodeCopyTradeAdvisory serializes a copy-trade advisory.
func EncodeCopyTradeAdvisory(a CopyTradeAdvisory) []byte {
	buf := make([]byte, SizeCopyTrade)
	buf[0] = TagCopyTrade
	buf[1] = Version
	copy(buf[2:34], a.Mint[:])
	copy(buf[34:66], a.Wallet[:])
	binary.LittleEndian.PutUint64(buf[66:74], a.SizeLamports)
	return buf
}

// EncodeLateAdvisory serializes a late-opportunity advisory.
func EncodeLateAdvisory(a LateAdvisory) []byte {
	buf := make([]byte, SizeLateOpportunity)
	buf[0] = TagLateOpportunity
	buf[1] = Version
	copy(buf[2:34], a.Mint[:])
	binary.LittleEndian.PutUint32(buf[34:38], uint32(a.Vol60s*VolumeScale))
	binary.LittleEndian.PutUint16(buf[38:40], a.Buyers60s)
	binary.LittleEndian.PutUint32(buf[40:44], a.AgeSecs)
	buf[44] = a.Score
	return buf
}

// EncodeSolPriceAdvisory serializes a SOL price advisory.
func EncodeSolPriceAdvisory(a SolPriceAdvisory) []byte {
	buf := make([]byte, SizeSolPriceUpdate)
	buf[0] = TagSolPriceUpdate
	buf[1] = Version
	binary.LittleEndian.PutUint64(buf[2:10], uint64(a.PriceUSD*PriceScale))
	return buf
}

// EncodeWalletActivityAdvisory serializes a wallet-activity advisory.
func EncodeWalletActivityAdvisory(a WalletActivityAdvisory) []byte {
	buf := make([]byte, SizeWalletActivity)
	buf[0] = TagWalletActivity
	buf[1] = Version
	copy(buf[2:34], a.Wallet[:])
	copy(buf[34:66], a.Mint[:])
	buf[66] = byte(a.Side)
	binary.LittleEndian.PutUint64(buf[67:75], a.SizeLamports)
	return buf
}
