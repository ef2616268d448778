// Package protocol implements the fixed-size little-endian UDP wire format
// spoken between the producer, the decision core and the executor. Every
// message starts with a one-byte type tag and a one-byte protocol version.
package protocol

// Version is the only protocol version this build speaks.
const Version = 1

// Message type tags.
const (
	TagTradeDecision uint8 = 1
	TagConfirmation  uint8 = 2

	TagLateOpportunity     uint8 = 12
	TagCopyTrade           uint8 = 13
	TagSolPriceUpdate      uint8 = 14
	TagRankOpportunity     uint8 = 15
	TagMomentumOpportunity uint8 = 16
	TagWalletActivity      uint8 = 23
)

// Fixed packet sizes in bytes.
const (
	SizeTradeDecision = 52
	SizeConfirmation  = 128

	SizeLateOpportunity     = 56
	SizeCopyTrade           = 80
	SizeSolPriceUpdate      = 32
	SizeRankOpportunity     = 64
	SizeMomentumOpportunity = 64
	SizeWalletActivity      = 80
)

// PriceScale converts between float prices and their u64 wire form.
const PriceScale = 1_000_000_000

// VolumeScale converts between SOL volumes and their scaled wire form.
const VolumeScale = 100
