package domain

// Pathway identifies which trigger produced an opportunity. The byte value
// is carried on the wire in the entry_type field of trade instructions.
type Pathway uint8

const (
	PathwayRank     Pathway = 1
	PathwayMomentum Pathway = 2
	PathwayCopy     Pathway = 3
	PathwayLate     Pathway = 4
)

// String returns the pathway name used in logs and metric labels.
func (p Pathway) String() string {
	switch p {
	case PathwayRank:
		return "rank"
	case PathwayMomentum:
		return "momentum"
	case PathwayCopy:
		return "copy_trade"
	case PathwayLate:
		return "late"
	default:
		return "unknown"
	}
}

// Opportunity is a detected entry candidate. Exactly one concrete type exists
// per pathway; consumers switch on Pathway() when they need pathway fields.
type Opportunity interface {
	Pathway() Pathway
	TargetMint() Address
	// BaseSizeSOL is the pathway's starting size before confidence sizing.
	BaseSizeSOL() float64
	// Confidence is the pathway's 0-100 conviction estimate.
	Confidence() uint8
}

// RankOpportunity fires on top-ranked discovery advisories.
type RankOpportunity struct {
	Mint  Address
	Rank  uint8 // discovery rank, 1 = best
	Score uint8 // producer-side composite score
}

func (o RankOpportunity) Pathway() Pathway     { return PathwayRank }
func (o RankOpportunity) TargetMint() Address  { return o.Mint }
func (o RankOpportunity) BaseSizeSOL() float64 { return 10 }
func (o RankOpportunity) Confidence() uint8    { return o.Score }

// MomentumOpportunity fires on short-window buyer and volume surges.
type MomentumOpportunity struct {
	Mint     Address
	Vol5s    float64 // SOL volume in the last 5s
	Buyers2s uint32  // distinct buyers in the last 2s
	Score    uint8
}

func (o MomentumOpportunity) Pathway() Pathway     { return PathwayMomentum }
func (o MomentumOpportunity) TargetMint() Address  { return o.Mint }
func (o MomentumOpportunity) BaseSizeSOL() float64 { return 8 }
func (o MomentumOpportunity) Confidence() uint8    { return o.Score }

// CopyOpportunity fires when a tracked wallet with a proven record buys.
type CopyOpportunity struct {
	Mint       Address
	Wallet     Address
	WalletTier WalletTier
	WalletConf uint8   // confidence from the wallet profile
	CopiedSOL  float64 // size of the copied buy
}

func (o CopyOpportunity) Pathway() Pathway    { return PathwayCopy }
func (o CopyOpportunity) TargetMint() Address { return o.Mint }

// BaseSizeSOL scales the copied size by 1.2 to front-run slippage decay.
func (o CopyOpportunity) BaseSizeSOL() float64 { return o.CopiedSOL * 1.2 }
func (o CopyOpportunity) Confidence() uint8    { return o.WalletConf }

// LateOpportunity fires on mints that sustain volume well past launch.
type LateOpportunity struct {
	Mint       Address
	AgeSeconds uint64
	Vol60s     float64
	Buyers60s  uint32
	Score      uint8
}

func (o LateOpportunity) Pathway() Pathway     { return PathwayLate }
func (o LateOpportunity) TargetMint() Address  { return o.Mint }
func (o LateOpportunity) BaseSizeSOL() float64 { return 5 }
func (o LateOpportunity) Confidence() uint8    { return o.Score }
