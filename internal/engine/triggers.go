// Package engine runs the decision pipeline: advisories in, validated and
// sized trade instructions out, confirmations folded back into position
// state. The pipeline runs on the advisory receive goroutine so there is
// no handoff between decode and send.
package engine

import (
	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/protocol"
)

// TriggerConfig holds the entry thresholds for the four pathways.
type TriggerConfig struct {
	// Rank pathway: discovery rank at or under MaxRank with a producer
	// score at or above RankMinScore.
	MaxRank      uint8
	RankMinScore uint8

	// Momentum pathway: short-window surge.
	MomentumMinBuyers2s uint32
	MomentumMinVol5s    float64
	MomentumMinScore    uint8

	// Copy pathway: proven wallet bought with real size.
	CopyMinTier       domain.WalletTier
	CopyMinConfidence uint8
	CopyMinSOL        float64

	// Late pathway: sustained activity on an aged mint.
	LateMinAgeSecs   uint64
	LateMinVol60s    float64
	LateMinBuyers60s uint32
	LateMinScore     uint8
}

// DefaultTriggerConfig returns production thresholds.
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		MaxRank:             2,
		RankMinScore:        60,
		MomentumMinBuyers2s: 5,
		MomentumMinVol5s:    8.0,
		MomentumMinScore:    60,
		CopyMinTier:         domain.TierC,
		CopyMinConfidence:   75,
		CopyMinSOL:          0.25,
		LateMinAgeSecs:      1200,
		LateMinVol60s:       35,
		LateMinBuyers60s:    40,
		LateMinScore:        70,
	}
}

// Detector evaluates an advisory plus cache state against the pathway
// thresholds. At most one trigger fires, first match in the fixed order
// Rank, Momentum, Copy, Late.
type Detector struct {
	config TriggerConfig
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(config TriggerConfig) *Detector {
	return &Detector{config: config}
}

// Detect returns the opportunity the advisory triggers, if any. feats is
// the cached state for the advisory's mint after patching; wallet is the
// tracked-wallet profile and is non-nil only for copy-trade advisories.
func (d *Detector) Detect(adv protocol.Advisory, feats *domain.MintFeatures, wallet *domain.WalletFeatures) (domain.Opportunity, bool) {
	score, scored := advisoryScore(adv)

	// 1. Rank: only a rank advisory carries a discovery rank.
	if ra, ok := adv.(protocol.RankAdvisory); ok {
		if ra.Rank > 0 && ra.Rank <= d.config.MaxRank && ra.Score >= d.config.RankMinScore {
			return domain.RankOpportunity{Mint: ra.Mint, Rank: ra.Rank, Score: ra.Score}, true
		}
	}

	// 2. Momentum: short-window surge, judged on patched cache state so a
	// rank advisory on an already-surging mint can still enter here.
	if scored && score >= d.config.MomentumMinScore &&
		feats.Buyers2s >= d.config.MomentumMinBuyers2s &&
		feats.Vol5s >= d.config.MomentumMinVol5s {
		return domain.MomentumOpportunity{
			Mint:     feats.Mint,
			Vol5s:    feats.Vol5s,
			Buyers2s: feats.Buyers2s,
			Score:    score,
		}, true
	}

	// 3. Copy: a proven wallet bought with real size.
	if ca, ok := adv.(protocol.CopyTradeAdvisory); ok && wallet != nil {
		copiedSOL := domain.LamportsToSOL(ca.SizeLamports)
		conf := wallet.Confidence()
		if wallet.Tier >= d.config.CopyMinTier &&
			conf >= d.config.CopyMinConfidence &&
			copiedSOL >= d.config.CopyMinSOL {
			return domain.CopyOpportunity{
				Mint:       ca.Mint,
				Wallet:     ca.Wallet,
				WalletTier: wallet.Tier,
				WalletConf: conf,
				CopiedSOL:  copiedSOL,
			}, true
		}
	}

	// 4. Late: the mint aged out of the launch window but keeps pulling
	// volume and buyers.
	if scored && score >= d.config.LateMinScore &&
		feats.AgeSeconds > d.config.LateMinAgeSecs &&
		feats.Vol60s >= d.config.LateMinVol60s &&
		feats.Buyers60s >= d.config.LateMinBuyers60s {
		return domain.LateOpportunity{
			Mint:       feats.Mint,
			AgeSeconds: feats.AgeSeconds,
			Vol60s:     feats.Vol60s,
			Buyers60s:  feats.Buyers60s,
			Score:      score,
		}, true
	}

	return nil, false
}

// advisoryScore extracts the producer-side score carried by an advisory.
// Copy-trade and wallet-activity advisories carry none.
func advisoryScore(adv protocol.Advisory) (uint8, bool) {
	switch a := adv.(type) {
	case protocol.RankAdvisory:
		return a.Score, true
	case protocol.MomentumAdvisory:
		return a.Score, true
	case protocol.LateAdvisory:
		return a.Score, true
	}
	return 0, false
}
