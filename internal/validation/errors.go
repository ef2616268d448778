package validation

import "fmt"

// RejectReason identifies which gate check failed. Values double as metric
// labels.
type RejectReason string

const (
	ReasonFeeFloor         RejectReason = "fee_floor"
	ReasonImpactCap        RejectReason = "impact_cap"
	ReasonScoreFloor       RejectReason = "score_floor"
	ReasonCreatorBlacklist RejectReason = "creator_blacklist"
	ReasonWashTrading      RejectReason = "wash_trading"
	ReasonBuySellRatio     RejectReason = "buy_sell_ratio"
	ReasonWeakDemand       RejectReason = "weak_demand"
	ReasonDustPrice        RejectReason = "dust_price"
)

// RejectionError is returned by Validate when a check fails.
type RejectionError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("trade rejected (%s): %s", e.Reason, e.Detail)
}

func reject(reason RejectReason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
