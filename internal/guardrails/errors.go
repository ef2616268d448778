package guardrails

import "fmt"

// Rule identifies which guardrail vetoed a trade. Values double as metric
// labels.
type Rule string

const (
	RuleLossBackoff    Rule = "loss_backoff"
	RuleMaxPositions   Rule = "max_positions"
	RuleAdvisorLimit   Rule = "advisor_limit"
	RuleAdvisorSpacing Rule = "advisor_spacing"
	RuleWalletWindow   Rule = "wallet_window"
	RuleCreatorWindow  Rule = "creator_window"
	RuleGlobalSpacing  Rule = "global_spacing"
	RuleWalletCooling  Rule = "wallet_cooling"
)

// VetoError is returned by Check when a rule blocks a trade.
type VetoError struct {
	Rule   Rule
	Detail string
}

func (e *VetoError) Error() string {
	return fmt.Sprintf("trade vetoed (%s): %s", e.Rule, e.Detail)
}

func veto(rule Rule, format string, args ...any) *VetoError {
	return &VetoError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}
