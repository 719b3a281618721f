package check

import "github.com/optimode/emailrule/types"

// rule is one rejection applied to a successful lookup. A rule with an
// empty mode always applies; otherwise it applies only when its mode was
// requested.
type rule struct {
	mode    types.Mode
	reason  types.Reason
	details string
	reject  func(r types.RemoteResult) bool
}

// rules are evaluated in this order and the first rejection wins.
var rules = []rule{
	{
		reason:  types.ReasonInvalid,
		details: "remote service reports address invalid",
		reject:  func(r types.RemoteResult) bool { return !r.IsValid },
	},
	{
		mode:    types.ModeRole,
		reason:  types.ReasonRole,
		details: "role address",
		reject:  func(r types.RemoteResult) bool { return r.IsRoleAddress },
	},
	{
		mode:    types.ModeDisposable,
		reason:  types.ReasonDisposable,
		details: "disposable address",
		reject:  func(r types.RemoteResult) bool { return r.IsDisposableAddress },
	},
	{
		mode:    types.ModeMailbox,
		reason:  types.ReasonMailbox,
		details: "mailbox does not exist",
		reject:  func(r types.RemoteResult) bool { return r.MailboxVerification == types.MailboxRejected },
	},
	{
		mode:    types.ModeStrict,
		reason:  types.ReasonMailboxUnknown,
		details: "mailbox could not be verified",
		reject:  func(r types.RemoteResult) bool { return r.MailboxVerification == types.MailboxUnknown },
	},
}

// RulesChecker applies the requested modes to a remote result.
// Modes that were not requested are never checked.
type RulesChecker struct{}

func NewRulesChecker() *RulesChecker {
	return &RulesChecker{}
}

func (c *RulesChecker) Check(remote types.RemoteResult, modes types.Modes) types.CheckResult {
	for _, r := range rules {
		if r.mode != "" && !modes.Has(r.mode) {
			continue
		}
		if r.reject(remote) {
			return types.CheckResult{
				Level:   types.LevelRules,
				Passed:  false,
				Reason:  r.reason,
				Details: r.details,
			}
		}
	}
	return types.CheckResult{Level: types.LevelRules, Passed: true, Details: "rules ok"}
}
