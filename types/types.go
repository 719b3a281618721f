// Package types contains the shared types for emailrule.
// This package does not import anything from other emailrule packages
// to avoid circular imports.
package types

// CheckLevel identifies a stage of the validation pipeline.
type CheckLevel = string

const (
	LevelSyntax CheckLevel = "syntax"
	LevelLookup CheckLevel = "lookup"
	LevelRules  CheckLevel = "rules"
)

// CheckResult is the outcome of a single pipeline stage.
type CheckResult struct {
	Level   CheckLevel `json:"level"`
	Passed  bool       `json:"passed"`
	Reason  Reason     `json:"reason,omitempty"`
	Details string     `json:"details,omitempty"`
}

// Reason names why an address was rejected. Empty means accepted.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonSyntax         Reason = "syntax"
	ReasonInvalid        Reason = "invalid"
	ReasonRole           Reason = "role"
	ReasonDisposable     Reason = "disposable"
	ReasonMailbox        Reason = "mailbox"
	ReasonMailboxUnknown Reason = "mailbox_unknown"
	ReasonLookupFailed   Reason = "lookup_failed"
)

// RemoteResult is a decoded answer from the address validation service.
// It is built once by a lookup client and never modified afterwards.
type RemoteResult struct {
	Address             string              `json:"address,omitempty"`
	IsValid             bool                `json:"is_valid"`
	IsRoleAddress       bool                `json:"is_role_address"`
	IsDisposableAddress bool                `json:"is_disposable_address"`
	MailboxVerification MailboxVerification `json:"mailbox_verification"`
	DidYouMean          string              `json:"did_you_mean,omitempty"`
	Reason              string              `json:"reason,omitempty"`
}
