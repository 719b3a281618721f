// Package emailrule is an email validation rule that combines a local
// syntax check with a remote address lookup (Mailgun address validation by
// default) and degrades gracefully when the lookup is unavailable.
//
// Basic usage:
//
//	client, err := mailgun.New(mailgun.Options{APIKey: key})
//	v := emailrule.New(client)
//	ok := v.Validate(ctx, "user@example.com", emailrule.NewModes(emailrule.ModeRole))
//
// As a form rule with loosely typed parameters:
//
//	ok := v.Rule(ctx, "email", value, []string{"role", "disposable", "mailbox"})
package emailrule

import "github.com/optimode/emailrule/types"

// Re-exports from the types package so that consumers
// don't need to import it directly.
type (
	CheckResult         = types.CheckResult
	CheckLevel          = types.CheckLevel
	Mode                = types.Mode
	Modes               = types.Modes
	Reason              = types.Reason
	RemoteResult        = types.RemoteResult
	MailboxVerification = types.MailboxVerification
)

const (
	LevelSyntax = types.LevelSyntax
	LevelLookup = types.LevelLookup
	LevelRules  = types.LevelRules

	ModeRole       = types.ModeRole
	ModeDisposable = types.ModeDisposable
	ModeMailbox    = types.ModeMailbox
	ModeStrict     = types.ModeStrict
	ModeAPI        = types.ModeAPI

	MailboxNotChecked = types.MailboxNotChecked
	MailboxUnknown    = types.MailboxUnknown
	MailboxVerified   = types.MailboxVerified
	MailboxRejected   = types.MailboxRejected

	ReasonSyntax         = types.ReasonSyntax
	ReasonInvalid        = types.ReasonInvalid
	ReasonRole           = types.ReasonRole
	ReasonDisposable     = types.ReasonDisposable
	ReasonMailbox        = types.ReasonMailbox
	ReasonMailboxUnknown = types.ReasonMailboxUnknown
	ReasonLookupFailed   = types.ReasonLookupFailed
)

// NewModes builds a mode set.
func NewModes(modes ...Mode) Modes { return types.NewModes(modes...) }

// ParseModes normalises rule parameters into a mode set.
func ParseModes(tokens []string) Modes { return types.ParseModes(tokens) }
