package emailrule

import (
	"context"
	"strings"
)

// RuleName is the name the rule is registered under in form validators.
const RuleName = "mailgun_email"

// DefaultMessage is the generic failure message. Rejection reasons are not
// shown to end users.
const DefaultMessage = "The :attribute must be a valid email address."

// Rule is the form-validator entry point. parameters are mode tokens
// ("role", "disposable", "mailbox", "strict", "api"); unknown tokens are
// ignored. attribute only names the field being validated.
func (v *Validator) Rule(ctx context.Context, attribute, value string, parameters []string) bool {
	return v.Validate(ctx, value, ParseModes(parameters))
}

// Message renders DefaultMessage for the given attribute.
func Message(attribute string) string {
	return strings.ReplaceAll(DefaultMessage, ":attribute", attribute)
}
