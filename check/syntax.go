package check

import (
	"net/netip"
	"strings"
	"unicode"

	"github.com/optimode/emailrule/internal/parse"
	"github.com/optimode/emailrule/types"
)

const (
	maxAddressLength = 254
	maxLocalLength   = 64
	maxLabelLength   = 63
)

// SyntaxChecker validates email syntax according to RFC 5321/5322
// with RFC 6531 (SMTPUTF8) and IDNA2008 internationalization support.
// It never touches the network.
type SyntaxChecker struct{}

func NewSyntaxChecker() *SyntaxChecker {
	return &SyntaxChecker{}
}

func (c *SyntaxChecker) Check(email parse.Email) types.CheckResult {
	fail := func(details string) types.CheckResult {
		return types.CheckResult{
			Level:   types.LevelSyntax,
			Passed:  false,
			Reason:  types.ReasonSyntax,
			Details: details,
		}
	}

	switch {
	case email.Raw == "":
		return fail("empty email address")
	case !email.Valid:
		return fail("invalid email syntax")
	case len(email.Raw) > maxAddressLength:
		return fail("email address exceeds 254 characters")
	case len(email.Local) > maxLocalLength:
		return fail("local part exceeds 64 characters")
	}

	if !email.Quoted {
		if msg := validateLocal(email.Local); msg != "" {
			return fail(msg)
		}
	}
	if msg := validateDomain(email.DomainUnicode); msg != "" {
		return fail(msg)
	}

	return types.CheckResult{Level: types.LevelSyntax, Passed: true, Details: "syntax ok"}
}

// atextSpecials are the RFC 5322 atext characters besides letters and digits,
// plus the dot of a dot-atom.
const atextSpecials = "!#$%&'*+/=?^_`{|}~-."

// validateLocal returns a description of the first problem in an unquoted
// local part, or "".
func validateLocal(local string) string {
	if local == "" {
		return "local part is empty"
	}

	for _, ch := range local {
		switch {
		case ch > unicode.MaxASCII:
			if unicode.IsControl(ch) || unicode.IsSpace(ch) {
				return "local part contains invalid character: " + string(ch)
			}
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case strings.ContainsRune(atextSpecials, ch):
		default:
			return "local part contains invalid character: " + string(ch)
		}
	}

	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return "local part cannot start or end with a dot"
	}
	if strings.Contains(local, "..") {
		return "local part cannot contain consecutive dots"
	}
	return ""
}

// validateDomain returns a description of the first problem in the Unicode
// form of a domain, or "".
func validateDomain(domain string) string {
	if domain == "" {
		return "domain is empty"
	}

	// address literal, e.g. [192.0.2.1] or [IPv6:2001:db8::1]
	if strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]") {
		return validateAddressLiteral(domain[1 : len(domain)-1])
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return "domain must have at least two labels"
	}

	for _, label := range labels {
		if label == "" {
			return "domain contains empty label (consecutive dots)"
		}
		if len(label) > maxLabelLength {
			return "domain label exceeds 63 characters"
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return "domain label cannot start or end with a hyphen"
		}
		for _, ch := range label {
			if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' {
				return "domain label contains invalid character: " + string(ch)
			}
		}
	}

	tld := labels[len(labels)-1]
	if strings.IndexFunc(tld, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return "TLD cannot be all digits"
	}
	return ""
}

// validateAddressLiteral checks the inside of a bracketed domain (RFC 5321
// section 4.1.3).
func validateAddressLiteral(lit string) string {
	if len(lit) > 5 && strings.EqualFold(lit[:5], "IPv6:") {
		addr, err := netip.ParseAddr(lit[5:])
		if err != nil || !addr.Is6() || addr.Zone() != "" {
			return "invalid IPv6 address literal"
		}
		return ""
	}
	addr, err := netip.ParseAddr(lit)
	if err != nil || !addr.Is4() {
		return "invalid IPv4 address literal"
	}
	return ""
}
