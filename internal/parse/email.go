package parse

import (
	"net/mail"
	"strings"

	"golang.org/x/net/idna"
)

// Email is a candidate address split into its parts.
// The check package receives this as parameter.
type Email struct {
	Raw           string // trimmed input, sent to the remote service as is
	Local         string // before the last @
	Domain        string // ASCII/Punycode form
	DomainUnicode string // Unicode form, used for label checks
	Quoted        bool   // local part was written as a quoted string
	Valid         bool   // false if Raw is not a bare addr-spec
}

// NewEmail parses raw as a bare addr-spec. Display names ("Jo <jo@x.io>"),
// angle brackets and comments are rejected because a form field holds an
// address, not a mailbox header. Internationalized local parts (RFC 6531)
// and domains (IDNA2008) are accepted.
func NewEmail(raw string) Email {
	raw = strings.TrimSpace(raw)

	addr, err := mail.ParseAddress(raw)
	if err != nil {
		// net/mail does not accept UTF-8 local parts
		return parseManual(raw)
	}
	if addr.Name != "" || (strings.ContainsAny(raw, "<>()") && !isQuoted(raw)) {
		return Email{Raw: raw}
	}

	at := strings.LastIndex(addr.Address, "@")
	if at < 1 || at == len(addr.Address)-1 {
		return Email{Raw: raw}
	}
	local, domain := addr.Address[:at], addr.Address[at+1:]

	// ParseAddress unquotes the local part; anything else must round-trip.
	if addr.Address != raw && !isQuoted(raw) {
		return Email{Raw: raw}
	}

	return buildEmail(raw, local, domain)
}

func isQuoted(raw string) bool {
	at := strings.LastIndex(raw, "@")
	if at < 2 {
		return false
	}
	local := raw[:at]
	return strings.HasPrefix(local, `"`) && strings.HasSuffix(local, `"`)
}

// parseManual splits on the last @ and leaves character validation to the
// syntax checker. Only non-ASCII input gets here; an ASCII address that
// net/mail rejects is invalid.
func parseManual(raw string) Email {
	if !hasNonASCII(raw) {
		return Email{Raw: raw}
	}
	at := strings.LastIndex(raw, "@")
	if at < 1 || at >= len(raw)-1 {
		return Email{Raw: raw}
	}
	return buildEmail(raw, raw[:at], raw[at+1:])
}

func buildEmail(raw, local, domain string) Email {
	ascii, unicode, ok := convertDomain(strings.ToLower(domain))
	if !ok {
		return Email{Raw: raw}
	}

	return Email{
		Raw:           raw,
		Local:         local,
		Domain:        ascii,
		DomainUnicode: unicode,
		Quoted:        isQuoted(raw),
		Valid:         true,
	}
}

// convertDomain returns the ASCII and Unicode forms of domain.
// ok is false if a non-ASCII domain fails IDNA2008 validation.
func convertDomain(domain string) (ascii, unicode string, ok bool) {
	if hasNonASCII(domain) {
		a, err := idna.Lookup.ToASCII(domain)
		if err != nil {
			return "", "", false
		}
		return a, domain, true
	}

	// existing Punycode such as xn--mnchen-3ya.de is decoded for display
	u, err := idna.Display.ToUnicode(domain)
	if err != nil {
		u = domain
	}
	return domain, u, true
}

func hasNonASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return true
		}
	}
	return false
}
