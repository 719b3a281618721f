package types

import "strings"

// Mode selects an optional check of the validation rule.
type Mode string

const (
	// ModeRole rejects role addresses such as admin@ or support@.
	ModeRole Mode = "role"
	// ModeDisposable rejects addresses from throwaway providers.
	ModeDisposable Mode = "disposable"
	// ModeMailbox asks the remote service for a live mailbox check and
	// rejects addresses whose mailbox was reported missing.
	ModeMailbox Mode = "mailbox"
	// ModeStrict rejects unknown mailbox results and rejects when the
	// remote service cannot be reached.
	ModeStrict Mode = "strict"
	// ModeAPI rejects when the remote service cannot be reached.
	//
	// Deprecated: use ModeStrict. Kept for rules written against the older
	// "require API" policy; it does not reject unknown mailbox results.
	ModeAPI Mode = "api"
)

// allModes fixes the bit position of each mode in Modes.
var allModes = []Mode{ModeRole, ModeDisposable, ModeMailbox, ModeStrict, ModeAPI}

// Modes is an immutable set of modes. The zero value is the empty set.
type Modes uint8

// NewModes builds a set from the given modes. Unknown modes are dropped.
func NewModes(modes ...Mode) Modes {
	var s Modes
	for _, m := range modes {
		s = s.With(m)
	}
	return s
}

// ParseModes normalises loosely typed rule parameters into a set.
// Tokens are trimmed and lower-cased, duplicates collapse and
// unrecognised tokens are ignored.
func ParseModes(tokens []string) Modes {
	var s Modes
	for _, tok := range tokens {
		s = s.With(Mode(strings.ToLower(strings.TrimSpace(tok))))
	}
	return s
}

// ParseModeList is ParseModes over a comma separated list, e.g. "role,mailbox".
func ParseModeList(list string) Modes {
	if list == "" {
		return 0
	}
	return ParseModes(strings.Split(list, ","))
}

func bit(m Mode) Modes {
	for i, known := range allModes {
		if known == m {
			return 1 << i
		}
	}
	return 0
}

// Has reports whether m is in the set.
func (s Modes) Has(m Mode) bool {
	b := bit(m)
	return b != 0 && s&b != 0
}

// With returns a copy of the set with m added.
func (s Modes) With(m Mode) Modes {
	return s | bit(m)
}

// FailClosed reports whether an unreachable remote service must reject.
func (s Modes) FailClosed() bool {
	return s.Has(ModeStrict) || s.Has(ModeAPI)
}

// List returns the modes in canonical order.
func (s Modes) List() []Mode {
	var out []Mode
	for _, m := range allModes {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s Modes) String() string {
	list := s.List()
	parts := make([]string, len(list))
	for i, m := range list {
		parts[i] = string(m)
	}
	return strings.Join(parts, ",")
}
