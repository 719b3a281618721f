package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MailboxVerification is the outcome of a live mailbox check. The zero
// value means no check was reported; the remote service sends null when
// the mailbox was not probed.
type MailboxVerification int8

const (
	// MailboxNotChecked means the service did not report a mailbox result.
	MailboxNotChecked MailboxVerification = iota
	// MailboxUnknown means the check ran and was inconclusive.
	MailboxUnknown
	// MailboxVerified means the mailbox exists.
	MailboxVerified
	// MailboxRejected means the mailbox does not exist.
	MailboxRejected
)

func (m MailboxVerification) String() string {
	switch m {
	case MailboxVerified:
		return "true"
	case MailboxRejected:
		return "false"
	case MailboxUnknown:
		return "unknown"
	default:
		return ""
	}
}

// ParseMailboxVerification parses the string form used by the remote service.
func ParseMailboxVerification(s string) (MailboxVerification, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return MailboxVerified, true
	case "false":
		return MailboxRejected, true
	case "unknown":
		return MailboxUnknown, true
	case "":
		return MailboxNotChecked, true
	}
	return MailboxNotChecked, false
}

// UnmarshalJSON accepts a JSON boolean, one of the strings "true", "false"
// and "unknown", or null (not checked).
func (m *MailboxVerification) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*m = MailboxNotChecked
		return nil
	case "true":
		*m = MailboxVerified
		return nil
	case "false":
		*m = MailboxRejected
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("mailbox_verification: unexpected value %s", data)
	}
	v, ok := ParseMailboxVerification(s)
	if !ok {
		return fmt.Errorf("mailbox_verification: unexpected value %q", s)
	}
	*m = v
	return nil
}

// MarshalJSON writes the string form, or null when not checked.
func (m MailboxVerification) MarshalJSON() ([]byte, error) {
	if m == MailboxNotChecked {
		return []byte("null"), nil
	}
	return json.Marshal(m.String())
}
