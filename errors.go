package emailrule

import (
	"errors"

	"github.com/optimode/emailrule/types"
)

var (
	// ErrNilLookup is reported when New is given a nil Lookup. Validation
	// still runs and treats every lookup as failed.
	ErrNilLookup = errors.New("emailrule: nil lookup client")

	// ErrLookupTransport and ErrLookupParse classify lookup failures;
	// test with errors.Is.
	ErrLookupTransport = types.ErrLookupTransport
	ErrLookupParse     = types.ErrLookupParse
)
