package types

import "errors"

var (
	// ErrLookupTransport marks a remote lookup that did not produce a
	// response: network failure, cancelled context or a non-2xx status.
	ErrLookupTransport = errors.New("emailrule: lookup transport failure")

	// ErrLookupParse marks a response that could not be decoded into a
	// well-formed validation result.
	ErrLookupParse = errors.New("emailrule: lookup response unusable")
)
