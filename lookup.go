package emailrule

import (
	"context"

	"github.com/optimode/emailrule/types"
)

// Lookup queries a remote address validation service.
//
// Implementations return an error wrapping ErrLookupTransport when no
// usable HTTP response was received, and ErrLookupParse when the response
// could not be decoded. The Validator never retries or caches.
type Lookup interface {
	Lookup(ctx context.Context, email string, mailboxVerification bool) (types.RemoteResult, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, email string, mailboxVerification bool) (types.RemoteResult, error)

func (f LookupFunc) Lookup(ctx context.Context, email string, mailboxVerification bool) (types.RemoteResult, error) {
	return f(ctx, email, mailboxVerification)
}
