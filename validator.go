package emailrule

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/optimode/emailrule/check"
	"github.com/optimode/emailrule/internal/parse"
	"github.com/optimode/emailrule/types"
)

// Validator evaluates the email rule. Instantiate with New.
// A Validator holds no per-call state and is safe for concurrent use.
type Validator struct {
	lookup Lookup
	syntax *check.SyntaxChecker
	rules  *check.RulesChecker
	log    Logger
	err    error // configuration error, reported as a failed lookup
}

// New creates a Validator backed by the given lookup client.
// Warnings go to the charmbracelet/log default logger unless WithLogger
// is used.
func New(lookup Lookup) *Validator {
	v := &Validator{
		lookup: lookup,
		syntax: check.NewSyntaxChecker(),
		rules:  check.NewRulesChecker(),
		log:    log.Default(),
	}
	if lookup == nil {
		v.err = ErrNilLookup
	}
	return v
}

// WithLogger replaces the logger used for lookup failures.
// A nil logger silences them.
func (v *Validator) WithLogger(l Logger) *Validator {
	if l == nil {
		l = discardLogger
	}
	v.log = l
	return v
}

// Validate reports whether email passes the rule under the given modes.
// It never fails: when the remote lookup is unusable the verdict falls back
// to the syntax check, rejecting only if ModeStrict or ModeAPI is set.
func (v *Validator) Validate(ctx context.Context, email string, modes Modes) bool {
	return v.Check(ctx, email, modes).Valid
}

// Check runs the rule and returns the verdict with its diagnostics.
//
// Stages, each short-circuiting:
//  1. syntax: an invalid address is rejected without a remote call
//  2. lookup: the remote service is asked, with a live mailbox check
//     only when ModeMailbox is set
//  3. rules: !is_valid, then role, disposable, mailbox and strict,
//     each only when its mode was requested
func (v *Validator) Check(ctx context.Context, email string, modes Modes) Result {
	parsed := parse.NewEmail(email)
	result := Result{Email: email, Modes: modes}

	sc := v.syntax.Check(parsed)
	result.Checks = append(result.Checks, sc)
	if !sc.Passed {
		result.Reason = sc.Reason
		return result
	}

	remote, err := v.doLookup(ctx, parsed.Raw, modes.Has(ModeMailbox))
	if err != nil {
		v.warn(parsed.Raw, modes, err)
		result.Degraded = true
		result.LookupErr = err
		result.Checks = append(result.Checks, CheckResult{
			Level:   LevelLookup,
			Passed:  false,
			Reason:  ReasonLookupFailed,
			Details: err.Error(),
		})
		if modes.FailClosed() {
			result.Reason = ReasonLookupFailed
			return result
		}
		result.Valid = true
		return result
	}

	result.Remote = &remote
	result.Checks = append(result.Checks, CheckResult{Level: LevelLookup, Passed: true, Details: "lookup ok"})

	rc := v.rules.Check(remote, modes)
	result.Checks = append(result.Checks, rc)
	if !rc.Passed {
		result.Reason = rc.Reason
		return result
	}

	result.Valid = true
	return result
}

// doLookup calls the lookup client, turning a panic into a transport
// failure so that a faulty client cannot take down the caller.
func (v *Validator) doLookup(ctx context.Context, email string, mailbox bool) (remote types.RemoteResult, err error) {
	if v.err != nil {
		return types.RemoteResult{}, fmt.Errorf("%w: %w", ErrLookupTransport, v.err)
	}

	defer func() {
		if r := recover(); r != nil {
			remote = types.RemoteResult{}
			err = fmt.Errorf("%w: lookup panicked: %v", ErrLookupTransport, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return types.RemoteResult{}, fmt.Errorf("%w: %w", ErrLookupTransport, err)
	}
	return v.lookup.Lookup(ctx, email, mailbox)
}

// warn logs a lookup failure. Logging is best effort and must not change
// the verdict, so a panicking logger is ignored.
func (v *Validator) warn(email string, modes Modes, err error) {
	defer func() { _ = recover() }()

	msg := "email rule: lookup failed"
	if errors.Is(err, ErrLookupParse) {
		msg = "email rule: lookup response unusable"
	}
	v.log.Warn(msg, "email", email, "modes", modes.String(), "fail_closed", modes.FailClosed(), "err", err)
}

// ValidateMany checks multiple emails concurrently, one independent rule
// evaluation per address. The result order matches the input order.
func (v *Validator) ValidateMany(ctx context.Context, emails []string, modes Modes, opts ...ConcurrencyOptions) []Result {
	o := defaultConcurrencyOptions()
	if len(opts) > 0 && opts[0].Workers > 0 {
		o = opts[0]
	}

	results := make([]Result, len(emails))

	var g errgroup.Group
	g.SetLimit(o.Workers)
	for i, email := range emails {
		i, email := i, email
		g.Go(func() error {
			results[i] = v.Check(ctx, email, modes)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
