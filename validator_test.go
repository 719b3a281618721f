package emailrule_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/emailrule"
	"github.com/optimode/emailrule/mailgun"
)

const testEmail = "tkouzelis@outlook.com"

// fakeLookup returns a scripted outcome and counts calls.
type fakeLookup struct {
	result emailrule.RemoteResult
	err    error
	calls  atomic.Int32
	// lastMailbox records the mailboxVerification flag of the last call.
	lastMailbox atomic.Bool
}

func (f *fakeLookup) Lookup(_ context.Context, _ string, mailbox bool) (emailrule.RemoteResult, error) {
	f.calls.Add(1)
	f.lastMailbox.Store(mailbox)
	return f.result, f.err
}

func newValidator(l emailrule.Lookup) *emailrule.Validator {
	return emailrule.New(l).WithLogger(nil)
}

func modes(m ...emailrule.Mode) emailrule.Modes {
	return emailrule.NewModes(m...)
}

var allModes = modes(emailrule.ModeRole, emailrule.ModeDisposable, emailrule.ModeMailbox, emailrule.ModeStrict, emailrule.ModeAPI)

func TestValidate_SyntaxGate(t *testing.T) {
	invalid := []string{"", "bar", "user@", "@example.com", "a b@example.com", "Tom <tom@example.com>", "user@localhost"}

	for _, email := range invalid {
		for _, m := range []emailrule.Modes{modes(), allModes} {
			f := &fakeLookup{result: emailrule.RemoteResult{IsValid: true}}
			v := newValidator(f)

			res := v.Check(context.Background(), email, m)
			assert.False(t, res.Valid, "email %q modes %s", email, m)
			assert.Equal(t, emailrule.ReasonSyntax, res.Reason)
			assert.Zero(t, f.calls.Load(), "lookup must not be called for %q", email)
		}
	}
}

func TestValidate_RemoteInvalidAlwaysRejects(t *testing.T) {
	f := &fakeLookup{result: emailrule.RemoteResult{IsValid: false, MailboxVerification: emailrule.MailboxVerified}}
	v := newValidator(f)

	for _, m := range []emailrule.Modes{modes(), modes(emailrule.ModeRole), allModes} {
		assert.False(t, v.Validate(context.Background(), testEmail, m))
	}
}

func TestValidate_AbsentModesDoNotReject(t *testing.T) {
	f := &fakeLookup{result: emailrule.RemoteResult{
		IsValid:             true,
		IsRoleAddress:       true,
		IsDisposableAddress: true,
		MailboxVerification: emailrule.MailboxRejected,
	}}
	v := newValidator(f)

	assert.True(t, v.Validate(context.Background(), testEmail, modes()))
}

func TestValidate_Modes(t *testing.T) {
	tests := []struct {
		name       string
		remote     emailrule.RemoteResult
		modes      emailrule.Modes
		want       bool
		wantReason emailrule.Reason
	}{
		{
			name:   "role rejected when requested",
			remote: emailrule.RemoteResult{IsValid: true, IsRoleAddress: true, MailboxVerification: emailrule.MailboxVerified},
			modes:  modes(emailrule.ModeRole), want: false, wantReason: emailrule.ReasonRole,
		},
		{
			name:   "non-role passes role check",
			remote: emailrule.RemoteResult{IsValid: true, MailboxVerification: emailrule.MailboxVerified},
			modes:  modes(emailrule.ModeRole), want: true,
		},
		{
			name:   "disposable rejected when requested",
			remote: emailrule.RemoteResult{IsValid: true, IsDisposableAddress: true, MailboxVerification: emailrule.MailboxVerified},
			modes:  modes(emailrule.ModeDisposable), want: false, wantReason: emailrule.ReasonDisposable,
		},
		{
			name:   "failed mailbox rejected when requested",
			remote: emailrule.RemoteResult{IsValid: true, MailboxVerification: emailrule.MailboxRejected},
			modes:  modes(emailrule.ModeMailbox), want: false, wantReason: emailrule.ReasonMailbox,
		},
		{
			name:   "unknown mailbox passes if not strict",
			remote: emailrule.RemoteResult{IsValid: true, MailboxVerification: emailrule.MailboxUnknown},
			modes:  modes(emailrule.ModeMailbox), want: true,
		},
		{
			name:   "unknown mailbox rejected when strict",
			remote: emailrule.RemoteResult{IsValid: true, MailboxVerification: emailrule.MailboxUnknown},
			modes:  modes(emailrule.ModeMailbox, emailrule.ModeStrict), want: false, wantReason: emailrule.ReasonMailboxUnknown,
		},
		{
			name:   "all checks pass and are required",
			remote: emailrule.RemoteResult{IsValid: true, MailboxVerification: emailrule.MailboxVerified},
			modes:  modes(emailrule.ModeRole, emailrule.ModeDisposable, emailrule.ModeMailbox), want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator(&fakeLookup{result: tt.remote})
			res := v.Check(context.Background(), testEmail, tt.modes)
			assert.Equal(t, tt.want, res.Valid)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.False(t, res.Degraded)
			require.NotNil(t, res.Remote)
		})
	}
}

func TestValidate_ForwardsMailboxFlag(t *testing.T) {
	f := &fakeLookup{result: emailrule.RemoteResult{IsValid: true}}
	v := newValidator(f)

	v.Validate(context.Background(), testEmail, modes(emailrule.ModeMailbox))
	assert.True(t, f.lastMailbox.Load())

	v.Validate(context.Background(), testEmail, modes(emailrule.ModeRole, emailrule.ModeStrict))
	assert.False(t, f.lastMailbox.Load())
}

func TestValidate_DegradedPolicy(t *testing.T) {
	failures := map[string]error{
		"transport": fmt.Errorf("%w: mailgun returned status 500", emailrule.ErrLookupTransport),
		"parse":     fmt.Errorf("%w: decode: invalid character", emailrule.ErrLookupParse),
		"untyped":   errors.New("boom"),
	}

	for name, lookupErr := range failures {
		t.Run(name, func(t *testing.T) {
			v := newValidator(&fakeLookup{err: lookupErr})

			accepting := []emailrule.Modes{
				modes(),
				modes(emailrule.ModeRole, emailrule.ModeDisposable, emailrule.ModeMailbox),
			}
			for _, m := range accepting {
				res := v.Check(context.Background(), testEmail, m)
				assert.True(t, res.Valid, "modes %s", m)
				assert.True(t, res.Degraded)
				assert.ErrorIs(t, res.LookupErr, lookupErr)
				assert.Len(t, res.FailedChecks(), 1)
			}

			rejecting := []emailrule.Modes{
				modes(emailrule.ModeStrict),
				modes(emailrule.ModeAPI),
				modes(emailrule.ModeRole, emailrule.ModeStrict),
			}
			for _, m := range rejecting {
				res := v.Check(context.Background(), testEmail, m)
				assert.False(t, res.Valid, "modes %s", m)
				assert.True(t, res.Degraded)
				assert.Equal(t, emailrule.ReasonLookupFailed, res.Reason)
			}

			// syntax still wins over the fallback
			assert.False(t, v.Validate(context.Background(), "bar", modes()))
		})
	}
}

func TestValidate_PanickingLookupDegrades(t *testing.T) {
	v := newValidator(emailrule.LookupFunc(func(context.Context, string, bool) (emailrule.RemoteResult, error) {
		panic("client bug")
	}))

	var res emailrule.Result
	assert.NotPanics(t, func() {
		res = v.Check(context.Background(), testEmail, modes())
	})
	assert.True(t, res.Valid)
	assert.True(t, res.Degraded)
	assert.ErrorIs(t, res.LookupErr, emailrule.ErrLookupTransport)

	assert.False(t, v.Validate(context.Background(), testEmail, modes(emailrule.ModeStrict)))
}

func TestValidate_CancelledContextDegrades(t *testing.T) {
	f := &fakeLookup{result: emailrule.RemoteResult{IsValid: true}}
	v := newValidator(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := v.Check(ctx, testEmail, modes())
	assert.True(t, res.Valid)
	assert.True(t, res.Degraded)
	assert.ErrorIs(t, res.LookupErr, context.Canceled)
	assert.False(t, v.Validate(ctx, testEmail, modes(emailrule.ModeStrict)))
}

func TestNew_NilLookup(t *testing.T) {
	v := newValidator(nil)

	res := v.Check(context.Background(), testEmail, modes())
	assert.True(t, res.Valid)
	assert.ErrorIs(t, res.LookupErr, emailrule.ErrNilLookup)
	assert.False(t, v.Validate(context.Background(), testEmail, modes(emailrule.ModeStrict)))
}

// panicLogger checks that a broken logger cannot change the verdict.
type panicLogger struct{ calls int }

func (l *panicLogger) Warn(interface{}, ...interface{}) {
	l.calls++
	panic("logger down")
}

func TestValidate_LoggingIsBestEffort(t *testing.T) {
	l := &panicLogger{}
	v := emailrule.New(&fakeLookup{err: emailrule.ErrLookupTransport}).WithLogger(l)

	assert.True(t, v.Validate(context.Background(), testEmail, modes()))
	assert.False(t, v.Validate(context.Background(), testEmail, modes(emailrule.ModeStrict)))
	assert.Equal(t, 2, l.calls)
}

// recordingLogger keeps the messages it was given.
type recordingLogger struct{ msgs []string }

func (l *recordingLogger) Warn(msg interface{}, _ ...interface{}) {
	l.msgs = append(l.msgs, fmt.Sprint(msg))
}

func TestValidate_LogsFailureKindsDistinctly(t *testing.T) {
	l := &recordingLogger{}
	transport := emailrule.New(&fakeLookup{err: emailrule.ErrLookupTransport}).WithLogger(l)
	parse := emailrule.New(&fakeLookup{err: emailrule.ErrLookupParse}).WithLogger(l)
	ok := emailrule.New(&fakeLookup{result: emailrule.RemoteResult{IsValid: true}}).WithLogger(l)

	transport.Validate(context.Background(), testEmail, modes())
	parse.Validate(context.Background(), testEmail, modes())
	ok.Validate(context.Background(), testEmail, modes())

	require.Len(t, l.msgs, 2)
	assert.NotEqual(t, l.msgs[0], l.msgs[1])
}

func TestRule(t *testing.T) {
	f := &fakeLookup{result: emailrule.RemoteResult{IsValid: true, IsRoleAddress: true}}
	v := newValidator(f)

	assert.True(t, v.Rule(context.Background(), "email", testEmail, nil))
	assert.True(t, v.Rule(context.Background(), "email", testEmail, []string{"unknown-token"}))
	assert.False(t, v.Rule(context.Background(), "email", testEmail, []string{"disposable", "ROLE"}))
	assert.Equal(t, "The work email must be a valid email address.", emailrule.Message("work email"))
	assert.Equal(t, "mailgun_email", emailrule.RuleName)
}

func TestValidateMany(t *testing.T) {
	f := &fakeLookup{result: emailrule.RemoteResult{IsValid: true}}
	v := newValidator(f)

	emails := []string{"a@example.com", "invalid", "b@example.com", "c@example.com"}
	results := v.ValidateMany(context.Background(), emails, modes(), emailrule.ConcurrencyOptions{Workers: 2})

	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, emails[i], r.Email)
	}
	assert.True(t, results[0].Valid)
	assert.False(t, results[1].Valid)
	assert.True(t, results[2].Valid)
	assert.True(t, results[3].Valid)
	assert.EqualValues(t, 3, f.calls.Load())
}

func TestResult_CheckFor(t *testing.T) {
	v := newValidator(&fakeLookup{result: emailrule.RemoteResult{IsValid: true}})
	res := v.Check(context.Background(), testEmail, modes())

	for _, level := range []emailrule.CheckLevel{emailrule.LevelSyntax, emailrule.LevelLookup, emailrule.LevelRules} {
		c, found := res.CheckFor(level)
		assert.True(t, found, level)
		assert.True(t, c.Passed, level)
	}
	assert.Empty(t, res.FailedChecks())

	res = v.Check(context.Background(), "bar", modes())
	_, found := res.CheckFor(emailrule.LevelLookup)
	assert.False(t, found)
}

// The scenarios below drive the real mailgun client against a scripted
// HTTP server.

var defaultMailgunData = map[string]any{
	"address":               testEmail,
	"did_you_mean":          nil,
	"is_disposable_address": false,
	"is_role_address":       false,
	"is_valid":              false,
	"mailbox_verification":  nil,
	"parts": map[string]any{
		"display_name": nil,
		"domain":       "outlook.com",
		"local_part":   "tkouzelis",
	},
	"reason": nil,
}

func mailgunResponse(t *testing.T, overrides map[string]any) (int, string) {
	t.Helper()
	data := map[string]any{}
	for k, v := range defaultMailgunData {
		data[k] = v
	}
	for k, v := range overrides {
		data[k] = v
	}
	b, err := json.Marshal(data)
	require.NoError(t, err)
	return http.StatusOK, string(b)
}

func mailgunValidator(t *testing.T, status int, body string) (*emailrule.Validator, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := mailgun.New(mailgun.Options{APIKey: "key-test", Endpoint: server.URL})
	require.NoError(t, err)
	return newValidator(client), &hits
}

func TestMailgun_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		params []string
		want   bool
	}{
		{
			name:   "mailgun invalid addresses don't validate",
			params: nil,
			want:   false,
		},
		{
			name: "valid addresses validate when other checks fail but aren't required",
			body: `{"is_valid":true,"is_disposable_address":true,"is_role_address":true,"mailbox_verification":"false"}`,
			want: true,
		},
		{
			name:   "role addresses don't validate when check required",
			body:   `{"is_valid":true,"is_disposable_address":false,"is_role_address":true,"mailbox_verification":"true"}`,
			params: []string{"role"},
			want:   false,
		},
		{
			name:   "disposable addresses don't validate when check required",
			body:   `{"is_valid":true,"is_disposable_address":true,"is_role_address":false,"mailbox_verification":"true"}`,
			params: []string{"disposable"},
			want:   false,
		},
		{
			name:   "failed mailbox verification doesn't validate when check required",
			body:   `{"is_valid":true,"is_disposable_address":false,"is_role_address":false,"mailbox_verification":"false"}`,
			params: []string{"mailbox"},
			want:   false,
		},
		{
			name:   "unknown mailbox verification validates if not strict",
			body:   `{"is_valid":true,"is_disposable_address":false,"is_role_address":false,"mailbox_verification":"unknown"}`,
			params: []string{"mailbox"},
			want:   true,
		},
		{
			name:   "unknown mailbox verification doesn't validate when strict",
			body:   `{"is_valid":true,"is_disposable_address":false,"is_role_address":false,"mailbox_verification":"unknown"}`,
			params: []string{"mailbox", "strict"},
			want:   false,
		},
		{
			name:   "valid addresses validate when strict and mailbox was not checked",
			body:   `{"is_valid":true,"is_disposable_address":false,"is_role_address":false,"mailbox_verification":null}`,
			params: []string{"strict"},
			want:   true,
		},
		{
			name:   "strict role check passes an unchecked mailbox",
			body:   `{"is_valid":true,"is_disposable_address":false,"is_role_address":false}`,
			params: []string{"strict", "role"},
			want:   true,
		},
		{
			name:   "valid addresses validate when all checks pass and are required",
			body:   `{"is_valid":true,"is_disposable_address":false,"is_role_address":false,"mailbox_verification":"true"}`,
			params: []string{"role", "disposable", "mailbox"},
			want:   true,
		},
		{
			name:   "syntax-valid addresses validate when the API fails",
			status: http.StatusInternalServerError,
			params: []string{"role", "disposable", "mailbox"},
			want:   true,
		},
		{
			name:   "syntax-valid addresses validate when malformed JSON is returned",
			status: http.StatusOK,
			body:   "this, is not Valid {} Json",
			params: []string{"role", "disposable", "mailbox"},
			want:   true,
		},
		{
			name:   "API failure doesn't validate when strict",
			status: http.StatusInternalServerError,
			params: []string{"strict"},
			want:   false,
		},
		{
			name:   "malformed JSON doesn't validate when strict",
			status: http.StatusOK,
			body:   "this, is not Valid {} Json",
			params: []string{"strict"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := tt.status, tt.body
			if status == 0 {
				var overrides map[string]any
				if body != "" {
					require.NoError(t, json.Unmarshal([]byte(body), &overrides))
				}
				status, body = mailgunResponse(t, overrides)
			}

			v, hits := mailgunValidator(t, status, body)
			assert.Equal(t, tt.want, v.Rule(context.Background(), "email", testEmail, tt.params))
			assert.EqualValues(t, 1, hits.Load())
		})
	}
}

func TestMailgun_SyntaxInvalidNeverCallsAPI(t *testing.T) {
	status, body := mailgunResponse(t, map[string]any{"is_valid": true})
	v, hits := mailgunValidator(t, status, body)

	assert.False(t, v.Rule(context.Background(), "email", "bar", nil))
	assert.Zero(t, hits.Load())
}
