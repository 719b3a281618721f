// Package sendgrid is a lookup client for the SendGrid email address
// validation API, an alternative to the default Mailgun provider.
package sendgrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"

	"github.com/optimode/emailrule/types"
)

const (
	DefaultHost    = "https://api.sendgrid.com"
	validationPath = "/v3/validations/email"
	defaultSource  = "emailrule"
	defaultTimeout = 10 * time.Second
)

// ErrMissingAPIKey is returned by New when Options.APIKey is empty.
var ErrMissingAPIKey = errors.New("sendgrid: API key is required")

type Options struct {
	APIKey string
	// Host overrides DefaultHost.
	Host string
	// Source is reported to SendGrid for their per-source statistics.
	Source string
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
	// Timeout for the default HTTP client. Default: 10s
	Timeout time.Duration
}

type Client struct {
	apiKey string
	host   string
	source string
	rest   *rest.Client
}

func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{apiKey: opts.APIKey, host: opts.Host, source: opts.Source}
	if c.host == "" {
		c.host = DefaultHost
	}
	if c.source == "" {
		c.source = defaultSource
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	c.rest = &rest.Client{HTTPClient: hc}
	return c, nil
}

type validationRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

type validationResponse struct {
	Result *validationResult `json:"result"`
}

type validationResult struct {
	Email      string  `json:"email"`
	Verdict    string  `json:"verdict"`
	Score      float32 `json:"score"`
	Suggestion string  `json:"suggestion"`
	Checks     struct {
		Domain struct {
			IsSuspectedDisposableAddress bool `json:"is_suspected_disposable_address"`
		} `json:"domain"`
		LocalPart struct {
			IsSuspectedRoleAddress bool `json:"is_suspected_role_address"`
		} `json:"local_part"`
		Additional struct {
			HasKnownBounces     bool `json:"has_known_bounces"`
			HasSuspectedBounces bool `json:"has_suspected_bounces"`
		} `json:"additional"`
	} `json:"checks"`
}

// Lookup validates email with SendGrid. SendGrid has no separate mailbox
// probe; when mailboxVerification is set the mailbox is reported rejected
// for known bounces and verified for a "Valid" verdict.
func (c *Client) Lookup(ctx context.Context, email string, mailboxVerification bool) (types.RemoteResult, error) {
	body, err := json.Marshal(validationRequest{Email: email, Source: c.source})
	if err != nil {
		return types.RemoteResult{}, fmt.Errorf("%w: marshal request: %w", types.ErrLookupTransport, err)
	}

	request := sendgrid.GetRequest(c.apiKey, validationPath, c.host)
	request.Method = http.MethodPost
	request.Body = body

	response, err := c.rest.SendWithContext(ctx, request)
	if err != nil {
		return types.RemoteResult{}, fmt.Errorf("%w: sendgrid api error: %w", types.ErrLookupTransport, err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return types.RemoteResult{}, fmt.Errorf("%w: sendgrid returned status %d", types.ErrLookupTransport, response.StatusCode)
	}

	var payload validationResponse
	if err := json.Unmarshal([]byte(response.Body), &payload); err != nil {
		return types.RemoteResult{}, fmt.Errorf("%w: sendgrid unmarshal error: %w", types.ErrLookupParse, err)
	}
	if payload.Result == nil || payload.Result.Verdict == "" {
		return types.RemoteResult{}, fmt.Errorf("%w: sendgrid response has no verdict", types.ErrLookupParse)
	}

	return toRemoteResult(payload.Result, mailboxVerification), nil
}

func toRemoteResult(r *validationResult, mailboxVerification bool) types.RemoteResult {
	out := types.RemoteResult{
		Address:             r.Email,
		IsValid:             r.Verdict != "Invalid",
		IsRoleAddress:       r.Checks.LocalPart.IsSuspectedRoleAddress,
		IsDisposableAddress: r.Checks.Domain.IsSuspectedDisposableAddress,
		Reason:              r.Verdict,
	}
	if r.Suggestion != "" && r.Email != "" {
		out.DidYouMean = localPart(r.Email) + "@" + r.Suggestion
	}

	if mailboxVerification {
		out.MailboxVerification = types.MailboxUnknown
		switch {
		case r.Checks.Additional.HasKnownBounces:
			out.MailboxVerification = types.MailboxRejected
		case r.Verdict == "Valid" && !r.Checks.Additional.HasSuspectedBounces:
			out.MailboxVerification = types.MailboxVerified
		}
	}
	return out
}

func localPart(email string) string {
	for i := len(email) - 1; i >= 0; i-- {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}
