// Package mailgun is a lookup client for the Mailgun address validation API.
package mailgun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/optimode/emailrule/types"
)

// DefaultEndpoint is the private address validation endpoint.
const DefaultEndpoint = "https://api.mailgun.net/v3/address/private/validate"

// authUser is the fixed Basic auth username; the API key is the password.
const authUser = "api"

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
	maxErrorBody   = 512
)

// ErrMissingAPIKey is returned by New when Options.APIKey is empty.
var ErrMissingAPIKey = errors.New("mailgun: API key is required")

// Options configures the client.
type Options struct {
	// APIKey is the Mailgun private API key. Required.
	APIKey string
	// Endpoint overrides DefaultEndpoint.
	Endpoint string
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
	// Timeout for the default HTTP client. Default: 10s
	Timeout time.Duration
}

// Client queries Mailgun. It is safe for concurrent use.
type Client struct {
	endpoint   *url.URL
	apiKey     string
	httpClient *http.Client
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("mailgun: invalid endpoint %q: %w", endpoint, err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{endpoint: u, apiKey: opts.APIKey, httpClient: hc}, nil
}

// Lookup validates email with Mailgun. mailboxVerification asks Mailgun to
// probe the mailbox, which is slower.
func (c *Client) Lookup(ctx context.Context, email string, mailboxVerification bool) (types.RemoteResult, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("address", email)
	q.Set("mailbox_verification", strconv.FormatBool(mailboxVerification))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.RemoteResult{}, fmt.Errorf("%w: build request: %w", types.ErrLookupTransport, err)
	}
	req.SetBasicAuth(authUser, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.RemoteResult{}, fmt.Errorf("%w: %w", types.ErrLookupTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return types.RemoteResult{}, fmt.Errorf("%w: mailgun returned status %d: %s", types.ErrLookupTransport, resp.StatusCode, msg)
		}
		return types.RemoteResult{}, fmt.Errorf("%w: mailgun returned status %d", types.ErrLookupTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return types.RemoteResult{}, fmt.Errorf("%w: read body: %w", types.ErrLookupTransport, err)
	}
	return decode(body)
}

// response mirrors the validation payload. Booleans are pointers so that
// a missing or null key can be told apart from false.
type response struct {
	Address             string                     `json:"address"`
	IsValid             *bool                      `json:"is_valid"`
	IsRoleAddress       *bool                      `json:"is_role_address"`
	IsDisposableAddress *bool                      `json:"is_disposable_address"`
	MailboxVerification *types.MailboxVerification `json:"mailbox_verification"`
	DidYouMean          *string                    `json:"did_you_mean"`
	Reason              json.RawMessage            `json:"reason"`
}

// decode turns a response body into a RemoteResult. is_valid,
// is_role_address and is_disposable_address are required;
// mailbox_verification is MailboxNotChecked when absent or null.
func decode(body []byte) (types.RemoteResult, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return types.RemoteResult{}, fmt.Errorf("%w: decode: %w", types.ErrLookupParse, err)
	}

	var missing []string
	if r.IsValid == nil {
		missing = append(missing, "is_valid")
	}
	if r.IsRoleAddress == nil {
		missing = append(missing, "is_role_address")
	}
	if r.IsDisposableAddress == nil {
		missing = append(missing, "is_disposable_address")
	}
	if len(missing) > 0 {
		return types.RemoteResult{}, fmt.Errorf("%w: missing %s", types.ErrLookupParse, strings.Join(missing, ", "))
	}

	result := types.RemoteResult{
		Address:             r.Address,
		IsValid:             *r.IsValid,
		IsRoleAddress:       *r.IsRoleAddress,
		IsDisposableAddress: *r.IsDisposableAddress,
		Reason:              reasonText(r.Reason),
	}
	if r.MailboxVerification != nil {
		result.MailboxVerification = *r.MailboxVerification
	}
	if r.DidYouMean != nil {
		result.DidYouMean = *r.DidYouMean
	}
	return result, nil
}

// reasonText flattens the reason field, which is a string or null in the
// v3 API and a list of strings in later versions.
func reasonText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
