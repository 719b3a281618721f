package config

import (
	"github.com/optimode/emailrule"
	"github.com/optimode/emailrule/mailgun"
	"github.com/optimode/emailrule/sendgrid"
)

// NewLookup builds the lookup client selected by c.Provider.
func NewLookup(c *Config) (emailrule.Lookup, error) {
	if c.Provider == ProviderSendGrid {
		client, err := sendgrid.New(sendgrid.Options{
			APIKey:  c.SendGridKey,
			Host:    c.SendGridHost,
			Timeout: c.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := mailgun.New(mailgun.Options{
		APIKey:   c.MailgunKey,
		Endpoint: c.MailgunEndpoint,
		Timeout:  c.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
