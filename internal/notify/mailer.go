package notify

import (
	"context"

	"github.com/go-resty/resty/v2"

	"playaway/internal/apperr"
	"playaway/internal/config"
)

// Mailer delivers one email. Implementations own any retry policy.
type Mailer interface {
	Send(ctx context.Context, to string, subject string, htmlBody string) error
}

// HTTPMailer posts messages to an HTTP mail provider.
type HTTPMailer struct {
	client   *resty.Client
	endpoint string
	from     string
}

type mailPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html"`
}

func NewHTTPMailer(cfg config.NotifyConfig) *HTTPMailer {
	client := resty.New().
		SetHeader("Content-Type", "application/json")
	if cfg.MailAPIKey != "" {
		client.SetAuthToken(cfg.MailAPIKey)
	}

	return &HTTPMailer{
		client:   client,
		endpoint: cfg.MailEndpoint,
		from:     cfg.MailFrom,
	}
}

func (m *HTTPMailer) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(mailPayload{
			From:     m.from,
			To:       to,
			Subject:  subject,
			HTMLBody: htmlBody,
		}).
		Post(m.endpoint)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, "mail provider unreachable", err)
	}
	if resp.IsError() {
		return apperr.Newf(apperr.KindUpstreamUnavailable, "mail provider status %d", resp.StatusCode())
	}
	return nil
}
