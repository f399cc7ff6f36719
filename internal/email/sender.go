// Package email renders and delivers the outbound customer emails: validated
// conversation replies and quote proposals.
package email

import "context"

// Sender delivers the outbound emails of the support pipeline.
type Sender interface {
	SendMessageReplyEmail(ctx context.Context, toEmail, toName, subject, body string) error
	SendQuoteEmail(ctx context.Context, toEmail, toName, quoteRef, totalAmount string) error
}

// NoopSender discards every email. Used when SMTP is not configured, so local
// environments run the full pipeline without a mail server.
type NoopSender struct{}

func (NoopSender) SendMessageReplyEmail(ctx context.Context, toEmail, toName, subject, body string) error {
	return nil
}

func (NoopSender) SendQuoteEmail(ctx context.Context, toEmail, toName, quoteRef, totalAmount string) error {
	return nil
}

var _ Sender = NoopSender{}
