package mailer

import "context"

// Sender delivers a single HTML email. Implementations report a transport
// error per message; callers decide whether a failure is isolated or fatal.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NopSender discards all mail. Used when the transport is disabled.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	return nil
}
