// Package notify carries rendered reports to their destinations, the
// local syslog daemon and an SMTP server.
package notify

import "context"

// Sink delivers one rendered report.
type Sink interface {
	Send(ctx context.Context, subject, body string) error
}
