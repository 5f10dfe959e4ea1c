/*
notify.go - Notification signals

PURPOSE:
  The engine signals "send notification to {recipient}" on request
  creation and overtime detection. Delivery is external: implementations
  live outside the core (see notify/ for the SMTP adapter; tests use a
  recording fake).

SEE ALSO:
  - approval.go: Signals on timepunch/vacation submission
  - clock.go: Overtime detection
*/
package timeclock

import (
	"context"
	"log"
)

// Notification is a delivery-agnostic message request.
type Notification struct {
	Recipient string
	Subject   string
	Context   map[string]string
}

// Notifier delivers notifications. Failures are the adapter's concern;
// the engine treats delivery as best-effort and never rolls back a
// mutation because a notification could not be sent.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the process log. Default when no
// delivery mechanism is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	log.Printf("[Notify] to=%s subject=%q", n.Recipient, n.Subject)
	return nil
}
