package subscriptions

import (
	"time"

	"github.com/jes-wd/freya-sync/pkg/db/models"
	"github.com/jes-wd/freya-sync/pkg/enums"
)

// Policy decides what status value, if any, a transition writes to the
// contact property.
type Policy struct {
	activeWindow time.Duration
	now          func() time.Time
}

// NewPolicy builds the status policy. activeWindow bounds how old a
// subscription may be for an "active" transition to still be written.
func NewPolicy(activeWindow time.Duration) Policy {
	return Policy{activeWindow: activeWindow, now: time.Now}
}

// WithClock overrides the policy clock, for tests.
func (p Policy) WithClock(now func() time.Time) Policy {
	p.now = now
	return p
}

// Decide returns the property value to write, or nil when the property must
// be left untouched.
//
// active is only confirmed while the subscription is newer than the window:
// older subscriptions re-activating (e.g. after a payment retry) should not
// look like new signups. cancelled is withheld while hasSibling, so a
// customer with another live subscription never reads as cancelled. on-hold
// always writes. Every other status is ignored.
func (p Policy) Decide(sub *models.Subscription, newStatus enums.SubscriptionStatus, hasSibling bool) *string {
	switch newStatus {
	case enums.SubscriptionStatusActive:
		if sub == nil {
			return nil
		}
		age := p.now().Sub(sub.StartDate)
		if age <= p.activeWindow {
			return statusValue(enums.SubscriptionStatusActive)
		}
		return nil

	case enums.SubscriptionStatusCancelled:
		if hasSibling {
			return nil
		}
		return statusValue(enums.SubscriptionStatusCancelled)

	case enums.SubscriptionStatusOnHold:
		return statusValue(enums.SubscriptionStatusOnHold)

	default:
		return nil
	}
}

// Handles reports whether the policy reacts to the status at all.
func (p Policy) Handles(status enums.SubscriptionStatus) bool {
	switch status {
	case enums.SubscriptionStatusActive, enums.SubscriptionStatusOnHold, enums.SubscriptionStatusCancelled:
		return true
	default:
		return false
	}
}

func statusValue(status enums.SubscriptionStatus) *string {
	v := status.String()
	return &v
}
