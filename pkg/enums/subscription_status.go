package enums

import "fmt"

// SubscriptionStatus mirrors the commerce platform's subscription state.
type SubscriptionStatus string

const (
	SubscriptionStatusActive        SubscriptionStatus = "active"
	SubscriptionStatusOnHold        SubscriptionStatus = "on-hold"
	SubscriptionStatusCancelled     SubscriptionStatus = "cancelled"
	SubscriptionStatusPending       SubscriptionStatus = "pending"
	SubscriptionStatusPendingCancel SubscriptionStatus = "pending-cancel"
	SubscriptionStatusExpired       SubscriptionStatus = "expired"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusOnHold,
	SubscriptionStatusCancelled,
	SubscriptionStatusPending,
	SubscriptionStatusPendingCancel,
	SubscriptionStatusExpired,
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionStatus) IsValid() bool {
	for _, candidate := range validSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubscriptionStatus converts raw input into a SubscriptionStatus.
// Upstream events sometimes carry a "wc-" prefix, which is stripped.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	if len(value) > 3 && value[:3] == "wc-" {
		value = value[3:]
	}
	for _, candidate := range validSubscriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription status %q", value)
}
