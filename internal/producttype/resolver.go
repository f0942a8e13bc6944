package producttype

import (
	"strings"

	"github.com/jes-wd/freya-sync/pkg/db/models"
)

// PropertyBase is the contact property that carries subscription status.
// A non-empty product type tag is appended as a suffix.
const PropertyBase = "woocommerce_subscription_status"

// fallbackRawType is assumed when a product carries no type field.
const fallbackRawType = "glp-1"

// Format normalizes a raw product type: dashes become underscores and the
// legacy "vitality" naming maps to "nad".
func Format(raw string) string {
	formatted := strings.ReplaceAll(raw, "-", "_")
	formatted = strings.ReplaceAll(formatted, "vitality", "nad")
	return formatted
}

// ForSubscription derives the formatted product type tag from the
// subscription's first line item. Returns "" when the subscription has no
// items or the item has no product loaded, which callers treat as the
// un-suffixed property.
func ForSubscription(sub *models.Subscription) string {
	if sub == nil || len(sub.Items) == 0 {
		return ""
	}

	first := sub.Items[0]
	for _, item := range sub.Items[1:] {
		if item.Position < first.Position {
			first = item
		}
	}
	if first.Product == nil {
		return ""
	}

	raw := ""
	if first.Product.FreyaProductType != nil {
		raw = strings.TrimSpace(*first.Product.FreyaProductType)
	}
	if raw == "" {
		raw = fallbackRawType
	}
	return Format(raw)
}

// PropertyName builds the contact property name for a product type tag.
func PropertyName(tag string) string {
	if tag == "" {
		return PropertyBase
	}
	return PropertyBase + "_" + tag
}
