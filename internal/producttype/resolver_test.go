package producttype

import (
	"testing"

	"github.com/jes-wd/freya-sync/pkg/db/models"
)

func strPtr(s string) *string { return &s }

func TestFormat(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"glp-1", "glp_1"},
		{"vitality", "nad"},
		{"misc", "misc"},
		{"vitality-plus", "nad_plus"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Format(tt.raw); got != tt.want {
			t.Fatalf("Format(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestForSubscriptionUsesFirstItemProductType(t *testing.T) {
	sub := &models.Subscription{
		Items: []models.SubscriptionItem{
			{Position: 0, Product: &models.Product{FreyaProductType: strPtr("vitality")}},
			{Position: 1, Product: &models.Product{FreyaProductType: strPtr("misc")}},
		},
	}
	if got := ForSubscription(sub); got != "nad" {
		t.Fatalf("expected nad from first item, got %q", got)
	}
}

func TestForSubscriptionHonorsPosition(t *testing.T) {
	sub := &models.Subscription{
		Items: []models.SubscriptionItem{
			{Position: 2, Product: &models.Product{FreyaProductType: strPtr("misc")}},
			{Position: 0, Product: &models.Product{FreyaProductType: strPtr("glp-1")}},
		},
	}
	if got := ForSubscription(sub); got != "glp_1" {
		t.Fatalf("expected lowest-position item to win, got %q", got)
	}
}

func TestForSubscriptionFallsBackWhenTypeMissing(t *testing.T) {
	sub := &models.Subscription{
		Items: []models.SubscriptionItem{
			{Product: &models.Product{}},
		},
	}
	if got := ForSubscription(sub); got != "glp_1" {
		t.Fatalf("expected glp_1 fallback, got %q", got)
	}

	blank := &models.Subscription{
		Items: []models.SubscriptionItem{
			{Product: &models.Product{FreyaProductType: strPtr("  ")}},
		},
	}
	if got := ForSubscription(blank); got != "glp_1" {
		t.Fatalf("expected glp_1 fallback for blank type, got %q", got)
	}
}

func TestForSubscriptionEmptyCases(t *testing.T) {
	if got := ForSubscription(nil); got != "" {
		t.Fatalf("nil subscription should produce empty tag, got %q", got)
	}
	if got := ForSubscription(&models.Subscription{}); got != "" {
		t.Fatalf("no items should produce empty tag, got %q", got)
	}
	noProduct := &models.Subscription{Items: []models.SubscriptionItem{{}}}
	if got := ForSubscription(noProduct); got != "" {
		t.Fatalf("missing product should produce empty tag, got %q", got)
	}
}

func TestPropertyName(t *testing.T) {
	if got := PropertyName("glp_1"); got != "woocommerce_subscription_status_glp_1" {
		t.Fatalf("unexpected property name %q", got)
	}
	if got := PropertyName(""); got != "woocommerce_subscription_status" {
		t.Fatalf("empty tag should use the base property, got %q", got)
	}
}
