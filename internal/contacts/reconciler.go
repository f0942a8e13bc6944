package contacts

import (
	"context"
	"fmt"
	"strings"

	"github.com/jes-wd/freya-sync/pkg/logger"
	"github.com/jes-wd/freya-sync/pkg/omnisend"
)

// Client is the remote contact surface the reconciler needs.
type Client interface {
	GetContactByEmail(ctx context.Context, email string) (*omnisend.Contact, error)
	CreateContact(ctx context.Context, contact *omnisend.Contact) (*omnisend.Contact, error)
}

// Reconciler updates a single custom property on a remote contact without
// losing the rest. The remote store has no partial update, so the write is
// always fetch-merge-upsert.
type Reconciler struct {
	client Client
	logger *logger.Logger
}

// ReconcilerParams groups the reconciler dependencies.
type ReconcilerParams struct {
	Client Client
	Logger *logger.Logger
}

// NewReconciler builds a property reconciler.
func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("contact client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Reconciler{client: params.Client, logger: params.Logger}, nil
}

// SetProperty writes name=value onto the contact registered under email,
// preserving every other custom property. A nil value is a logged no-op.
// A failed fetch degrades to an upsert with no prior properties rather than
// blocking the write.
func (r *Reconciler) SetProperty(ctx context.Context, email, name string, value *string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	ctx = r.logger.WithEmail(ctx, email)
	ctx = r.logger.WithField(ctx, "property", name)

	if value == nil {
		r.logger.Info(ctx, "no property value to set, skipping contact update")
		return nil
	}

	existing, err := r.client.GetContactByEmail(ctx, email)
	if err != nil {
		r.logger.Warn(ctx, "could not fetch existing contact, proceeding without prior properties")
		existing = nil
	}

	contact := &omnisend.Contact{
		Identifiers: []omnisend.Identifier{{Type: omnisend.IdentifierTypeEmail, ID: email}},
	}
	if existing != nil {
		for key, prior := range existing.CustomProperties {
			contact.SetCustomProperty(key, prior)
		}
	}
	contact.SetCustomProperty(name, *value)

	if _, err := r.client.CreateContact(ctx, contact); err != nil {
		return fmt.Errorf("updating contact property %s: %w", name, err)
	}

	r.logger.Info(ctx, fmt.Sprintf("contact property %s set to %s", name, *value))
	return nil
}

// Exists probes whether a contact is already registered under the email.
func (r *Reconciler) Exists(ctx context.Context, email string) (bool, error) {
	contact, err := r.client.GetContactByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return contact != nil, nil
}
