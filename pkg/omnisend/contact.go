package omnisend

import "time"

// Channel consent states understood by the API.
const (
	StatusSubscribed    = "subscribed"
	StatusNonSubscribed = "nonSubscribed"
)

// IdentifierTypeEmail and IdentifierTypePhone classify contact identifiers.
const (
	IdentifierTypeEmail = "email"
	IdentifierTypePhone = "phone"
)

// Contact is the API representation of a CRM contact.
type Contact struct {
	ContactID        string         `json:"contactID,omitempty"`
	Identifiers      []Identifier   `json:"identifiers,omitempty"`
	FirstName        string         `json:"firstName,omitempty"`
	LastName         string         `json:"lastName,omitempty"`
	Birthdate        string         `json:"birthdate,omitempty"`
	Address          string         `json:"address,omitempty"`
	City             string         `json:"city,omitempty"`
	State            string         `json:"state,omitempty"`
	Country          string         `json:"country,omitempty"`
	PostalCode       string         `json:"postalCode,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	CustomProperties map[string]any `json:"customProperties,omitempty"`
	SendWelcomeEmail bool           `json:"sendWelcomeEmail,omitempty"`
}

// Identifier binds one address (email or phone) and its channel consent to
// a contact.
type Identifier struct {
	Type     string    `json:"type"`
	ID       string    `json:"id"`
	Channels *Channels `json:"channels,omitempty"`
}

// Channels carries per-channel consent.
type Channels struct {
	Email *ChannelConsent `json:"email,omitempty"`
	SMS   *ChannelConsent `json:"sms,omitempty"`
}

// ChannelConsent records a consent status and when it was collected.
type ChannelConsent struct {
	Status     string `json:"status"`
	StatusDate string `json:"statusDate,omitempty"`
}

// Email returns the contact's primary email identifier, or "".
func (c *Contact) Email() string {
	if c == nil {
		return ""
	}
	for _, ident := range c.Identifiers {
		if ident.Type == IdentifierTypeEmail {
			return ident.ID
		}
	}
	return ""
}

// SetCustomProperty assigns one custom property, allocating the map lazily.
func (c *Contact) SetCustomProperty(key string, value any) {
	if c.CustomProperties == nil {
		c.CustomProperties = make(map[string]any)
	}
	c.CustomProperties[key] = value
}

// AddTag appends a tag, skipping duplicates.
func (c *Contact) AddTag(tag string) {
	for _, existing := range c.Tags {
		if existing == tag {
			return
		}
	}
	c.Tags = append(c.Tags, tag)
}

// NewEmailIdentifier builds an email identifier. When subscribed is false
// the channel is marked non-subscribed rather than omitted, matching how
// the API expects explicit consent states.
func NewEmailIdentifier(email string, subscribed bool, at time.Time) Identifier {
	status := StatusNonSubscribed
	if subscribed {
		status = StatusSubscribed
	}
	return Identifier{
		Type: IdentifierTypeEmail,
		ID:   email,
		Channels: &Channels{
			Email: &ChannelConsent{Status: status, StatusDate: at.UTC().Format(time.RFC3339)},
		},
	}
}

// NewPhoneIdentifier builds a phone identifier with SMS consent.
func NewPhoneIdentifier(phone string, subscribed bool, at time.Time) Identifier {
	status := StatusNonSubscribed
	if subscribed {
		status = StatusSubscribed
	}
	return Identifier{
		Type: IdentifierTypePhone,
		ID:   phone,
		Channels: &Channels{
			SMS: &ChannelConsent{Status: status, StatusDate: at.UTC().Format(time.RFC3339)},
		},
	}
}
