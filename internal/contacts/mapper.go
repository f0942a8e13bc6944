package contacts

import (
	"strconv"
	"strings"
	"time"

	"github.com/jes-wd/freya-sync/pkg/db/models"
	"github.com/jes-wd/freya-sync/pkg/enums"
	"github.com/jes-wd/freya-sync/pkg/omnisend"
)

// CustomPropertyPrefix namespaces form-derived custom properties.
const CustomPropertyPrefix = "gravity_forms_"

// TagBase is applied to every form-sourced contact; a second tag carries
// the form title.
const TagBase = "gravity_forms"

// consentValue is the entry value that signals granted consent.
const consentValue = "1"

// unmappedFieldID marks a settings slot the admin never assigned.
const unmappedFieldID = "-1"

// MappedContact is the outcome of mapping one submission.
type MappedContact struct {
	Contact *omnisend.Contact
	// TrackingIdentifiers feed the web-tracking snippet: email and,
	// when present, phone.
	TrackingIdentifiers map[string]string
}

// MapSubmission converts a form entry into a contact payload using the
// form's field-mapping settings. Returns nil when the form has no enabled
// feed or the email field is unmapped or blank, which callers treat as a
// silent skip.
func MapSubmission(form *models.Form, entry map[string]string, now time.Time) *MappedContact {
	if form == nil || form.Settings == nil || !form.Settings.FeedEnabled {
		return nil
	}
	settings := form.Settings

	email := strings.TrimSpace(mappedValue(entry, &settings.EmailFieldID))
	if email == "" {
		return nil
	}

	phone := strings.TrimSpace(mappedValue(entry, settings.PhoneFieldID))
	emailConsent := mappedValue(entry, settings.EmailConsentID) == consentValue
	phoneConsent := mappedValue(entry, settings.PhoneConsentID) == consentValue

	contact := &omnisend.Contact{
		FirstName:  mappedValue(entry, settings.FirstNameFieldID),
		LastName:   mappedValue(entry, settings.LastNameFieldID),
		Birthdate:  mappedValue(entry, settings.BirthdayFieldID),
		Address:    mappedValue(entry, settings.AddressFieldID),
		City:       mappedValue(entry, settings.CityFieldID),
		State:      mappedValue(entry, settings.StateFieldID),
		Country:    mappedValue(entry, settings.CountryFieldID),
		PostalCode: mappedValue(entry, settings.PostalCodeFieldID),
	}

	if emailConsent {
		contact.Identifiers = append(contact.Identifiers, omnisend.NewEmailIdentifier(email, true, now))
	} else {
		contact.Identifiers = append(contact.Identifiers, omnisend.Identifier{
			Type: omnisend.IdentifierTypeEmail,
			ID:   email,
		})
	}
	if phone != "" {
		if phoneConsent {
			contact.Identifiers = append(contact.Identifiers, omnisend.NewPhoneIdentifier(phone, true, now))
		} else {
			contact.Identifiers = append(contact.Identifiers, omnisend.Identifier{
				Type: omnisend.IdentifierTypePhone,
				ID:   phone,
			})
		}
	}

	contact.AddTag(TagBase)
	contact.AddTag(TagBase + " " + form.Title)

	if settings.SendWelcomeEmail {
		contact.SendWelcomeEmail = true
	}

	mapCustomProperties(form, entry, contact)

	tracking := map[string]string{"email": email}
	if phone != "" {
		tracking["phone"] = phone
	}

	return &MappedContact{Contact: contact, TrackingIdentifiers: tracking}
}

// mapCustomProperties copies every unmapped form field into a prefixed
// custom property. Checkbox fields become the list of selected choice
// labels; everything else is the raw entry value. Blank values are dropped.
func mapCustomProperties(form *models.Form, entry map[string]string, contact *omnisend.Contact) {
	mapped := mappedFieldIDs(form.Settings)

	for _, field := range form.Fields {
		fieldID := strconv.FormatInt(field.FieldID, 10)
		if mapped[fieldID] {
			continue
		}

		key := CustomPropertyPrefix + safeLabel(field.Label)

		if field.Type != enums.FormFieldTypeCheckbox {
			if value := entry[fieldID]; value != "" {
				contact.SetCustomProperty(key, value)
			}
			continue
		}

		inputs, err := field.ParsedInputs()
		if err != nil || len(inputs) == 0 {
			continue
		}
		var selected []string
		for _, input := range inputs {
			if entry[input.ID] != "" {
				selected = append(selected, input.Label)
			}
		}
		if len(selected) > 0 {
			contact.SetCustomProperty(key, selected)
		}
	}
}

// mappedFieldIDs collects the field ids consumed by identity mapping so
// they are not duplicated as custom properties.
func mappedFieldIDs(settings *models.FormSetting) map[string]bool {
	ids := make(map[string]bool)
	add := func(value *string) {
		if value == nil {
			return
		}
		if v := strings.TrimSpace(*value); v != "" && v != unmappedFieldID {
			ids[v] = true
		}
	}
	add(&settings.EmailFieldID)
	add(settings.FirstNameFieldID)
	add(settings.LastNameFieldID)
	add(settings.PhoneFieldID)
	add(settings.BirthdayFieldID)
	add(settings.AddressFieldID)
	add(settings.CityFieldID)
	add(settings.StateFieldID)
	add(settings.CountryFieldID)
	add(settings.PostalCodeFieldID)
	add(settings.EmailConsentID)
	add(settings.PhoneConsentID)
	return ids
}

func mappedValue(entry map[string]string, fieldID *string) string {
	if fieldID == nil {
		return ""
	}
	id := strings.TrimSpace(*fieldID)
	if id == "" || id == unmappedFieldID {
		return ""
	}
	return entry[id]
}

func safeLabel(label string) string {
	return strings.ToLower(strings.ReplaceAll(label, " ", "_"))
}
