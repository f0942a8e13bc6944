package models

import "time"

// FormSetting holds the per-form CRM feed configuration: whether the feed
// runs at all and which field IDs map onto contact identity columns.
// Field IDs are stored as strings because sub-inputs use dotted IDs.
type FormSetting struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement"`
	FormID            int64     `gorm:"column:form_id;not null;uniqueIndex"`
	FeedEnabled       bool      `gorm:"column:feed_enabled;not null;default:false"`
	EmailFieldID      string    `gorm:"column:email_field_id;not null;default:''"`
	FirstNameFieldID  *string   `gorm:"column:first_name_field_id"`
	LastNameFieldID   *string   `gorm:"column:last_name_field_id"`
	PhoneFieldID      *string   `gorm:"column:phone_field_id"`
	BirthdayFieldID   *string   `gorm:"column:birthday_field_id"`
	AddressFieldID    *string   `gorm:"column:address_field_id"`
	CityFieldID       *string   `gorm:"column:city_field_id"`
	StateFieldID      *string   `gorm:"column:state_field_id"`
	CountryFieldID    *string   `gorm:"column:country_field_id"`
	PostalCodeFieldID *string   `gorm:"column:postal_code_field_id"`
	EmailConsentID    *string   `gorm:"column:email_consent_id"`
	PhoneConsentID    *string   `gorm:"column:phone_consent_id"`
	SendWelcomeEmail  bool      `gorm:"column:send_welcome_email;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
