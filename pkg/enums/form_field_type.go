package enums

// FormFieldType identifies how a captured form field should be interpreted
// when mapping submissions into contact payloads.
type FormFieldType string

const (
	FormFieldTypeText     FormFieldType = "text"
	FormFieldTypeEmail    FormFieldType = "email"
	FormFieldTypePhone    FormFieldType = "phone"
	FormFieldTypeCheckbox FormFieldType = "checkbox"
	FormFieldTypeSelect   FormFieldType = "select"
	FormFieldTypeRadio    FormFieldType = "radio"
	FormFieldTypeConsent  FormFieldType = "consent"
	FormFieldTypeHidden   FormFieldType = "hidden"
	FormFieldTypeName     FormFieldType = "name"
	FormFieldTypeAddress  FormFieldType = "address"
	FormFieldTypeDate     FormFieldType = "date"
)

// String implements fmt.Stringer.
func (t FormFieldType) String() string {
	return string(t)
}

// IsMultiInput reports whether values arrive spread across sub-inputs
// rather than as a single scalar.
func (t FormFieldType) IsMultiInput() bool {
	switch t {
	case FormFieldTypeCheckbox, FormFieldTypeName, FormFieldTypeAddress:
		return true
	default:
		return false
	}
}
