package domain

import "strings"

// MaxSettingKeyLength bounds store setting keys
const MaxSettingKeyLength = 64

// StoreSettings is the admin-editable store configuration, such as delivery
// fee or opening hours. Values are kept as text.
type StoreSettings map[string]string

// ValidateSettingKey rejects empty, padded or oversized keys
func ValidateSettingKey(key string) error {
	switch {
	case key == "":
		return NewDomainError(ErrorCodeValidationMissingField, "setting key is empty")
	case strings.TrimSpace(key) != key:
		return NewDomainError(ErrorCodeValidationFailed, "setting key has surrounding whitespace").
			WithDetail("key", key)
	case len(key) > MaxSettingKeyLength:
		return NewDomainError(ErrorCodeValidationFailed, "setting key is too long").
			WithDetail("key", key).
			WithDetail("max_length", MaxSettingKeyLength)
	}
	return nil
}
