package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSettingKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		code ErrorCode
	}{
		{name: "plain key", key: "delivery_fee"},
		{name: "max length", key: strings.Repeat("k", MaxSettingKeyLength)},
		{name: "empty", key: "", code: ErrorCodeValidationMissingField},
		{name: "padded", key: " delivery_fee", code: ErrorCodeValidationFailed},
		{name: "too long", key: strings.Repeat("k", MaxSettingKeyLength+1), code: ErrorCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettingKey(tt.key)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.code, GetErrorCode(err))
		})
	}
}
