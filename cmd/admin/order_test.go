package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		id   int64
		isID bool
	}{
		{"42", 42, true},
		{"AC-20250314-0001", 0, false},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, ok := parseID(tt.in)
			assert.Equal(t, tt.isID, ok)
			if ok {
				assert.Equal(t, tt.id, id)
			}
		})
	}
}

func TestOrderDeleteRequiresConfirmation(t *testing.T) {
	cmd := orderDeleteCmd(&rootOptions{})
	cmd.SetArgs([]string{"7"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestOrderStatusRejectsBadID(t *testing.T) {
	cmd := orderStatusCmd(&rootOptions{})
	cmd.SetArgs([]string{"AC-20250314-0001", "confirmed"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid order id")
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"delivery_fee=15.00", "greeting=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, "15.00", got["delivery_fee"])
	assert.Equal(t, "a=b", got["greeting"])
	assert.Equal(t, "", got["empty"])

	_, err = parseAssignments([]string{"delivery_fee"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=15"})
	assert.Error(t, err)
}

func TestConfigSetRequiresAssignment(t *testing.T) {
	cmd := configSetCmd(&rootOptions{})
	cmd.SetArgs([]string{"delivery_fee"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=value")
}
