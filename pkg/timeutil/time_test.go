package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNow_AlwaysUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Now().Location())
}

func TestDateStamp(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    time.Time
		loc      *time.Location
		expected string
	}{
		{
			name:     "utc",
			input:    time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC),
			expected: "20251120",
		},
		{
			name:     "late utc is previous day in sao paulo",
			input:    time.Date(2025, 11, 20, 1, 30, 0, 0, time.UTC),
			loc:      saoPaulo,
			expected: "20251119",
		},
		{
			name:     "new year",
			input:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			loc:      time.UTC,
			expected: "20260101",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DateStamp(tt.input, tt.loc))
		})
	}
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(time.Date(2025, 11, 20, 23, 59, 59, 0, time.UTC), nil)
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), got)
}

func TestAddDays(t *testing.T) {
	start := time.Date(2025, 1, 30, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC), AddDays(start, 3, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), AddDays(start, 30, time.UTC))
}

func TestFixed(t *testing.T) {
	ts := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := Fixed(ts)
	assert.Equal(t, ts, clock())
	assert.Equal(t, ts, clock())
}
