package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain day", "2025-03-14", "2025-03-14"},
		{"timestamp", "2025-03-14T18:30:00Z", "2025-03-14"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			day, err := ParseDay(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, FormatDay(day))
		})
	}

	_, err := ParseDay("14/03/2025")
	assert.Error(t, err)
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2025, time.February))
	assert.Equal(t, 31, DaysInMonth(2025, time.December))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 1, 2, 1, 0, 0, 0, time.UTC)
	b := time.Date(2025, 1, 2, 23, 59, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.Add(time.Hour)))
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), StartOfDay(b))
}
