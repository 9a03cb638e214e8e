package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForDateTimeInput(t *testing.T) {
	assert.Equal(t, "2025-07-02T09:30", FormatForDateTimeInput("2025-07-02T09:30:00Z"))
	assert.Equal(t, "", FormatForDateTimeInput(""))
	assert.Equal(t, "", FormatForDateTimeInput("not a date"))
}

func TestDateTimeInputRoundTripKeepsMinutes(t *testing.T) {
	formatted := FormatForDateTimeInput("2025-07-02T09:30:45Z")

	parsed, err := ParseDateTimeInput(formatted)
	require.NoError(t, err)

	assert.Equal(t, 2025, parsed.Year())
	assert.Equal(t, time.July, parsed.Month())
	assert.Equal(t, 2, parsed.Day())
	assert.Equal(t, 9, parsed.Hour())
	assert.Equal(t, 30, parsed.Minute())
	assert.Equal(t, 0, parsed.Second(), "seconds are dropped at minute precision")

	// A second pass through the formatter is a fixed point.
	again := FormatForDateTimeInput(parsed.Format(time.RFC3339))
	assert.Equal(t, formatted, again)
}

func TestParseMonthNameDate(t *testing.T) {
	parsed, err := ParseMonthNameDate("JULY 2, 2025")
	require.NoError(t, err)
	assert.Equal(t, 2025, parsed.Year())
	assert.Equal(t, time.July, parsed.Month())
	assert.Equal(t, 2, parsed.Day())

	parsed, err = ParseMonthNameDate("  december 25, 2024 ")
	require.NoError(t, err)
	assert.Equal(t, time.December, parsed.Month())
}

func TestParseMonthNameDateRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "JULY 2025", "SMARCH 2, 2025", "JULY x, 2025"} {
		_, err := ParseMonthNameDate(input)
		assert.Error(t, err, "input %q", input)
	}
}
