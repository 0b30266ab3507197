// utils/racetime_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHours(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "full time", input: "3:30:00", expected: 3.5},
		{name: "padded full time", input: "03:30:00", expected: 3.5},
		{name: "minutes and seconds only", input: "45:30", expected: 45.0/60 + 30.0/3600},
		{name: "fractional seconds are dropped", input: "1:00:45.50", expected: 1 + 45.0/3600},
		{name: "empty string", input: "", expected: 0},
		{name: "too short", input: "1:2", expected: 0},
		{name: "single token", input: "12345", expected: 0},
		{name: "four colon tokens", input: "1:2:3:4", expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, ParseHours(tc.input), 1e-9)
		})
	}
}

func TestFormatHours(t *testing.T) {
	testCases := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero", input: 0, expected: "00:00:00"},
		{name: "exact half hour", input: 1.5, expected: "01:30:00"},
		{name: "third of an hour", input: 1 + 20.0/60, expected: "01:20:00"},
		{name: "seconds only", input: 45.0 / 3600, expected: "00:00:45"},
		{name: "fractional seconds truncate", input: 45.5 / 3600, expected: "00:00:45"},
		{name: "double digit everything", input: 12 + 34.0/60 + 56.0/3600, expected: "12:34:56"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatHours(tc.input))
		})
	}
}

// Formatting a parsed time must reproduce the zero-padded original; only the
// fractional-seconds component may be lost.
func TestParseFormatRoundTrip(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "3:30:00", expected: "03:30:00"},
		{input: "03:30:00", expected: "03:30:00"},
		{input: "1:20:00", expected: "01:20:00"},
		{input: "2:59:59", expected: "02:59:59"},
		{input: "10:05:07", expected: "10:05:07"},
		{input: "1:00:45.50", expected: "01:00:45"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatHours(ParseHours(tc.input)))
		})
	}
}
