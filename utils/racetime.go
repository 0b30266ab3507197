// utils/racetime.go
package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHours converts a race duration of the form "H:MM:SS", "H:MM:SS.cc" or
// "MM:SS" to a numeric hours value. A fractional-seconds component only
// affects display elsewhere, so it is dropped here. Anything shorter than 4
// characters or not matching either shape parses to 0.
func ParseHours(text string) float64 {
	if len(text) < 4 {
		return 0
	}

	parts := strings.Split(text, ":")
	var h, m, s string
	switch len(parts) {
	case 3:
		h, m, s = parts[0], parts[1], parts[2]
	case 2:
		m, s = parts[0], parts[1]
	default:
		return 0
	}

	// "45.50" counts as 45 whole seconds for filtering purposes.
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}

	hi, _ := strconv.ParseFloat(h, 64)
	mi, _ := strconv.ParseFloat(m, 64)
	si, _ := strconv.ParseFloat(s, 64)

	return hi + mi/60 + si/3600
}

// FormatHours renders a numeric hours value as a zero-padded "HH:MM:SS"
// string. Every field is truncated, never rounded; the 2-wide zero padding is
// relied upon by the team ranking's string ordering and must not change.
func FormatHours(hours float64) string {
	// The epsilon absorbs binary representation noise (1/3h must format as
	// 20 minutes, not 19:59) without rounding genuine fractional seconds.
	h := int(hours + 1e-9)
	rem := int((hours-float64(h))*3600 + 1e-6)
	m := rem / 60
	s := rem % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
