package blitz

import (
	"math"
	"strconv"
	"strings"
)

// ParseHours converts the "next turn" text of a status page, for example
// "1 day, 2 hours" or "on submission", into a number of hours.
//
// Units are matched by substring so "hours" and "hour" both count as hours.
func ParseHours(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if strings.EqualFold(trimmed, "on submission") {
		return 0, nil
	}

	total := 0.0
	for _, token := range strings.Split(trimmed, ", ") {
		fields := strings.Fields(token)
		if len(fields) != 2 {
			return 0, &FormatError{Input: text, Token: token, Reason: "expected <number> <unit>"}
		}

		value, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			return 0, &FormatError{Input: text, Token: token, Reason: "invalid number"}
		}

		unit := strings.ToLower(fields[1])
		switch {
		case strings.Contains(unit, "minute"):
			total += value / 60
		case strings.Contains(unit, "hour"):
			total += value
		case strings.Contains(unit, "day"):
			total += value * 24
		default:
			return 0, &FormatError{Input: text, Token: token, Reason: "unknown unit"}
		}
	}
	return total, nil
}
