package subtitle

import (
	"regexp"
	"strconv"
	"strings"
)

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseTimestamp converts HH:MM:SS.mmm, MM:SS.mmm or their comma variants
// into seconds. ok is false for anything else.
func ParseTimestamp(s string) (seconds float64, ok bool) {
	parts := strings.Split(strings.ReplaceAll(s, ",", "."), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}

	values := make([]float64, len(parts))
	for i, part := range parts {
		if !decimalPattern.MatchString(part) {
			return 0, false
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, false
		}
		values[i] = v
	}

	if len(values) == 3 {
		return values[0]*3600 + values[1]*60 + values[2], true
	}
	return values[0]*60 + values[1], true
}
