package interval

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// unitDays maps accepted time unit spellings to their length in days.
var unitDays = map[string]int{
	"d":     1,
	"day":   1,
	"days":  1,
	"w":     7,
	"week":  7,
	"weeks": 7,
	"y":     365,
	"year":  365,
	"years": 365,
}

var intervalInput = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(.*)$`)

// ConvertUnits converts value from one time unit to another, rounding half
// to even. ConvertUnits(1, "year", "days") is 365.
func ConvertUnits(value int, from, to string) (int, error) {
	f, err := unitLength(from)
	if err != nil {
		return 0, err
	}
	t, err := unitLength(to)
	if err != nil {
		return 0, err
	}
	return int(math.RoundToEven(float64(value) * float64(f) / float64(t))), nil
}

// ParseDays converts interval input such as "90", "2 weeks", or "1 year"
// into days. A bare number is taken as days; a fractional number is
// truncated before conversion.
func ParseDays(input string) (int, error) {
	m := intervalInput.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return 0, types.Validationf("invalid interval %q, expected e.g. \"90\", \"6 weeks\", \"1 year\"", input)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, types.Validationf("invalid interval %q: %v", input, err)
	}
	unit := strings.TrimSpace(m[2])
	if unit == "" {
		unit = "days"
	}
	return ConvertUnits(int(n), unit, "days")
}

func unitLength(unit string) (int, error) {
	d, ok := unitDays[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, types.Validationf("unsupported time unit %q", unit)
	}
	return d, nil
}
