package interval

import (
	"math"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// NormalizeField returns the canonical form of a field identifier: trimmed,
// lowercase, with runs of spaces, hyphens, and underscores collapsed into a
// single underscore. "Oil  Grade" and "oil-grade" both become "oil_grade".
func NormalizeField(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case ' ', '\t', '-', '_':
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	return b.String()
}

// Coerce converts a raw candidate value into a tagged Value.
//
// Strings are parsed: integral text becomes an integer, decimal text a
// decimal, anything else stays text. Go integer types become integers.
// Floats become integers when they hold an integral value (JSON decoding
// yields float64 for every number), otherwise decimals.
func Coerce(raw any) (types.Value, bool) {
	switch v := raw.(type) {
	case types.Value:
		return v, v.Kind.Valid()
	case string:
		return coerceText(v), true
	case int:
		return types.IntValue(int64(v)), true
	case int32:
		return types.IntValue(int64(v)), true
	case int64:
		return types.IntValue(v), true
	case float32:
		return coerceFloat(float64(v)), true
	case float64:
		return coerceFloat(v), true
	case interface{ String() string }:
		// json.Number and friends.
		return coerceText(v.String()), true
	default:
		return types.Value{}, false
	}
}

func coerceText(s string) types.Value {
	t := strings.TrimSpace(s)
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return types.IntValue(i)
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return types.DecimalValue(f)
	}
	return types.TextValue(s)
}

func coerceFloat(f float64) types.Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return types.IntValue(int64(f))
	}
	return types.DecimalValue(f)
}

// accepts reports whether a value of kind got satisfies a field declared as
// want. Integers widen into decimal fields.
func accepts(want types.FieldKind, got types.Value) (types.Value, bool) {
	switch {
	case want == got.Kind:
		return got, true
	case want == types.KindDecimal && got.Kind == types.KindInteger:
		return types.DecimalValue(float64(got.Int)), true
	default:
		return types.Value{}, false
	}
}
