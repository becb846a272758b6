package interval

import (
	"fmt"
	"math"
	"sort"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// ValidateSchema normalizes and checks a template schema. It returns the
// normalized copy, or nil for a nil schema. An empty non-nil schema, a blank
// or duplicate field name, or an unknown kind fails with a *types.FieldError.
func ValidateSchema(schema types.IntervalSchema) (types.IntervalSchema, error) {
	if schema == nil {
		return nil, nil
	}
	if len(schema) == 0 {
		return nil, &types.FieldError{Reason: "schema must declare at least one field"}
	}
	out := make(types.IntervalSchema, 0, len(schema))
	seen := make(map[string]bool, len(schema))
	for _, f := range schema {
		name := NormalizeField(f.Name)
		if name == "" {
			return nil, &types.FieldError{Field: f.Name, Reason: "field name must not be blank"}
		}
		if seen[name] {
			return nil, &types.FieldError{Field: name, Reason: "declared more than once"}
		}
		if !f.Kind.Valid() {
			return nil, &types.FieldError{Field: name, Reason: fmt.Sprintf("unknown kind %q", f.Kind)}
		}
		seen[name] = true
		out = append(out, types.IntervalField{Name: name, Kind: f.Kind})
	}
	return out, nil
}

// Validate checks a candidate custom interval value against a template
// schema and returns the typed value to persist.
//
// A nil schema requires an absent candidate (nil or empty). A present schema
// requires exactly its fields, compared after NormalizeField, each holding a
// value whose coerced kind matches the declaration. Failures are
// *types.FieldError values naming the offending field; missing fields are
// reported in schema order before extra fields in sorted order.
func Validate(schema types.IntervalSchema, candidate map[string]any) (types.IntervalValue, error) {
	if schema == nil {
		if len(candidate) > 0 {
			return nil, &types.FieldError{
				Field:  firstKey(candidate),
				Reason: "template defines no custom interval, none may be supplied",
			}
		}
		return nil, nil
	}

	normSchema, err := ValidateSchema(schema)
	if err != nil {
		return nil, err
	}
	if len(candidate) == 0 {
		return nil, &types.FieldError{
			Field:  normSchema[0].Name,
			Reason: "template requires a custom interval, none supplied",
		}
	}

	byName := make(map[string]any, len(candidate))
	for _, raw := range sortedKeys(candidate) {
		name := NormalizeField(raw)
		if _, dup := byName[name]; dup {
			return nil, &types.FieldError{Field: name, Reason: "supplied more than once"}
		}
		byName[name] = candidate[raw]
	}

	out := make(types.IntervalValue, len(normSchema))
	for _, f := range normSchema {
		raw, ok := byName[f.Name]
		if !ok {
			return nil, &types.FieldError{Field: f.Name, Reason: "missing"}
		}
		v, ok := Coerce(raw)
		if !ok {
			return nil, &types.FieldError{Field: f.Name, Reason: fmt.Sprintf("unsupported value type %T", raw)}
		}
		if v.Kind == types.KindDecimal && (math.IsNaN(v.Dec) || math.IsInf(v.Dec, 0)) {
			return nil, &types.FieldError{Field: f.Name, Reason: fmt.Sprintf("%v is not a finite number", v.Dec)}
		}
		typed, ok := accepts(f.Kind, v)
		if !ok {
			return nil, &types.FieldError{
				Field:  f.Name,
				Reason: fmt.Sprintf("expected %s, got %s %q", f.Kind, v.Kind, v.String()),
			}
		}
		out[f.Name] = typed
		delete(byName, f.Name)
	}

	if len(byName) > 0 {
		return nil, &types.FieldError{Field: firstKey(byName), Reason: "not declared by the template"}
	}
	return out, nil
}

// SchemaFromSample infers a schema from sample values, one field per entry,
// using the same coercion rules as Validate. Fields are ordered by name.
func SchemaFromSample(sample map[string]string) (types.IntervalSchema, error) {
	if len(sample) == 0 {
		return nil, nil
	}
	schema := make(types.IntervalSchema, 0, len(sample))
	for _, k := range sortedKeys(sample) {
		schema = append(schema, types.IntervalField{Name: k, Kind: coerceText(sample[k]).Kind})
	}
	out, err := ValidateSchema(schema)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ParseKind parses a kind name, accepting a few common aliases.
func ParseKind(s string) (types.FieldKind, error) {
	switch NormalizeField(s) {
	case "integer", "int":
		return types.KindInteger, nil
	case "decimal", "float", "number":
		return types.KindDecimal, nil
	case "text", "string", "str":
		return types.KindText, nil
	default:
		return "", types.Validationf("unknown field kind %q (valid: integer, decimal, text)", s)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstKey[V any](m map[string]V) string {
	keys := sortedKeys(m)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
