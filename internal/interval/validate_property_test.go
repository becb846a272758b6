package interval

import (
	"fmt"
	"strconv"
	"testing"

	"pgregory.net/rapid"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

var kindGen = rapid.SampledFrom([]types.FieldKind{types.KindInteger, types.KindDecimal, types.KindText})

// schemaGen draws schemas with distinct, already-normalized field names.
func schemaGen() *rapid.Generator[types.IntervalSchema] {
	return rapid.Custom(func(rt *rapid.T) types.IntervalSchema {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,8}`), 1, 6, rapid.ID[string]).Draw(rt, "names")
		schema := make(types.IntervalSchema, len(names))
		for i, n := range names {
			schema[i] = types.IntervalField{Name: n, Kind: kindGen.Draw(rt, "kind")}
		}
		return schema
	})
}

// conformingValue draws a raw string value that coerces into kind.
func conformingValue(rt *rapid.T, kind types.FieldKind, label string) string {
	switch kind {
	case types.KindInteger:
		return strconv.Itoa(rapid.IntRange(-1_000_000, 1_000_000).Draw(rt, label))
	case types.KindDecimal:
		n := rapid.IntRange(-100_000, 100_000).Draw(rt, label)
		return fmt.Sprintf("%d.5", n)
	default:
		return "t" + rapid.StringMatching(`[a-z ]{0,12}`).Draw(rt, label)
	}
}

// Feature: custom interval validation, Property: conforming candidates pass
// and keep exactly the schema's fields.
func TestProperty_ConformingCandidatePasses(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		schema := schemaGen().Draw(rt, "schema")
		candidate := make(map[string]any, len(schema))
		for _, f := range schema {
			candidate[f.Name] = conformingValue(rt, f.Kind, f.Name)
		}

		got, err := Validate(schema, candidate)
		if err != nil {
			rt.Fatalf("conforming candidate rejected: %v", err)
		}
		if len(got) != len(schema) {
			rt.Fatalf("expected %d fields, got %d", len(schema), len(got))
		}
		for _, f := range schema {
			if got[f.Name].Kind != f.Kind {
				rt.Fatalf("field %q: expected kind %s, got %s", f.Name, f.Kind, got[f.Name].Kind)
			}
		}
	})
}

// Feature: custom interval validation, Property: dropping any field or adding
// any undeclared field is rejected, naming that field.
func TestProperty_ShapeMismatchRejected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		schema := schemaGen().Draw(rt, "schema")
		candidate := make(map[string]any, len(schema))
		for _, f := range schema {
			candidate[f.Name] = conformingValue(rt, f.Kind, f.Name)
		}

		if rapid.Bool().Draw(rt, "drop") {
			victim := rapid.SampledFrom(schema.Names()).Draw(rt, "victim")
			delete(candidate, victim)
			_, err := Validate(schema, candidate)
			assertFieldError(rt, err, victim)
			return
		}

		extra := "x_" + rapid.StringMatching(`[a-z]{1,6}`).Draw(rt, "extra")
		candidate[extra] = "1"
		_, err := Validate(schema, candidate)
		assertFieldError(rt, err, extra)
	})
}

func assertFieldError(rt *rapid.T, err error, field string) {
	fe, ok := err.(*types.FieldError)
	if !ok {
		rt.Fatalf("expected *types.FieldError, got %T (%v)", err, err)
	}
	if fe.Field != field {
		rt.Fatalf("expected error naming %q, got %q", field, fe.Field)
	}
}

// Feature: field normalization, Property: NormalizeField is idempotent.
func TestProperty_NormalizeIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.String().Draw(rt, "s")
		once := NormalizeField(s)
		if twice := NormalizeField(once); twice != once {
			rt.Fatalf("NormalizeField not idempotent: %q -> %q -> %q", s, once, twice)
		}
	})
}
