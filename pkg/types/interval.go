package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldKind is the declared kind of a custom interval field.
type FieldKind string

// Field kinds.
const (
	KindInteger FieldKind = "integer"
	KindDecimal FieldKind = "decimal"
	KindText    FieldKind = "text"
)

// Valid reports whether k is one of the recognized field kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case KindInteger, KindDecimal, KindText:
		return true
	}
	return false
}

// IntervalField declares one required field of a custom interval schema.
type IntervalField struct {
	Name string    `json:"name" yaml:"name"`
	Kind FieldKind `json:"kind" yaml:"kind"`
}

// IntervalSchema is the ordered field list a template declares. A nil schema
// means the template has no custom interval.
type IntervalSchema []IntervalField

// Names returns the field names in declaration order.
func (s IntervalSchema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Value is a tagged custom interval value. Exactly one of Int, Dec, or Text
// is meaningful, chosen by Kind.
type Value struct {
	Kind FieldKind
	Int  int64
	Dec  float64
	Text string
}

// IntValue returns an integer Value.
func IntValue(v int64) Value { return Value{Kind: KindInteger, Int: v} }

// DecimalValue returns a decimal Value.
func DecimalValue(v float64) Value { return Value{Kind: KindDecimal, Dec: v} }

// TextValue returns a text Value.
func TextValue(v string) Value { return Value{Kind: KindText, Text: v} }

// Native returns the value as int64, float64, or string.
func (v Value) Native() any {
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindDecimal:
		return v.Dec
	default:
		return v.Text
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindDecimal:
		return strconv.FormatFloat(v.Dec, 'f', -1, 64)
	default:
		return v.Text
	}
}

type valueJSON struct {
	Kind  FieldKind       `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"kind": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(v.Native())
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Kind: v.Kind, Value: raw})
}

// UnmarshalJSON decodes the {"kind": ..., "value": ...} form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var vj valueJSON
	if err := json.Unmarshal(data, &vj); err != nil {
		return err
	}
	out := Value{Kind: vj.Kind}
	switch vj.Kind {
	case KindInteger:
		dec := json.NewDecoder(bytes.NewReader(vj.Value))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("decoding integer value: %w", err)
		}
		i, err := n.Int64()
		if err != nil {
			return fmt.Errorf("decoding integer value: %w", err)
		}
		out.Int = i
	case KindDecimal:
		if err := json.Unmarshal(vj.Value, &out.Dec); err != nil {
			return fmt.Errorf("decoding decimal value: %w", err)
		}
	case KindText:
		if err := json.Unmarshal(vj.Value, &out.Text); err != nil {
			return fmt.Errorf("decoding text value: %w", err)
		}
	default:
		return fmt.Errorf("unknown value kind %q", vj.Kind)
	}
	*v = out
	return nil
}

// IntervalValue is a plan's concrete custom interval, keyed by normalized
// field name. A nil map means the plan has no custom interval.
type IntervalValue map[string]Value
