package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSON(t *testing.T) {
	iv := IntervalValue{
		"type":  TextValue("mileage"),
		"value": IntValue(5000),
		"ratio": DecimalValue(2.5),
	}

	data, err := json.Marshal(iv)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type":  {"kind": "text", "value": "mileage"},
		"value": {"kind": "integer", "value": 5000},
		"ratio": {"kind": "decimal", "value": 2.5}
	}`, string(data))

	var back IntervalValue
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, iv, back)
}

func TestValueJSONKeepsLargeIntegers(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"integer","value":9007199254740993}`), &v))
	assert.Equal(t, int64(9007199254740993), v.Int)
}

func TestValueJSONRejectsUnknownKind(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"kind":"boolean","value":true}`), &v)
	assert.Error(t, err)
}

func TestFieldKindValid(t *testing.T) {
	assert.True(t, KindInteger.Valid())
	assert.True(t, KindDecimal.Valid())
	assert.True(t, KindText.Valid())
	assert.False(t, FieldKind("boolean").Valid())
}
