package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

func TestConvertUnits(t *testing.T) {
	tests := []struct {
		value    int
		from, to string
		want     int
	}{
		{1, "year", "days", 365},
		{2, "weeks", "days", 14},
		{14, "days", "weeks", 2},
		{10, "days", "weeks", 1},
		{730, "d", "y", 2},
		{3, "W", "D", 21},
	}
	for _, tt := range tests {
		got, err := ConvertUnits(tt.value, tt.from, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d %s -> %s", tt.value, tt.from, tt.to)
	}

	_, err := ConvertUnits(1, "fortnight", "days")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"90", 90},
		{"90 days", 90},
		{"6 weeks", 42},
		{"1 year", 365},
		{"1y", 365},
		{"2.9 weeks", 14},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDays(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, in := range []string{"", "weekly", "-3 days", "3 fortnights"} {
		_, err := ParseDays(in)
		assert.ErrorIs(t, err, types.ErrValidation, in)
	}
}
