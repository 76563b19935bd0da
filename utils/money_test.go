package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDenomination(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$25", 25},
		{"25", 25},
		{"25.50", 25.5},
		{" $1,000 ", 1000},
		{"$0", 0},
	}
	for _, tt := range tests {
		got, err := ParseDenomination(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDenominationRejectsNonPrices(t *testing.T) {
	for _, in := range []string{"", "unlimited", "$-5", "25 GB", "Inf", "-Inf", "NaN"} {
		_, err := ParseDenomination(in)
		assert.Error(t, err, in)
	}
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 25.5, RoundCents(25.4999999))
	assert.Equal(t, 0.1, RoundCents(0.1))
	assert.Equal(t, 27.5, RoundCents(27.50))
	assert.Equal(t, -1.0, RoundCents(-1.0001))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "25.00", FormatAmount(25))
	assert.Equal(t, "25.50", FormatAmount(25.499999))
	assert.Equal(t, "0.00", FormatAmount(0))
}
