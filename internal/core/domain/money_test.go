package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"100.00", 10000, false},
		{"0.01", 1, false},
		{"70.5", 7050, false},
		{"1000", 100000, false},
		{"10.001", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"-5.00", -500, false}, // sign is validated by the caller, not the parser
		{"92233720368547758.07", math.MaxInt64, false},
		{"92233720368547758.08", 0, true},    // one cent past int64
		{"184467440737095517.16", 0, true},   // 2^64+100 cents would wrap to 100
		{"99999999999999999999.00", 0, true}, // far past int64
		{"-92233720368547758.07", -math.MaxInt64, false},
		{"-92233720368547758.08", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "70.50", FormatAmount(7050))
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "0.01", FormatAmount(1))
	assert.Equal(t, "1000.00", FormatAmount(100000))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 7050, 123456789} {
		parsed, err := ParseAmount(FormatAmount(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, parsed)
	}
}
