package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundUpCents(t *testing.T) {
	cases := map[int64]int64{
		412:  88,
		499:  1,
		501:  99,
		1:    99,
		100:  0,
		2500: 0,
	}
	for amount, want := range cases {
		got, err := RoundUpCents(amount)
		require.NoError(t, err)
		assert.Equal(t, want, got, "amount %d", amount)
	}

	_, err := RoundUpCents(0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = RoundUpCents(-5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestProcessingFee(t *testing.T) {
	// 2.9% of $7.00 is 20.3 cents, rounded to 20, plus 30.
	assert.Equal(t, int64(50), ProcessingFee(700))
	// 2.9% of $10.00 is exactly 29 cents.
	assert.Equal(t, int64(59), ProcessingFee(1000))
	// 2.9% of $25.00 is 72.5 cents, rounded half-up to 73.
	assert.Equal(t, int64(103), ProcessingFee(2500))
	assert.Equal(t, int64(0), ProcessingFee(0))
	assert.Equal(t, int64(0), ProcessingFee(-100))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCents(0))
	assert.Equal(t, "$0.07", FormatCents(7))
	assert.Equal(t, "$7.12", FormatCents(712))
	assert.Equal(t, "$1,234.56", FormatCents(123456))
	assert.Equal(t, "$1,000,000.00", FormatCents(100000000))
	assert.Equal(t, "-$3.50", FormatCents(-350))
}

func TestParseDollars(t *testing.T) {
	ok := map[string]int64{
		"12":     1200,
		"12.3":   1230,
		"12.34":  1234,
		"$4.12":  412,
		" 0.99 ": 99,
		".5":     50,
	}
	for in, want := range ok {
		got, err := ParseDollars(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "1.234", "1.", "-2", "1.-5"} {
		_, err := ParseDollars(in)
		assert.Error(t, err, in)
	}
}
