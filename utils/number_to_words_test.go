package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberToWords(t *testing.T) {
	assert.Equal(t, "", NumberToWords(0))
	assert.Equal(t, "Seven", NumberToWords(7))
	assert.Equal(t, "Nineteen", NumberToWords(19))
	assert.Equal(t, "Forty", NumberToWords(40))
	assert.Equal(t, "Forty Two", NumberToWords(42))
	assert.Equal(t, "One Hundred", NumberToWords(100))
	assert.Equal(t, "One Hundred Twenty", NumberToWords(120))
	assert.Equal(t, "Twelve Thousand Three Hundred Forty Five", NumberToWords(12345))
	assert.Equal(t, "Two Million Five", NumberToWords(2000005))
	assert.Equal(t, "One Billion", NumberToWords(1000000000))
}

func TestCentsToWords(t *testing.T) {
	assert.Equal(t, "Zero Dollars", CentsToWords(0))
	assert.Equal(t, "One Dollar", CentsToWords(100))
	assert.Equal(t, "One Cent", CentsToWords(1))
	assert.Equal(t, "One Hundred Twenty Dollars and Five Cents", CentsToWords(12005))
	assert.Equal(t, "Seven Dollars and Twelve Cents", CentsToWords(712))
}
