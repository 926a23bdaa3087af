package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Grace Community Church":   "grace-community-church",
		"  St. Mary's -- Downtown ": "st-mary-s-downtown",
		"First Baptist (Austin)":   "first-baptist-austin",
		"Church 2.0":               "church-2-0",
		"ÉGLISE Sainte":            "glise-sainte",
		"!!!":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}
