package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicObjectURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.org/logos/3/a.png",
		PublicObjectURL("https://cdn.example.org/", "logos/3/a.png"))
	assert.Equal(t, "https://cdn.example.org/statements/my%20file.pdf",
		PublicObjectURL("https://cdn.example.org", "statements/my file.pdf"))
}

func TestObjectKeyFromURL(t *testing.T) {
	key, err := ObjectKeyFromURL("https://cdn.example.org", "https://cdn.example.org/logos/3/a.png")
	require.NoError(t, err)
	assert.Equal(t, "logos/3/a.png", key)

	key, err = ObjectKeyFromURL("https://cdn.example.org/assets/", "https://cdn.example.org/assets/logos/a.png")
	require.NoError(t, err)
	assert.Equal(t, "logos/a.png", key)

	key, err = ObjectKeyFromURL("https://cdn.example.org", PublicObjectURL("https://cdn.example.org", "a b/c.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "a b/c.pdf", key)

	_, err = ObjectKeyFromURL("https://cdn.example.org", "https://cdn.example.org/")
	assert.Error(t, err)
}

func TestNewR2Store_MissingSettings(t *testing.T) {
	_, err := NewR2Store(context.Background(), R2Options{Bucket: "b"})
	assert.Error(t, err)
}
