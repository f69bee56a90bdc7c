package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUID(t *testing.T) {
	a, b := GenerateUUID(), GenerateUUID()
	assert.NotEqual(t, a, b)
	assert.True(t, IsValidUUID(a))
	assert.Len(t, a, 36)
}

func TestGenerateShortID(t *testing.T) {
	id := GenerateShortID()
	assert.Len(t, id, 8)
	assert.Regexp(t, `^[0-9a-f]{8}$`, id)
}

func TestIsValidUUID(t *testing.T) {
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("missing"))
	assert.True(t, IsValidUUID("123e4567-e89b-12d3-a456-426614174000"))
}
