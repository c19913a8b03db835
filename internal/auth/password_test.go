package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("235689qW#")
	require.NoError(t, err)
	assert.NotEqual(t, "235689qW#", hash)

	assert.True(t, CheckPassword(hash, "235689qW#"))
	assert.False(t, CheckPassword(hash, "235689qw#"))
	assert.False(t, CheckPassword("not-a-hash", "235689qW#"))
}
