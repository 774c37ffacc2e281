package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("demo1234", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "demo1234", hash)
	assert.True(t, HasUsablePassword(hash))
	assert.True(t, VerifyPassword(hash, "demo1234"))
	assert.False(t, VerifyPassword(hash, "demo12345"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestUnusablePassword(t *testing.T) {
	hash, err := UnusablePassword()
	require.NoError(t, err)

	assert.False(t, HasUsablePassword(hash))
	assert.False(t, HasUsablePassword(""))
	assert.False(t, VerifyPassword(hash, ""))
	assert.False(t, VerifyPassword(hash, hash))
}

func TestNewTokenKey(t *testing.T) {
	a, err := NewTokenKey()
	require.NoError(t, err)
	b, err := NewTokenKey()
	require.NoError(t, err)

	assert.Len(t, a, TokenKeyLen)
	assert.NotEqual(t, a, b)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
}
