package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("p1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	again, err := HashPassword("p1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("p1", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "p1"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "p1"))
}

func TestHashPassword_BadCost(t *testing.T) {
	_, err := HashPassword("p1", bcrypt.MaxCost+1)
	assert.Error(t, err)
}

func TestHashPassword_LongPassword(t *testing.T) {
	long := strings.Repeat("a", MaxPasswordBytes+1)

	hash, err := HashPassword(long, bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, long))
	assert.True(t, CheckPassword(hash, long[:MaxPasswordBytes]))
	assert.False(t, CheckPassword(hash, long[:MaxPasswordBytes-1]))
}
