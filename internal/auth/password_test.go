package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckAdminPasswordPlain(t *testing.T) {
	assert.True(t, CheckAdminPassword("hunter2", "hunter2"))
	assert.False(t, CheckAdminPassword("hunter2", "hunter3"))
	assert.False(t, CheckAdminPassword("hunter2", ""))
}

func TestCheckAdminPasswordBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckAdminPassword(string(hash), "hunter2"))
	assert.False(t, CheckAdminPassword(string(hash), "hunter3"))
}

func TestCheckAdminPasswordUnconfigured(t *testing.T) {
	// No configured credential means nobody logs in, not everybody.
	assert.False(t, CheckAdminPassword("", ""))
	assert.False(t, CheckAdminPassword("", "anything"))
}
