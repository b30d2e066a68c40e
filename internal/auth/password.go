package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CheckAdminPassword compares a login attempt against the configured
// admin credential. The configured value may be a bcrypt hash (the
// recommended form) or, for small deployments, the plain password; the
// plain comparison is constant-time.
func CheckAdminPassword(configured, attempt string) bool {
	if configured == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(attempt)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(attempt)) == 1
}
