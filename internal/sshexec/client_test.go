package sshexec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMethods_PasswordOnlyWhenSupplied(t *testing.T) {
	methods := authMethods(Credentials{User: "trainee", PrivateKey: "/nonexistent/key"})
	// no key, no agent in a test sandbox, no password: should be empty
	assert.Len(t, methods, 0)

	methods = authMethods(Credentials{User: "trainee", PrivateKey: "/nonexistent/key", Password: "secret"})
	assert.Len(t, methods, 1)
}

func TestTransient_AuthFailureIsNotRetried(t *testing.T) {
	err := errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]")
	assert.False(t, transient(err))
}

func TestTransient_NilIsNotRetried(t *testing.T) {
	assert.False(t, transient(nil))
}
