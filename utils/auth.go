package utils

import (
	"crypto/subtle"
	"strings"
)

// Auth checks API keys presented by operator clients.
type Auth struct {
	keys [][]byte
}

// NewAuth creates an Auth accepting the given keys. Blank keys are ignored.
func NewAuth(keys []string) *Auth {
	a := &Auth{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			a.keys = append(a.keys, []byte(k))
		}
	}
	return a
}

// Enabled reports whether any key is configured. With no keys every caller
// is rejected.
func (a *Auth) Enabled() bool {
	return len(a.keys) > 0
}

// IsValidKey checks a presented key against the configured ones.
func (a *Auth) IsValidKey(key string) bool {
	presented := []byte(key)
	valid := false
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(presented, k) == 1 {
			valid = true
		}
	}
	return valid
}
