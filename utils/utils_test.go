package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestAuth(t *testing.T) {
	assert := assert.New(t)

	open := NewAuth([]string{" ", ""})
	assert.False(open.Enabled())
	assert.False(open.IsValidKey("anything"))
	assert.False(open.IsValidKey(""))

	auth := NewAuth([]string{"alpha", " beta "})
	assert.True(auth.Enabled())
	assert.True(auth.IsValidKey("alpha"))
	assert.True(auth.IsValidKey("beta"))
	assert.False(auth.IsValidKey("gamma"))
	assert.False(auth.IsValidKey(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	long := strings.Repeat("x", 2000)
	got := truncate(long)
	assert.Len(t, got, maxFieldLen)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTruncateKeepsRunes(t *testing.T) {
	got := truncate(strings.Repeat("x", maxFieldLen-4) + strings.Repeat("→", 10))
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxFieldLen)
	assert.Equal(t, strings.Repeat("x", maxFieldLen-4)+"...", got)
}

func TestCutString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("ab", CutString("ab→", 3))
	assert.Equal("ab→", CutString("ab→", 5))
	assert.Equal("ab→", CutString("ab→", 10))
	assert.Equal("", CutString("→", 2))
}

func TestLogWithoutSession(t *testing.T) {
	InitLogger(nil, "")
	assert.NotPanics(t, func() {
		Info("Test", "Log", "no session")
		Warn("Test", "Log", "no session")
		Error("Test", "Log", "no session")
	})
}
