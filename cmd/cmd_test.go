package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	doc := []byte(`[{"rule":"mention","community":"pcm","command":"!pin","action":"pin"},{"rule":"post"}]`)

	err := validate(&out, doc)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 item(s) invalid", err.Error())
	assert.Contains(t, out.String(), "item 1: mention rule for pcm")
	assert.Contains(t, out.String(), "item 2: unrecognized schema")
}

func TestValidateCommandReadsFencedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.md")
	require.NoError(t, os.WriteFile(path, []byte("```json\n{\"rule\":\"exception\",\"community\":\"pcm\",\"user_name\":\"bob\"}\n```"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", path})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "item 1: exception rule for pcm\n", out.String())
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "automod dev\n", out.String())
}
