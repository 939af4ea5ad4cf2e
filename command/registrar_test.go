package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandDefinitions(t *testing.T) {
	defs := GetCommandDefinitions()
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description)
	}
	assert.Equal(t, []string{"rules", "status", "ping"}, names)
	assert.True(t, defs[0].Options[0].Autocomplete)
}
