package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Run("wrapped command list", func(t *testing.T) {
		v := Validate(`
commands:
  - command: navigate
    url: https://example.com/login
  - command: type
    text: admin
  - command: click
    x: 120
    y: 48
`)
		assert.True(t, v.Valid)
		assert.Empty(t, v.Errors)
	})

	t.Run("bare list accepted", func(t *testing.T) {
		v := Validate(`
- command: press-keys
  keys: ["ctrl", "a"]
- command: scroll
  direction: down
  amount: 300
`)
		assert.True(t, v.Valid)
	})

	t.Run("unknown command rejected", func(t *testing.T) {
		v := Validate(`
commands:
  - command: teleport
`)
		assert.False(t, v.Valid)
		assert.NotEmpty(t, v.Errors)
	})

	t.Run("missing command key rejected", func(t *testing.T) {
		v := Validate(`
commands:
  - url: https://example.com
`)
		assert.False(t, v.Valid)
	})

	t.Run("empty commands list rejected", func(t *testing.T) {
		v := Validate("commands: []")
		assert.False(t, v.Valid)
	})

	t.Run("empty block rejected", func(t *testing.T) {
		v := Validate("   ")
		assert.False(t, v.Valid)
		assert.Equal(t, []string{"empty command block"}, v.Errors)
	})

	t.Run("broken yaml reported", func(t *testing.T) {
		v := Validate("commands: [unclosed")
		assert.False(t, v.Valid)
		assert.Contains(t, v.Errors[0], "yaml parse failed")
	})

	t.Run("negative coordinate rejected", func(t *testing.T) {
		v := Validate(`
commands:
  - command: click
    x: -5
    y: 10
`)
		assert.False(t, v.Valid)
	})
}
