package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseButton(t *testing.T) {
	for name, want := range map[string]Button{
		"":       ButtonLeft,
		"left":   ButtonLeft,
		"Right":  ButtonRight,
		"middle": ButtonMiddle,
		"center": ButtonMiddle,
	} {
		got, err := ParseButton(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseButton("x1")
	assert.ErrorIs(t, err, ErrUnknownButton)
}

func TestNormalizeKey(t *testing.T) {
	for in, want := range map[string]string{
		"ArrowUp":  "up",
		"Escape":   "esc",
		"Control":  "ctrl",
		"Meta":     "cmd",
		" ":        "space",
		"Enter":    "enter",
		"A":        "a",
		"F5":       "f5",
		"pagedown": "pagedown",
	} {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}
