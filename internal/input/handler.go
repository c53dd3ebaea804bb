package input

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownButton is returned for click buttons other than left, right
// and middle.
var ErrUnknownButton = errors.New("unknown mouse button")

type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Injector performs OS-level pointer and keyboard actions. Implementations
// must tolerate calls from several sessions at once.
type Injector interface {
	MoveMouse(x, y int) error
	Click(btn Button) error
	KeyDown(key string) error
	KeyUp(key string) error
}

// ParseButton maps a client button name onto a Button.
func ParseButton(name string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "left", "l":
		return ButtonLeft, nil
	case "right", "r":
		return ButtonRight, nil
	case "middle", "center", "m":
		return ButtonMiddle, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownButton, name)
}

// NormalizeKey maps browser KeyboardEvent.key names onto the short names
// the injection backend understands. Anything it does not know is passed
// through lower-cased.
func NormalizeKey(k string) string {
	if k == " " {
		return "space"
	}
	k = strings.ToLower(k)
	switch k {
	case "control":
		return "ctrl"
	case "option":
		return "alt"
	case "meta", "command", "os":
		return "cmd"
	case "escape":
		return "esc"
	case "arrowup":
		return "up"
	case "arrowdown":
		return "down"
	case "arrowleft":
		return "left"
	case "arrowright":
		return "right"
	case "return":
		return "enter"
	}
	return k
}
