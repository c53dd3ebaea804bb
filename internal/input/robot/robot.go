// Package robot injects input into the local desktop through robotgo.
package robot

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"weblinuxgui/internal/input"
)

// Injector drives the host pointer and keyboard.
type Injector struct{}

func New() *Injector {
	return &Injector{}
}

func (*Injector) MoveMouse(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (*Injector) Click(btn input.Button) error {
	switch btn {
	case input.ButtonLeft:
		robotgo.Click("left")
	case input.ButtonRight:
		robotgo.Click("right")
	case input.ButtonMiddle:
		// robotgo calls the middle button "center"
		robotgo.Click("center")
	default:
		return fmt.Errorf("%w: %q", input.ErrUnknownButton, btn)
	}
	return nil
}

func (*Injector) KeyDown(key string) error {
	if err := robotgo.KeyToggle(key, "down"); err != nil {
		return fmt.Errorf("key down %q: %w", key, err)
	}
	return nil
}

func (*Injector) KeyUp(key string) error {
	if err := robotgo.KeyToggle(key, "up"); err != nil {
		return fmt.Errorf("key up %q: %w", key, err)
	}
	return nil
}
