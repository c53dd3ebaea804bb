package capture

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ErrNoDisplay is returned when no active display can be found.
var ErrNoDisplay = errors.New("no active display")

// Screen produces raw pixel buffers for a region of the desktop.
type Screen interface {
	// Bounds returns the full virtual display region.
	Bounds() (image.Rectangle, error)
	// Capture grabs region.
	Capture(region image.Rectangle) (*image.RGBA, error)
}

// DisplayScreen captures the real desktop via kbinani/screenshot.
type DisplayScreen struct{}

// Bounds returns the union of all active display bounds, i.e. every monitor
// merged into one virtual screen.
func (DisplayScreen) Bounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	var all image.Rectangle
	for i := 0; i < n; i++ {
		all = all.Union(screenshot.GetDisplayBounds(i))
	}
	if all.Empty() {
		return image.Rectangle{}, ErrNoDisplay
	}
	return all, nil
}

func (DisplayScreen) Capture(region image.Rectangle) (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(region)
	if err != nil {
		return nil, fmt.Errorf("capture %v: %w", region, err)
	}
	return img, nil
}
