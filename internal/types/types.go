package types

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// FrameEncoding is the only encoding the server emits.
const FrameEncoding = "jpeg-base64"

// FrameMessage is the outbound frame payload.
type FrameMessage struct {
	Type      string  `json:"type"`
	Timestamp float64 `json:"timestamp"`
	Encoding  string  `json:"encoding"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Quality   int     `json:"quality"`
	Data      string  `json:"data"`
}

// NewFrame wraps an encoded JPEG into a frame message stamped with at.
func NewFrame(jpegBytes []byte, width, height, quality int, at time.Time) FrameMessage {
	return FrameMessage{
		Type:      "frame",
		Timestamp: Seconds(at),
		Encoding:  FrameEncoding,
		Width:     width,
		Height:    height,
		Quality:   quality,
		Data:      base64.StdEncoding.EncodeToString(jpegBytes),
	}
}

// Marshal returns the JSON text form of the frame.
func (f FrameMessage) Marshal() ([]byte, error) {
	return json.Marshal(f)
}

// Seconds converts t to fractional Unix seconds.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
