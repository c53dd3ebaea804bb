package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMalformed marks a payload that is not a usable JSON object or
	// whose fields cannot be coerced to the required types.
	ErrMalformed = errors.New("malformed input message")
	// ErrEmptyKey marks a keyboard message without a key. Callers drop it
	// silently.
	ErrEmptyKey = errors.New("keyboard message without key")
)

// Input is one decoded client event. The concrete type is one of
// MouseMove, MouseClick, KeyDown, KeyUp or Unrecognized.
type Input interface {
	Kind() string
}

// MouseMove moves the pointer to absolute screen coordinates.
type MouseMove struct {
	X, Y int
}

// MouseClick clicks Button once.
type MouseClick struct {
	Button string
}

// KeyDown presses Key.
type KeyDown struct {
	Key string
}

// KeyUp releases Key.
type KeyUp struct {
	Key string
}

// Unrecognized is a well-formed message whose type or action is unknown.
type Unrecognized struct {
	Type   string
	Action string
}

func (MouseMove) Kind() string    { return "mouse" }
func (MouseClick) Kind() string   { return "mouse" }
func (KeyDown) Kind() string      { return "keyboard" }
func (KeyUp) Kind() string        { return "keyboard" }
func (Unrecognized) Kind() string { return "unknown" }

func (u Unrecognized) String() string {
	if u.Action == "" {
		return fmt.Sprintf("type=%q", u.Type)
	}
	return fmt.Sprintf("type=%q action=%q", u.Type, u.Action)
}

// DefaultButton is used when a click carries no button.
const DefaultButton = "left"

// header holds the fields every client message shares. Variant fields stay
// raw until the variant is known, so a bad field that the variant does not
// use never fails the decode.
type header struct {
	Type   string          `json:"type"`
	Action string          `json:"action"`
	X      json.RawMessage `json:"x"`
	Y      json.RawMessage `json:"y"`
	Button json.RawMessage `json:"button"`
	Key    json.RawMessage `json:"key"`
}

// DecodeInput parses one client message. It returns ErrMalformed (wrapped)
// for undecodable payloads and ErrEmptyKey for keyboard messages without a
// key. Unknown types and actions decode to Unrecognized.
func DecodeInput(data []byte) (Input, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch h.Type {
	case "mouse":
		return decodeMouse(h)
	case "keyboard":
		return decodeKeyboard(h)
	default:
		return Unrecognized{Type: h.Type}, nil
	}
}

func decodeMouse(h header) (Input, error) {
	switch h.Action {
	case "move":
		x, err := coord(h.X)
		if err != nil {
			return nil, fmt.Errorf("%w: x: %v", ErrMalformed, err)
		}
		y, err := coord(h.Y)
		if err != nil {
			return nil, fmt.Errorf("%w: y: %v", ErrMalformed, err)
		}
		return MouseMove{X: x, Y: y}, nil
	case "click":
		button := DefaultButton
		if len(h.Button) > 0 {
			if err := json.Unmarshal(h.Button, &button); err != nil {
				return nil, fmt.Errorf("%w: button: %v", ErrMalformed, err)
			}
			if button == "" {
				button = DefaultButton
			}
		}
		return MouseClick{Button: button}, nil
	default:
		return Unrecognized{Type: h.Type, Action: h.Action}, nil
	}
}

func decodeKeyboard(h header) (Input, error) {
	key, err := keyName(h.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: key: %v", ErrMalformed, err)
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	switch h.Action {
	case "keydown":
		return KeyDown{Key: key}, nil
	case "keyup":
		return KeyUp{Key: key}, nil
	default:
		return Unrecognized{Type: h.Type, Action: h.Action}, nil
	}
}

// coord accepts a JSON number (fractions truncate toward zero) or a string
// holding an integer. A missing field is 0.
func coord(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.Atoi(strings.TrimSpace(s))
	case 'n', 't', 'f', '{', '[':
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("out of range: %s", raw)
	}
	return int(f), nil
}

// keyName accepts a string or a bare number ("key": 5 means "5").
func keyName(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	if _, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return string(raw), nil
	}
	return "", fmt.Errorf("not a key name: %s", raw)
}
