package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Settings holds the static server settings. Loaded once at startup and
// passed around by value; nothing mutates it afterwards. SendCursor is
// accepted for compatibility but no component reads it yet.
type Settings struct {
	Host           string
	Port           int
	TargetFPS      int
	JPEGQuality    int
	MaxConnections int
	ResizeScale    float64
	SendCursor     bool
	LogLevel       string
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Host:           "0.0.0.0",
		Port:           8765,
		TargetFPS:      12,
		JPEGQuality:    60,
		MaxConnections: 5,
		ResizeScale:    1.0,
		SendCursor:     true,
		LogLevel:       "info",
	}
}

// Addr is the listen address in host:port form.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// FrameInterval is the per-frame time budget derived from TargetFPS.
func (s Settings) FrameInterval() time.Duration {
	fps := s.TargetFPS
	if fps < 1 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

// Load builds Settings from defaults, then the optional TOML file at path,
// then REMOTE_* environment variables. Malformed or out-of-range values in
// either layer are ignored field by field. Only an unreadable or unparsable
// file that was explicitly named is an error.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path != "" {
		var err error
		if s, err = mergeFile(s, path); err != nil {
			return Defaults(), err
		}
	}
	return mergeEnv(s), nil
}

// FromEnv is Load without a config file.
func FromEnv() Settings {
	return mergeEnv(Defaults())
}

// fileSettings uses pointers so keys absent from the file keep the
// previous layer's value.
type fileSettings struct {
	Host           *string  `toml:"host"`
	Port           *int     `toml:"port"`
	TargetFPS      *int     `toml:"target_fps"`
	JPEGQuality    *int     `toml:"jpeg_quality"`
	MaxConnections *int     `toml:"max_connections"`
	ResizeScale    *float64 `toml:"resize_scale"`
	SendCursor     *bool    `toml:"send_cursor"`
	LogLevel       *string  `toml:"log_level"`
}

func mergeFile(s Settings, path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config %s: %w", path, err)
	}
	var fs fileSettings
	if _, err := toml.Decode(string(raw), &fs); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	if fs.Host != nil && validHost(*fs.Host) {
		s.Host = strings.TrimSpace(*fs.Host)
	}
	if fs.Port != nil && validPort(*fs.Port) {
		s.Port = *fs.Port
	}
	if fs.TargetFPS != nil && validFPS(*fs.TargetFPS) {
		s.TargetFPS = *fs.TargetFPS
	}
	if fs.JPEGQuality != nil && validQuality(*fs.JPEGQuality) {
		s.JPEGQuality = *fs.JPEGQuality
	}
	if fs.MaxConnections != nil && validMaxConnections(*fs.MaxConnections) {
		s.MaxConnections = *fs.MaxConnections
	}
	if fs.ResizeScale != nil && validScale(*fs.ResizeScale) {
		s.ResizeScale = *fs.ResizeScale
	}
	if fs.SendCursor != nil {
		s.SendCursor = *fs.SendCursor
	}
	if fs.LogLevel != nil && validLogLevel(*fs.LogLevel) {
		s.LogLevel = strings.ToLower(strings.TrimSpace(*fs.LogLevel))
	}
	return s, nil
}

func mergeEnv(s Settings) Settings {
	if v := strings.TrimSpace(os.Getenv("REMOTE_HOST")); validHost(v) {
		s.Host = v
	}
	s.Port = getEnvInt("REMOTE_PORT", s.Port, validPort)
	s.TargetFPS = getEnvInt("REMOTE_FPS", s.TargetFPS, validFPS)
	s.JPEGQuality = getEnvInt("REMOTE_JPEG_QUALITY", s.JPEGQuality, validQuality)
	s.MaxConnections = getEnvInt("REMOTE_MAX_CONNECTIONS", s.MaxConnections, validMaxConnections)
	s.ResizeScale = getEnvFloat("REMOTE_RESIZE_SCALE", s.ResizeScale, validScale)
	s.SendCursor = getEnvBool("REMOTE_SEND_CURSOR", s.SendCursor)
	if v := os.Getenv("REMOTE_LOG_LEVEL"); validLogLevel(v) {
		s.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	return s
}

func getEnvInt(key string, def int, ok func(int) bool) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && ok(n) {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64, ok func(float64) bool) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && ok(f) {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func validHost(h string) bool { return strings.TrimSpace(h) != "" }

func validPort(p int) bool { return p > 0 && p <= 65535 }

func validFPS(f int) bool { return f >= 1 }

// Quality is capped at 95.
func validQuality(q int) bool { return q >= 1 && q <= 95 }

func validMaxConnections(n int) bool { return n >= 1 }

func validScale(s float64) bool { return s > 0 && s <= 1.0 }

func validLogLevel(l string) bool {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
