package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"weblinuxgui/internal/clients"
	"weblinuxgui/internal/config"
	"weblinuxgui/internal/input"
	"weblinuxgui/internal/observability"
)

var errBoom = errors.New("boom")

// fakeScreen returns a w x h image; the failOn-th Capture call (1-based)
// and every later one fail when failOn > 0.
type fakeScreen struct {
	w, h   int
	failOn int32
	calls  atomic.Int32
}

func (s *fakeScreen) Bounds() (image.Rectangle, error) {
	return image.Rect(0, 0, s.w, s.h), nil
}

func (s *fakeScreen) Capture(r image.Rectangle) (*image.RGBA, error) {
	n := s.calls.Add(1)
	if s.failOn > 0 && n >= s.failOn {
		return nil, errBoom
	}
	return image.NewRGBA(r), nil
}

type fakeEncoder struct {
	mu   sync.Mutex
	last image.Rectangle
	err  error
}

func (e *fakeEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = img.Bounds()
	if e.err != nil {
		return nil, e.err
	}
	return []byte{0xff, 0xd8, byte(quality)}, nil
}

// recorder is an Injector that records every call.
type recorder struct {
	mu      sync.Mutex
	calls   []string
	x, y    int
	failKey string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) MoveMouse(x, y int) error {
	r.mu.Lock()
	r.x, r.y = x, y
	r.mu.Unlock()
	r.add(fmt.Sprintf("move %d,%d", x, y))
	return nil
}

func (r *recorder) Click(btn input.Button) error {
	r.add("click " + string(btn))
	return nil
}

func (r *recorder) KeyDown(key string) error {
	if key == r.failKey {
		return errors.New("unknown key " + key)
	}
	r.add("down " + key)
	return nil
}

func (r *recorder) KeyUp(key string) error {
	if key == r.failKey {
		return errors.New("unknown key " + key)
	}
	r.add("up " + key)
	return nil
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Pos() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.x, r.y
}

// pipeConn is an in-memory Conn. Tests push client messages into in and
// read server messages from out. Closing ends both directions.
type pipeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
	closes atomic.Int32
}

func newPipeConn(outBuf int) *pipeConn {
	return &pipeConn{
		in:     make(chan []byte),
		out:    make(chan []byte, outBuf),
		closed: make(chan struct{}),
	}
}

func (c *pipeConn) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, io.EOF
	case m, ok := <-c.in:
		if !ok {
			return nil, io.EOF
		}
		return m, nil
	}
}

func (c *pipeConn) WriteMessage(ctx context.Context, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return io.ErrClosedPipe
	case c.out <- data:
		return nil
	}
}

func (c *pipeConn) Close() error {
	c.closes.Add(1)
	c.once.Do(func() { close(c.closed) })
	return nil
}

func testDeps(screen *fakeScreen, enc *fakeEncoder, inj input.Injector, fps int) Deps {
	s := config.Defaults()
	s.TargetFPS = fps
	return Deps{
		Settings: s,
		Screen:   screen,
		Encoder:  enc,
		Injector: inj,
		Logger:   zerolog.Nop(),
		Metrics:  observability.NewMetrics(),
	}
}

func admit(t *testing.T, reg *clients.Registry, id string) *clients.Lease {
	t.Helper()
	l, err := reg.Admit(id, "test")
	require.NoError(t, err)
	return l
}
