// Package session runs one client connection: a frame producer and an input
// consumer share the connection, and whichever stops first stops the other.
package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"weblinuxgui/internal/capture"
	"weblinuxgui/internal/clients"
	"weblinuxgui/internal/config"
	"weblinuxgui/internal/input"
	"weblinuxgui/internal/observability"
)

var (
	ErrCapture    = errors.New("screen capture failed")
	ErrEncode     = errors.New("frame encode failed")
	ErrTransmit   = errors.New("frame transmit failed")
	ErrClientGone = errors.New("client disconnected")
)

// Conn is a full-duplex channel of whole messages. One goroutine may read
// while another writes. Reads and writes return promptly once ctx is done.
type Conn interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close() error
}

// Encoder compresses a frame at the given quality.
type Encoder interface {
	Encode(img image.Image, quality int) ([]byte, error)
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Settings config.Settings
	Screen   capture.Screen
	Encoder  Encoder
	Injector input.Injector
	Logger   zerolog.Logger
	Metrics  *observability.Metrics
}

type State int32

const (
	StateAdmitted State = iota
	StateRunning
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAdmitted:
		return "admitted"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is one admitted connection. It owns its Conn and registry lease.
type Session struct {
	id    string
	conn  Conn
	lease *clients.Lease
	deps  Deps
	log   zerolog.Logger

	state     atomic.Int32
	closeOnce sync.Once
	done      chan struct{}
	started   time.Time
}

// New wraps an admitted connection. The lease must already be held.
func New(lease *clients.Lease, conn Conn, deps Deps) *Session {
	s := &Session{
		id:    lease.ID(),
		conn:  conn,
		lease: lease,
		deps:  deps,
		log:   deps.Logger.With().Str("session", lease.ID()).Logger(),
		done:  make(chan struct{}),
	}
	s.state.Store(int32(StateAdmitted))
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

// Done is closed once the session reaches StateClosed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run starts both loops and blocks until the session is closed. It returns
// the error of the loop that stopped first.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()

	s.transition(StateAdmitted, StateRunning)
	s.started = time.Now()
	if m := s.deps.Metrics; m != nil {
		m.ActiveSessions.Inc()
	}

	g, gctx := errgroup.WithContext(ctx)
	producer := NewProducer(s.conn, s.deps, s.log)
	consumer := NewConsumer(s.conn, s.deps.Injector, s.log, s.deps.Metrics)
	g.Go(func() error {
		err := producer.Run(gctx)
		s.transition(StateRunning, StateDraining)
		return err
	})
	g.Go(func() error {
		err := consumer.Run(gctx)
		s.transition(StateRunning, StateDraining)
		return err
	})
	err := g.Wait()
	s.report(err)
	return err
}

func (s *Session) transition(from, to State) {
	if s.state.CompareAndSwap(int32(from), int32(to)) {
		s.log.Debug().Stringer("from", from).Stringer("to", to).Msg("session state")
	}
}

// close deregisters the session and closes the connection exactly once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.lease.Release()
		if err := s.conn.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close connection")
		}
		prev := State(s.state.Swap(int32(StateClosed)))
		if m := s.deps.Metrics; m != nil && prev != StateAdmitted {
			m.ActiveSessions.Dec()
		}
		s.log.Debug().Stringer("from", prev).Stringer("to", StateClosed).Msg("session state")
		close(s.done)
	})
}

func (s *Session) report(err error) {
	reason := EndReason(err)
	if m := s.deps.Metrics; m != nil {
		m.SessionEnds.WithLabelValues(reason).Inc()
	}
	var ev *zerolog.Event
	switch reason {
	case "capture", "encode":
		ev = s.log.Warn()
	default:
		ev = s.log.Info()
	}
	ev.Err(err).Str("reason", reason).Dur("duration", time.Since(s.started)).Msg("session ended")
}

// EndReason classifies the error that ended a session for logs and metrics.
func EndReason(err error) string {
	switch {
	case errors.Is(err, ErrCapture):
		return "capture"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrTransmit):
		return "transmit"
	case errors.Is(err, ErrClientGone):
		return "disconnect"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "other"
}
