package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"weblinuxgui/internal/input"
	"weblinuxgui/internal/observability"
	"weblinuxgui/internal/types"
)

// Consumer reads client messages and applies them to the host. Message
// content never stops it; only a read error or cancellation does.
type Consumer struct {
	conn     Conn
	injector input.Injector
	log      zerolog.Logger
	metrics  *observability.Metrics

	// keys pressed through this consumer and not yet released
	held map[string]struct{}
}

func NewConsumer(conn Conn, injector input.Injector, log zerolog.Logger, metrics *observability.Metrics) *Consumer {
	return &Consumer{
		conn:     conn,
		injector: injector,
		log:      log,
		metrics:  metrics,
		held:     make(map[string]struct{}),
	}
}

// Run returns ErrClientGone (wrapped) when the read side fails, or the
// context error after cancellation. Keys still held are released on exit.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.releaseHeld()
	for {
		data, err := c.conn.ReadMessage(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrClientGone, err)
		}
		c.Handle(data)
	}
}

// Handle decodes and applies one message. Failures are logged and dropped.
func (c *Consumer) Handle(data []byte) {
	in, err := types.DecodeInput(data)
	switch {
	case errors.Is(err, types.ErrEmptyKey):
		c.count("keyboard", "dropped")
		return
	case err != nil:
		c.log.Warn().Err(err).Msg("dropping malformed message")
		c.count("unknown", "dropped")
		return
	}

	if u, ok := in.(types.Unrecognized); ok {
		c.log.Info().Str("message", u.String()).Msg("ignoring unknown message")
		c.count(u.Kind(), "dropped")
		return
	}

	if err := c.apply(in); err != nil {
		c.log.Warn().Err(err).Str("kind", in.Kind()).Msg("input injection failed")
		c.count(in.Kind(), "failed")
		return
	}
	c.count(in.Kind(), "applied")
}

func (c *Consumer) apply(in types.Input) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("injector panic: %v", r)
		}
	}()

	switch ev := in.(type) {
	case types.MouseMove:
		return c.injector.MoveMouse(ev.X, ev.Y)
	case types.MouseClick:
		btn, err := input.ParseButton(ev.Button)
		if err != nil {
			return err
		}
		return c.injector.Click(btn)
	case types.KeyDown:
		key := input.NormalizeKey(ev.Key)
		if err := c.injector.KeyDown(key); err != nil {
			return err
		}
		c.held[key] = struct{}{}
		return nil
	case types.KeyUp:
		// A keyup with no matching keydown is still forwarded.
		key := input.NormalizeKey(ev.Key)
		delete(c.held, key)
		return c.injector.KeyUp(key)
	}
	return fmt.Errorf("unhandled input %T", in)
}

func (c *Consumer) releaseHeld() {
	for key := range c.held {
		if err := c.releaseKey(key); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("release held key")
		}
		delete(c.held, key)
	}
}

func (c *Consumer) releaseKey(key string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("injector panic: %v", r)
		}
	}()
	return c.injector.KeyUp(key)
}

func (c *Consumer) count(kind, result string) {
	if c.metrics != nil {
		c.metrics.InputEvents.WithLabelValues(kind, result).Inc()
	}
}
