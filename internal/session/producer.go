package session

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"weblinuxgui/internal/capture"
	"weblinuxgui/internal/config"
	"weblinuxgui/internal/observability"
	"weblinuxgui/internal/types"
)

// Producer captures, encodes and sends frames until capture, encode or
// transmit fails or its context is cancelled. At most one frame is in
// flight; a slow client slows the loop down instead of queueing frames.
type Producer struct {
	conn     Conn
	screen   capture.Screen
	encoder  Encoder
	settings config.Settings
	log      zerolog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewProducer(conn Conn, deps Deps, log zerolog.Logger) *Producer {
	return &Producer{
		conn:     conn,
		screen:   deps.Screen,
		encoder:  deps.Encoder,
		settings: deps.Settings,
		log:      log,
		metrics:  deps.Metrics,
		now:      time.Now,
	}
}

// Run always returns a non-nil error: ErrCapture, ErrEncode or ErrTransmit
// (wrapped), or the context error after cancellation.
func (p *Producer) Run(ctx context.Context) error {
	interval := p.settings.FrameInterval()
	for {
		start := p.now()

		frame, err := p.frame()
		if err != nil {
			p.log.Warn().Err(err).Msg("frame production stopped")
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := frame.Marshal()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
		if err := p.conn.WriteMessage(ctx, data); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Info().Err(err).Msg("connection closed while sending frame")
			return fmt.Errorf("%w: %w", ErrTransmit, err)
		}
		if p.metrics != nil {
			p.metrics.FramesSent.Inc()
			p.metrics.FrameBytes.Add(float64(len(data)))
			p.metrics.FrameDuration.Observe(p.now().Sub(start).Seconds())
		}

		if err := pace(ctx, interval-p.now().Sub(start)); err != nil {
			return err
		}
	}
}

// frame captures the virtual display and turns it into a frame message.
// The timestamp is taken after encoding.
func (p *Producer) frame() (types.FrameMessage, error) {
	region, err := p.screen.Bounds()
	if err != nil {
		return types.FrameMessage{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	img, err := p.screen.Capture(region)
	if err != nil {
		return types.FrameMessage{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	scaled := capture.Resize(img, p.settings.ResizeScale)
	jpegBytes, err := p.encoder.Encode(scaled, p.settings.JPEGQuality)
	if err != nil {
		return types.FrameMessage{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	b := scaled.Bounds()
	return types.NewFrame(jpegBytes, b.Dx(), b.Dy(), p.settings.JPEGQuality, p.now()), nil
}

// pace waits out the rest of the frame budget. An overrun budget yields
// once and moves on; slow cycles are never made up later.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
