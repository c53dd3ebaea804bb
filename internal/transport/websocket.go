package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait / 2
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Conn adapts a gorilla websocket to whole-message reads and writes that
// honour a context. One reader and one writer may run concurrently.
type Conn struct {
	ws *websocket.Conn

	// mu orders pong deadline extensions against cancellation, so a late
	// pong cannot revive a read that was already cancelled.
	mu        sync.Mutex
	cancelled bool

	closeOnce sync.Once
	stop      chan struct{}
}

// Upgrade completes the websocket handshake.
func Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

// Wrap prepares ws for a session: read limit, pong-extended read deadline
// and a background pinger that stops on Close.
func Wrap(ws *websocket.Conn) *Conn {
	c := &Conn{ws: ws, stop: make(chan struct{})}
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.cancelled {
			return nil
		}
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.ping()
	return c
}

func (c *Conn) ping() {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// ReadMessage returns the next text or binary message. Cancelling ctx
// unblocks a pending read; the connection is unusable for reads afterwards.
func (c *Conn) ReadMessage(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.cancelled = true
		_ = c.ws.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return data, nil
}

// WriteMessage sends data as one text message with a bounded write time.
func (c *Conn) WriteMessage(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal close frame (best effort) and closes the socket.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}

// Reject tells the client the server is full and closes the socket. No
// other message is sent first.
func Reject(ws *websocket.Conn, reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, reason)
	werr := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	cerr := ws.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
