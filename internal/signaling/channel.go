package signaling

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/Manish-keer19/meeting-app/internal/dns"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// Reconnect budget: fixed backoff, bounded attempts. After exhaustion the
	// channel gives up and reports through OnDisconnect.
	defaultReconnectAttempts = 5
	defaultReconnectBackoff  = 2 * time.Second
)

// HandlerFunc receives the raw payload of a subscribed event.
type HandlerFunc func(payload json.RawMessage)

// Channel manages the WebSocket connection to the signaling server. A single
// Channel is shared for the lifetime of the process (see Shared) and survives
// room switches; it reconnects automatically on transport faults.
//
// Inbound envelopes are dispatched to subscribed handlers from one goroutine,
// so handlers never run concurrently with each other.
type Channel struct {
	serverURL string

	mu     sync.Mutex // guards conn, closed
	conn   *websocket.Conn
	closed bool

	handlersMu sync.RWMutex
	handlers   map[string]HandlerFunc

	incoming chan *Envelope
	outgoing chan *Envelope
	done     chan struct{}

	started bool

	// Reconnect budget, set by NewChannel.
	attempts int
	backoff  time.Duration

	// OnDisconnect is invoked once when the reconnect budget is exhausted.
	OnDisconnect func(err error)
}

// NewChannel creates a new signaling channel for the given server URL.
func NewChannel(serverURL string) *Channel {
	return &Channel{
		serverURL: serverURL,
		handlers:  make(map[string]HandlerFunc),
		incoming:  make(chan *Envelope, 32),
		outgoing:  make(chan *Envelope, 32),
		done:      make(chan struct{}),
		attempts:  defaultReconnectAttempts,
		backoff:   defaultReconnectBackoff,
	}
}

// Connect establishes the WebSocket connection and starts the read, write and
// dispatch loops. Calling Connect on an already-connected channel is a no-op.
func (c *Channel) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("signaling channel is closed")
	}
	if c.conn != nil {
		return nil
	}

	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	if !c.started {
		c.started = true
		go c.readPump()
		go c.writePump()
		go c.dispatchLoop()
	}

	return nil
}

// dial opens a websocket connection using the fallback DNS resolver.
func (c *Channel) dial() (*websocket.Conn, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	dialer := *websocket.DefaultDialer
	dialer.NetDial = func(network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		resolvedIP, err := dns.Lookup(host)
		if err != nil {
			return nil, fmt.Errorf("dns lookup failed: %w", err)
		}

		return net.Dial(network, net.JoinHostPort(resolvedIP, port))
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	return conn, nil
}

// Subscribe registers the handler for an event, replacing any previous one.
func (c *Channel) Subscribe(event string, handler HandlerFunc) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[event] = handler
}

// Unsubscribe removes the handler for an event.
func (c *Channel) Unsubscribe(event string) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	delete(c.handlers, event)
}

// Send marshals the payload and queues the envelope for delivery. Delivery is
// best-effort: when the channel is disconnected or the outbound queue is
// full, the message is dropped with a log line, never redelivered.
func (c *Channel) Send(event string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", event, err)
		}
		raw = data
	}

	env := &Envelope{Event: event, Payload: raw}

	select {
	case c.outgoing <- env:
		return nil
	case <-c.done:
		return fmt.Errorf("signaling channel is closed")
	default:
		slog.Warn("outbound signaling message dropped", "event", event)
		return nil
	}
}

// Disconnect closes the connection and stops all loops. The channel cannot be
// reused afterwards.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
}

// IsClosed reports whether Disconnect has been called.
func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// readPump reads envelopes from the connection and feeds the dispatch loop.
// On a read error it attempts to reconnect before giving up.
func (c *Channel) readPump() {
	for {
		conn := c.current()
		if conn == nil {
			return
		}

		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if c.IsClosed() {
				return
			}
			if !c.reconnect() {
				slog.Error("signaling connection lost", "err", err)
				// The channel is dead now; Shared must not hand it out again.
				c.Disconnect()
				if c.OnDisconnect != nil {
					c.OnDisconnect(err)
				}
				return
			}
			continue
		}

		select {
		case c.incoming <- &env:
		case <-c.done:
			return
		}
	}
}

// reconnect redials with fixed backoff up to the attempt budget.
func (c *Channel) reconnect() bool {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		time.Sleep(c.backoff)

		if c.IsClosed() {
			return false
		}

		conn, err := c.dial()
		if err != nil {
			slog.Warn("signaling reconnect failed", "attempt", attempt, "err", err)
			continue
		}

		c.mu.Lock()
		old := c.conn
		c.conn = conn
		c.mu.Unlock()
		if old != nil {
			old.Close()
		}

		slog.Info("signaling channel reconnected", "attempt", attempt)
		return true
	}
	return false
}

// writePump writes queued envelopes and sends periodic pings. Write errors
// are not fatal here: readPump owns reconnection and swaps the connection.
func (c *Channel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env := <-c.outgoing:
			conn := c.current()
			if conn == nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				slog.Warn("signaling write failed", "event", env.Event, "err", err)
			}

		case <-ticker.C:
			conn := c.current()
			if conn == nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("signaling ping failed", "err", err)
			}

		case <-c.done:
			conn := c.current()
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
			}
			return
		}
	}
}

// dispatchLoop delivers inbound envelopes to handlers, one at a time.
func (c *Channel) dispatchLoop() {
	for {
		select {
		case env := <-c.incoming:
			c.handlersMu.RLock()
			handler := c.handlers[env.Event]
			c.handlersMu.RUnlock()

			if handler == nil {
				slog.Debug("unhandled signaling event", "event", env.Event)
				continue
			}
			handler(env.Payload)

		case <-c.done:
			return
		}
	}
}
