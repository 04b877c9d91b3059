// Package wsconn provides a server-side WebSocket session with a bounded send
// queue and keepalive pings.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/crosschain-arb/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateConnected State = "connected"
	StateClosing   State = "closing"
	StateClosed    State = "closed"
)

// ErrSlowConsumer is returned by Send when the queue is full.
var ErrSlowConsumer = errors.New("wsconn: send queue full")

// Config holds session configuration.
type Config struct {
	OriginPatterns []string
	SendBuffer     int
	WriteTimeout   time.Duration
	PingInterval   time.Duration // 0 disables pings
	PongTimeout    time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:   16,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		PongTimeout:  10 * time.Second,
	}
}

// Session is one accepted WebSocket connection. Writes are serialized through
// Run; Send and Close are safe for concurrent use.
type Session struct {
	conn      *websocket.Conn
	config    Config
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	state     State
	stateMu   sync.RWMutex
}

// Accept upgrades the request. On failure the response has already been
// written by the websocket library.
func Accept(w http.ResponseWriter, r *http.Request, config Config) (*Session, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: config.OriginPatterns,
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeWebSocketAcceptFailed, apperror.WithCause(err))
	}
	return newSession(conn, config), nil
}

func newSession(conn *websocket.Conn, config Config) *Session {
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultConfig().SendBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = DefaultConfig().PongTimeout
	}
	return &Session{
		conn:   conn,
		config: config,
		send:   make(chan []byte, config.SendBuffer),
		done:   make(chan struct{}),
		state:  StateConnected,
	}
}

// Run writes queued messages and pings until ctx is done, the peer goes away
// or Close is called. A clean close returns nil.
func (s *Session) Run(ctx context.Context) error {
	// CloseRead discards inbound data frames and handles control frames.
	ctx = s.conn.CloseRead(ctx)
	defer s.setState(StateClosed)

	var ping <-chan time.Time
	if s.config.PingInterval > 0 {
		ticker := time.NewTicker(s.config.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.conn.Close(websocket.StatusNormalClosure, "")
			return nil

		case <-s.done:
			s.drain(ctx)
			s.conn.Close(websocket.StatusNormalClosure, "")
			return nil

		case msg := <-s.send:
			if err := s.write(ctx, msg); err != nil {
				s.conn.Close(websocket.StatusInternalError, "write failed")
				return apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err))
			}

		case <-ping:
			pingCtx, cancel := context.WithTimeout(ctx, s.config.PongTimeout)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.conn.Close(websocket.StatusPolicyViolation, "pong timeout")
				return apperror.New(apperror.CodeWebSocketClosed, apperror.WithCause(err))
			}
		}
	}
}

// drain flushes whatever was queued before Close.
func (s *Session) drain(ctx context.Context) {
	for {
		select {
		case msg := <-s.send:
			if err := s.write(ctx, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(ctx context.Context, msg []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.config.WriteTimeout)
	defer cancel()
	return s.conn.Write(writeCtx, websocket.MessageText, msg)
}

// Send queues msg without blocking.
func (s *Session) Send(msg []byte) error {
	if s.State() != StateConnected {
		return apperror.New(apperror.CodeWebSocketClosed)
	}
	select {
	case s.send <- msg:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// SendJSON marshals v and queues it.
func (s *Session) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err))
	}
	return s.Send(data)
}

// State returns the current connection state.
func (s *Session) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Close asks Run to flush the queue and close the connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.setState(StateClosing)
		close(s.done)
	})
}

func (s *Session) setState(state State) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}
