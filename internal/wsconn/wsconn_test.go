package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionServer accepts one session per request and hands it to handler
// while Run is active.
func sessionServer(t *testing.T, cfg Config, handler func(s *Session)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := Accept(w, r, cfg)
		if err != nil {
			t.Logf("accept error: %v", err)
			return
		}
		go handler(sess)
		_ = sess.Run(r.Context())
	}))
}

func dial(t *testing.T, ctx context.Context, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestSession_SendJSON(t *testing.T) {
	server := sessionServer(t, DefaultConfig(), func(s *Session) {
		_ = s.SendJSON(map[string]string{"type": "scan", "token": "chainlink"})
		_ = s.SendJSON(map[string]string{"type": "scan", "token": "uniswap"})
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	defer conn.Close(websocket.StatusNormalClosure, "")

	for _, want := range []string{"chainlink", "uniswap"} {
		typ, data, err := conn.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, websocket.MessageText, typ)

		var msg map[string]string
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "scan", msg["type"])
		assert.Equal(t, want, msg["token"])
	}
}

func TestSession_CloseFlushesQueue(t *testing.T) {
	server := sessionServer(t, DefaultConfig(), func(s *Session) {
		_ = s.Send([]byte("last words"))
		s.Close()
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "last words", string(data))

	_, _, err = conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestSession_SendAfterClose(t *testing.T) {
	errs := make(chan error, 1)
	server := sessionServer(t, DefaultConfig(), func(s *Session) {
		s.Close()
		errs <- s.Send([]byte("too late"))
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	defer conn.CloseNow()

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-ctx.Done():
		t.Fatal("handler never ran")
	}
}

func TestSession_SlowConsumer(t *testing.T) {
	s := newSession(nil, Config{SendBuffer: 1})

	require.NoError(t, s.Send([]byte("one")))
	assert.ErrorIs(t, s.Send([]byte("two")), ErrSlowConsumer)
	assert.Equal(t, StateConnected, s.State())

	s.Close()
	s.Close()
	assert.Equal(t, StateClosing, s.State())
}

func TestSession_PeerCloseEndsRun(t *testing.T) {
	finished := make(chan error, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := Accept(w, r, Config{})
		if err != nil {
			return
		}
		finished <- sess.Run(context.Background())
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	select {
	case err := <-finished:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Run did not return after peer close")
	}
}
