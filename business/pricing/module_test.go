package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/crosschain-arb/internal/config"
	"github.com/fd1az/crosschain-arb/internal/di"
	"github.com/fd1az/crosschain-arb/internal/health"
	"github.com/fd1az/crosschain-arb/internal/logger"
	"github.com/fd1az/crosschain-arb/internal/monolith"
	"github.com/fd1az/crosschain-arb/internal/redisclient"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

// fakeMonolith records what a module hooks into the application.
type fakeMonolith struct {
	cfg       *config.Config
	container di.Container
	checks    map[string]health.CheckFunc
	closers   []func()
}

var _ monolith.Monolith = (*fakeMonolith)(nil)

func newFakeMonolith(cfg *config.Config) *fakeMonolith {
	c := di.NewContainer()
	c.Register("config", cfg)
	c.Register("logger", &mockLogger{})
	c.Register("redis", (*redisclient.Client)(nil))
	return &fakeMonolith{cfg: cfg, container: c, checks: make(map[string]health.CheckFunc)}
}

func (f *fakeMonolith) Config() *config.Config         { return f.cfg }
func (f *fakeMonolith) Logger() logger.LoggerInterface { return &mockLogger{} }
func (f *fakeMonolith) Redis() *redisclient.Client     { return nil }
func (f *fakeMonolith) Services() di.ServiceRegistry   { return f.container }
func (f *fakeMonolith) OnClose(fn func())              { f.closers = append(f.closers, fn) }
func (f *fakeMonolith) RegisterHealthCheck(name string, check health.CheckFunc) {
	f.checks[name] = check
}

func TestModule_Startup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"gecko_says":"(V3) To the Moon!"}`)
	}))
	defer server.Close()

	cfg := &config.Config{
		CoinGecko: config.CoinGeckoConfig{
			BaseURL:           server.URL,
			RequestTimeout:    time.Second,
			RequestsPerMinute: 30,
		},
		Scanner: config.ScannerConfig{ChainTimeout: time.Second},
	}
	mono := newFakeMonolith(cfg)

	m := &Module{}
	require.NoError(t, m.RegisterServices(mono.container))
	require.NoError(t, m.Startup(context.Background(), mono))

	require.Len(t, mono.closers, 1, "provider cache must be released on shutdown")
	check, ok := mono.checks["coingecko"]
	require.True(t, ok)

	healthy, msg := check(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, "ok", msg)

	for _, fn := range mono.closers {
		fn()
	}
}
