package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricProvider_Prometheus(t *testing.T) {
	ctx := context.Background()
	mp, err := NewMetricProvider(ctx, Options{
		ServiceName: "crosschain-arb-test",
		Prometheus:  true,
	})
	require.NoError(t, err)
	defer mp.Shutdown(ctx)

	counter, err := mp.Meter("test").Int64Counter("arbitrage_test_total")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "arbitrage_test_total")
}

func TestNewMetricProvider_NothingEnabled(t *testing.T) {
	_, err := NewMetricProvider(context.Background(), Options{ServiceName: "x"})
	assert.ErrorIs(t, err, ErrNoReaders)
}
