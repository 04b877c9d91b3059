package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/crosschain-arb/business/arbitrage/app"
	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/server/respond"
	"github.com/fd1az/crosschain-arb/internal/wsconn"
)

// Stream upgrades to a WebSocket and pushes a scan result every interval
// until the client disconnects. The request is validated before the upgrade
// so a bad token gets a plain 400.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	req, interval, err := h.parseStream(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.scanner.Validate(req); err != nil {
		respond.Error(w, err)
		return
	}

	sess, err := wsconn.Accept(w, r, h.cfg.WebSocket)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- sess.Run(ctx)
		cancel()
	}()

	h.logger.Info(ctx, "stream opened", "token", req.TokenID, "interval", interval)

	watcher := app.NewWatcher(h.scanner, &streamReporter{session: sess}, req, interval, h.logger)
	if err := watcher.Run(ctx); err != nil {
		h.logger.Warn(ctx, "stream watcher stopped", "error", err)
	}

	sess.Close()
	if err := <-runErr; err != nil {
		h.logger.Warn(ctx, "stream closed with error", "error", err)
	}
	h.logger.Info(ctx, "stream closed", "token", req.TokenID)
}

func (h *Handler) parseStream(r *http.Request) (app.ScanRequest, time.Duration, error) {
	tokenID, chains, err := tokenAndChains(r)
	if err != nil {
		return app.ScanRequest{}, 0, err
	}
	req := app.ScanRequest{TokenID: tokenID, Chains: chains}

	q := r.URL.Query()
	if v := q.Get("minProfitUSD"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return app.ScanRequest{}, 0, apperror.Validation(apperror.CodeInvalidMinProfit, v)
		}
		req.MinProfitUSD = &d
	}
	if v := q.Get("notionalAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return app.ScanRequest{}, 0, apperror.Validation(apperror.CodeInvalidTradeSize, v)
		}
		req.NotionalAmount = &d
	}

	interval := h.cfg.StreamInterval
	if v := q.Get("interval"); v != "" {
		interval, err = parseInterval(v)
		if err != nil {
			return app.ScanRequest{}, 0, apperror.Validation(apperror.CodeInvalidInput, "interval: "+v)
		}
	}
	if interval < h.cfg.MinStreamInterval {
		interval = h.cfg.MinStreamInterval
	}
	return req, interval, nil
}

// maxStreamInterval bounds client-supplied intervals.
const maxStreamInterval = 24 * time.Hour

// parseInterval accepts a Go duration ("45s") or whole seconds ("45").
func parseInterval(v string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		if secs <= 0 {
			return 0, errors.New("interval must be positive")
		}
		// Checked in seconds so the conversion below cannot overflow.
		if secs > int64(maxStreamInterval/time.Second) {
			return 0, fmt.Errorf("interval must not exceed %s", maxStreamInterval)
		}
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("interval must be positive")
	}
	if d > maxStreamInterval {
		return 0, fmt.Errorf("interval must not exceed %s", maxStreamInterval)
	}
	return d, nil
}

// streamReporter forwards watcher output to one WebSocket session.
type streamReporter struct {
	session *wsconn.Session
}

func (s *streamReporter) Start(ctx context.Context) error {
	return nil
}

func (s *streamReporter) Report(result *domain.ScanResult) {
	_ = s.session.SendJSON(streamMessage{Type: "scan", Data: toScanResultDTO(result)})
}

func (s *streamReporter) ReportError(err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.External(apperror.CodeExternalServiceError, "scan", err)
	}
	body := appErr.Body()
	_ = s.session.SendJSON(streamMessage{Type: "error", Error: &body})
}

func (s *streamReporter) Stop() error {
	return nil
}
