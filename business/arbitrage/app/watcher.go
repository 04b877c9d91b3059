package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/logger"
)

const defaultWatchInterval = 30 * time.Second

// Watcher re-runs the same scan on an interval and hands every result to a
// Reporter. Each scan is independent.
type Watcher struct {
	scanner  ScanRunner
	reporter Reporter
	request  ScanRequest
	interval time.Duration
	logger   logger.LoggerInterface
	trigger  chan struct{}
}

// NewWatcher creates a Watcher for req.
func NewWatcher(
	scanner ScanRunner,
	reporter Reporter,
	req ScanRequest,
	interval time.Duration,
	log logger.LoggerInterface,
) *Watcher {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	return &Watcher{
		scanner:  scanner,
		reporter: reporter,
		request:  req,
		interval: interval,
		logger:   log,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger asks for a scan ahead of the next tick. Requests made while one is
// already pending are merged. It never blocks.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run scans immediately, then once per interval, until ctx is done. A request
// that fails validation stops the loop; any other scan error is reported and
// the next tick tries again.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(ctx, "starting watcher", "token", w.request.TokenID, "interval", w.interval)

	if err := w.reporter.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := w.reporter.Stop(); err != nil {
			w.logger.Warn(ctx, "reporter stop failed", "error", err)
		}
	}()

	if err := w.tick(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "watcher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.tick(ctx); err != nil {
				return err
			}
		case <-w.trigger:
			if err := w.tick(ctx); err != nil {
				return err
			}
			ticker.Reset(w.interval)
		}
	}
}

// tick runs one scan. Only permanent request errors are returned.
func (w *Watcher) tick(ctx context.Context) error {
	result, err := w.scanner.Scan(ctx, w.request)
	if err == nil {
		w.reporter.Report(result)
		return nil
	}

	if ctx.Err() != nil {
		return nil
	}
	if isRequestError(err) {
		w.reporter.ReportError(err)
		return err
	}

	w.logger.Warn(ctx, "scan failed", "token", w.request.TokenID, "error", err)
	w.reporter.ReportError(err)
	return nil
}

func isRequestError(err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.StatusCode == http.StatusBadRequest
}
