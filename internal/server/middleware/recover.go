package middleware

import (
	"fmt"
	"net/http"

	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/logger"
	"github.com/fd1az/crosschain-arb/internal/server/respond"
)

// Recover turns a handler panic into a 500 with the standard error body.
func Recover(log logger.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := apperror.Internal(apperror.CodeInternalError, r.URL.Path, fmt.Errorf("panic: %v", rec))
				log.Error(r.Context(), "handler panic", "path", r.URL.Path, "panic", rec)
				respond.Error(w, err)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
