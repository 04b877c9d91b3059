// Package respond writes JSON responses and the standard error envelope.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fd1az/crosschain-arb/internal/apperror"
)

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"response encoding failed"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// Error writes err in the apperror envelope. Errors that are not AppErrors
// become a 500 without leaking their text.
func Error(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(apperror.CodeInternalError, "", err)
	}
	JSON(w, appErr.StatusCode, appErr.ToResponse())
}
