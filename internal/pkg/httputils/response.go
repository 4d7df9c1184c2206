package httputils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

var internalErrorBody = []byte(`{"error":{"code":"internal_error","message":"internal server error"}}` + "\n")

var logger = atomic.NewPointer(zap.NewNop())

// SetLogger sets where response encoding failures are reported.
func SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	logger.Store(log)
}

func ResponseError(w http.ResponseWriter, statusCode int, code, message string) {
	ResponseJSON(w, statusCode, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// ResponseJSON encodes data before writing the status, so a value that cannot
// be encoded becomes a 500 instead of a truncated body.
func ResponseJSON(w http.ResponseWriter, statusCode int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Load().Error("failed to encode JSON response",
			zap.Int("status", statusCode), zap.Error(err))
		statusCode = http.StatusInternalServerError
		body = internalErrorBody
	} else {
		body = append(body, '\n')
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		logger.Load().Debug("failed to write JSON response", zap.Error(err))
	}
}

func DecodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
