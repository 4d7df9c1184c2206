package middleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func AccessLog(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			stats := httpsnoop.CaptureMetrics(next, w, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", stats.Code),
				zap.Duration("duration", stats.Duration),
				zap.Int64("bytes", stats.Written),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
