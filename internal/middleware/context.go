package middleware

import (
	"context"
	"net/http"

	"github.com/ekuatta/villapay/internal/logger"
	"github.com/ekuatta/villapay/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

const (
	UserIDKey = "user_id"
	LoggerKey = "logger"
)

// ContextEnhancer builds a per-request logger carrying the request id, the
// caller and the trace context, and stores it on the request context.
type ContextEnhancer struct {
	Server *server.Server
}

func NewContextEnhancer(srv *server.Server) *ContextEnhancer {
	return &ContextEnhancer{Server: srv}
}

func (ce *ContextEnhancer) EnhanceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestLogger := ce.Server.Logger.With().
			Str("request_id", GetRequestID(r)).
			Str("ip", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		if txn := newrelic.FromContext(r.Context()); txn != nil {
			requestLogger = logger.WithTraceContext(requestLogger, txn)
		}

		if userID, ok := r.Context().Value(UserIDKey).(string); ok && userID != "" {
			requestLogger = requestLogger.With().Str("user_id", userID).Logger()
		}

		ctx := context.WithValue(r.Context(), LoggerKey, &requestLogger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLogger returns the request logger, or a no-op logger outside a request.
func GetLogger(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}
