package middleware

import (
	"net/http"
	"time"

	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			l := observability.WithTrace(r.Context(), logger)
			event := l.Info()
			switch {
			case ww.statusCode >= 500:
				event = l.Error()
			case ww.statusCode >= 400:
				event = l.Warn()
			}

			e := event.
				Str("method", r.Method).
				Str("route", routePattern(r)).
				Int("status", ww.statusCode).
				Int("bytes", ww.written).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context()))
			if userID, ok := GetUserID(r.Context()); ok {
				e = e.Str("user_id", userID.String())
			}
			e.Msg("http request")
		})
	}
}
