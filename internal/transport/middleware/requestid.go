package middleware

import (
	"log/slog"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/frahmantamala/household-ledger/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// RequestLogger stores a request-scoped logger carrying the chi request id and
// a trace id. An inbound X-Trace-ID is kept; otherwise a new one is minted and
// echoed back.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(traceHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}
			w.Header().Set(traceHeader, traceID)

			fields := []any{"trace_id", traceID}
			if reqID := chiMiddleware.GetReqID(r.Context()); reqID != "" {
				fields = append(fields, "request_id", reqID)
			}
			ctx := logger.WithLogger(r.Context(), base.With(fields...))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
