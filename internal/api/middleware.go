package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/felipepmaragno/bedrock-gateway/internal/auth"
	"github.com/felipepmaragno/bedrock-gateway/internal/domain"
	"github.com/felipepmaragno/bedrock-gateway/internal/metrics"
	"github.com/felipepmaragno/bedrock-gateway/internal/telemetry"
)

type contextKey string

const requestIDKey contextKey = "request_id"

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrument assigns the request id and records the span, metrics and
// access log line for every request.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := telemetry.ExtractContext(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := telemetry.StartSpan(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		ctx = context.WithValue(ctx, requestIDKey, requestID)
		r = r.WithContext(ctx)

		metrics.IncrementActiveRequests()
		defer metrics.DecrementActiveRequests()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)

		metrics.RecordRequest(route, strconv.Itoa(rec.status), elapsed.Seconds())
		telemetry.AddRequestAttributes(span, route, requestID, rec.status)

		slog.Info("request completed",
			"request_id", requestID,
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"latency_ms", elapsed.Milliseconds(),
		)
	})
}

// requireToken rejects requests without a valid bearer token before the
// body is read.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearerToken(r)
		if token == "" {
			metrics.RecordAuthFailure("missing_token")
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDomainError(w, domain.NewError(domain.KindAuthentication, domain.ErrMissingToken))
			return
		}

		subject, err := h.verifier.Verify(token)
		if err != nil {
			metrics.RecordAuthFailure("invalid_token")
			slog.Warn("token rejected", "error", err, "request_id", requestIDFromContext(r.Context()))
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDomainError(w, err)
			return
		}

		telemetry.AddSubjectAttribute(trace.SpanFromContext(r.Context()), subject)
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), subject)))
	})
}
