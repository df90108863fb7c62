package logging

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDMiddleware tags each request with an ID, taken from X-Request-ID
// or generated, and logs its outcome. Rejected edits (4xx) log at warn and
// server failures at error. Reads log at debug so polling clients stay quiet.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		stream := strings.Contains(r.Header.Get("Accept"), "text/event-stream") ||
			strings.Contains(r.URL.Path, "/subscribe/")
		if stream {
			InfoContext(ctx, "stream opened", "path", r.URL.Path, "remoteAddr", r.RemoteAddr)
		}

		rec := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		if stream {
			InfoContext(ctx, "stream closed", "path", r.URL.Path, "durationMs", elapsed.Milliseconds())
			return
		}

		msg, level := "request completed", slog.LevelDebug
		switch {
		case rec.statusCode >= 500:
			msg, level = "request failed", slog.LevelError
		case rec.statusCode >= 400:
			msg, level = "request rejected", slog.LevelWarn
		case r.Method != http.MethodGet && r.Method != http.MethodHead:
			level = slog.LevelInfo
		}
		logger.Log(ctx, level, msg, withRequestID(ctx, []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"durationMs", elapsed.Milliseconds(),
		})...)
	})
}

// responseWriter captures the status code of a response
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for SSE support
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
