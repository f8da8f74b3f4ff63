// Package audit records one structured log line per mutating request.
// The entry accumulates detail as the request passes through the
// middleware chain (authorization outcome, acting user, failure) and
// is flushed when the handler returns.
package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Entry is the audit record for a single request.
type Entry struct {
	RequestID   string
	Method      string
	Path        string
	SourceAddr  string
	Status      int
	Authorized  bool
	AuthSubject string
	UserID      string
	Error       string

	start time.Time
}

type entryContextKey struct{}

// Log returns the request's audit entry. Outside the middleware a
// detached entry is returned so callers never need to nil-check.
func Log(ctx context.Context) *Entry {
	if entry, ok := ctx.Value(entryContextKey{}).(*Entry); ok {
		return entry
	}
	return &Entry{}
}

// Middleware attaches an audit entry to the request context and logs
// it when the wrapped handler completes.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := &Entry{
				RequestID:  uuid.NewString(),
				Method:     r.Method,
				Path:       r.URL.Path,
				SourceAddr: r.RemoteAddr,
				start:      time.Now(),
			}

			ctx := context.WithValue(r.Context(), entryContextKey{}, entry)
			recorder := &statusRecorder{ResponseWriter: w}

			defer entry.flush(recorder)

			next.ServeHTTP(recorder, r.WithContext(ctx))
		})
	}
}

func (e *Entry) flush(rec *statusRecorder) {
	e.Status = rec.status()

	ev := log.Info()
	if e.Error != "" || e.Status >= http.StatusInternalServerError {
		ev = log.Warn()
	}

	ev.Str("requestId", e.RequestID).
		Str("method", e.Method).
		Str("path", e.Path).
		Str("sourceAddr", e.SourceAddr).
		Int("status", e.Status).
		Bool("authorized", e.Authorized).
		Dur("elapsed", time.Since(e.start))

	appendNonEmpty(ev, "authSubject", e.AuthSubject)
	appendNonEmpty(ev, "user", e.UserID)
	appendNonEmpty(ev, "error", e.Error)

	ev.Msg("audit")
}

func appendNonEmpty(ev *zerolog.Event, key, val string) {
	if val != "" {
		ev.Str(key, val)
	}
}

// statusRecorder captures the response status for the audit entry.
type statusRecorder struct {
	http.ResponseWriter
	wroteStatus int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.wroteStatus == 0 {
		r.wroteStatus = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.wroteStatus == 0 {
		r.wroteStatus = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) status() int {
	if r.wroteStatus == 0 {
		return http.StatusOK
	}
	return r.wroteStatus
}
