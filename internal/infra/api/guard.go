package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/infra/logging"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/metrics"
)

const traceHeader = "X-Trace-Id"

type Middleware func(http.Handler) http.Handler

func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// TraceID reuses an incoming X-Trace-Id or mints one, and echoes it back.
func TraceID(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := r.Header.Get(traceHeader)
			if tid == "" || len(tid) > 64 {
				tid = uuid.NewString()
			}
			w.Header().Set(traceHeader, tid)
			ctx := logging.WithTraceID(r.Context(), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLog logs every request and records it under its route pattern.
func RequestLog(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			took := time.Since(start)
			metrics.ObserveHTTP(route, ww.status, took)

			l := logging.With(ww.ctx(r), logger)
			ev := l.Info()
			if ww.status >= http.StatusInternalServerError {
				ev = l.Error()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("status", ww.status).
				Dur("duration", took).
				Msg("http_request")
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status  int
	reqCtx  context.Context
	written bool
}

func (w *respWriter) WriteHeader(status int) {
	if w.written {
		return
	}
	w.written = true
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// ctx returns the innermost request context a handler reported, so the log
// line carries identity fields added after this middleware ran.
func (w *respWriter) ctx(r *http.Request) context.Context {
	if w.reqCtx != nil {
		return w.reqCtx
	}
	return r.Context()
}

// reportContext lets handlers deeper in the chain hand their enriched context
// back to RequestLog.
func reportContext(w http.ResponseWriter, ctx context.Context) {
	if rw, ok := w.(*respWriter); ok {
		rw.reqCtx = ctx
	}
}

func Recover(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l := logging.With(r.Context(), logger)
					l.Error().Interface("panic", rec).Msg("panic recovered")
					writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
