package app

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/grpc/client"
	"github.com/code-payments/presale-server/pkg/grpc/metrics"
)

// newHTTPRouter builds the router apps register their routes with. Default
// middleware runs in order: panic recovery, client metadata, tracing, then
// request logging.
func newHTTPRouter(log *logrus.Entry, metricsProvider *newrelic.Application, extra ...func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()
	router.Use(recoveryMiddleware(log))
	router.Use(client.Middleware)
	router.Use(metrics.CustomNewRelicHTTPMiddleware(metricsProvider))
	router.Use(loggingMiddleware(log))
	for _, middleware := range extra {
		router.Use(middleware)
	}
	return router
}

func recoveryMiddleware(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}

					log.WithFields(logrus.Fields{
						"panic": p,
						"path":  r.URL.Path,
						"stack": string(debug.Stack()),
					}).Error("recovered from panic serving http request")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
						"code":  "Internal",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (w *loggingResponseWriter) WriteHeader(statusCode int) {
	if w.statusCode == 0 {
		w.statusCode = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func loggingMiddleware(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &loggingResponseWriter{ResponseWriter: w}

			next.ServeHTTP(recorder, r)

			statusCode := recorder.statusCode
			if statusCode == 0 {
				statusCode = http.StatusOK
			}

			entry := client.InjectLoggingMetadata(r.Context(), log).WithFields(logrus.Fields{
				"http_method": r.Method,
				"path":        r.URL.Path,
				"status":      statusCode,
				"bytes":       recorder.size,
				"duration_ms": time.Since(start).Milliseconds(),
			})

			switch level := metrics.HTTPStatusLevel(statusCode); level {
			case "info":
				entry.Debug("served http request")
			case "warning":
				entry.Info("served http request")
			default:
				entry.Warn("served http request")
			}
		})
	}
}
