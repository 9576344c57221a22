// Package handlers wires the HTTP surface of the copyurl service.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mahirjain10/copyurl-service/internal/registry"
	"github.com/mahirjain10/copyurl-service/internal/types"
	"github.com/mahirjain10/copyurl-service/internal/utils"
)

func NewRouter(reg *registry.Registry, copyHandler *CopyHandler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("POST /copyurl", copyHandler)
	mux.Handle("GET /progress/{job_id}", NewProgressHandler(reg))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, types.HealthResponse{Status: "ok", Jobs: reg.Len()})
	})

	return logRequests(logger, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
