package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"boosterd/internal/infer"
	"boosterd/internal/prompt"
	"boosterd/internal/registry"
	"boosterd/internal/scheduler"
	"boosterd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	ListPods() []types.PodStatus
	Status() types.StatusResponse
	Submit(ctx context.Context, req types.GenerateRequest) (types.RequestStatus, error)
	Lookup(id string) (types.RequestStatus, bool)
	Generate(ctx context.Context, req types.GenerateRequest, w io.Writer, flush func()) error
	Ready() bool
}

// errorStatus maps well-known service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case scheduler.IsPodNotFound(err), registry.IsNotFound(err):
		return http.StatusNotFound
	case scheduler.IsTooBusy(err):
		return http.StatusTooManyRequests
	case scheduler.IsBudgetExceeded(err), scheduler.IsPodInvalid(err), prompt.IsTemplateError(err):
		return http.StatusUnprocessableEntity
	case infer.IsUnavailable(err), registry.IsNotReady(err):
		return http.StatusServiceUnavailable
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ModelsResponse{Models: svc.ListModels()})
	})

	r.Get("/pods", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.PodsResponse{Pods: svc.ListPods()})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Post("/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		handleGenerate(svc, w, r)
	})

	r.Get("/v1/requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		st, ok := svc.Lookup(id)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "request not found: "+id)
			return
		}
		writeJSON(w, st)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handleGenerate serves POST /v1/generate. Non-streaming requests get a
// 202 with the request snapshot for polling; streaming requests get NDJSON
// token lines on the open connection.
func handleGenerate(svc Service, w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Pod) == "" {
		writeJSONError(w, http.StatusBadRequest, "pod is required")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeJSONError(w, http.StatusBadRequest, "input is required")
		return
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, req)

	if !req.Stream {
		st, err := svc.Submit(r.Context(), req)
		if err != nil {
			status := errorStatus(err)
			if status == http.StatusTooManyRequests {
				IncrementBackpressure("queue_full")
			}
			writeJSONError(w, status, err.Error())
			logEnd(r, lvl, status, start, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(st)
		logEnd(r, lvl, http.StatusAccepted, start, nil)
		return
	}

	// Stream NDJSON via the scheduler (centralized logic)
	w.Header().Set("Content-Type", "application/x-ndjson")
	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	writer := io.Writer(w)
	if lvl >= LevelDebug {
		writer = io.MultiWriter(w, &loggingLineWriter{})
	}
	// Join server base context with request context so shutdown cancels work too.
	joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if err := svc.Generate(joinedCtx, req, writer, flush); err != nil {
		// If context was canceled (client disconnect), just return.
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		status := errorStatus(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("queue_full")
		}
		writeJSONError(w, status, err.Error())
		logEnd(r, lvl, status, start, err)
		return
	}
	logEnd(r, lvl, http.StatusOK, start, nil)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

func logStart(r *http.Request, lvl LogLevel, req types.GenerateRequest) {
	if lvl < LevelInfo {
		return
	}
	if zlog != nil {
		z := zlog.Info().Str("path", r.URL.Path).Str("pod", req.Pod).Bool("stream", req.Stream)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("generate start")
		return
	}
	log.Printf("generate start path=%s pod=%s stream=%v", r.URL.Path, req.Pod, req.Stream)
}

func logEnd(r *http.Request, lvl LogLevel, status int, start time.Time, err error) {
	if lvl < LevelInfo {
		return
	}
	if zlog != nil {
		z := zlog.Info().Int("status", status).Dur("dur", time.Since(start))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		if err != nil {
			z = z.Err(err)
		}
		z.Msg("generate end")
		return
	}
	if err != nil {
		log.Printf("generate end status=%d dur=%s err=%v", status, time.Since(start), err)
		return
	}
	log.Printf("generate end status=%d dur=%s", status, time.Since(start))
}
