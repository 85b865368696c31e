package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assistd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error)
	Hardware(ctx context.Context) types.HardwareResponse
	SaveRecord(ctx context.Context, rec types.ConversationRecord) (types.ConversationRecord, error)
	GetRecord(ctx context.Context, id string) (types.ConversationRecord, error)
	ListRecords(ctx context.Context, limit, offset int) ([]types.ConversationRecord, error)
	SearchRecords(ctx context.Context, query string, limit int) ([]types.ConversationRecord, error)
	ListModels(ctx context.Context) ([]string, error)
	Status(ctx context.Context) types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/hardware", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := handlerContext(r.Context(), 0)
		defer cancel()
		writeJSON(w, http.StatusOK, svc.Hardware(ctx))
	})

	r.Post("/chat", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)
		if !chatAllowed() {
			IncrementBackpressure("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry later")
			logEnd(r, lvl, "chat", http.StatusTooManyRequests, start, nil)
			return
		}
		var req types.ChatRequest
		if status, msg := decodeJSONBody(w, r, &req); status != 0 {
			writeJSONError(w, status, msg)
			logEnd(r, lvl, "chat", status, start, nil)
			return
		}
		// Basic validation
		if strings.TrimSpace(req.Message) == "" {
			writeJSONError(w, http.StatusBadRequest, "message is required")
			logEnd(r, lvl, "chat", http.StatusBadRequest, start, nil)
			return
		}
		if lvl >= LevelInfo {
			ev := zlog.Info().Str("path", r.URL.Path).Str("message_type", req.MessageType)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				ev = ev.Str("request_id", rid)
			}
			ev.Msg("chat start")
		}
		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := handlerContext(r.Context(), chatDeadline())
		defer cancel()
		resp, err := svc.Chat(ctx, req)
		if err != nil {
			// If the client went away there is no one to answer.
			if r.Context().Err() != nil {
				logEnd(r, lvl, "chat", 499, start, err)
				return
			}
			status, msg := statusFor(err)
			switch {
			case serverBaseCtx.Err() != nil:
				status, msg = http.StatusServiceUnavailable, "server shutting down"
			case errors.Is(ctx.Err(), context.DeadlineExceeded):
				// only the chat deadline set above; gateway timeouts stay 500
				status, msg = http.StatusGatewayTimeout, "generation timed out"
			}
			if status == http.StatusTooManyRequests {
				IncrementBackpressure("admission")
			}
			writeJSONError(w, status, msg)
			logEnd(r, lvl, "chat", status, start, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		if lvl >= LevelDebug {
			zlog.Debug().Str("model", resp.ModelUsed).Int("chars", len(resp.Response)).Msg("chat reply")
		}
		logEnd(r, lvl, "chat", http.StatusOK, start, nil)
	})

	r.Route("/memory", func(r chi.Router) {
		r.Get("/", listMemoryHandler(svc))
		r.Post("/", saveMemoryHandler(svc))
		r.Get("/search", searchMemoryHandler(svc))
		r.Get("/{id}", getMemoryHandler(svc))
	})

	r.Post("/search", func(w http.ResponseWriter, r *http.Request) {
		var req types.SearchRequest
		if status, msg := decodeJSONBody(w, r, &req); status != 0 {
			writeJSONError(w, status, msg)
			return
		}
		// Semantic search is not implemented; substring search lives at /memory/search.
		writeJSON(w, http.StatusOK, types.SearchResponse{
			Results:      []types.ConversationRecord{},
			Query:        req.Query,
			TotalResults: 0,
		})
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := handlerContext(r.Context(), 0)
		defer cancel()
		models, err := svc.ListModels(ctx)
		if err != nil {
			zlog.Warn().Err(err).Msg("list models failed")
			writeJSONError(w, http.StatusBadGateway, "inference server unavailable")
			return
		}
		if models == nil {
			models = []string{}
		}
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := handlerContext(r.Context(), 0)
		defer cancel()
		writeJSON(w, http.StatusOK, svc.Status(ctx))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("provisioning"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// decodeJSONBody enforces the JSON content type and body size limit and
// decodes into v. A non-zero status means the request was rejected.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) (int, string) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return http.StatusUnsupportedMediaType, "Content-Type must be application/json"
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Oversized bodies also land here; report 400 without size details.
		return http.StatusBadRequest, "invalid JSON body"
	}
	return 0, ""
}
