// Package httpapi exposes the orchestrator over a small JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"locallm/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, prompt, docContext string) types.ResponseEnvelope
	SetupEnvironment(ctx context.Context) bool
	DiagnosticCheck(ctx context.Context) string
	ListModels(ctx context.Context) types.ModelsResponse
	Status() types.StatusResponse
	CurrentModel() string
	Ready() bool
	Stop(ctx context.Context) error
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := handlers{svc: svc}
	r.Group(func(r chi.Router) {
		r.Use(inflightMiddleware)
		r.Post("/ask", h.ask)
		r.Post("/setup", h.setup)
		r.Post("/stop", h.stop)
		r.Get("/diag", h.diag)
		r.Get("/models", h.models)
		r.Get("/status", h.status)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

// ask godoc
// @Summary      Answer a question
// @Description  Answers a question, optionally grounded on a document. Failures are reported in the envelope's outcome, not as HTTP errors.
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        request  body      types.AskRequest  true  "Question and optional document"
// @Success      200      {object}  types.ResponseEnvelope
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Router       /ask [post]
func (h handlers) ask(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	if ev := requestEvent(r, lvl, LevelInfo); ev != nil {
		ev.Int("prompt_len", len(req.Prompt)).Int("context_len", len(req.Context)).Msg("ask start")
	}
	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
	defer cancel()
	if askTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, askTimeout)
		defer tcancel()
	}
	env := h.svc.Generate(ctx, req.Prompt, req.Context)
	askOutcomesTotal.WithLabelValues(string(env.Outcome)).Inc()
	if ev := requestEvent(r, lvl, LevelDebug); ev != nil {
		ev.Str("answer", env.Text).Msg("ask answer")
	}
	if ev := requestEvent(r, lvl, LevelInfo); ev != nil {
		ev.Str("outcome", string(env.Outcome)).Str("model", env.Model).Dur("dur", time.Since(start)).Msg("ask end")
	}
	writeJSON(w, env)
}

// setup godoc
// @Summary      Prepare the engine
// @Description  Starts or adopts the engine, ensures a model and warms it up. With wait=false the run continues in the background and 202 is returned.
// @Tags         lifecycle
// @Produce      json
// @Param        wait  query     bool  false  "Wait for completion (default true)"
// @Success      200   {object}  types.SetupResponse
// @Success      202   {object}  types.SetupResponse
// @Router       /setup [post]
func (h handlers) setup(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "false" {
		go func() {
			ok := h.svc.SetupEnvironment(serverBaseCtx)
			zlog.Info().Bool("ok", ok).Msg("background setup finished")
		}()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(types.SetupResponse{OK: true})
		return
	}
	ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
	defer cancel()
	ok := h.svc.SetupEnvironment(ctx)
	resp := types.SetupResponse{OK: ok}
	if ok {
		resp.Model = h.svc.CurrentModel()
	}
	writeJSON(w, resp)
}

// stop godoc
// @Summary      Stop the engine
// @Description  Terminates the engine process if this server started it.
// @Tags         lifecycle
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      500  {object}  types.ErrorResponse
// @Router       /stop [post]
func (h handlers) stop(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.svc.Stop(r.Context()); err != nil {
		status := statusForError(err)
		logEnd(r, requestLogLevel(r), status, start, err)
		writeJSONError(w, status, err.Error())
		return
	}
	writeJSON(w, map[string]bool{"stopped": true})
}

// diag godoc
// @Summary      Diagnose the engine
// @Tags         lifecycle
// @Produce      json
// @Success      200  {object}  types.DiagnosticResponse
// @Router       /diag [get]
func (h handlers) diag(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, types.DiagnosticResponse{Message: h.svc.DiagnosticCheck(r.Context())})
}

// models godoc
// @Summary      List models
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /models [get]
func (h handlers) models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListModels(r.Context()))
}

// status godoc
// @Summary      Orchestrator status
// @Tags         lifecycle
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status())
}
