package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appchat "github.com/bore13/Ai-data-chat/internal/application/chat"
	appdatasets "github.com/bore13/Ai-data-chat/internal/application/datasets"
	domanalysis "github.com/bore13/Ai-data-chat/internal/domain/analysis"
	domchat "github.com/bore13/Ai-data-chat/internal/domain/chat"
	domdataset "github.com/bore13/Ai-data-chat/internal/domain/dataset"
	"github.com/bore13/Ai-data-chat/internal/middleware"
)

// Options configures the HTTP surface.
type Options struct {
	APIKeys        map[string]string
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	Health         map[string]middleware.HealthChecker
	Log            *zap.Logger
}

type Router struct {
	chatSvc     *appchat.Service
	datasetsSvc *appdatasets.Service
	log         *zap.Logger
}

func NewRouter(chatSvc *appchat.Service, datasetsSvc *appdatasets.Service, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{chatSvc: chatSvc, datasetsSvc: datasetsSvc, log: log}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		if opts.Limiter != nil {
			rt.Use(middleware.RateLimit(opts.Limiter))
		}

		rt.Post("/datasets", r.wrap(r.handleUpload))
		rt.Get("/datasets", r.wrap(r.handleListDatasets))
		rt.Get("/datasets/{id}", r.wrap(r.handleGetDataset))
		rt.Delete("/datasets/{id}", r.wrap(r.handleDeleteDataset))

		rt.Post("/sessions/{session}/messages", r.wrap(r.handleAsk))
		rt.Get("/sessions/{session}/messages", r.wrap(r.handleHistory))
		rt.Delete("/sessions/{session}/messages", r.wrap(r.handleClearSession))
		rt.Delete("/messages", r.wrap(r.handleClearAll))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks client input errors.
type badRequest struct{ error }

func badRequestf(format string, args ...any) error {
	return badRequest{fmt.Errorf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.As(err, &br),
			errors.Is(err, domchat.ErrEmptyQuestion),
			errors.Is(err, domchat.ErrNoSession),
			errors.Is(err, domdataset.ErrEmpty),
			errors.Is(err, domdataset.ErrInvalidUpload):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domdataset.ErrNotFound), errors.Is(err, sql.ErrNoRows):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, domanalysis.ErrNotConfigured):
			http.Error(w, "AI analysis is not configured", http.StatusServiceUnavailable)
		case errors.Is(err, domanalysis.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		default:
			r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/datasets
// multipart form: file=<csv|xlsx|json>, name=<optional display name>
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	owner := middleware.OwnerFromContext(req.Context())
	req.Body = http.MaxBytesReader(w, req.Body, middleware.MaxUploadBytes)
	if err := req.ParseMultipartForm(middleware.MaxUploadBytes); err != nil {
		return badRequestf("invalid upload: %v", err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequestf("file is required")
	}
	defer file.Close()

	name := middleware.SanitizeString(req.FormValue("name"))
	if err := middleware.ValidateDatasetName(name); err != nil {
		return badRequest{err}
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return badRequestf("read upload: %v", err)
	}

	d, err := r.datasetsSvc.Upload(req.Context(), appdatasets.UploadCommand{
		OwnerID:  owner,
		Name:     name,
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		return err
	}
	middleware.IncrementDatasetsUploaded()
	return writeJSON(w, http.StatusCreated, d.Summary())
}

// GET /v1/datasets
func (r *Router) handleListDatasets(w http.ResponseWriter, req *http.Request) error {
	list, err := r.datasetsSvc.List(req.Context(), middleware.OwnerFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/datasets/{id}
func (r *Router) handleGetDataset(w http.ResponseWriter, req *http.Request) error {
	id := domdataset.ID(chi.URLParam(req, "id"))
	d, err := r.datasetsSvc.Get(req.Context(), middleware.OwnerFromContext(req.Context()), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, d)
}

// DELETE /v1/datasets/{id}
func (r *Router) handleDeleteDataset(w http.ResponseWriter, req *http.Request) error {
	id := domdataset.ID(chi.URLParam(req, "id"))
	if err := r.datasetsSvc.Delete(req.Context(), middleware.OwnerFromContext(req.Context()), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/sessions/{session}/messages
// Body: {"question": "...", "dataset_ids": ["<id>", ...]}
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	session := chi.URLParam(req, "session")
	if err := middleware.ValidateSessionID(session); err != nil {
		return badRequest{err}
	}
	var body struct {
		Question   string   `json:"question"`
		DatasetIDs []string `json:"dataset_ids"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequestf("invalid body: %v", err)
	}
	question := middleware.SanitizeString(body.Question)
	if err := middleware.ValidateQuestion(question); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateDatasetIDs(body.DatasetIDs); err != nil {
		return badRequest{err}
	}

	out, err := r.chatSvc.Ask(req.Context(), appchat.AskCommand{
		OwnerID:    middleware.OwnerFromContext(req.Context()),
		SessionID:  session,
		Question:   question,
		DatasetIDs: body.DatasetIDs,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

// GET /v1/sessions/{session}/messages
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	session := chi.URLParam(req, "session")
	if err := middleware.ValidateSessionID(session); err != nil {
		return badRequest{err}
	}
	msgs, err := r.chatSvc.History(req.Context(), middleware.OwnerFromContext(req.Context()), session)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []*domchat.Message{}
	}
	return writeJSON(w, http.StatusOK, msgs)
}

// DELETE /v1/sessions/{session}/messages
func (r *Router) handleClearSession(w http.ResponseWriter, req *http.Request) error {
	session := chi.URLParam(req, "session")
	if err := middleware.ValidateSessionID(session); err != nil {
		return badRequest{err}
	}
	if err := r.chatSvc.ClearSession(req.Context(), middleware.OwnerFromContext(req.Context()), session); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// DELETE /v1/messages
func (r *Router) handleClearAll(w http.ResponseWriter, req *http.Request) error {
	if err := r.chatSvc.ClearAll(req.Context(), middleware.OwnerFromContext(req.Context())); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
