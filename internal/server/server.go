// Package server exposes lookups and batch jobs over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/domain-cli/internal/batch"
	"github.com/sells-group/domain-cli/internal/model"
	"github.com/sells-group/domain-cli/internal/tabular"
)

// Lookups runs single-company enrichments.
type Lookups interface {
	Enrich(ctx context.Context, req model.CompanyRequest) *model.EnrichmentResult
	Lookup(ctx context.Context, name, location string) model.Summary
}

// Jobs manages background batch jobs.
type Jobs interface {
	Submit(ctx context.Context, filename string, data []byte) (model.JobSnapshot, error)
	Status(ctx context.Context, id string) (model.JobSnapshot, error)
	Result(ctx context.Context, id string) ([]byte, error)
}

// Health describes the configured backends for GET /health.
type Health struct {
	SearchInstances []string `json:"search_instances"`
	AIProvider      string   `json:"ai_provider"`
	AIModel         string   `json:"ai_model"`
	AIConfigured    bool     `json:"ai_configured"`
}

// Options configures the router.
type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
	Metrics        http.Handler
	Health         Health
}

type router struct {
	lookups Lookups
	jobs    Jobs
	opts    Options
}

// NewRouter builds the HTTP handler.
func NewRouter(lookups Lookups, jobs Jobs, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	rt := &router{lookups: lookups, jobs: jobs, opts: opts}
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	mux.Get("/health", rt.handleHealth)
	mux.Post("/lookup", rt.handleLookup)
	mux.Post("/enrich", rt.handleEnrich)
	mux.Post("/upload-csv", rt.handleUpload)
	mux.Get("/status/{jobID}", rt.handleStatus)
	mux.Get("/download/{jobID}", rt.handleDownload)
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	return mux
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (rt *router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		Health
	}{Status: "ok", Health: rt.opts.Health})
}

type lookupRequest struct {
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
}

func (rt *router) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}
	writeJSON(w, http.StatusOK, rt.lookups.Lookup(r.Context(), name, req.Location))
}

func (rt *router) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req model.CompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}
	writeJSON(w, http.StatusOK, rt.lookups.Enrich(r.Context(), req))
}

type uploadResponse struct {
	JobID     string          `json:"job_id"`
	Status    model.JobStatus `json:"status"`
	Message   string          `json:"message"`
	TotalRows int             `json:"total_rows"`
}

func (rt *router) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", rt.opts.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read uploaded file")
		return
	}

	snap, err := rt.jobs.Submit(r.Context(), header.Filename, data)
	switch {
	case errors.Is(err, batch.ErrNoCompanyColumn):
		writeError(w, http.StatusBadRequest, "Could not detect company name column. Please ensure your file has a column named company, company_name, name, business_name or organization.")
		return
	case errors.Is(err, tabular.ErrEmptyTable):
		writeError(w, http.StatusBadRequest, "file has no data rows")
		return
	case errors.Is(err, tabular.ErrUnparseable):
		writeError(w, http.StatusBadRequest, "unable to parse file as CSV or XLSX")
		return
	case err != nil:
		zap.L().Error("server: submit job", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "unable to create job")
		return
	}

	writeJSON(w, http.StatusAccepted, uploadResponse{
		JobID:     snap.JobID,
		Status:    snap.Status,
		Message:   fmt.Sprintf("Processing %d companies", snap.Total),
		TotalRows: snap.Total,
	})
}

func (rt *router) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := rt.jobs.Status(r.Context(), chi.URLParam(r, "jobID"))
	if errors.Is(err, batch.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		zap.L().Error("server: job status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "unable to read job status")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (rt *router) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	data, err := rt.jobs.Result(r.Context(), id)
	switch {
	case errors.Is(err, batch.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found")
		return
	case errors.Is(err, batch.ErrJobNotComplete):
		writeError(w, http.StatusConflict, "job not completed yet")
		return
	case err != nil:
		zap.L().Error("server: job result", zap.String("job_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "unable to read job result")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="enriched_companies_%s.csv"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
