package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/config"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/engine"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/job"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/metrics"
)

const maxBatchSize = 100

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/levels", h.computeLevels)
	h.mux.HandleFunc("POST /v1/levels/batch", h.computeBatch)
	h.mux.HandleFunc("GET /v1/levels/{id}", h.showResult)
	h.mux.HandleFunc("GET /v1/config", h.showConfig)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/levels: synchronous single-tree computation.
func (h *Handler) computeLevels(w http.ResponseWriter, r *http.Request) {
	var j job.Job
	if err := json.NewDecoder(r.Body).Decode(&j); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if j.Tree == "" {
		writeError(w, http.StatusBadRequest, "tree is required")
		return
	}
	j.EnsureID()
	j.SubmittedAt = time.Now()

	res, err := h.eng.ProcessSync(r.Context(), &j)
	if err != nil {
		status := http.StatusGatewayTimeout
		if errors.Is(err, engine.ErrQueueFull) {
			status = http.StatusTooManyRequests
		}
		writeError(w, status, err.Error())
		return
	}
	if res.Error != "" {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/levels/batch: async batch computation (up to 100 trees).
func (h *Handler) computeBatch(w http.ResponseWriter, r *http.Request) {
	var jobs []*job.Job
	if err := json.NewDecoder(r.Body).Decode(&jobs); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(jobs) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one tree")
		return
	}
	if len(jobs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(jobs), maxBatchSize))
		return
	}

	now := time.Now()
	batchID := uuid.New().String()
	ids := make([]string, 0, len(jobs))
	queued := 0
	for _, j := range jobs {
		j.EnsureID()
		j.SubmittedAt = now
		if h.eng.ProcessAsync(j) {
			queued++
			ids = append(ids, j.ID)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"batch_id": batchID,
		"job_ids":  ids,
		"total":    len(jobs),
		"queued":   queued,
		"rejected": len(jobs) - queued,
	})
}

// GET /v1/levels/{id}: result of a finished job, 202 while it is still queued.
func (h *Handler) showResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, status := h.eng.Result(id)
	switch status {
	case engine.StatusDone:
		writeJSON(w, http.StatusOK, res)
	case engine.StatusPending:
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"job_id": id,
			"status": status,
		})
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("no result for job %q", id))
	}
}

// GET /v1/config: the configuration in effect.
func (h *Handler) showConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": cfg.Version,
		"path":    h.loader.Path(),
		"engine":  h.eng.Conf(),
		"log":     cfg.Log,
	})
}

// POST /v1/config/reload: re-read the config file and swap engine settings.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalid) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	h.eng.SwapConf(cfg.Engine)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"engine":   cfg.Engine,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the run queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
