package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-finance/sentinel/internal/cache"
	"github.com/opensource-finance/sentinel/internal/domain"
	"github.com/opensource-finance/sentinel/internal/ml"
	"github.com/opensource-finance/sentinel/internal/scoring"
)

// ModelInfo describes the model trained at startup. Served on GET /model.
type ModelInfo struct {
	FeatureNames []string   `json:"featureNames"`
	Trees        int        `json:"trees"`
	Samples      int        `json:"samples"`
	FraudRate    float64    `json:"fraudRate"`
	TrainedAt    time.Time  `json:"trainedAt"`
	Holdout      ml.Metrics `json:"holdout"`
}

// Handler holds dependencies for API handlers.
type Handler struct {
	repo           domain.Repository
	cache          domain.Cache
	bus            domain.EventBus
	scorer         *scoring.Service
	info           ModelInfo
	version        string
	alertThreshold float64
	cacheTTL       time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cacheStore domain.Cache, bus domain.EventBus, scorer *scoring.Service, info ModelInfo, version string, alertThreshold float64, cacheTTL time.Duration) *Handler {
	return &Handler{
		repo:           repo,
		cache:          cacheStore,
		bus:            bus,
		scorer:         scorer,
		info:           info,
		version:        version,
		alertThreshold: alertThreshold,
		cacheTTL:       cacheTTL,
	}
}

// Predict handles POST /predict requests.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	traceID := GetTraceID(ctx)

	// Parse request
	var record map[string]any
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// Validate the record shape up front so cache lookups only ever see
	// well-formed feature vectors.
	vector, err := domain.ParseFeatureVector(record)
	if err != nil {
		h.writePredictError(w, traceID, err)
		return
	}

	// Scoring is deterministic: identical records may be answered from cache.
	cacheKey := cache.ResultKey(vector)
	if h.cache != nil {
		cached, err := cache.GetResult(ctx, h.cache, cacheKey)
		if err != nil {
			slog.Warn("cache lookup failed", "error", err)
		} else if cached != nil {
			slog.Debug("prediction served from cache",
				"prediction_id", cached.PredictionID,
				"trace_id", traceID,
			)
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	result, err := h.scorer.Predict(record)
	if err != nil {
		h.writePredictError(w, traceID, err)
		return
	}

	result.PredictionID = uuid.New().String()

	// Persist the audit record if a repository is available. A storage
	// failure never blocks the response.
	if h.repo != nil {
		prediction := &domain.Prediction{
			ID:            result.PredictionID,
			Record:        record,
			Probability:   result.Probability,
			Justification: result.Justification,
			CreatedAt:     time.Now().UTC(),
		}
		if err := h.repo.SavePrediction(ctx, prediction); err != nil {
			slog.Error("failed to save prediction", "error", err)
		}
	}

	if h.cache != nil {
		if err := cache.SetResult(ctx, h.cache, cacheKey, result, h.cacheTTL); err != nil {
			slog.Warn("cache store failed", "error", err)
		}
	}

	h.publishEvents(r, result)

	slog.Info("prediction served",
		"prediction_id", result.PredictionID,
		"probability", result.Probability,
		"duration_ms", time.Since(start).Milliseconds(),
		"trace_id", traceID,
	)

	writeJSON(w, http.StatusOK, result)
}

// writePredictError maps scoring errors to HTTP status codes.
// Missing keys are a client problem; everything else is ours.
func (h *Handler) writePredictError(w http.ResponseWriter, traceID string, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": validationErr.Error(),
		})
		return
	}

	slog.Error("prediction failed", "error", err, "trace_id", traceID)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": err.Error(),
	})
}

// publishEvents emits the scored event and, for predictions at or above
// the alert threshold, the flagged event.
func (h *Handler) publishEvents(r *http.Request, result *domain.PredictionResult) {
	if h.bus == nil {
		return
	}

	ctx := r.Context()
	event := domain.PredictionEvent{
		PredictionID:  result.PredictionID,
		Probability:   result.Probability,
		Justification: result.Justification,
		Timestamp:     time.Now().UTC(),
	}
	payload, _ := json.Marshal(event)

	if err := h.bus.Publish(ctx, domain.TopicPredictionScored, payload); err != nil {
		slog.Error("failed to publish scored event",
			"prediction_id", result.PredictionID,
			"error", err,
		)
	}

	if result.Probability >= h.alertThreshold {
		if err := h.bus.Publish(ctx, domain.TopicPredictionFlagged, payload); err != nil {
			slog.Error("failed to publish flagged event",
				"prediction_id", result.PredictionID,
				"error", err,
			)
		}
	}
}

// GetPrediction retrieves a stored prediction by ID.
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	predictionID := chi.URLParam(r, "id")

	if predictionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "prediction id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	prediction, err := h.repo.GetPrediction(ctx, predictionID)
	if err != nil {
		slog.Error("failed to get prediction", "id", predictionID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "prediction not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}

// GetModel returns training metadata and holdout diagnostics.
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic. The
// model finishes training before the server starts listening, so once
// reachable the service is always ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
