package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/chassi-detect/predict-service/detections"
)

type Handler struct {
	svc    *Service
	static http.FileSystem
	logger *zap.Logger
}

func NewHandler(svc *Service, static http.FileSystem, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:    svc,
		static: static,
		logger: logger.Named("http"),
	}
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	pred, ok := h.predict(w, r)
	if !ok {
		return
	}

	h.setPredictionHeaders(w, pred)
	writeJSON(w, http.StatusOK, pred.Response(h.svc.ModelPath()))
}

func (h *Handler) PredictAnnotated(w http.ResponseWriter, r *http.Request) {
	pred, ok := h.predict(w, r)
	if !ok {
		return
	}

	body, err := annotate(pred.Image, pred.Detections)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setPredictionHeaders(w, pred)
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) (*Prediction, bool) {
	data, err := readImagePayload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	pred, err := h.svc.Predict(r.Context(), RequestIDFromContext(r.Context()), data)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return pred, true
}

func (h *Handler) setPredictionHeaders(w http.ResponseWriter, pred *Prediction) {
	w.Header().Set("X-Inference-Time", fmt.Sprintf("%.3f", pred.Timings.Inference.Seconds()))
	w.Header().Set("X-Detections", strconv.Itoa(len(pred.Detections)))
	w.Header().Set("X-Model-Path", h.svc.ModelPath())
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_path":   h.svc.ModelPath(),
		"labels":       h.svc.detector.Labels(),
		"cpu_features": detections.CPUFeatures(),
	})
}

func (h *Handler) Metrics(w http.ResponseWriter, _ *http.Request) {
	metrics := h.svc.detector.Metrics()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pool_size":        metrics.Size,
		"sessions_in_use":  metrics.InUse,
		"total_acquired":   metrics.TotalAcquired,
		"total_released":   metrics.TotalReleased,
		"acquire_failures": metrics.AcquireFailures,
		"discarded":        metrics.Discarded,
		"wait_time_ms":     metrics.WaitTime.Milliseconds(),
	})
}

// Index serves the upload page, or a short usage hint when no frontend is
// available.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if h.static != nil {
		if f, err := h.static.Open("index.html"); err == nil {
			defer f.Close()
			modTime := time.Time{}
			if stat, err := f.Stat(); err == nil {
				modTime = stat.ModTime()
			}
			http.ServeContent(w, r, "index.html", modTime, f)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Send an image via POST /predict"})
}

func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	sendErrorResponse(w, "not_found", MsgNotFound, http.StatusNotFound)
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	sendErrorResponse(w, "method_not_allowed", MsgMethod, http.StatusMethodNotAllowed)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)

	fields := []zap.Field{
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}

	sendErrorResponse(w, code, message, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
