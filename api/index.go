// Package handler is the serverless entrypoint. Each cold start loads the
// model once and then serves the same router as the local server.
package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/chassi-detect/predict-service/app"
	"github.com/chassi-detect/predict-service/config"
	"github.com/chassi-detect/predict-service/logging"
	"github.com/chassi-detect/predict-service/service"
)

var (
	once        sync.Once
	application *app.App
	startupErr  error
)

func setup() {
	cfg, err := config.Load()
	if err != nil {
		startupErr = err
		return
	}

	logger, err := logging.New(cfg.Server.Debug)
	if err != nil {
		startupErr = err
		return
	}

	application, startupErr = app.New(cfg, logger)
	if startupErr != nil {
		logger.Error("failed to load model", zap.String("model_path", cfg.WeightPath), zap.Error(startupErr))
		logger.Sync()
	}
}

// Handler serves every route of the prediction service. While the model
// cannot be loaded every request is answered with 503.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)

	if startupErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(service.ErrorResponse{
			Code:    "model_unavailable",
			Message: "The detection model could not be loaded.",
		})
		return
	}

	application.Handler.ServeHTTP(w, r)
}
