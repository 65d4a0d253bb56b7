package app

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chassi-detect/predict-service/config"
	"github.com/chassi-detect/predict-service/detections"
	"github.com/chassi-detect/predict-service/frontend"
	"github.com/chassi-detect/predict-service/service"
)

// App is a fully wired prediction service: the loaded model and the router
// in front of it.
type App struct {
	Handler  http.Handler
	detector *detections.Detector
}

// New loads the model named by cfg and builds the router in front of it.
// Nothing is served when the weights cannot be loaded.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger.Info("cpu features", zap.Any("features", detections.CPUFeatures()))

	detector, err := detections.Load(detections.Options{
		ModelPath:   cfg.WeightPath,
		LibraryPath: cfg.Runtime.LibraryPath,
		PoolSize:    cfg.Runtime.PoolSize,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	static, err := frontend.FileSystem(cfg.Server.StaticDir)
	if err != nil {
		detector.Close()
		return nil, err
	}

	svc := service.New(detector, logger)
	return &App{
		Handler:  service.NewRouter(service.NewHandler(svc, static, logger)),
		detector: detector,
	}, nil
}

func (a *App) Close() {
	a.detector.Close()
	detections.DestroyRuntime()
}
