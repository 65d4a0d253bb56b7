package service

import (
	"bytes"
	"context"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/chassi-detect/predict-service/detections"
	"github.com/chassi-detect/predict-service/models"
)

// MaxImagePixels bounds the decoded size of an upload.
const MaxImagePixels = 64 << 20

// Detector is the loaded model as seen by the request path.
type Detector interface {
	Detect(ctx context.Context, img image.Image, timings *models.ProcessingTimings) ([]models.Detection, error)
	ModelPath() string
	Labels() []string
	Metrics() detections.PoolMetrics
}

// Service validates uploads and dispatches them to the model. It holds no
// per-request state.
type Service struct {
	detector Detector
	logger   *zap.Logger
}

func New(detector Detector, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		detector: detector,
		logger:   logger.Named("service"),
	}
}

type Prediction struct {
	Image      image.Image
	Detections []models.Detection
	Timings    models.ProcessingTimings
}

func (p *Prediction) Response(modelPath string) models.PredictionResponse {
	bounds := p.Image.Bounds()
	return models.PredictionResponse{
		RequestID:   p.Timings.RequestID,
		Detections:  p.Detections,
		Count:       len(p.Detections),
		ImageWidth:  bounds.Dx(),
		ImageHeight: bounds.Dy(),
		InferenceMs: float64(p.Timings.Inference.Microseconds()) / 1000,
		ModelPath:   modelPath,
	}
}

func (s *Service) ModelPath() string { return s.detector.ModelPath() }

// Predict decodes data and runs it through the model. Undecodable input is
// reported as ErrInvalidInput; model failures are returned as they come.
func (s *Service) Predict(ctx context.Context, requestID string, data []byte) (*Prediction, error) {
	startTotal := time.Now()
	timings := models.ProcessingTimings{RequestID: requestID}

	decodeStart := time.Now()
	img, err := decodeImage(data)
	timings.ImageDecode = time.Since(decodeStart)
	if err != nil {
		return nil, err
	}

	found, err := s.detector.Detect(ctx, img, &timings)
	if err != nil {
		s.logger.Error("detect failed", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	if found == nil {
		found = []models.Detection{}
	}

	timings.Total = time.Since(startTotal)
	s.logTimings(&timings, len(found))

	return &Prediction{
		Image:      img,
		Detections: found,
		Timings:    timings,
	}, nil
}

func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, invalidInput("no_file", MsgNoFile, nil)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, invalidInput("invalid_image", MsgInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxImagePixels {
		return nil, invalidInput("invalid_image", MsgInvalidImage, nil)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalidInput("invalid_image", MsgInvalidImage, err)
	}
	return img, nil
}

func (s *Service) logTimings(t *models.ProcessingTimings, found int) {
	s.logger.Debug("processing times",
		zap.String("request_id", t.RequestID),
		zap.Int("detections", found),
		zap.Duration("decode", t.ImageDecode),
		zap.Duration("resize", t.Resize),
		zap.Duration("preprocess", t.Preprocess),
		zap.Duration("inference", t.Inference),
		zap.Duration("postprocess", t.Postprocess),
		zap.Duration("total", t.Total),
	)
}
