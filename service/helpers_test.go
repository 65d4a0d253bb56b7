package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/chassi-detect/predict-service/detections"
	"github.com/chassi-detect/predict-service/models"
)

const testModelPath = "yolo_dataset/train_chassi_detect2/weights/best.onnx"

type fakeDetector struct {
	mu         sync.Mutex
	found      []models.Detection
	err        error
	calls      int
	lastBounds image.Rectangle
}

func (f *fakeDetector) Detect(_ context.Context, img image.Image, timings *models.ProcessingTimings) ([]models.Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.lastBounds = img.Bounds()
	timings.Inference = 12 * time.Millisecond
	if f.err != nil {
		return nil, f.err
	}
	return f.found, nil
}

func (f *fakeDetector) ModelPath() string { return testModelPath }

func (f *fakeDetector) Labels() []string { return []string{"chassi"} }

func (f *fakeDetector) Metrics() detections.PoolMetrics {
	return detections.PoolMetrics{Size: 4, TotalAcquired: 7, TotalReleased: 7}
}

func (f *fakeDetector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func chassiDetection() models.Detection {
	return models.Detection{
		Label:      "chassi",
		ClassID:    0,
		Confidence: 0.87,
		BBox:       models.BBox{X1: 10, Y1: 8, X2: 50, Y2: 30},
	}
}

func encodeImage(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()

	img := imaging.New(w, h, color.NRGBA{R: 40, G: 90, B: 160, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}
