package detections

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chassi-detect/predict-service/models"
)

// Options configures Load. An empty LibraryPath keeps the onnxruntime default.
type Options struct {
	ModelPath   string
	LibraryPath string
	PoolSize    int
	Logger      *zap.Logger
}

// Detector is the loaded model. Everything except the session pool is fixed
// at Load time, and Detect may be called from many goroutines at once.
type Detector struct {
	modelPath    string
	labels       []string
	imageSize    int
	layout       outputLayout
	pool         *SessionPool
	preprocessor *Preprocessor
	buffers      sync.Pool
	logger       *zap.Logger
}

// Load opens the weight file at opts.ModelPath, initializing the runtime on
// first use. Every failure is reported as a *ModelLoadError.
func Load(opts Options) (*Detector, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("detector")

	if err := checkModelFile(opts.ModelPath); err != nil {
		return nil, &ModelLoadError{Path: opts.ModelPath, Cause: err}
	}
	if err := InitRuntime(opts.LibraryPath); err != nil {
		return nil, &ModelLoadError{Path: opts.ModelPath, Cause: err}
	}

	info, err := readModelInfo(opts.ModelPath, DefaultImageSize)
	if err != nil {
		return nil, &ModelLoadError{Path: opts.ModelPath, Cause: err}
	}

	cfg := sessionConfig{
		modelPath:   opts.ModelPath,
		inputName:   info.inputName,
		outputName:  info.outputName,
		inputShape:  info.inputShape,
		outputShape: info.outputShape,
		threads:     sessionThreads(opts.PoolSize),
	}
	pool, err := NewSessionPool(opts.PoolSize, func() (*ModelSession, error) {
		return newModelSession(cfg)
	})
	if err != nil {
		return nil, &ModelLoadError{Path: opts.ModelPath, Cause: err}
	}

	logger.Info("model loaded",
		zap.String("path", opts.ModelPath),
		zap.Strings("labels", info.labels),
		zap.Int("image_size", info.imageSize),
		zap.String("input", info.inputName),
		zap.String("output", info.outputName),
		zap.Int64s("output_shape", []int64(info.outputShape)),
		zap.Int("pool_size", pool.size),
	)

	return newDetector(opts.ModelPath, info, pool, logger), nil
}

func newDetector(modelPath string, info *modelInfo, pool *SessionPool, logger *zap.Logger) *Detector {
	tensorSize := 3 * info.imageSize * info.imageSize
	return &Detector{
		modelPath:    modelPath,
		labels:       info.labels,
		imageSize:    info.imageSize,
		layout:       info.layout,
		pool:         pool,
		preprocessor: NewPreprocessor(info.imageSize),
		buffers: sync.Pool{
			New: func() interface{} {
				buf := make([]float32, tensorSize)
				return &buf
			},
		},
		logger: logger,
	}
}

func checkModelFile(path string) error {
	if path == "" {
		return ErrModelNotFound
	}
	stat, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrModelNotFound
	}
	if err != nil {
		return err
	}
	if stat.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if stat.Size() == 0 {
		return errors.New("model file is empty")
	}
	return nil
}

func (d *Detector) ModelPath() string { return d.modelPath }

func (d *Detector) Labels() []string {
	out := make([]string, len(d.labels))
	copy(out, d.labels)
	return out
}

func (d *Detector) Metrics() PoolMetrics { return d.pool.Metrics() }

// Detect runs one image through the model. Detections are in img's pixel
// space, ordered by descending confidence. timings may be nil.
func (d *Detector) Detect(ctx context.Context, img image.Image, timings *models.ProcessingTimings) ([]models.Detection, error) {
	if timings == nil {
		timings = &models.ProcessingTimings{}
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &InferenceError{Message: "empty image"}
	}

	resizeStart := time.Now()
	lb := newLetterbox(bounds.Dx(), bounds.Dy(), d.imageSize)
	canvas := lb.apply(img)
	timings.Resize = time.Since(resizeStart)

	prepStart := time.Now()
	buf := d.buffers.Get().(*[]float32)
	defer d.buffers.Put(buf)
	d.preprocessor.Process(canvas, *buf)
	timings.Preprocess = time.Since(prepStart)

	session, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	inferStart := time.Now()
	copy(session.Input, *buf)
	if err := session.Run(); err != nil {
		d.pool.Discard(session)
		return nil, &InferenceError{Message: "model inference", Cause: err}
	}
	timings.Inference = time.Since(inferStart)

	postStart := time.Now()
	candidates, err := decodePredictions(session.Output, d.layout, lb, d.labels, ConfThreshold)
	d.pool.Release(session)
	if err != nil {
		return nil, &InferenceError{Message: "process predictions", Cause: err}
	}
	detections := nonMaxSuppression(candidates, IouThreshold, MaxDetections)
	timings.Postprocess = time.Since(postStart)

	d.logger.Debug("detect",
		zap.String("request_id", timings.RequestID),
		zap.Int("candidates", len(candidates)),
		zap.Int("detections", len(detections)),
	)

	return detections, nil
}

func (d *Detector) Close() {
	d.pool.Destroy()
}
