package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chassi-detect/predict-service/config"
	"github.com/chassi-detect/predict-service/detections"
)

func TestNewFailsWithoutWeights(t *testing.T) {
	cfg := &config.Config{
		WeightPath: filepath.Join(t.TempDir(), "best.onnx"),
		Runtime:    config.RuntimeConfig{PoolSize: 1},
	}

	application, err := New(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, application)

	var loadErr *detections.ModelLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, cfg.WeightPath, loadErr.Path)
	assert.ErrorIs(t, err, detections.ErrModelNotFound)
}
