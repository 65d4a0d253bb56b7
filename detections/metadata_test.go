package detections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"ultralytics dict", "{0: 'chassi'}", []string{"chassi"}},
		{"unordered dict", "{1: 'placa', 0: 'chassi'}", []string{"chassi", "placa"}},
		{"sparse dict", "{0: chassi, 2: moto}", []string{"chassi", "", "moto"}},
		{"list", "[chassi, placa]", []string{"chassi", "placa"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLabels(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLabelsErrors(t *testing.T) {
	for _, raw := range []string{"{-1: chassi}", "chassi: [unterminated"} {
		_, err := parseLabels(raw)
		assert.Error(t, err, raw)
	}
}

func TestResolveShapesStatic(t *testing.T) {
	info, err := resolveShapes(ort.NewShape(1, 3, 1024, 1024), ort.NewShape(1, 5, 21504), 640, 1)
	require.NoError(t, err)

	assert.Equal(t, 1024, info.imageSize)
	assert.Equal(t, ort.NewShape(1, 3, 1024, 1024), info.inputShape)
	assert.Equal(t, ort.NewShape(1, 5, 21504), info.outputShape)
	assert.Equal(t, outputLayout{numClasses: 1, numAnchors: 21504}, info.layout)
}

func TestResolveShapesDynamic(t *testing.T) {
	info, err := resolveShapes(ort.NewShape(-1, 3, -1, -1), ort.NewShape(-1, -1, -1), DefaultImageSize, 2)
	require.NoError(t, err)

	assert.Equal(t, DefaultImageSize, info.imageSize)
	assert.Equal(t, ort.NewShape(1, 3, 1024, 1024), info.inputShape)
	assert.Equal(t, ort.NewShape(1, 6, 21504), info.outputShape)
	assert.Equal(t, 2, info.layout.numClasses)
}

func TestResolveShapesErrors(t *testing.T) {
	tests := []struct {
		name      string
		in, out   ort.Shape
		numLabels int
	}{
		{"input rank", ort.NewShape(3, 640, 640), ort.NewShape(1, 5, 8400), 1},
		{"output rank", ort.NewShape(1, 3, 640, 640), ort.NewShape(5, 8400), 1},
		{"grayscale input", ort.NewShape(1, 1, 640, 640), ort.NewShape(1, 5, 8400), 1},
		{"non square", ort.NewShape(1, 3, 640, 480), ort.NewShape(1, 5, 6300), 1},
		{"no class channels", ort.NewShape(1, 3, 640, 640), ort.NewShape(1, 4, 8400), 0},
		{"dynamic channels without names", ort.NewShape(1, 3, 640, 640), ort.NewShape(1, -1, 8400), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveShapes(tt.in, tt.out, DefaultImageSize, tt.numLabels)
			assert.Error(t, err)
		})
	}
}
