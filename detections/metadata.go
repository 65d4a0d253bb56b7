package detections

import (
	"fmt"
	"sort"

	ort "github.com/yalue/onnxruntime_go"
	"gopkg.in/yaml.v3"
)

// namesMetadataKey is where ultralytics exports store the class map,
// serialized as a python dict literal such as "{0: 'chassi'}".
const namesMetadataKey = "names"

type modelInfo struct {
	inputName   string
	outputName  string
	inputShape  ort.Shape
	outputShape ort.Shape
	imageSize   int
	layout      outputLayout
	labels      []string
}

func readModelInfo(path string, imageSize int) (*modelInfo, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("read input/output info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, fmt.Errorf("expected 1 input and at least 1 output, got %d and %d", len(inputs), len(outputs))
	}

	labels, err := readLabels(path)
	if err != nil {
		return nil, err
	}

	info, err := resolveShapes(inputs[0].Dimensions, outputs[0].Dimensions, imageSize, len(labels))
	if err != nil {
		return nil, err
	}
	info.inputName = inputs[0].Name
	info.outputName = outputs[0].Name
	info.labels = labels

	return info, nil
}

func readLabels(path string) ([]string, error) {
	meta, err := ort.GetModelMetadata(path)
	if err != nil {
		return nil, fmt.Errorf("read model metadata: %w", err)
	}
	defer meta.Destroy()

	raw, ok, err := meta.LookupCustomMetadataMap(namesMetadataKey)
	if err != nil {
		return nil, fmt.Errorf("lookup %q metadata: %w", namesMetadataKey, err)
	}
	if !ok {
		return nil, nil
	}

	return parseLabels(raw)
}

// parseLabels accepts either an index map ({0: chassi, 1: placa}) or a plain
// list ([chassi, placa]).
func parseLabels(raw string) ([]string, error) {
	byIndex := map[int]string{}
	if err := yaml.Unmarshal([]byte(raw), &byIndex); err == nil {
		return labelsFromIndex(byIndex)
	}

	var list []string
	if err := yaml.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("parse class names %q: %w", raw, err)
	}
	return list, nil
}

func labelsFromIndex(byIndex map[int]string) ([]string, error) {
	if len(byIndex) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(byIndex))
	for id := range byIndex {
		if id < 0 {
			return nil, fmt.Errorf("negative class id %d", id)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	labels := make([]string, ids[len(ids)-1]+1)
	for _, id := range ids {
		labels[id] = byIndex[id]
	}
	return labels, nil
}

// resolveShapes fills dynamic (non-positive) dimensions of an exported YOLOv8
// graph. Input is NCHW with square spatial dims, output is [1, 4+classes, anchors].
func resolveShapes(in, out ort.Shape, imageSize, numLabels int) (*modelInfo, error) {
	if len(in) != 4 {
		return nil, fmt.Errorf("unexpected input rank %d, want 4 (NCHW)", len(in))
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("unexpected output rank %d, want 3", len(out))
	}
	if in[1] > 0 && in[1] != 3 {
		return nil, fmt.Errorf("unexpected input channels %d, want 3", in[1])
	}

	if imageSize <= 0 {
		imageSize = DefaultImageSize
	}
	h, w := in[2], in[3]
	switch {
	case h > 0 && w > 0 && h != w:
		return nil, fmt.Errorf("non-square input %dx%d is not supported", w, h)
	case h > 0:
		imageSize = int(h)
	case w > 0:
		imageSize = int(w)
	}

	channels := out[1]
	if channels <= 0 {
		if numLabels == 0 {
			return nil, fmt.Errorf("output channels are dynamic and the model carries no class names")
		}
		channels = int64(boxChannels + numLabels)
	}
	if channels <= boxChannels {
		return nil, fmt.Errorf("output has %d channels, want more than %d", channels, boxChannels)
	}

	anchors := out[2]
	if anchors <= 0 {
		anchors = int64(anchorCount(imageSize))
	}

	size := int64(imageSize)
	return &modelInfo{
		inputShape:  ort.NewShape(1, 3, size, size),
		outputShape: ort.NewShape(1, channels, anchors),
		imageSize:   imageSize,
		layout: outputLayout{
			numClasses: int(channels) - boxChannels,
			numAnchors: int(anchors),
		},
	}, nil
}
