package detections

import (
	"fmt"

	"github.com/chassi-detect/predict-service/models"
)

// outputLayout describes a YOLOv8 detection head of shape [1, 4+classes, anchors].
// Rows 0..3 hold cx, cy, w, h in network input pixels; the remaining rows hold
// per-class scores.
type outputLayout struct {
	numClasses int
	numAnchors int
}

func (o outputLayout) size() int {
	return (boxChannels + o.numClasses) * o.numAnchors
}

// decodePredictions extracts every anchor whose best class score reaches
// threshold, mapped back into source image coordinates. Anchors are scanned
// in order so repeated calls over the same tensor yield the same slice.
func decodePredictions(predictions []float32, layout outputLayout, lb letterbox, labels []string, threshold float32) ([]models.Detection, error) {
	if len(predictions) != layout.size() {
		return nil, fmt.Errorf("unexpected predictions length: got %d, want %d", len(predictions), layout.size())
	}

	n := layout.numAnchors
	candidates := make([]models.Detection, 0, 64)

	for i := 0; i < n; i++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < layout.numClasses; c++ {
			score := predictions[(boxChannels+c)*n+i]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestClass < 0 || bestScore < threshold {
			continue
		}

		bbox, ok := calculateBBox(
			predictions[i],     // cx
			predictions[n+i],   // cy
			predictions[2*n+i], // w
			predictions[3*n+i], // h
			lb,
		)
		if !ok {
			continue
		}

		candidates = append(candidates, models.Detection{
			Label:      labelFor(labels, bestClass),
			ClassID:    bestClass,
			Confidence: clampF32(bestScore, 0, 1),
			BBox:       bbox,
		})
	}

	return candidates, nil
}

// calculateBBox converts a center box in network space to corners in source
// space. Boxes that collapse after clipping are rejected.
func calculateBBox(cx, cy, w, h float32, lb letterbox) (models.BBox, bool) {
	x1, y1 := lb.toSource(cx-w/2, cy-h/2)
	x2, y2 := lb.toSource(cx+w/2, cy+h/2)
	if x2 <= x1 || y2 <= y1 {
		return models.BBox{}, false
	}
	return models.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}, true
}

func labelFor(labels []string, classID int) string {
	if classID >= 0 && classID < len(labels) && labels[classID] != "" {
		return labels[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}
