package detections

import (
	"sort"

	"github.com/chassi-detect/predict-service/models"
)

func calculateIOU(box1, box2 models.BBox) float32 {
	x1 := max(box1.X1, box2.X1)
	y1 := max(box1.Y1, box2.Y1)
	x2 := min(box1.X2, box2.X2)
	y2 := min(box1.Y2, box2.Y2)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := box1.Area() + box2.Area() - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}

// nonMaxSuppression keeps the highest scoring box of every overlapping group
// within the same class. The result is ordered by descending confidence and
// holds at most limit entries.
func nonMaxSuppression(candidates []models.Detection, iouThreshold float32, limit int) []models.Detection {
	if len(candidates) == 0 {
		return []models.Detection{}
	}

	sorted := make([]models.Detection, len(candidates))
	copy(sorted, candidates)
	sortDetectionsByConfidence(sorted)

	kept := make([]models.Detection, 0, min(len(sorted), limit))
	suppressed := make([]bool, len(sorted))

	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		if len(kept) == limit {
			break
		}
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].ClassID != sorted[i].ClassID {
				continue
			}
			if calculateIOU(sorted[i].BBox, sorted[j].BBox) > iouThreshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}

// sortDetectionsByConfidence orders by descending confidence; ties keep
// their input order so the output is stable per call.
func sortDetectionsByConfidence(detections []models.Detection) {
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
}
