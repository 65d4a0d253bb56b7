package models

import "time"

// BBox is an axis-aligned box in original image pixel coordinates.
type BBox struct {
	X1 float32 `json:"x1"`
	Y1 float32 `json:"y1"`
	X2 float32 `json:"x2"`
	Y2 float32 `json:"y2"`
}

func (b BBox) Width() float32  { return b.X2 - b.X1 }
func (b BBox) Height() float32 { return b.Y2 - b.Y1 }
func (b BBox) Area() float32   { return b.Width() * b.Height() }

type Detection struct {
	Label      string  `json:"label"`
	ClassID    int     `json:"class_id"`
	Confidence float32 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

type PredictionResponse struct {
	RequestID   string      `json:"request_id"`
	Detections  []Detection `json:"detections"`
	Count       int         `json:"count"`
	ImageWidth  int         `json:"image_width"`
	ImageHeight int         `json:"image_height"`
	InferenceMs float64     `json:"inference_ms"`
	ModelPath   string      `json:"model_path"`
}

type ProcessingTimings struct {
	RequestID   string
	ImageDecode time.Duration
	Resize      time.Duration
	Preprocess  time.Duration
	Inference   time.Duration
	Postprocess time.Duration
	Total       time.Duration
}
