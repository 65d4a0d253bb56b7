package detections

const (
	// DefaultImageSize is the square network input the weights were trained at.
	DefaultImageSize = 1024
	ConfThreshold    = 0.25
	IouThreshold     = 0.7
	MaxDetections    = 300
	PadValue         = 114

	boxChannels = 4
)

// anchorCount is the number of YOLOv8 prediction cells for a square input
// over the three detection strides.
func anchorCount(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		side := size / stride
		n += side * side
	}
	return n
}
