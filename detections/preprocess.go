package detections

import (
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
)

// letterbox maps between source image space and the padded square network input.
type letterbox struct {
	size       int
	scale      float32
	newW, newH int
	padX, padY int
	srcW, srcH int
}

func newLetterbox(srcW, srcH, size int) letterbox {
	scale := min(float32(size)/float32(srcW), float32(size)/float32(srcH))
	newW := clampInt(int(math.Round(float64(float32(srcW)*scale))), 1, size)
	newH := clampInt(int(math.Round(float64(float32(srcH)*scale))), 1, size)

	return letterbox{
		size:  size,
		scale: scale,
		newW:  newW,
		newH:  newH,
		padX:  (size - newW) / 2,
		padY:  (size - newH) / 2,
		srcW:  srcW,
		srcH:  srcH,
	}
}

// apply resizes img keeping its aspect ratio and centers it on a gray canvas.
func (l letterbox) apply(img image.Image) *image.NRGBA {
	canvas := imaging.New(l.size, l.size, color.NRGBA{R: PadValue, G: PadValue, B: PadValue, A: 255})
	resized := imaging.Resize(img, l.newW, l.newH, imaging.Linear)
	return imaging.Paste(canvas, resized, image.Pt(l.padX, l.padY))
}

// toSource converts a point in network input space back to source pixels,
// clipped to the source bounds.
func (l letterbox) toSource(x, y float32) (float32, float32) {
	sx := (x - float32(l.padX)) / l.scale
	sy := (y - float32(l.padY)) / l.scale
	return clampF32(sx, 0, float32(l.srcW)), clampF32(sy, 0, float32(l.srcH))
}

// Preprocessor turns a letterboxed image into a planar RGB tensor in [0,1].
type Preprocessor struct {
	size       int
	numWorkers int
}

func NewPreprocessor(size int) *Preprocessor {
	return &Preprocessor{
		size:       size,
		numWorkers: runtime.GOMAXPROCS(0),
	}
}

// Process fills dst (len 3*size*size) from img, splitting rows across workers.
func (p *Preprocessor) Process(img *image.NRGBA, dst []float32) {
	channelSize := p.size * p.size
	workers := clampInt(p.numWorkers, 1, p.size)
	rowsPerWorker := p.size / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		startRow := w * rowsPerWorker
		endRow := (w + 1) * rowsPerWorker
		if w == workers-1 {
			endRow = p.size
		}

		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				src := img.Pix[y*img.Stride:]
				offset := y * p.size
				for x := 0; x < p.size; x++ {
					i := offset + x
					px := src[x*4 : x*4+3]
					dst[i] = float32(px[0]) / 255.0
					dst[channelSize+i] = float32(px[1]) / 255.0
					dst[channelSize*2+i] = float32(px[2]) / 255.0
				}
			}
		}(startRow, endRow)
	}

	wg.Wait()
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampF32(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
