package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/chassi-detect/predict-service/models"
)

const annotatedJPEGQuality = 90

var boxPalette = []color.NRGBA{
	{R: 255, G: 56, B: 56, A: 255},
	{R: 255, G: 157, B: 151, A: 255},
	{R: 255, G: 112, B: 31, A: 255},
	{R: 255, G: 178, B: 29, A: 255},
	{R: 207, G: 210, B: 49, A: 255},
	{R: 72, G: 249, B: 10, A: 255},
	{R: 26, G: 147, B: 52, A: 255},
	{R: 0, G: 212, B: 187, A: 255},
}

// annotate returns a JPEG of img with every detection outlined and labelled.
func annotate(img image.Image, found []models.Detection) ([]byte, error) {
	canvas := drawDetections(img, found)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(annotatedJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode annotated image: %w", err)
	}
	return buf.Bytes(), nil
}

func drawDetections(img image.Image, found []models.Detection) *image.NRGBA {
	canvas := imaging.Clone(img)
	bounds := canvas.Bounds()
	thickness := max(2, min(bounds.Dx(), bounds.Dy())/300)

	for _, det := range found {
		c := boxPalette[det.ClassID%len(boxPalette)]
		rect := image.Rect(int(det.BBox.X1), int(det.BBox.Y1), int(det.BBox.X2), int(det.BBox.Y2))
		drawRect(canvas, rect, thickness, c)
		drawLabel(canvas, fmt.Sprintf("%s %.2f", det.Label, det.Confidence), rect, c)
	}
	return canvas
}

func drawRect(dst draw.Image, rect image.Rectangle, thickness int, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thickness),
		image.Rect(rect.Min.X, rect.Max.Y-thickness, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thickness, rect.Max.Y),
		image.Rect(rect.Max.X-thickness, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, edge := range edges {
		draw.Draw(dst, edge.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabel writes text on a filled tag above the box, or inside it when the
// box touches the top edge.
func drawLabel(dst draw.Image, text string, box image.Rectangle, c color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil() + 4
	height := face.Height + 2

	top := box.Min.Y - height
	if top < dst.Bounds().Min.Y {
		top = box.Min.Y
	}
	tag := image.Rect(box.Min.X, top, box.Min.X+width, top+height)
	draw.Draw(dst, tag.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(tag.Min.X+2, tag.Min.Y+face.Ascent+1),
	}
	d.DrawString(text)
}
