package bin2tif

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PreviewPath returns the quicklook path that sits next to a GeoTIFF.
func PreviewPath(tifPath string) string {
	return strings.TrimSuffix(tifPath, filepath.Ext(tifPath)) + "_preview.jpg"
}

// RenderPreview writes a downscaled JPEG of frame with its corner
// coordinates labelled.
func RenderPreview(frame ColorFrame, bbox BoundingBox, outputPath string) error {
	data, err := RenderPreviewBytes(frame, bbox)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return errors.Wrap(err, "writing preview file")
	}
	return nil
}

func RenderPreviewBytes(frame ColorFrame, bbox BoundingBox) ([]byte, error) {
	img, err := renderPreviewImage(frame, bbox)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, errors.Wrap(err, "encoding preview")
	}
	return buf.Bytes(), nil
}

// renderPreviewImage creates the preview in memory.
func renderPreviewImage(frame ColorFrame, bbox BoundingBox) (*image.RGBA, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, errors.New("no frame data")
	}

	// Render at reduced resolution (800px wide, proportional height)
	const targetWidth = 800
	step := 1
	for frame.Width/step > targetWidth {
		step++
	}
	imgW := (frame.Width + step - 1) / step
	imgH := (frame.Height + step - 1) / step

	img := image.NewRGBA(image.Rect(0, 0, imgW, imgH))
	for y := 0; y < imgH; y++ {
		for x := 0; x < imgW; x++ {
			r, g, b := frame.At(y*step, x*step)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}

	face := basicfont.Face7x13
	fg := color.RGBA{R: 255, G: 255, B: 0, A: 255}
	bg := color.RGBA{A: 200}
	const margin = 4
	ascent := face.Metrics().Ascent.Ceil()
	descent := face.Metrics().Descent.Ceil()

	nw := fmt.Sprintf("%.6f, %.6f", bbox.North, bbox.West)
	se := fmt.Sprintf("%.6f, %.6f", bbox.South, bbox.East)
	seWidth := font.MeasureString(face, se).Ceil()

	drawLabel(img, face, nw, margin, margin+ascent, fg, bg)
	drawLabel(img, face, se, imgW-margin-seWidth, imgH-margin-descent, fg, bg)
	return img, nil
}

// drawLabel draws s with its baseline at (x, y) over a filled backdrop.
func drawLabel(img *image.RGBA, face font.Face, s string, x, y int, fg, bg color.RGBA) {
	m := face.Metrics()
	w := font.MeasureString(face, s).Ceil()
	box := image.Rect(x-2, y-m.Ascent.Ceil()-1, x+w+2, y+m.Descent.Ceil()+1).Intersect(img.Bounds())
	for py := box.Min.Y; py < box.Max.Y; py++ {
		for px := box.Min.X; px < box.Max.X; px++ {
			img.SetRGBA(px, py, blend(img.RGBAAt(px, py), bg))
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func blend(dst, src color.RGBA) color.RGBA {
	a := uint32(src.A)
	mix := func(d, s uint8) uint8 {
		return uint8((uint32(d)*(255-a) + uint32(s)*a) / 255)
	}
	return color.RGBA{R: mix(dst.R, src.R), G: mix(dst.G, src.G), B: mix(dst.B, src.B), A: 255}
}
