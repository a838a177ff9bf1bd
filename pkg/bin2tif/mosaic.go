package bin2tif

import (
	"image"
	"strings"

	"github.com/pkg/errors"
)

// Pattern identifies a 2x2 Bayer color filter layout, named by reading the
// tile left to right, top to bottom.
type Pattern int

const (
	PatternRGGB Pattern = iota
	PatternBGGR
	PatternGRBG
	PatternGBRG
)

// DefaultPattern is the layout of the gantry RGB camera's BayerGR8 captures:
// red at (even row, odd col), blue at (odd row, even col), green elsewhere.
const DefaultPattern = PatternGRBG

func (p Pattern) String() string {
	switch p {
	case PatternRGGB:
		return "RGGB"
	case PatternBGGR:
		return "BGGR"
	case PatternGRBG:
		return "GRBG"
	case PatternGBRG:
		return "GBRG"
	default:
		return "Unknown"
	}
}

// ParsePattern converts a case-insensitive pattern name to a Pattern.
func ParsePattern(s string) (Pattern, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RGGB":
		return PatternRGGB, nil
	case "BGGR":
		return PatternBGGR, nil
	case "GRBG":
		return PatternGRBG, nil
	case "GBRG":
		return PatternGBRG, nil
	}
	return 0, errors.Errorf("unknown Bayer pattern %q", s)
}

// redSite returns the row and column parity of the red sample in the tile.
// Blue always sits on the opposite parities.
func (p Pattern) redSite() (row, col int) {
	switch p {
	case PatternBGGR:
		return 1, 1
	case PatternGRBG:
		return 0, 1
	case PatternGBRG:
		return 1, 0
	default:
		return 0, 0
	}
}

// Channel is a color plane index in a ColorFrame.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// ChannelAt reports which color the filter passes at pixel (y, x).
func (p Pattern) ChannelAt(y, x int) Channel {
	rr, rc := p.redSite()
	yr, xr := y&1, x&1
	switch {
	case yr == rr && xr == rc:
		return Red
	case yr != rr && xr != rc:
		return Blue
	default:
		return Green
	}
}

// Mosaic is one raw single-channel sensor exposure, row-major.
type Mosaic struct {
	Height int
	Width  int
	Pix    []uint8
}

// NewMosaic wraps pix as a height x width mosaic. The byte count must match
// the declared shape exactly. The check divides rather than multiplies so
// declared dimensions whose product overflows int are rejected.
func NewMosaic(pix []uint8, height, width int) (Mosaic, error) {
	if height <= 0 || width <= 0 || len(pix)%width != 0 || len(pix)/width != height {
		return Mosaic{}, &ShapeMismatchError{Got: len(pix), Height: height, Width: width}
	}
	return Mosaic{Height: height, Width: width, Pix: pix}, nil
}

func (m Mosaic) At(y, x int) uint8 { return m.Pix[y*m.Width+x] }

// ColorFrame is a demosaiced image with interleaved R, G, B samples.
type ColorFrame struct {
	Height int
	Width  int
	Pix    []uint8
}

func NewColorFrame(height, width int) ColorFrame {
	return ColorFrame{Height: height, Width: width, Pix: make([]uint8, height*width*3)}
}

func (f ColorFrame) At(y, x int) (r, g, b uint8) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

func (f ColorFrame) Set(y, x int, r, g, b uint8) {
	i := (y*f.Width + x) * 3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

// RGBA copies the frame into an opaque image.RGBA.
func (f ColorFrame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i < len(f.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f.Pix[i]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
