package bin2tif

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"bin2tif/pkg/logger"
)

// DefaultOutDir is used when a Request leaves OutDir empty.
const DefaultOutDir = "bin2tif_out"

// Request names the inputs of one conversion.
type Request struct {
	BinPath      string
	MetadataPath string
	ZOffset      float64 // meters
	OutDir       string
}

// Result describes a completed conversion.
type Result struct {
	OutputPath  string
	PreviewPath string
	BoundingBox BoundingBox
	Height      int // raw image rows, before rotation
	Width       int
	Elapsed     time.Duration
}

// Converter runs the raw-to-GeoTIFF pipeline: resolve the bounding box,
// load and demosaic the capture, rotate it into raster orientation, write.
type Converter struct {
	Resolver *Resolver
	Writer   RasterWriter
	Pattern  Pattern
	Preview  bool // also write a labelled JPEG quicklook
	Log      logger.ILogger
}

// NewConverter returns a Converter with the Scanalyzer transform for cal,
// a compressing GeoTIFF writer and the rig's default pattern.
func NewConverter(cal Calibration, log logger.ILogger) *Converter {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Converter{
		Resolver: NewResolver(cal),
		Writer:   GeoTIFFWriter{Compress: true, Software: "bin2tif"},
		Pattern:  DefaultPattern,
		Log:      log,
	}
}

// OutputPath returns where the GeoTIFF for binPath lands inside outDir.
func OutputPath(binPath, outDir string) string {
	base := filepath.Base(binPath)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".tif"
	return filepath.Join(outDir, base)
}

// Convert performs one conversion. Nothing is left at the output path unless
// the whole raster was written.
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	outDir := req.OutDir
	if outDir == "" {
		outDir = DefaultOutDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}

	bbox, height, width, err := c.Resolver.GetBoundingBox(req.MetadataPath, req.ZOffset)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving bounding box from %s", req.MetadataPath)
	}
	c.Log.Debugf("Bounding box: %v, raw size %dx%d", bbox, width, height)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(req.BinPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading raw capture")
	}

	frame, err := c.process(ctx, raw, height, width)
	if err != nil {
		return nil, errors.Wrapf(err, "processing %s", req.BinPath)
	}

	outPath := OutputPath(req.BinPath, outDir)
	if err := c.Writer.Write(frame, bbox, outPath); err != nil {
		return nil, err
	}

	res := &Result{
		OutputPath:  outPath,
		BoundingBox: bbox,
		Height:      height,
		Width:       width,
	}
	if c.Preview {
		res.PreviewPath = PreviewPath(outPath)
		if err := RenderPreview(frame, bbox, res.PreviewPath); err != nil {
			return nil, errors.Wrap(err, "rendering preview")
		}
	}
	res.Elapsed = time.Since(start)
	c.Log.Infof("Wrote %s (%.2fs)", outPath, res.Elapsed.Seconds())
	return res, nil
}

// process reshapes, demosaics and rotates one raw capture.
func (c *Converter) process(ctx context.Context, raw []uint8, height, width int) (ColorFrame, error) {
	m, err := NewMosaic(raw, height, width)
	if err != nil {
		return ColorFrame{}, err
	}
	if height%2 != 0 || width%2 != 0 {
		return ColorFrame{}, errors.Wrapf(ErrOddDimensions, "%dx%d", width, height)
	}

	demosaicStart := time.Now()
	frame := Demosaic(m, c.Pattern)
	c.Log.Debugf("Demosaic (%s): %.2fs", c.Pattern, time.Since(demosaicStart).Seconds())

	if err := ctx.Err(); err != nil {
		return ColorFrame{}, err
	}
	return Rotate90(frame)
}

// ProcessBytes resolves the bounding box and builds the rotated color frame
// from in-memory inputs.
func (c *Converter) ProcessBytes(ctx context.Context, raw, metadataJSON []byte, zOffset float64) (ColorFrame, BoundingBox, error) {
	md, err := ParseMetadata(metadataJSON)
	if err != nil {
		return ColorFrame{}, BoundingBox{}, err
	}
	bbox, err := c.Resolver.Resolve(md, zOffset)
	if err != nil {
		return ColorFrame{}, BoundingBox{}, err
	}
	frame, err := c.process(ctx, raw, md.Height, md.Width)
	if err != nil {
		return ColorFrame{}, BoundingBox{}, err
	}
	return frame, bbox, nil
}

// Encode returns frame as GeoTIFF bytes using the converter's writer
// settings. Writers other than GeoTIFFWriter fall back to a compressing
// GeoTIFFWriter.
func (c *Converter) Encode(frame ColorFrame, bbox BoundingBox) ([]byte, error) {
	enc, ok := c.Writer.(GeoTIFFWriter)
	if !ok {
		enc = GeoTIFFWriter{Compress: true, Software: "bin2tif"}
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, frame, bbox); err != nil {
		return nil, &WriteError{Path: "<memory>", Err: err}
	}
	return buf.Bytes(), nil
}

// Rotate90 turns f a quarter turn counterclockwise: the pixel at (y, x) moves
// to (Width-1-x, y) and the result is Width rows by Height columns.
func Rotate90(f ColorFrame) (ColorFrame, error) {
	pix, err := rotate90CCW(f.Pix, f.Height, f.Width)
	if err != nil {
		return ColorFrame{}, errors.Wrap(err, "rotating frame")
	}
	return ColorFrame{Height: f.Width, Width: f.Height, Pix: pix}, nil
}
