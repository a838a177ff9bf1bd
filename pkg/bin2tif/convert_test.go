package bin2tif

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"golang.org/x/image/tiff"
)

// fixture writes a raw capture filled with v and its metadata into dir.
func fixture(t *testing.T, dir string, h, w, n int, v uint8) Request {
	t.Helper()
	raw := bytes.Repeat([]byte{v}, n)
	return Request{
		BinPath:      writeFile(t, dir, "capture.bin", raw),
		MetadataPath: writeFile(t, dir, "capture_metadata.json", []byte(metadataJSON(Vec3{0, 0, 2}, Vec3{}, "[1.0 1.0]", h, w))),
		OutDir:       filepath.Join(dir, "out"),
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	req := fixture(t, dir, 4, 6, 24, 100)

	res, err := NewConverter(DefaultCalibration(), nil).Convert(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.OutputPath != filepath.Join(dir, "out", "capture.tif") {
		t.Errorf("output path = %q", res.OutputPath)
	}
	if res.Height != 4 || res.Width != 6 {
		t.Errorf("raw size = %dx%d, want 4x6", res.Height, res.Width)
	}
	if !(res.BoundingBox.South < res.BoundingBox.North) || !(res.BoundingBox.West < res.BoundingBox.East) {
		t.Errorf("bbox not ordered: %v", res.BoundingBox)
	}
	if res.PreviewPath != "" {
		t.Errorf("unexpected preview %q", res.PreviewPath)
	}

	f, err := os.Open(res.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	// Rotated: the 4x6 capture becomes 6 rows of 4 columns.
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 6 {
		t.Fatalf("decoded %dx%d, want 4 wide 6 high", b.Dx(), b.Dy())
	}
	r, g, b, _ := img.At(1, 2).RGBA()
	if r>>8 != 100 || g>>8 != 100 || b>>8 != 100 {
		t.Errorf("interior pixel = [%d %d %d], want 100s", r>>8, g>>8, b>>8)
	}
}

func TestConvertShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	req := fixture(t, dir, 4, 4, 15, 100)

	_, err := NewConverter(DefaultCalibration(), nil).Convert(context.Background(), req)
	var sm *ShapeMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("got %v, want *ShapeMismatchError", err)
	}
	if sm.Got != 15 {
		t.Errorf("reported %d bytes, want 15", sm.Got)
	}
	if _, err := os.Stat(OutputPath(req.BinPath, req.OutDir)); !os.IsNotExist(err) {
		t.Errorf("output exists after failure: %v", err)
	}
}

func TestProcessBytesOverflowingShape(t *testing.T) {
	n := 1 << (strconv.IntSize / 2)
	md := []byte(metadataJSON(Vec3{0, 0, 2}, Vec3{}, "[1.0 1.0]", n, n))
	_, _, err := NewConverter(DefaultCalibration(), nil).ProcessBytes(context.Background(), nil, md, 0)
	var sm *ShapeMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("got %v, want *ShapeMismatchError", err)
	}
}

func TestConvertOddDimensions(t *testing.T) {
	dir := t.TempDir()
	req := fixture(t, dir, 3, 4, 12, 100)
	_, err := NewConverter(DefaultCalibration(), nil).Convert(context.Background(), req)
	if !errors.Is(err, ErrOddDimensions) {
		t.Errorf("got %v, want ErrOddDimensions", err)
	}
}

func TestConvertBadMetadata(t *testing.T) {
	dir := t.TempDir()
	req := fixture(t, dir, 4, 4, 16, 100)
	writeFile(t, dir, "capture_metadata.json", []byte(`{"lemnatec_measurement_metadata": {}}`))

	_, err := NewConverter(DefaultCalibration(), nil).Convert(context.Background(), req)
	var me *MetadataError
	if !errors.As(err, &me) {
		t.Errorf("got %v, want *MetadataError", err)
	}
}

func TestConvertCanceled(t *testing.T) {
	dir := t.TempDir()
	req := fixture(t, dir, 4, 4, 16, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewConverter(DefaultCalibration(), nil).Convert(ctx, req)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestConvertPreview(t *testing.T) {
	dir := t.TempDir()
	req := fixture(t, dir, 4, 4, 16, 60)

	conv := NewConverter(DefaultCalibration(), nil)
	conv.Preview = true
	res, err := conv.Convert(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.PreviewPath != filepath.Join(dir, "out", "capture_preview.jpg") {
		t.Errorf("preview path = %q", res.PreviewPath)
	}
	f, err := os.Open(res.PreviewPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := jpeg.Decode(f); err != nil {
		t.Errorf("preview is not a JPEG: %v", err)
	}
}

func TestProcessBytesEncode(t *testing.T) {
	raw := bytes.Repeat([]byte{200}, 8*6)
	md := []byte(metadataJSON(Vec3{0, 0, 2}, Vec3{}, "[1.0 1.0]", 8, 6))

	conv := NewConverter(DefaultCalibration(), nil)
	frame, bbox, err := conv.ProcessBytes(context.Background(), raw, md, 0)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := NewResolver(DefaultCalibration()).Resolve(scenarioMetadata(), 0)
	if bbox != want {
		t.Errorf("bbox = %v, want %v", bbox, want)
	}
	data, err := conv.Encode(frame, bbox)
	if err != nil {
		t.Fatal(err)
	}
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Errorf("decoded %dx%d, want 8 wide 6 high", b.Dx(), b.Dy())
	}
}

func TestEncodeEmptyFrame(t *testing.T) {
	_, err := NewConverter(DefaultCalibration(), nil).Encode(ColorFrame{}, testBBox)
	var we *WriteError
	if !errors.As(err, &we) {
		t.Errorf("got %v, want *WriteError", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		bin, dir, want string
	}{
		{"capture.bin", "out", filepath.Join("out", "capture.tif")},
		{"/data/2017-04-27/abc_left.bin", "/tmp/o", "/tmp/o/abc_left.tif"},
		{"noext", "o", filepath.Join("o", "noext.tif")},
		{"a.b.bin", "", "a.b.tif"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.bin, tt.dir); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.bin, tt.dir, got, tt.want)
		}
	}
}

func TestPreviewPath(t *testing.T) {
	if got := PreviewPath("/o/capture.tif"); got != "/o/capture_preview.jpg" {
		t.Errorf("PreviewPath = %q", got)
	}
}
